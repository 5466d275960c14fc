package mes

import (
	"fmt"
	"os"
	"strings"
)

// TokenEnv: Bearer トークンの環境変数名
const TokenEnv = "MES_TOKEN"

// ResolveToken: 環境変数 -> 設定値 -> トークンファイルの順に探す
func ResolveToken(literal, file string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(TokenEnv)); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(literal); v != "" {
		return v, nil
	}
	if file == "" {
		return "", nil
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
