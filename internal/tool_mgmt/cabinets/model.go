package cabinets

import "context"

// Cabinet: 刀具庫と、その中の格納位置（locList）
type Cabinet struct {
	Code    string   `json:"cabinetCode"`
	Name    string   `json:"cabinetName"`
	Type    string   `json:"cabinetType,omitempty"` // shared / personal
	LocList []string `json:"locList"`
}

// Source: 刀具庫一覧の取得元（MES またはモック）
type Source interface {
	List(ctx context.Context) ([]Cabinet, error)
	Get(ctx context.Context, code string) (*Cabinet, error)
}
