package auth

import (
	"context"
	"database/sql"
	"errors"

	"KCMS-gateway/internal/platform/config"
)

type Account struct {
	ID           string
	PasswordHash string
	Role         string
	IsDisabled   bool
}

type AccountStore interface {
	GetByID(ctx context.Context, id string) (*Account, error)
}

// ConfigStore: config.yaml の auth.accounts を参照する
type ConfigStore struct {
	accounts map[string]Account
}

func NewConfigStore(list []config.Account) *ConfigStore {
	m := make(map[string]Account, len(list))
	for _, a := range list {
		m[a.ID] = Account{ID: a.ID, PasswordHash: a.PasswordHash, Role: a.Role, IsDisabled: a.Disabled}
	}
	return &ConfigStore{accounts: m}
}

func (s *ConfigStore) GetByID(_ context.Context, id string) (*Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// SQLStore: auth_accounts テーブル（MySQL 設定時）
type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) GetByID(ctx context.Context, id string) (*Account, error) {
	const q = `
SELECT id, password_hash, role, is_disabled
FROM auth_accounts
WHERE id = ?
LIMIT 1
`
	var a Account
	var isDisabledInt int
	err := s.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.PasswordHash, &a.Role, &isDisabledInt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.IsDisabled = isDisabledInt != 0
	return &a, nil
}

// ChainStore: 先に見つかったものを返す（設定ファイル -> DB）
type ChainStore []AccountStore

func (c ChainStore) GetByID(ctx context.Context, id string) (*Account, error) {
	for _, s := range c {
		a, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if a != nil {
			return a, nil
		}
	}
	return nil, nil
}
