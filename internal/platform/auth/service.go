package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAuthFailed      = errors.New("authentication failed")
	ErrAccountDisabled = errors.New("account disabled")
)

// ロール名（パス接頭辞ごとの利用者）
const (
	RoleAdmin      = "admin"
	RoleAuditor    = "auditor"
	RoleOperator   = "operator"
	RoleTeamLeader = "teamleader"
)

type Clock func() time.Time

type Service struct {
	store  AccountStore
	secret []byte
	ttl    time.Duration
	now    Clock
}

func NewService(store AccountStore, secret []byte, ttl time.Duration) *Service {
	return &Service{store: store, secret: secret, ttl: ttl, now: time.Now}
}

func (s *Service) Secret() []byte { return s.secret }

// Login: パスワード照合のうえ HS256 の JWT（sub=社員コード, role）を発行
func (s *Service) Login(ctx context.Context, id, password string) (string, error) {
	acct, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if acct == nil {
		return "", ErrAuthFailed
	}
	if acct.IsDisabled {
		return "", ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", ErrAuthFailed
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  acct.ID,
		"role": acct.Role,
		"exp":  s.now().Add(s.ttl).Unix(),
	})
	return token.SignedString(s.secret)
}
