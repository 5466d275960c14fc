package records

import (
	"context"
	"strings"
	"time"
)

// Repository は貸出レコードの保存先（メモリ / MySQL / MES）
type Repository interface {
	Get(ctx context.Context, id int64) (*Record, error)
	List(ctx context.Context, f Filter, p Page) ([]Record, int64, error)
	// Update: 保存先の状態が expect のときだけ書き込む。違えば ErrStatusChanged
	Update(ctx context.Context, r *Record, expect Status) error
}

// 一覧の検索条件
type Filter struct {
	Kind     Kind // 空なら全種別
	UserCode string
	Statuses []Status
	Code     string // 完全一致
	Keyword  string // code / brand / model の部分一致
	From     *time.Time
	To       *time.Time
}

// Match: メモリ上での絞り込み
func (f Filter) Match(r *Record) bool {
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.UserCode != "" && NormalizeUserCode(r.UserCode) != NormalizeUserCode(f.UserCode) {
		return false
	}
	if len(f.Statuses) > 0 {
		hit := false
		for _, st := range f.Statuses {
			if r.Status == st {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if f.Code != "" && r.Code != f.Code {
		return false
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		if !strings.Contains(r.Code, kw) && !strings.Contains(r.Brand, kw) && !strings.Contains(r.Model, kw) {
			return false
		}
	}
	if f.From != nil && r.LendAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !r.LendAt.Before(*f.To) {
		return false
	}
	return true
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 500
)

// Page: pageNum は 1 始まり
type Page struct {
	Num  int
	Size int
}

func (p Page) Normalize() Page {
	if p.Num <= 0 {
		p.Num = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Num - 1) * p.Size
}

// Bounds: [ (page-1)*size : page*size ] を n 件のスライスに収まるよう切り詰める
func (p Page) Bounds(n int) (lo, hi int) {
	p = p.Normalize()
	lo = (p.Num - 1) * p.Size
	hi = p.Num * p.Size
	if lo > n {
		lo = n
	}
	if hi > n {
		hi = n
	}
	return lo, hi
}
