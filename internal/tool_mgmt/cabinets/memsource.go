package cabinets

import (
	"context"

	"KCMS-gateway/internal/platform/apierr"
)

var ErrCabinetNotFound = apierr.ErrNotFound("cabinet not found")

// MemSource: モックモード用の固定マスタ
type MemSource struct {
	items []Cabinet
}

func NewMemSource(items ...Cabinet) *MemSource {
	return &MemSource{items: items}
}

// DefaultCabinets: 共用庫1つと個人庫1つ
func DefaultCabinets() []Cabinet {
	return []Cabinet{
		{Code: "CAB-SHARED-01", Name: "一号共用刀具柜", Type: "shared", LocList: []string{"A1-01", "A1-02", "A1-03", "A1-04"}},
		{Code: "CAB-SHARED-02", Name: "二号共用刀具柜", Type: "shared", LocList: []string{"B1-01", "B1-02"}},
		{Code: "CAB-PERSONAL-E1003", Name: "王强个人柜", Type: "personal", LocList: []string{"P-01"}},
	}
}

func (s *MemSource) List(context.Context) ([]Cabinet, error) {
	out := make([]Cabinet, len(s.items))
	for i, c := range s.items {
		out[i] = c
		out[i].LocList = append([]string(nil), c.LocList...)
	}
	return out, nil
}

func (s *MemSource) Get(_ context.Context, code string) (*Cabinet, error) {
	for _, c := range s.items {
		if c.Code == code {
			cp := c
			cp.LocList = append([]string(nil), c.LocList...)
			return &cp, nil
		}
	}
	return nil, ErrCabinetNotFound
}
