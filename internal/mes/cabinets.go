package mes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"KCMS-gateway/internal/platform/apierr"
	"KCMS-gateway/internal/tool_mgmt/cabinets"
)

// CabinetSource: MES の刀具庫マスタ
type CabinetSource struct {
	c *Client
}

func NewCabinetSource(c *Client) *CabinetSource { return &CabinetSource{c: c} }

func (s *CabinetSource) List(ctx context.Context) ([]cabinets.Cabinet, error) {
	env, err := s.c.Call(ctx, "cabinet.list", http.MethodGet, "/cabinet/list", nil, nil)
	if err != nil {
		return nil, err
	}
	out := []cabinets.Cabinet{}
	if !env.HasData() {
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, apierr.ErrUpstream("malformed cabinet list: " + err.Error())
	}
	return out, nil
}

func (s *CabinetSource) Get(ctx context.Context, code string) (*cabinets.Cabinet, error) {
	env, err := s.c.Call(ctx, "cabinet.get", http.MethodGet, "/cabinet/"+url.PathEscape(code), nil, nil)
	if err != nil {
		return nil, err
	}
	if !env.HasData() {
		return nil, cabinets.ErrCabinetNotFound
	}
	var cab cabinets.Cabinet
	if err := json.Unmarshal(env.Data, &cab); err != nil {
		return nil, apierr.ErrUpstream("malformed cabinet: " + err.Error())
	}
	return &cab, nil
}
