package lendrecords

import (
	"context"
	"errors"
	"strings"
	"time"

	"KCMS-gateway/internal/platform/apierr"
	"KCMS-gateway/internal/platform/logging"
	"KCMS-gateway/internal/tool_mgmt/cabinets"
	"KCMS-gateway/internal/tool_mgmt/records"
)

// Exporter: 上流のエクスポート API（MES 設定時のみ）
type Exporter interface {
	ExportRecords(ctx context.Context, f records.Filter) ([]byte, string, error)
}

type Service struct {
	repo     records.Repository
	exporter Exporter        // nil ならローカルで CSV を組み立てる
	cabinets cabinets.Source // nil なら庫位の照合を省く
	now      func() time.Time
}

func NewService(repo records.Repository, exporter Exporter, src cabinets.Source) *Service {
	return &Service{repo: repo, exporter: exporter, cabinets: src, now: time.Now}
}

func (s *Service) List(ctx context.Context, f records.Filter, p records.Page) (*ListResult, error) {
	p = p.Normalize()
	rows, total, err := s.repo.List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []records.Record{}
	}
	return &ListResult{Rows: rows, Total: total, PageNum: p.Num, PageSize: p.Size}, nil
}

func (s *Service) Get(ctx context.Context, id int64, kind records.Kind) (*records.Record, error) {
	if id <= 0 {
		return nil, apierr.ErrInvalid("id must be > 0")
	}
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if kind != "" && r.Kind != "" && r.Kind != kind {
		return nil, records.ErrRecordNotFound
	}
	return r, nil
}

// Return: 単体返却。本人かつ返却可能な状態のみ
func (s *Service) Return(ctx context.Context, id int64, in ReturnRequest) (*records.Record, error) {
	if id <= 0 {
		return nil, apierr.ErrInvalid("id must be > 0")
	}
	if in.Quantity <= 0 {
		return nil, apierr.ErrInvalid("quantity must be > 0")
	}
	if strings.TrimSpace(in.OperateUser) == "" {
		return nil, apierr.ErrInvalid("operateUser is required")
	}

	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Quantity > r.Quantity {
		return nil, apierr.ErrInvalid("quantity exceeds lent quantity")
	}
	prev := r.Status
	if err := r.Return(in.OperateUser, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r, prev); err != nil {
		// 読んだ後に別の返却が先に通った
		if errors.Is(err, records.ErrStatusChanged) {
			return nil, records.ErrNotReturnable
		}
		return nil, err
	}
	logging.FromContext(ctx).WithField("id", id).Info("lend record returned")
	return r, nil
}

// TempStore: 刀具庫に一時保管する
func (s *Service) TempStore(ctx context.Context, id int64, in TempStoreRequest) (*records.Record, error) {
	if id <= 0 {
		return nil, apierr.ErrInvalid("id must be > 0")
	}
	in.OperateUser = strings.TrimSpace(in.OperateUser)
	in.CabinetCode = strings.TrimSpace(in.CabinetCode)
	in.LocationCode = strings.TrimSpace(in.LocationCode)
	if in.OperateUser == "" || in.CabinetCode == "" || in.LocationCode == "" {
		return nil, apierr.ErrInvalid("operateUser, cabinetCode and locationCode are required")
	}
	if err := s.checkLocation(ctx, in.CabinetCode, in.LocationCode); err != nil {
		return nil, err
	}

	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := r.Status
	if err := r.TempStore(in.OperateUser, in.CabinetCode, in.LocationCode, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r, prev); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) checkLocation(ctx context.Context, cabinet, loc string) error {
	if s.cabinets == nil {
		return nil
	}
	cab, err := s.cabinets.Get(ctx, cabinet)
	if err != nil {
		if apierr.Is(err, apierr.CodeNotFound) {
			return apierr.ErrInvalid("unknown cabinetCode: " + cabinet)
		}
		return err
	}
	for _, l := range cab.LocList {
		if l == loc {
			return nil
		}
	}
	return apierr.ErrInvalid("location " + loc + " does not belong to cabinet " + cabinet)
}
