package returns

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	ulid "github.com/oklog/ulid/v2"

	"KCMS-gateway/internal/platform/apierr"
	"KCMS-gateway/internal/platform/logging"
	"KCMS-gateway/internal/platform/metrics"
	"KCMS-gateway/internal/tool_mgmt/cabinets"
	"KCMS-gateway/internal/tool_mgmt/records"
)

// -------------- Clock & ID --------------

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface{ NewULID(t time.Time) string }
type ulidGen struct{}

func (ulidGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// -------------- Service --------------

type Service struct {
	// 同一インスタンス内で一括返却を直列化する
	mu       sync.Mutex
	repo     records.Repository
	cabinets cabinets.Source // nil なら庫位置の照合を省く
	clock    Clock
	id       IDGen
}

func NewService(repo records.Repository, src cabinets.Source) *Service {
	return &Service{
		repo:     repo,
		cabinets: src,
		clock:    realClock{},
		id:       ulidGen{},
	}
}

func validate(req *BatchReturnRequest) error {
	req.CabinetCode = strings.TrimSpace(req.CabinetCode)
	req.OperateUser = strings.TrimSpace(req.OperateUser)
	if req.CabinetCode == "" {
		return apierr.ErrInvalid("cabinetCode is required")
	}
	if req.OperateUser == "" {
		return apierr.ErrInvalid("operateUser is required")
	}
	if len(req.LocList) == 0 {
		return apierr.ErrInvalid("locList must not be empty")
	}
	if len(req.ReturnList) == 0 {
		return apierr.ErrInvalid("returnList must not be empty")
	}
	seen := make(map[string]struct{}, len(req.LocList))
	for i, loc := range req.LocList {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			return apierr.ErrInvalid(fmt.Sprintf("locList[%d] is blank", i))
		}
		if _, dup := seen[loc]; dup {
			return apierr.ErrInvalid("duplicate location code: " + loc)
		}
		seen[loc] = struct{}{}
		req.LocList[i] = loc
	}
	return nil
}

// checkLocations: 指定庫位が刀具庫に属するか
func (s *Service) checkLocations(ctx context.Context, req *BatchReturnRequest) error {
	if s.cabinets == nil {
		return nil
	}
	cab, err := s.cabinets.Get(ctx, req.CabinetCode)
	if err != nil {
		if apierr.Is(err, apierr.CodeNotFound) {
			return apierr.ErrInvalid("unknown cabinetCode: " + req.CabinetCode)
		}
		return err
	}
	known := make(map[string]struct{}, len(cab.LocList))
	for _, l := range cab.LocList {
		known[l] = struct{}{}
	}
	for _, l := range req.LocList {
		if _, ok := known[l]; !ok {
			return apierr.ErrInvalid(fmt.Sprintf("location %s does not belong to cabinet %s", l, req.CabinetCode))
		}
	}
	return nil
}

// BatchReturn: 返却明細を入力順に処理し、成功分を locList に循環割り当てする。
// 明細単位の失敗は failedItems に積むだけで一括処理は止めない
func (s *Service) BatchReturn(ctx context.Context, req BatchReturnRequest) (*BatchReturnResult, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	if err := s.checkLocations(ctx, &req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	res := &BatchReturnResult{
		BatchID:     s.id.NewULID(now),
		FailedItems: []FailedItem{},
		OperateUser: req.OperateUser,
		OperateTime: now,
		CabinetCode: req.CabinetCode,
		Remarks:     req.Remarks,
	}
	details := make([]LocationDetail, len(req.LocList))
	for i, loc := range req.LocList {
		details[i] = LocationDetail{LocationCode: loc, Items: []AllocatedItem{}}
	}

	log := logging.FromContext(ctx).WithField("batch_id", res.BatchID)
	for _, item := range req.ReturnList {
		slot := res.SuccessCount % len(req.LocList)
		alloc, fail := s.returnOne(ctx, item, req, req.LocList[slot], now)
		if fail != nil {
			res.FailedItems = append(res.FailedItems, *fail)
			metrics.BatchReturnItems.WithLabelValues("failed").Inc()
			log.WithFields(map[string]any{"id": item.ID, "reason": fail.Reason}).Info("batch return item failed")
			continue
		}
		d := &details[slot]
		d.ItemCount++
		d.TotalQuantity += alloc.Quantity
		d.Items = append(d.Items, *alloc)
		res.SuccessCount++
		metrics.BatchReturnItems.WithLabelValues("success").Inc()
	}

	// 1件も割り当てられなかった庫位は出さない（locList の順序は保つ）
	res.LocationDetails = make([]LocationDetail, 0, len(details))
	for _, d := range details {
		if d.ItemCount > 0 {
			res.LocationDetails = append(res.LocationDetails, d)
		}
	}

	log.WithFields(map[string]any{
		"cabinet": req.CabinetCode, "success": res.SuccessCount, "failed": len(res.FailedItems),
	}).Info("batch return processed")
	return res, nil
}

// returnOne: 1明細を検査して返却済みに更新する
func (s *Service) returnOne(ctx context.Context, item ReturnItem, req BatchReturnRequest, loc string, now time.Time) (*AllocatedItem, *FailedItem) {
	failed := func(reason Reason, msg string) *FailedItem {
		return &FailedItem{ID: item.ID, Reason: reason, Message: msg}
	}

	rec, err := s.repo.Get(ctx, item.ID)
	if err != nil {
		if errors.Is(err, records.ErrRecordNotFound) || apierr.Is(err, apierr.CodeNotFound) {
			return nil, failed(ReasonNotFound, "lend record not found")
		}
		return nil, failed(ReasonUpdateFailed, apierr.Message(err))
	}
	if err := rec.CheckReturn(req.OperateUser); err != nil {
		if errors.Is(err, records.ErrNotOwner) {
			return nil, failed(ReasonNotOwner, "record belongs to "+rec.UserCode)
		}
		return nil, failed(ReasonNotReturnable, "status "+string(rec.Status)+" is not returnable")
	}
	if item.Quantity <= 0 || item.Quantity > rec.Quantity {
		return nil, failed(ReasonInvalidQuantity, fmt.Sprintf("quantity must be between 1 and %d", rec.Quantity))
	}
	at := now
	if item.ActualReturnTime != nil && strings.TrimSpace(*item.ActualReturnTime) != "" {
		t, err := parseReturnTime(*item.ActualReturnTime)
		if err != nil {
			return nil, failed(ReasonInvalidReturnTime, "invalid actualReturnTime: "+*item.ActualReturnTime)
		}
		at = t
	}

	prev := rec.Status
	if err := rec.Return(req.OperateUser, at); err != nil {
		return nil, failed(ReasonNotReturnable, apierr.Message(err))
	}
	rec.CabinetCode = req.CabinetCode
	rec.LocationCode = loc
	if err := s.repo.Update(ctx, rec, prev); err != nil {
		if errors.Is(err, records.ErrRecordNotFound) {
			return nil, failed(ReasonNotFound, "lend record not found")
		}
		// 単体返却などが先に通った
		if errors.Is(err, records.ErrStatusChanged) {
			return nil, failed(ReasonNotReturnable, "record status was changed by another operation")
		}
		return nil, failed(ReasonUpdateFailed, apierr.Message(err))
	}

	out := &AllocatedItem{ID: rec.ID, Code: rec.Code, Quantity: item.Quantity, ActualReturnTime: at}
	if item.Remark != nil {
		out.Remark = *item.Remark
	}
	return out, nil
}

func parseReturnTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
