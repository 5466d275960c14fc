package records

import (
	"strings"
	"time"

	"golang.org/x/text/width"
)

type Kind string

const (
	KindKnife  Kind = "knife"  // 刀具の貸出
	KindHandle Kind = "handle" // 刀柄の貸出
)

func ParseKind(v string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(v))) {
	case KindKnife:
		return KindKnife, true
	case KindHandle:
		return KindHandle, true
	}
	return "", false
}

// Record は貸出レコード1件（刀具・刀柄共通）
type Record struct {
	ID               int64      `json:"id"`
	Kind             Kind       `json:"kind"`
	Code             string     `json:"code"`
	UserCode         string     `json:"userCode"`
	UserName         string     `json:"userName"`
	Brand            string     `json:"brand"`
	Model            string     `json:"model"`
	Quantity         int        `json:"quantity"`
	LendAt           time.Time  `json:"lendAt"`
	ExpectedReturnAt *time.Time `json:"expectedReturnAt,omitempty"`
	ActualReturnAt   *time.Time `json:"actualReturnAt,omitempty"`
	Status           Status     `json:"status"`
	Purpose          string     `json:"purpose,omitempty"`
	CabinetCode      string     `json:"cabinetCode,omitempty"`
	LocationCode     string     `json:"locationCode,omitempty"`
	UpdatedBy        string     `json:"updatedBy,omitempty"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}

// Clone: ポインタ項目も含めて複製する（ストア内部の値を呼び出し側に触らせない）
func (r Record) Clone() Record {
	out := r
	out.ExpectedReturnAt = cloneTime(r.ExpectedReturnAt)
	out.ActualReturnAt = cloneTime(r.ActualReturnAt)
	out.UpdatedAt = cloneTime(r.UpdatedAt)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// NormalizeUserCode: 前後空白を除き、全角英数を半角に畳む
func NormalizeUserCode(code string) string {
	return width.Fold.String(strings.TrimSpace(code))
}

// OwnedBy: 社員コードで本人かどうか判定
func (r *Record) OwnedBy(userCode string) bool {
	u := NormalizeUserCode(userCode)
	return u != "" && u == NormalizeUserCode(r.UserCode)
}

// CheckReturn: 本人確認 -> 状態確認の順で検査する
func (r *Record) CheckReturn(operateUser string) error {
	if !r.OwnedBy(operateUser) {
		return ErrNotOwner
	}
	if !r.Status.Returnable() {
		return ErrNotReturnable
	}
	return nil
}

// Return: 返却済みにし、実返却時刻を打刻する
func (r *Record) Return(operateUser string, at time.Time) error {
	if err := r.CheckReturn(operateUser); err != nil {
		return err
	}
	r.Status = StatusReturned
	r.ActualReturnAt = &at
	r.touch(operateUser, at)
	return nil
}

// TempStore: 刀具庫（共用/個人）に一時保管する
func (r *Record) TempStore(operateUser, cabinetCode, locationCode string, at time.Time) error {
	if !r.OwnedBy(operateUser) {
		return ErrNotOwner
	}
	if !r.Status.CanTransitionTo(StatusTempStored) {
		return ErrInvalidTransition
	}
	r.Status = StatusTempStored
	r.CabinetCode = cabinetCode
	r.LocationCode = locationCode
	r.touch(operateUser, at)
	return nil
}

// MarkOverdue: 返却予定日を過ぎた borrowed を overdue にする。変更したら true
func (r *Record) MarkOverdue(now time.Time, operator string) bool {
	if r.Status != StatusBorrowed || r.ExpectedReturnAt == nil || !r.ExpectedReturnAt.Before(now) {
		return false
	}
	r.Status = StatusOverdue
	r.touch(operator, now)
	return true
}

func (r *Record) touch(by string, at time.Time) {
	r.UpdatedBy = by
	r.UpdatedAt = &at
}
