package records

import (
	"encoding/json"
	"strings"

	"KCMS-gateway/internal/platform/apierr"
)

// Status は貸出レコードの状態（閉じた列挙）
type Status string

const (
	StatusBorrowed   Status = "borrowed"
	StatusTempStored Status = "temp_stored"
	StatusReturned   Status = "returned"
	StatusOverdue    Status = "overdue"
)

// MES 旧データの中国語表記 -> 正規値
var legacyStatus = map[string]Status{
	"借用中": StatusBorrowed,
	"已借出": StatusBorrowed,
	"暂存":  StatusTempStored,
	"暂存中": StatusTempStored,
	"已暂存": StatusTempStored,
	"已归还": StatusReturned,
	"逾期":  StatusOverdue,
	"已逾期": StatusOverdue,
}

// 遷移表。returned は終端
var transitions = map[Status][]Status{
	StatusBorrowed:   {StatusTempStored, StatusReturned, StatusOverdue},
	StatusTempStored: {StatusBorrowed, StatusReturned},
	StatusOverdue:    {StatusTempStored, StatusReturned},
	StatusReturned:   {},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Returnable: 返却可能な状態（borrowed / temp_stored / overdue）
func (s Status) Returnable() bool {
	return s.CanTransitionTo(StatusReturned)
}

// ParseStatus は英語の正規値と中国語の旧表記の両方を受け付ける
func ParseStatus(v string) (Status, error) {
	v = strings.TrimSpace(v)
	if st := Status(strings.ToLower(v)); st.Valid() {
		return st, nil
	}
	if st, ok := legacyStatus[v]; ok {
		return st, nil
	}
	return "", apierr.ErrInvalid("unknown status: " + v)
}

// ParseStatuses: "borrowed,overdue" のようなカンマ区切り
func ParseStatuses(v string) ([]Status, error) {
	var out []Status
	for _, p := range strings.Split(v, ",") {
		if strings.TrimSpace(p) == "" {
			continue
		}
		st, err := ParseStatus(p)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// UnmarshalJSON: 上流からの旧表記も正規化する。未知の値はそのまま保持（Valid() が false になる）
func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if st, err := ParseStatus(raw); err == nil {
		*s = st
		return nil
	}
	*s = Status(raw)
	return nil
}

// Label: 画面・帳票向けの中国語表記
func (s Status) Label() string {
	switch s {
	case StatusBorrowed:
		return "借用中"
	case StatusTempStored:
		return "暂存中"
	case StatusReturned:
		return "已归还"
	case StatusOverdue:
		return "已逾期"
	}
	return string(s)
}
