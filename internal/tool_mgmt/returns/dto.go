package returns

import "time"

// ===== Requests =====

// ReturnItem: 一括返却の明細1行
type ReturnItem struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
	// "2006-01-02 15:04:05" または RFC3339。省略時はサーバー時刻
	ActualReturnTime *string `json:"actualReturnTime,omitempty"`
	Remark           *string `json:"remark,omitempty"`
}

// BatchReturnRequest: POST /lend_records/batch_return
type BatchReturnRequest struct {
	CabinetCode string       `json:"cabinetCode"`
	LocList     []string     `json:"locList"`
	ReturnList  []ReturnItem `json:"returnList"`
	OperateUser string       `json:"operateUser"`
	Remarks     string       `json:"remarks,omitempty"`
}

// ===== Responses =====

// Reason: 明細失敗の理由コード
type Reason string

const (
	ReasonNotFound          Reason = "record_not_found"
	ReasonNotOwner          Reason = "not_owner"
	ReasonNotReturnable     Reason = "status_not_returnable"
	ReasonInvalidQuantity   Reason = "invalid_quantity"
	ReasonInvalidReturnTime Reason = "invalid_return_time"
	ReasonUpdateFailed      Reason = "update_failed"
)

type FailedItem struct {
	ID      int64  `json:"id"`
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

type AllocatedItem struct {
	ID               int64     `json:"id"`
	Code             string    `json:"code"`
	Quantity         int       `json:"quantity"`
	ActualReturnTime time.Time `json:"actualReturnTime"`
	Remark           string    `json:"remark,omitempty"`
}

type LocationDetail struct {
	LocationCode  string          `json:"locationCode"`
	ItemCount     int             `json:"itemCount"`
	TotalQuantity int             `json:"totalQuantity"`
	Items         []AllocatedItem `json:"items"`
}

type BatchReturnResult struct {
	BatchID         string           `json:"batchId"`
	SuccessCount    int              `json:"successCount"`
	FailedItems     []FailedItem     `json:"failedItems"`
	LocationDetails []LocationDetail `json:"locationDetails"`
	OperateUser     string           `json:"operateUser"`
	OperateTime     time.Time        `json:"operateTime"`
	CabinetCode     string           `json:"cabinetCode"`
	Remarks         string           `json:"remarks,omitempty"`
}

type Outcome int

const (
	OutcomeAllSucceeded Outcome = iota
	OutcomePartial
	OutcomeAllFailed
)

func (r *BatchReturnResult) Outcome() Outcome {
	switch {
	case r.SuccessCount == 0:
		return OutcomeAllFailed
	case len(r.FailedItems) > 0:
		return OutcomePartial
	}
	return OutcomeAllSucceeded
}
