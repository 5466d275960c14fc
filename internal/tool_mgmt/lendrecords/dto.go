package lendrecords

import "KCMS-gateway/internal/tool_mgmt/records"

// 単体返却リクエスト
type ReturnRequest struct {
	OperateUser string `json:"operateUser"`
	Quantity    int    `json:"quantity"`
	Remark      string `json:"remark,omitempty"`
}

// 一時保管リクエスト
type TempStoreRequest struct {
	OperateUser  string `json:"operateUser"`
	CabinetCode  string `json:"cabinetCode"`
	LocationCode string `json:"locationCode"`
}

// 一覧レスポンス
type ListResult struct {
	Rows     []records.Record `json:"rows"`
	Total    int64            `json:"total"`
	PageNum  int              `json:"pageNum"`
	PageSize int              `json:"pageSize"`
}

// エクスポート結果
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
