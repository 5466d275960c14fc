package mes

import (
	"encoding/json"
	"net/http"

	"KCMS-gateway/internal/platform/apierr"
)

// Envelope: MES の共通応答 {code, msg, data, success}
type Envelope struct {
	Code    int             `json:"code"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
}

// OK: success フラグを返さない MES もあるので code=200/0 も成功とみなす
func (e *Envelope) OK() bool {
	return e.Success || e.Code == http.StatusOK || e.Code == 0
}

func (e *Envelope) HasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

// AsError: MES 側のエラーコードをこちらのエラーに写す
func (e *Envelope) AsError() error {
	msg := e.Msg
	if msg == "" {
		msg = http.StatusText(e.Code)
	}
	switch e.Code {
	case http.StatusBadRequest:
		return apierr.ErrInvalid(msg)
	case http.StatusForbidden:
		return apierr.ErrForbidden(msg)
	case http.StatusNotFound:
		return apierr.ErrNotFound(msg)
	case http.StatusConflict:
		return apierr.ErrConflict(msg)
	}
	return apierr.ErrUpstream(msg)
}
