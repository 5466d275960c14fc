package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// ===== Error model (全ドメイン共通) =====

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeForbidden       Code = "FORBIDDEN"
	CodeConflict        Code = "CONFLICT" // 状態遷移不可・返却不可など
	CodeUpstream        Code = "UPSTREAM" // MES 側の通信失敗・エラー応答
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *APIError   { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError  { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrForbidden(msg string) *APIError { return &APIError{Code: CodeForbidden, Message: msg} }
func ErrConflict(msg string) *APIError  { return &APIError{Code: CodeConflict, Message: msg} }
func ErrUpstream(msg string) *APIError  { return &APIError{Code: CodeUpstream, Message: msg} }
func ErrInternal(msg string) *APIError  { return &APIError{Code: CodeInternal, Message: msg} }

// ToHTTPStatus: APIError 以外は 500
// MES の通信失敗も 500 扱い（旧サービスの応答コードに合わせる）
func ToHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return http.StatusBadRequest
		case CodeNotFound:
			return http.StatusNotFound
		case CodeForbidden:
			return http.StatusForbidden
		case CodeConflict:
			return http.StatusConflict
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// Message: APIError ならメッセージのみ、それ以外は err.Error()
func Message(err error) string {
	var api *APIError
	if errors.As(err, &api) {
		return api.Message
	}
	return err.Error()
}

// Is: Code が一致するかどうか
func Is(err error, code Code) bool {
	var api *APIError
	return errors.As(err, &api) && api.Code == code
}
