// Package resp は全エンドポイント共通のレスポンス封筒 {code, msg, data, success} を書き出す。
package resp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"KCMS-gateway/internal/platform/apierr"
)

type Envelope struct {
	Code    int    `json:"code"`
	Msg     string `json:"msg"`
	Data    any    `json:"data"`
	Success bool   `json:"success"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Code: http.StatusOK, Msg: "success", Data: data, Success: true})
}

func OKMsg(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusOK, Envelope{Code: http.StatusOK, Msg: msg, Data: data, Success: true})
}

// Fail: err を HTTP ステータスと封筒に変換する
func Fail(c *gin.Context, err error) {
	status := apierr.ToHTTPStatus(err)
	c.JSON(status, Envelope{Code: status, Msg: apierr.Message(err), Success: false})
}

// FailWith: data 付きの失敗応答（一括返却の全件失敗など）
func FailWith(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, Envelope{Code: status, Msg: msg, Data: data, Success: false})
}

func BadRequest(c *gin.Context, msg string) {
	Fail(c, apierr.ErrInvalid(msg))
}
