package returns

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"KCMS-gateway/internal/platform/apierr"
	"KCMS-gateway/internal/platform/auth"
	"KCMS-gateway/internal/platform/resp"
	"KCMS-gateway/internal/tool_mgmt/records"
)

type Handler struct{ svc *Service }

// RegisterRoutes: 更新系。mw は流量制限などルート単位のミドルウェア
func RegisterRoutes(r gin.IRoutes, svc *Service, mw ...gin.HandlerFunc) {
	h := &Handler{svc: svc}
	r.POST("/lend_records/batch_return", append(append([]gin.HandlerFunc{}, mw...), h.BatchReturn)...)
}

// POST /lend_records/batch_return
func (h *Handler) BatchReturn(c *gin.Context) {
	var req BatchReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, "invalid json")
		return
	}
	// 認証済みならトークンの本人以外は操作できない
	if sub, ok := auth.Subject(c); ok && records.NormalizeUserCode(sub) != records.NormalizeUserCode(req.OperateUser) {
		resp.Fail(c, apierr.ErrForbidden("operateUser does not match the authenticated user"))
		return
	}

	res, err := h.svc.BatchReturn(c.Request.Context(), req)
	if err != nil {
		resp.Fail(c, err)
		return
	}

	switch res.Outcome() {
	case OutcomeAllFailed:
		resp.FailWith(c, http.StatusBadRequest, "batch return failed: no item could be returned", res)
	case OutcomePartial:
		resp.OKMsg(c, "partial success: some items could not be returned", res)
	default:
		resp.OKMsg(c, "batch return succeeded", res)
	}
}
