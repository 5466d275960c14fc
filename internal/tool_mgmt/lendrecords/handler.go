package lendrecords

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"KCMS-gateway/internal/platform/apierr"
	"KCMS-gateway/internal/platform/auth"
	"KCMS-gateway/internal/platform/resp"
	"KCMS-gateway/internal/tool_mgmt/records"
)

// Policy: ロールごとに公開するルートの範囲
type Policy struct {
	AllowMutation  bool
	AllowExport    bool
	OwnRecordsOnly bool              // 認証済みなら一覧を本人分に固定
	Mutation       []gin.HandlerFunc // 更新系だけに掛けるミドルウェア
}

type Handler struct {
	svc    *Service
	policy Policy
}

func RegisterRoutes(r gin.IRoutes, svc *Service, p Policy) {
	h := &Handler{svc: svc, policy: p}

	r.GET("/lend_records", h.listOf(records.KindKnife, ""))
	r.GET("/handle_lend_records", h.listOf(records.KindHandle, ""))
	r.GET("/temp_store_records", h.listOf("", records.StatusTempStored))
	r.GET("/lend_records/:id", h.getOf(""))
	r.GET("/handle_lend_records/:id", h.getOf(records.KindHandle))

	if p.AllowExport {
		r.GET("/lend_records/export", h.Export)
	}
	if p.AllowMutation {
		r.POST("/lend_records/:id/return", append(append([]gin.HandlerFunc{}, p.Mutation...), h.Return)...)
		r.POST("/lend_records/:id/temp_store", append(append([]gin.HandlerFunc{}, p.Mutation...), h.TempStore)...)
	}
}

// GET /lend_records, /handle_lend_records, /temp_store_records
func (h *Handler) listOf(kind records.Kind, status records.Status) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := h.parseFilter(c)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		if kind != "" {
			f.Kind = kind
		}
		if status != "" {
			f.Statuses = []records.Status{status}
		}
		p := records.Page{
			Num:  queryInt(c, "pageNum", 1),
			Size: queryInt(c, "pageSize", records.DefaultPageSize),
		}

		out, err := h.svc.List(c.Request.Context(), f, p)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, out)
	}
}

// GET /lend_records/:id, /handle_lend_records/:id
func (h *Handler) getOf(kind records.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		r, err := h.svc.Get(c.Request.Context(), id, kind)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, r)
	}
}

// GET /lend_records/export
func (h *Handler) Export(c *gin.Context) {
	f, err := h.parseFilter(c)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	file, err := h.svc.Export(c.Request.Context(), f)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Body)
}

// POST /lend_records/:id/return
func (h *Handler) Return(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, "invalid json")
		return
	}
	if !sameUser(c, req.OperateUser) {
		return
	}
	r, err := h.svc.Return(c.Request.Context(), id, req)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "returned", r)
}

// POST /lend_records/:id/temp_store
func (h *Handler) TempStore(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req TempStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, "invalid json")
		return
	}
	if !sameUser(c, req.OperateUser) {
		return
	}
	r, err := h.svc.TempStore(c.Request.Context(), id, req)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "temp stored", r)
}

func (h *Handler) parseFilter(c *gin.Context) (records.Filter, error) {
	f := records.Filter{
		UserCode: strings.TrimSpace(c.Query("userCode")),
		Code:     strings.TrimSpace(c.Query("code")),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	}
	if v := c.Query("kind"); v != "" {
		k, ok := records.ParseKind(v)
		if !ok {
			return f, apierr.ErrInvalid("invalid kind: " + v)
		}
		f.Kind = k
	}
	if v := c.Query("status"); v != "" {
		sts, err := records.ParseStatuses(v)
		if err != nil {
			return f, err
		}
		f.Statuses = sts
	}
	from, err := queryDate(c, "from")
	if err != nil {
		return f, err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return f, err
	}
	f.From = from
	if to != nil {
		// to は当日を含める
		end := to.AddDate(0, 0, 1)
		f.To = &end
	}
	if h.policy.OwnRecordsOnly {
		if sub, ok := auth.Subject(c); ok {
			f.UserCode = sub
		}
	}
	return f, nil
}

func queryDate(c *gin.Context, key string) (*time.Time, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return nil, apierr.ErrInvalid(key + " must be YYYY-MM-DD")
	}
	return &t, nil
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		resp.BadRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

// sameUser: 認証済みならトークンの本人以外は操作できない
func sameUser(c *gin.Context, operateUser string) bool {
	sub, ok := auth.Subject(c)
	if !ok || records.NormalizeUserCode(sub) == records.NormalizeUserCode(operateUser) {
		return true
	}
	resp.Fail(c, apierr.ErrForbidden("operateUser does not match the authenticated user"))
	return false
}
