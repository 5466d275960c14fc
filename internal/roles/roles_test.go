package roles

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"KCMS-gateway/internal/platform/auth"
	"KCMS-gateway/internal/tool_mgmt/cabinets"
	"KCMS-gateway/internal/tool_mgmt/lendrecords"
	"KCMS-gateway/internal/tool_mgmt/records"
	"KCMS-gateway/internal/tool_mgmt/returns"
)

var secret = []byte("roles-secret")

func newRouter(withAuth bool, limiter gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	store := records.NewMemStore(records.SeedRecords(time.Now())...)
	src := cabinets.NewMemSource(cabinets.DefaultCabinets()...)

	d := Deps{
		Records:  lendrecords.NewService(store, nil, src),
		Returns:  returns.NewService(store, src),
		Cabinets: src,
		Limiter:  limiter,
	}
	if withAuth {
		d.AuthSecret = secret
	}
	r := gin.New()
	Mount(r, d)
	return r
}

func token(t *testing.T, sub, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub, "role": role, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	return s
}

func do(r http.Handler, method, path, body, tok string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	r.ServeHTTP(w, req)
	return w.Code
}

func TestEveryPrefixServesReads(t *testing.T) {
	r := newRouter(false, nil)
	for _, role := range Roles {
		require.Equal(t, http.StatusOK, do(r, http.MethodGet, role.Prefix+"/lend_records", "", ""), role.Prefix)
		require.Equal(t, http.StatusOK, do(r, http.MethodGet, role.Prefix+"/cabinets", "", ""), role.Prefix)
	}
}

func TestPermissionsPerPrefix(t *testing.T) {
	r := newRouter(false, nil)

	// 監査は更新不可
	body := `{"operateUser":"E1001","quantity":1}`
	require.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/auditor_record/lend_records/1001/return", body, ""))
	require.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/auditor_record/lend_records/batch_return", `{}`, ""))
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/auditor_record/lend_records/export", "", ""))

	// 作業者はエクスポート不可
	require.NotEqual(t, http.StatusOK, do(r, http.MethodGet, "/lend_record/lend_records/export", "", ""))
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/lend_record/lend_records/1001/return", body, ""))

	batch := `{"cabinetCode":"CAB-SHARED-01","locList":["A1-01"],"returnList":[{"id":1004,"quantity":1}],"operateUser":"E1002"}`
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/teamleader/lend_records/batch_return", batch, ""))
}

func TestAuthRequiredWhenSecretSet(t *testing.T) {
	r := newRouter(true, nil)

	require.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/lend_record/lend_records", "", ""))
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/lend_record/lend_records", "", token(t, "E1001", auth.RoleOperator)))
	require.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/auditor_record/lend_records", "", token(t, "E1001", auth.RoleOperator)))
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/auditor_record/lend_records", "", token(t, "admin", auth.RoleAdmin)))

	// トークンの本人と operateUser が違えば拒否
	body := `{"operateUser":"E1001","quantity":1}`
	require.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/lend_record/lend_records/1001/return", body, token(t, "E1002", auth.RoleOperator)))
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/lend_record/lend_records/1001/return", body, token(t, "E1001", auth.RoleOperator)))
}

func TestLimiterOnlyOnMutations(t *testing.T) {
	limiter := func(c *gin.Context) {
		c.AbortWithStatus(http.StatusTooManyRequests)
	}
	r := newRouter(false, limiter)

	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/lend_records", "", ""))
	require.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/api/v1/lend_records/1001/return", `{"operateUser":"E1001","quantity":1}`, ""))
	require.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/api/v1/lend_records/batch_return", `{}`, ""))
}
