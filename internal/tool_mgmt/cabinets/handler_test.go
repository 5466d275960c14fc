package cabinets

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, NewMemSource(DefaultCabinets()...))
	return r
}

func TestListCabinetsFiltersByType(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cabinets?type=personal", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []Cabinet `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "CAB-PERSONAL-E1003", body.Data[0].Code)
}

func TestListLocations(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cabinets/CAB-SHARED-02/locations", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"code":200,"msg":"success","success":true,"data":{"cabinetCode":"CAB-SHARED-02","locList":["B1-01","B1-02"]}}`, w.Body.String())

	w = httptest.NewRecorder()
	newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cabinets/NOPE/locations", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}
