package cabinets

import (
	"strings"

	"github.com/gin-gonic/gin"

	"KCMS-gateway/internal/platform/resp"
)

type Handler struct{ src Source }

func RegisterRoutes(r gin.IRoutes, src Source) {
	h := &Handler{src: src}
	r.GET("/cabinets", h.ListCabinets)
	r.GET("/cabinets/:code/locations", h.ListLocations)
}

// GET /cabinets?type=shared
func (h *Handler) ListCabinets(c *gin.Context) {
	items, err := h.src.List(c.Request.Context())
	if err != nil {
		resp.Fail(c, err)
		return
	}
	if t := strings.TrimSpace(c.Query("type")); t != "" {
		filtered := items[:0]
		for _, it := range items {
			if it.Type == t {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	resp.OK(c, items)
}

// GET /cabinets/:code/locations
func (h *Handler) ListLocations(c *gin.Context) {
	cab, err := h.src.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OK(c, gin.H{"cabinetCode": cab.Code, "locList": cab.LocList})
}
