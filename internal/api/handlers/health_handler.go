package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dcarbon/emailpreview/internal/version"
)

// StoreStatus reports the last content-store probe.
type StoreStatus interface {
	Status() (up bool, checked bool, lastErr string)
}

// HealthHandler responds with service metadata and content-store reachability.
type HealthHandler struct {
	store StoreStatus
}

func NewHealthHandler(store StoreStatus) *HealthHandler {
	return &HealthHandler{store: store}
}

// Get always answers 200 while the process serves; status turns "degraded"
// when the last store probe failed.
func (h *HealthHandler) Get(c *gin.Context) {
	resp := gin.H{
		"status":     "ok",
		"service":    version.Name,
		"version":    version.Version,
		"git_commit": version.GitCommit,
		"build_time": version.BuildTime,
		"store_up":   nil,
	}
	if h.store != nil {
		if up, checked, lastErr := h.store.Status(); checked {
			resp["store_up"] = up
			if !up {
				resp["status"] = "degraded"
				resp["store_error"] = lastErr
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}
