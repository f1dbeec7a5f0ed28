package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/conscious-backend/internal/catalog"
	"github.com/yungbote/conscious-backend/internal/http/response"
)

type ConfigHandler struct {
	catalog *catalog.Catalog
}

func NewConfigHandler(cat *catalog.Catalog) *ConfigHandler {
	return &ConfigHandler{catalog: cat}
}

type configResponse struct {
	Configs any `json:"configs"`
}

// GET /api/configs/:type
func (h *ConfigHandler) Get(c *gin.Context) {
	typ := strings.ToLower(strings.TrimSpace(c.Param("type")))
	switch typ {
	case "sources":
		response.RespondOK(c, configResponse{Configs: h.catalog.Sources})
	case "tasks":
		response.RespondOK(c, configResponse{Configs: h.catalog.Tasks})
	default:
		response.RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("no config found for: %s", typ))
	}
}
