package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/conscious-backend/internal/http/response"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
	"github.com/yungbote/conscious-backend/internal/services"
)

type SourceHandler struct {
	log       *logger.Logger
	ingestion services.IngestionService
}

func NewSourceHandler(log *logger.Logger, ingestion services.IngestionService) *SourceHandler {
	return &SourceHandler{log: log.With("handler", "SourceHandler"), ingestion: ingestion}
}

type linkSourcesRequest struct {
	ParentID int64 `json:"parent_id"`
	ChildID  int64 `json:"child_id"`
}

// POST /api/sources/link
func (h *SourceHandler) Link(c *gin.Context) {
	var req linkSourcesRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.ingestion.LinkSources(c.Request.Context(), req.ParentID, req.ChildID); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"parent_id": req.ParentID, "child_id": req.ChildID})
}

// GET /api/sources/:id/thoughts
func (h *SourceHandler) Thoughts(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	thoughts, err := h.ingestion.ThoughtsForSource(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out := make([]services.Card, 0, len(thoughts))
	for _, t := range thoughts {
		out = append(out, services.Card{ID: t.ID, Text: t.Text})
	}
	response.RespondOK(c, gin.H{"thoughts": out})
}
