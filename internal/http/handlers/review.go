package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/http/response"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
	"github.com/yungbote/conscious-backend/internal/services"
)

type ReviewHandler struct {
	log    *logger.Logger
	review services.ReviewService
}

func NewReviewHandler(log *logger.Logger, review services.ReviewService) *ReviewHandler {
	return &ReviewHandler{log: log.With("handler", "ReviewHandler"), review: review}
}

type nextCardsResponse struct {
	Cards []services.Card `json:"cards"`
}

// GET /api/review/next?count=N
func (h *ReviewHandler) NextCards(c *gin.Context) {
	count := 0
	if raw := strings.TrimSpace(c.Query("count")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_count", errors.New("count must be an integer"))
			return
		}
		count = n
	}
	cards, err := h.review.NextCards(c.Request.Context(), count)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, nextCardsResponse{Cards: cards})
}

type submitGradeRequest struct {
	Grade          int  `json:"grade"`
	ReviewDuration *int `json:"review_duration,omitempty"`
}

// POST /api/review/:id/submit
func (h *ReviewHandler) SubmitGrade(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req submitGradeRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.review.SubmitGrade(c.Request.Context(), services.SubmitGradeInput{
		ThoughtID:        id,
		Grade:            domain.Grade(req.Grade),
		ReviewDurationMs: req.ReviewDuration,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/review/:id/discard
func (h *ReviewHandler) Discard(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := h.review.Discard(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}
