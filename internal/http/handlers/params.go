package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/conscious-backend/internal/http/response"
)

// idParam parses a positive int64 path param, writing a 400 on failure.
func idParam(c *gin.Context, name string) (int64, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", errors.New(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}
