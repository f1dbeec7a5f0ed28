package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/conscious-backend/internal/platform/apierr"
	"github.com/yungbote/conscious-backend/internal/platform/ctxutil"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	// RequestID echoes X-Request-Id so a report can be matched to server logs.
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message:   msg,
			Code:      code,
			RequestID: ctxutil.RequestID(c.Request.Context()),
		},
	})
}

// RespondErr maps a service error to its status and envelope.
func RespondErr(c *gin.Context, err error) {
	ae := apierr.From(err)
	if ae == nil {
		ae = apierr.New(http.StatusInternalServerError, "internal", nil)
	}
	_ = c.Error(err)
	RespondError(c, ae.Status, ae.Code, ae.Err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
