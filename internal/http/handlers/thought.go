package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/conscious-backend/internal/http/response"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
	"github.com/yungbote/conscious-backend/internal/services"
)

// maxNotesFile bounds uploaded note exports.
const maxNotesFile = 10 << 20

type ThoughtHandler struct {
	log        *logger.Logger
	extraction services.ExtractionService
	addData    services.AddDataService
	ingestion  services.IngestionService
}

func NewThoughtHandler(
	log *logger.Logger,
	extraction services.ExtractionService,
	addData services.AddDataService,
	ingestion services.IngestionService,
) *ThoughtHandler {
	return &ThoughtHandler{
		log:        log.With("handler", "ThoughtHandler"),
		extraction: extraction,
		addData:    addData,
		ingestion:  ingestion,
	}
}

type findRequest struct {
	Text        string            `json:"text"`
	Type        string            `json:"type"`
	Identifiers map[string]string `json:"identifiers"`
}

type findResponse struct {
	Thoughts []string `json:"thoughts"`
}

// POST /api/find
func (h *ThoughtHandler) Find(c *gin.Context) {
	var req findRequest
	if !bindJSON(c, &req) {
		return
	}
	thoughts, err := h.extraction.Extract(c.Request.Context(), services.ExtractInput{
		Text:        req.Text,
		SourceType:  req.Type,
		Identifiers: req.Identifiers,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if thoughts == nil {
		thoughts = []string{}
	}
	response.RespondCreated(c, findResponse{Thoughts: thoughts})
}

type addDataRequest struct {
	Task        string            `json:"task"`
	Type        string            `json:"type"`
	Identifiers map[string]string `json:"identifiers"`
	Texts       []string          `json:"texts"`
}

// POST /api/add
//
// Accepts either JSON with texts or multipart form data with a "file" part
// and task, type and identifiers (a JSON object) fields.
func (h *ThoughtHandler) AddData(c *gin.Context) {
	in, ok := h.addDataInput(c)
	if !ok {
		return
	}
	res, err := h.addData.AddData(c.Request.Context(), in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, res)
}

func (h *ThoughtHandler) addDataInput(c *gin.Context) (services.AddDataInput, bool) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var req addDataRequest
		if !bindJSON(c, &req) {
			return services.AddDataInput{}, false
		}
		return services.AddDataInput{Task: req.Task, SourceType: req.Type, Identifiers: req.Identifiers, Texts: req.Texts}, true
	}

	in := services.AddDataInput{Task: c.PostForm("task"), SourceType: c.PostForm("type")}
	if raw := strings.TrimSpace(c.PostForm("identifiers")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Identifiers); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("identifiers must be a JSON object"))
			return in, false
		}
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("file is required"))
		return in, false
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return in, false
	}
	defer f.Close()
	body, err := io.ReadAll(io.LimitReader(f, maxNotesFile+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return in, false
	}
	if len(body) > maxNotesFile {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", errors.New("notes file is too large"))
		return in, false
	}
	in.FileContent = body
	return in, true
}

type similarRequest struct {
	Texts       []string    `json:"texts"`
	Vectors     [][]float32 `json:"vectors,omitempty"`
	Limit       int         `json:"limit,omitempty"`
	DistanceMax *float64    `json:"distance_max,omitempty"`
}

type similarResponse struct {
	Results []services.NeighborResult `json:"results"`
}

// POST /api/similar
func (h *ThoughtHandler) Similar(c *gin.Context) {
	var req similarRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.ingestion.FindSimilar(c.Request.Context(), services.FindSimilarInput{
		Texts:       req.Texts,
		Vectors:     req.Vectors,
		Limit:       req.Limit,
		DistanceMax: req.DistanceMax,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if res == nil {
		res = []services.NeighborResult{}
	}
	response.RespondOK(c, similarResponse{Results: res})
}

// GET /api/thoughts/:id/sources
func (h *ThoughtHandler) Sources(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	sources, err := h.ingestion.SourcesForThought(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sources": sources})
}
