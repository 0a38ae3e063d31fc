package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"dispute-notepad/internal/form"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds every request body
const maxBodyBytes = 1 << 20

// Handler serves the notepad page and its JSON API
type Handler struct {
	manager *ServiceManager
	monitor *HealthMonitor
	logger  zerolog.Logger
}

// NewHandler creates a new handler
func NewHandler(manager *ServiceManager, monitor *HealthMonitor, logger zerolog.Logger) *Handler {
	return &Handler{
		manager: manager,
		monitor: monitor,
		logger:  logger.With().Str("component", "http").Logger(),
	}
}

// RecommendRequestDTO is the JSON body of POST /api/v1/recommend
type RecommendRequestDTO struct {
	Text string `json:"text"`
}

// FormResponseDTO is the JSON reply of POST /api/v1/form
type FormResponseDTO struct {
	Text        string `json:"text"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// ErrorResponseDTO wraps an API error
type ErrorResponseDTO struct {
	Error *APIError `json:"error"`
}

// service returns the running service or writes 503
func (h *Handler) service(w http.ResponseWriter, r *http.Request, asJSON bool) *NotepadService {
	if svc := h.manager.GetService(); svc != nil {
		return svc
	}

	apiErr := NewAPIError(ErrorCodeServiceUnavailable, "The notepad service is not running.")
	if asJSON {
		h.writeError(w, r, apiErr)
	} else {
		http.Error(w, apiErr.Message, apiErr.HTTPStatus())
	}
	return nil
}

// Page handles GET /
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r, false)
	if svc == nil {
		return
	}

	h.writePage(w, r, http.StatusOK, newPageData(svc.Strategy(), form.Record{}))
}

// Recommend handles POST /recommend from the page
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r, false)
	if svc == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	input := r.PostForm.Get("dispute_text")
	data := newPageData(svc.Strategy(), form.Record{})
	data.Input = input

	recommendation, err := svc.Recommend(r.Context(), input)
	if err != nil {
		data.RecommendNotice = noticeFor(FromError(err))
	} else {
		data.Recommendation = recommendation
	}

	// Failures are shown inline; the page itself rendered fine
	h.writePage(w, r, http.StatusOK, data)
}

// FormPreview handles POST /form from the page
func (h *Handler) FormPreview(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r, false)
	if svc == nil {
		return
	}

	record, ok := h.parseRecord(w, r)
	if !ok {
		return
	}

	data := newPageData(svc.Strategy(), record)
	data.Rendered = svc.RenderForm(record)
	data.FormNotice = &Notice{Level: "info", Text: "Form ready. Copy it below or download it as " + form.FileName + "."}
	h.writePage(w, r, http.StatusOK, data)
}

// FormDownload handles POST /form/download
func (h *Handler) FormDownload(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r, false)
	if svc == nil {
		return
	}

	record, ok := h.parseRecord(w, r)
	if !ok {
		return
	}

	text := svc.RenderForm(record)
	w.Header().Set("Content-Type", form.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", form.FileName))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}

func (h *Handler) parseRecord(w http.ResponseWriter, r *http.Request) (form.Record, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return form.Record{}, false
	}
	return form.FromValues(r.PostForm), true
}

// APIRecommend handles POST /api/v1/recommend
func (h *Handler) APIRecommend(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r, true)
	if svc == nil {
		return
	}

	var req RecommendRequestDTO
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, r, WrapError(err, ErrorCodeInvalidRequest, "invalid request body"))
		return
	}

	recommendation, err := svc.Recommend(r.Context(), req.Text)
	if err != nil {
		h.writeError(w, r, FromError(err))
		return
	}

	h.writeJSON(w, http.StatusOK, recommendation)
}

// APIForm handles POST /api/v1/form
func (h *Handler) APIForm(w http.ResponseWriter, r *http.Request) {
	svc := h.service(w, r, true)
	if svc == nil {
		return
	}

	var record form.Record
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&record); err != nil {
		h.writeError(w, r, WrapError(err, ErrorCodeInvalidRequest, "invalid request body"))
		return
	}

	h.writeJSON(w, http.StatusOK, FormResponseDTO{
		Text:        svc.RenderForm(record),
		FileName:    form.FileName,
		ContentType: form.ContentType,
	})
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.manager.HealthCheck(r.Context())

	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, status)
}

// DetailedHealth handles GET /api/v1/health
func (h *Handler) DetailedHealth(w http.ResponseWriter, r *http.Request) {
	status := h.monitor.GetDetailedHealthStatus(r.Context(), h.manager)

	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, status)
}

// Metrics handles GET /api/v1/metrics
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.monitor.GetMetricsCollector().GetMetrics())
}

// writePage renders into a buffer so a template failure still yields a clean 500
func (h *Handler) writePage(w http.ResponseWriter, r *http.Request, status int, data *PageData) {
	var buf bytes.Buffer
	if err := renderPage(&buf, data); err != nil {
		h.logger.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("Failed to render page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, apiErr *APIError) {
	if apiErr.Code == ErrorCodeInvalidRequest || apiErr.Code == ErrorCodeServiceUnavailable {
		LogError(h.logger.With().Str("request_id", middleware.GetReqID(r.Context())).Logger(), apiErr, r.URL.Path)
	}
	h.writeJSON(w, apiErr.HTTPStatus(), ErrorResponseDTO{Error: apiErr})
}
