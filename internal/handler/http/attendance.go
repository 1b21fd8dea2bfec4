package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/sse"
	"github.com/go-chi/chi/v5"
)

// maxUploadMemory bounds the part of a multipart upload kept in memory.
const maxUploadMemory = 32 << 20

type AttendanceImportHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	Events(w http.ResponseWriter, r *http.Request)
	ListFormats(w http.ResponseWriter, r *http.Request)
}

type attendanceImportHandlerImpl struct {
	importService  attendance.ImportService
	hub            *sse.Hub
	defaultCompany string
	keepalive      time.Duration
}

func NewAttendanceImportHandler(importService attendance.ImportService, hub *sse.Hub, defaultCompany string) AttendanceImportHandler {
	return &attendanceImportHandlerImpl{
		importService:  importService,
		hub:            hub,
		defaultCompany: defaultCompany,
		keepalive:      30 * time.Second,
	}
}

// Create implements AttendanceImportHandler.
func (h *attendanceImportHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	req := attendance.NormalizeRequest{
		Company:  strings.TrimSpace(r.FormValue("company")),
		Branch:   strings.TrimSpace(r.FormValue("branch")),
		FromDate: strings.TrimSpace(r.FormValue("from_date")),
		ToDate:   strings.TrimSpace(r.FormValue("to_date")),
	}
	if req.Company == "" {
		req.Company = h.defaultCompany
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil && err != http.ErrMissingFile {
		slog.Error("Failed to get file from form", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return
	}
	if file != nil {
		defer file.Close()
		req.File = file
		req.Filename = fileHeader.Filename
		req.Size = fileHeader.Size
	}

	if !middleware.CanAccessCompany(r, req.Company) {
		response.HandleError(w, auth.ErrCompanyMismatch)
		return
	}

	result, err := h.importService.Normalize(r.Context(), req)
	if err != nil {
		slog.Error("Failed to normalize attendance export", "error", err, "branch", req.Branch, "file", req.Filename)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Attendance export normalized successfully", result)
}

// Get implements AttendanceImportHandler.
func (h *attendanceImportHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	correlationID := chi.URLParam(r, "correlationID")
	if correlationID == "" {
		response.BadRequest(w, "Correlation ID is required", nil)
		return
	}

	result, err := h.importService.GetImport(r.Context(), correlationID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !middleware.CanAccessCompany(r, result.Company) {
		response.HandleError(w, attendance.ErrImportNotFound)
		return
	}

	response.Success(w, result)
}

// Cancel implements AttendanceImportHandler.
func (h *attendanceImportHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	correlationID := chi.URLParam(r, "correlationID")
	if correlationID == "" {
		response.BadRequest(w, "Correlation ID is required", nil)
		return
	}

	job, err := h.importService.GetImport(r.Context(), correlationID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if !middleware.CanAccessCompany(r, job.Company) {
		response.HandleError(w, attendance.ErrImportNotFound)
		return
	}

	if err := h.importService.CancelImport(r.Context(), correlationID); err != nil {
		slog.Error("Failed to cancel attendance import", "error", err, "correlation_id", correlationID)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance import cancelled", nil)
}

// Events implements AttendanceImportHandler. It streams progress of one import as
// server-sent events until the import finishes or the client goes away.
func (h *attendanceImportHandlerImpl) Events(w http.ResponseWriter, r *http.Request) {
	correlationID := chi.URLParam(r, "correlationID")
	job, err := h.importService.GetImport(r.Context(), correlationID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if !middleware.CanAccessCompany(r, job.Company) {
		response.HandleError(w, attendance.ErrImportNotFound)
		return
	}

	// Check if streaming is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(correlationID)
	defer cleanup()

	current := cron.NewImportProgress(attendance.ImportJob{
		CorrelationID: job.CorrelationID,
		Status:        attendance.ImportStatus(job.Status),
		TotalRows:     job.TotalRows,
		ProcessedRows: job.ProcessedRows,
		FailedRows:    job.FailedRows,
	})
	if current.Status.IsTerminal() {
		writeEvent(w, cron.EventFinished, current)
		flusher.Flush()
		return
	}
	writeEvent(w, "connected", current)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			writeEvent(w, event.Event, event.Data)
			flusher.Flush()
			if event.Event == cron.EventFinished {
				return
			}

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode event", "event", event, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

// ListFormats implements AttendanceImportHandler.
func (h *attendanceImportHandlerImpl) ListFormats(w http.ResponseWriter, r *http.Request) {
	formats := h.importService.ListFormats(r.Context())
	response.SuccessWithMeta(w, formats, &response.Meta{TotalItems: int64(len(formats))})
}
