package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/illust-harvester/internal/delivery/http/request"
	"github.com/user/illust-harvester/internal/delivery/http/response"
	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/repository"
	"github.com/user/illust-harvester/internal/usecase"
)

const maxBodyBytes = 1 << 20

// Pinger is a dependency the health check reports on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Handler struct {
	jobs           usecase.JobManager
	audit          repository.AuditReader
	checks         map[string]Pinger
	defaultChannel string
	logger         *zap.Logger
}

func NewHandler(
	jobs usecase.JobManager,
	audit repository.AuditReader,
	checks map[string]Pinger,
	defaultChannel string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		jobs:           jobs,
		audit:          audit,
		checks:         checks,
		defaultChannel: defaultChannel,
		logger:         logger,
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	if err := request.Decode(body, v); err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, fields request.JobFields, job entity.Job) {
	if err := fields.CheckPaths(); err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	jobID, err := h.jobs.Submit(r.Context(), job)
	if err != nil {
		h.logger.Error("failed to submit job", zap.String("kind", string(job.Kind)), zap.String("key", job.Key), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusAccepted, response.SubmitJobResponse{
		Status:  "success",
		Message: "job accepted",
		JobID:   jobID,
		Channel: job.ChannelID,
	})
}

func (h *Handler) HandleSubmitRanking(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitRankingRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.submit(w, r, req.JobFields, req.Job(entity.JobKindRanking, req.RankingType, h.defaultChannel))
}

func (h *Handler) HandleSubmitSearch(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitSearchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.submit(w, r, req.JobFields, req.Job(entity.JobKindSearch, req.SearchUser, h.defaultChannel))
}

func (h *Handler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	status, err := h.jobs.GetStatus(r.Context(), jobID)
	if errors.Is(err, repository.ErrJobNotFound) {
		h.writeJSONError(w, "Job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get job status", zap.String("job_id", jobID), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewJobStatusResponse(status))
}

func (h *Handler) HandleListFailures(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	failures, err := h.jobs.ListFailures(r.Context(), jobID)
	if errors.Is(err, repository.ErrJobNotFound) {
		h.writeJSONError(w, "Job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to list job failures", zap.String("job_id", jobID), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewFailedDownloadResponses(failures))
}

func (h *Handler) HandleReadAuditLog(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	result, err := h.audit.ReadPage(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("failed to read audit log", zap.Error(err))
		h.writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleDeleteAuditRecord deletes the image first and the audit line second.
// An image no record points at is refused; any other failed image removal
// does not stop the line from being deleted.
func (h *Handler) HandleDeleteAuditRecord(w http.ResponseWriter, r *http.Request) {
	var req request.DeleteAuditRecordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	imageDeleted := false
	if req.ImagePath != "" {
		err := h.audit.DeleteImage(r.Context(), req.ImagePath)
		if errors.Is(err, repository.ErrUntrackedImage) {
			h.writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			h.logger.Warn("failed to delete image, deleting audit record anyway", zap.String("path", req.ImagePath), zap.Error(err))
		} else {
			imageDeleted = true
		}
	}

	start := time.Now()
	deleted, err := h.audit.DeleteRecord(r.Context(), req.JSONObject)
	if err != nil {
		h.logger.Error("failed to delete audit record", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.DeleteAuditRecordResponse{
		Deleted:      deleted,
		ImageDeleted: imageDeleted,
		Message:      "deleted in " + time.Since(start).Round(time.Millisecond).String(),
	})
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			status[name] = "unavailable"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	h.writeJSON(w, code, status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
