package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sirfoga/gamer/internal/api/domain"
	"github.com/sirfoga/gamer/internal/api/dto"
	"github.com/sirfoga/gamer/internal/api/model"
	"github.com/sirfoga/gamer/internal/api/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// runRequestMessage is the queue message consumed by the worker service
type runRequestMessage struct {
	RunID string `json:"run_id"`
}

// CreateRun handles POST /api/v1/runs
// Records a new run and queues it for a worker
func (h *RunHandler) CreateRun(c *gin.Context) {
	var req dto.CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	folder := strings.TrimSpace(req.ConfigFolder)
	if folder == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "config_folder is required",
		})
		return
	}

	now := time.Now().UTC()
	run := model.Run{
		RunID:        uuid.New().String(),
		ConfigFolder: filepath.Clean(folder),
		Status:       domain.RunStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx := c.Request.Context()
	if err := h.store.CreateRun(ctx, &run); err != nil {
		h.logger.Error("Failed to create run", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create run",
		})
		return
	}

	body, err := json.Marshal(runRequestMessage{RunID: run.RunID})
	if err != nil {
		h.logger.Error("Failed to encode run request", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to queue run",
		})
		return
	}

	if err := h.publisher.PublishWithRetry(ctx, body, "application/json"); err != nil {
		h.logger.Error("Failed to publish run request",
			slog.String("run_id", run.RunID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":  "Failed to queue run",
			"run_id": run.RunID,
		})
		return
	}

	h.logger.Info("Run queued",
		slog.String("run_id", run.RunID),
		slog.String("config_folder", run.ConfigFolder),
	)

	c.JSON(http.StatusAccepted, toRunDTO(&run))
}

// GetRun handles GET /api/v1/runs/:run_id
// Returns a run with the outcome of each of its jobs
func (h *RunHandler) GetRun(c *gin.Context) {
	runID := c.Param("run_id")

	if _, err := uuid.Parse(runID); err != nil {
		h.logger.Error("Invalid run_id format", slog.String("run_id", runID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "run_id must be a valid UUID",
		})
		return
	}

	ctx := c.Request.Context()
	run, err := h.store.GetRunByID(ctx, runID)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Run not found",
			})
			return
		}
		h.logger.Error("Failed to get run", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get run",
		})
		return
	}

	jobs, err := h.store.ListRunJobs(ctx, runID)
	if err != nil {
		h.logger.Error("Failed to list run jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get run",
		})
		return
	}

	resp := dto.RunDetailResponse{
		RunDTO: toRunDTO(run),
		Jobs:   make([]dto.RunJobDTO, len(jobs)),
	}
	for i, job := range jobs {
		resp.Jobs[i] = dto.RunJobDTO{
			SourcePath: job.SourcePath,
			Status:     job.Status,
			Error:      job.ErrorMessage.String,
			StartedAt:  formatNullTime(job.StartedAt),
			FinishedAt: formatNullTime(job.FinishedAt),
			DurationMS: job.DurationMS,
		}
	}

	c.JSON(http.StatusOK, resp)
}

// ListRuns handles GET /api/v1/runs
// Lists runs newest first with cursor pagination
func (h *RunHandler) ListRuns(c *gin.Context) {
	var req dto.ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.Status != "" && !domain.IsValidRunStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid status",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	cursor, err := DecodeRunCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	runs, err := h.store.ListRuns(c.Request.Context(), storage.RunFilter{
		Status:   req.Status,
		PageSize: req.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.logger.Error("Failed to list runs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list runs",
		})
		return
	}

	hasMore := len(runs) > req.PageSize
	if hasMore {
		runs = runs[:req.PageSize]
	}

	resp := dto.ListRunsResponse{Runs: make([]dto.RunDTO, len(runs))}
	for i := range runs {
		resp.Runs[i] = toRunDTO(&runs[i])
	}

	if hasMore {
		last := runs[len(runs)-1]
		resp.NextCursor = EncodeRunCursor(&storage.RunCursor{
			CreatedAt: last.CreatedAt,
			RunID:     last.RunID,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func toRunDTO(run *model.Run) dto.RunDTO {
	return dto.RunDTO{
		RunID:        run.RunID,
		ConfigFolder: run.ConfigFolder,
		Status:       run.Status,
		WorkerID:     run.WorkerID.String,
		Succeeded:    run.Succeeded,
		Failed:       run.Failed,
		Skipped:      run.Skipped,
		Error:        run.ErrorMessage.String,
		CreatedAt:    run.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    run.UpdatedAt.Format(time.RFC3339),
		StartedAt:    formatNullTime(run.StartedAt),
		CompletedAt:  formatNullTime(run.CompletedAt),
	}
}

func formatNullTime(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format(time.RFC3339)
}
