package control

import (
	"context"
	"encoding/base64"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// JobsHandler gives operators read-only visibility into the durable
// River-backed queue, the same admin surface the teacher's QueueHandler
// exposes over its river_job table.
type JobsHandler struct {
	client *river.Client[pgx.Tx]
	dbpool *pgxpool.Pool
}

func NewJobsHandler(client *river.Client[pgx.Tx], dbpool *pgxpool.Pool) *JobsHandler {
	return &JobsHandler{client: client, dbpool: dbpool}
}

type jobDTO struct {
	ID          int64      `json:"id"`
	Queue       string     `json:"queue"`
	Kind        string     `json:"kind"`
	State       string     `json:"state"`
	Attempt     int        `json:"attempt"`
	MaxAttempts int        `json:"max_attempts"`
	Priority    int        `json:"priority"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	CreatedAt   time.Time  `json:"created_at"`
	AttemptedAt *time.Time `json:"attempted_at,omitempty"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
	Errors      []string   `json:"errors,omitempty"`
}

func jobDTOFromRow(job *rivertype.JobRow) jobDTO {
	dto := jobDTO{
		ID:          job.ID,
		Queue:       job.Queue,
		Kind:        job.Kind,
		State:       string(job.State),
		Attempt:     job.Attempt,
		MaxAttempts: job.MaxAttempts,
		Priority:    job.Priority,
		ScheduledAt: job.ScheduledAt,
		CreatedAt:   job.CreatedAt,
	}
	if job.AttemptedAt != nil && !job.AttemptedAt.IsZero() {
		dto.AttemptedAt = job.AttemptedAt
	}
	if job.FinalizedAt != nil && !job.FinalizedAt.IsZero() {
		dto.FinalizedAt = job.FinalizedAt
	}
	for _, e := range job.Errors {
		dto.Errors = append(dto.Errors, e.Error)
	}
	return dto
}

// ListJobs godoc
// @Summary List durable jobs
// @Tags admin
// @Produce json
// @Param state query string false "Job state filter"
// @Param queue query string false "Queue name filter"
// @Param kind query string false "Job kind filter"
// @Param limit query int false "Max jobs to return (default 50, max 200)"
// @Param cursor query string false "Pagination cursor"
// @Success 200 {object} Result
// @Router /api/v1/admin/jobs [get]
func (h *JobsHandler) ListJobs(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	params := river.NewJobListParams().First(limit).OrderBy(river.JobListOrderByID, river.SortOrderDesc)

	if cursorStr := c.Query("cursor"); cursorStr != "" {
		cursorBytes, err := base64.StdEncoding.DecodeString(cursorStr)
		if err != nil {
			BadRequest(c, err, "invalid cursor parameter")
			return
		}
		cursor := &river.JobListCursor{}
		if err := cursor.UnmarshalText(cursorBytes); err != nil {
			BadRequest(c, err, "failed to parse cursor")
			return
		}
		params = params.After(cursor)
	}
	if state := c.Query("state"); state != "" {
		params = params.States(rivertype.JobState(state))
	}
	if queue := c.Query("queue"); queue != "" {
		params = params.Queues(queue)
	}
	if kind := c.Query("kind"); kind != "" {
		params = params.Kinds(kind)
	}

	result, err := h.client.JobList(ctx, params)
	if err != nil {
		InternalError(c, err, "failed to fetch jobs")
		return
	}

	jobs := make([]jobDTO, len(result.Jobs))
	for i, job := range result.Jobs {
		jobs[i] = jobDTOFromRow(job)
	}

	response := gin.H{"jobs": jobs}
	if result.LastCursor != nil {
		if cursorBytes, err := result.LastCursor.MarshalText(); err == nil {
			response["cursor"] = base64.StdEncoding.EncodeToString(cursorBytes)
		}
	}
	Success(c, response)
}

// GetJob godoc
// @Summary Get one durable job by id
// @Tags admin
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} Result
// @Failure 404 {object} Result
// @Router /api/v1/admin/jobs/{id} [get]
func (h *JobsHandler) GetJob(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	jobID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, err, "invalid job id")
		return
	}

	job, err := h.client.JobGet(ctx, jobID)
	if err != nil {
		if err == rivertype.ErrNotFound {
			NotFound(c, err, "job not found")
			return
		}
		InternalError(c, err, "failed to fetch job")
		return
	}
	Success(c, jobDTOFromRow(job))
}

// GetJobStats godoc
// @Summary Get aggregated durable job counts by state
// @Tags admin
// @Produce json
// @Success 200 {object} Result
// @Router /api/v1/admin/jobs/stats [get]
func (h *JobsHandler) GetJobStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	states := []string{"available", "scheduled", "running", "retryable", "completed", "cancelled", "discarded"}
	stats := gin.H{}
	for _, state := range states {
		var count int64
		if err := h.dbpool.QueryRow(ctx, `SELECT COUNT(*) FROM river_job WHERE state = $1`, state).Scan(&count); err != nil {
			InternalError(c, err, "failed to fetch job stats")
			return
		}
		stats[state] = count
	}
	Success(c, stats)
}
