package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/domain/entity"
)

const defaultListLimit = 20

type JobUseCase interface {
	StartJob(ctx context.Context, requestedBy string) (string, error)
	GetStatus(ctx context.Context, jobID string) (*entity.Job, error)
	ListImages(ctx context.Context, jobID string) ([]string, error)
	ListJobs(ctx context.Context, limit int) ([]entity.JobRecord, error)
}

type JobHandler struct {
	UseCase JobUseCase
}

func NewJobHandler(u JobUseCase) *JobHandler {
	return &JobHandler{UseCase: u}
}

func (h *JobHandler) Register(r gin.IRouter) {
	r.POST("/jobs/start", h.StartJob)
	r.GET("/jobs", h.ListJobs)
	r.GET("/jobs/:job_id/status", h.GetStatus)
	r.GET("/jobs/:job_id/images", h.GetImages)
}

func resultsURL(jobID string) string {
	return fmt.Sprintf("/api/jobs/%s/images", jobID)
}

// StartJob accepts an optional {"requestedBy": "..."} body; anything
// unparseable is treated as absent.
func (h *JobHandler) StartJob(c *gin.Context) {
	var body struct {
		RequestedBy string `json:"requestedBy"`
	}
	_ = c.ShouldBindJSON(&body)

	jobID, err := h.UseCase.StartJob(c.Request.Context(), body.RequestedBy)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"jobId":      jobID,
		"statusUrl":  fmt.Sprintf("/api/jobs/%s/status", jobID),
		"resultsUrl": resultsURL(jobID),
	})
}

func (h *JobHandler) GetStatus(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.UseCase.GetStatus(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, entity.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobId":        job.JobID,
		"state":        job.State,
		"error":        job.Error,
		"createdAtUtc": job.CreatedAtUTC,
		"total":        job.Total,
		"done":         job.Done,
		"percent":      job.Percent(),
		"completed":    job.Completed(),
		"resultsUrl":   resultsURL(jobID),
	})
}

func (h *JobHandler) GetImages(c *gin.Context) {
	jobID := c.Param("job_id")

	urls, err := h.UseCase.ListImages(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if urls == nil {
		urls = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"jobId":  jobID,
		"count":  len(urls),
		"images": urls,
	})
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	records, err := h.UseCase.ListJobs(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	jobs := make([]gin.H, 0, len(records))
	for _, r := range records {
		jobs = append(jobs, gin.H{
			"jobId":       r.JobID,
			"requestedBy": r.RequestedBy,
			"createdAt":   r.CreatedAt,
			"statusUrl":   fmt.Sprintf("/api/jobs/%s/status", r.JobID),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(jobs),
		"jobs":  jobs,
	})
}
