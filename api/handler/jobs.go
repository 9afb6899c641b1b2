package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/humbal1/pierce-doc-links-scrapper/jobs"
	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// StartJob returns a handler for POST /api/v1/jobs.
func StartJob(svc JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.StartJobRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, http.StatusBadRequest, models.ErrCodeInvalidInput, "document_type required")
			return
		}
		req.Normalize()

		rowRef := ""
		if req.Row > 0 {
			rowRef = strconv.Itoa(req.Row)
		}

		id, err := svc.CreateJob(req.DocumentType, rowRef)
		if errors.Is(err, jobs.ErrEmptyDocumentType) {
			abort(c, http.StatusBadRequest, models.ErrCodeInvalidInput, "document_type required")
			return
		}
		if err != nil {
			abortErr(c, http.StatusInternalServerError, err)
			return
		}
		if err := svc.Start(id); err != nil {
			abortErr(c, http.StatusInternalServerError, err)
			return
		}

		c.JSON(http.StatusOK, models.StartJobResponse{
			Status:  "success",
			JobID:   id,
			Message: "Scraping started for " + req.DocumentType,
		})
	}
}

// GetJob returns a handler for GET /api/v1/jobs/:id.
func GetJob(svc JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := svc.Get(c.Param("id"))
		if !ok {
			abort(c, http.StatusNotFound, models.ErrCodeNotFound, "Job not found")
			return
		}
		c.JSON(http.StatusOK, models.JobResponse{Status: "success", Job: job})
	}
}

// ListJobs returns a handler for GET /api/v1/jobs.
func ListJobs(svc JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.JobsResponse{Status: "success", Jobs: svc.List()})
	}
}
