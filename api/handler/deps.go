// Package handler implements the HTTP handlers of the job API.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/humbal1/pierce-doc-links-scrapper/jobs"
	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// JobService is the subset of *jobs.Manager the handlers use.
type JobService interface {
	CreateJob(documentType, rowRef string) (string, error)
	Start(id string) error
	Get(id string) (models.Job, bool)
	List() []models.Job
	Stats() models.JobStats
	SyncQueue(ctx context.Context, queue jobs.WorkQueue) ([]models.StartedJob, error)
}

// SheetQueue is the work queue plus direct status writes. *sheets.Client
// implements it.
type SheetQueue interface {
	jobs.WorkQueue
	UpdateStatus(ctx context.Context, row int, status, result string) error
}

// Catalog lists the document types the records site offers.
type Catalog interface {
	DocumentTypes(ctx context.Context) ([]string, error)
}

// abort writes an error body and stops the chain.
func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Status: "error",
		Error:  &models.ErrorDetail{Code: code, Message: message},
	})
}

// abortErr maps a CrawlError to its detail; anything else is an internal error.
func abortErr(c *gin.Context, status int, err error) {
	var ce *models.CrawlError
	if errors.As(err, &ce) {
		detail := ce.ToDetail()
		if ce.Err != nil {
			detail.Message += ": " + ce.Err.Error()
		}
		c.AbortWithStatusJSON(status, models.ErrorResponse{Status: "error", Error: detail})
		return
	}
	abort(c, status, models.ErrCodeInternal, err.Error())
}

// queueDisabled answers requests for work-queue routes when no spreadsheet
// is configured.
func queueDisabled(c *gin.Context) {
	abort(c, http.StatusServiceUnavailable, models.ErrCodeWorkQueue, "work queue is not configured")
}
