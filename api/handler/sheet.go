package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// SheetSync returns a handler for GET /api/v1/sheet/sync. It lists the rows
// waiting for a scrape without starting anything.
func SheetSync(queue SheetQueue) gin.HandlerFunc {
	if queue == nil {
		return queueDisabled
	}
	return func(c *gin.Context) {
		rows, err := queue.Rows(c.Request.Context())
		if err != nil {
			abort(c, http.StatusBadGateway, models.ErrCodeWorkQueue, err.Error())
			return
		}

		pending := make([]models.QueueRow, 0)
		for _, row := range rows {
			if row.Eligible() {
				row.Status = strings.ToLower(row.Status)
				pending = append(pending, row)
			}
		}
		c.JSON(http.StatusOK, models.SheetSyncResponse{
			Status:      "success",
			PendingJobs: pending,
			TotalRows:   len(rows),
		})
	}
}

// SheetUpdate returns a handler for POST /api/v1/sheet/update.
func SheetUpdate(queue SheetQueue) gin.HandlerFunc {
	if queue == nil {
		return queueDisabled
	}
	return func(c *gin.Context) {
		var req models.SheetUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, http.StatusBadRequest, models.ErrCodeInvalidInput, "row and status required")
			return
		}
		if err := queue.UpdateStatus(c.Request.Context(), req.Row, req.Status, req.ResultFile); err != nil {
			abort(c, http.StatusBadGateway, models.ErrCodeWorkQueue, err.Error())
			return
		}
		c.JSON(http.StatusOK, models.StatusResponse{
			Status:  "success",
			Message: fmt.Sprintf("Row %d updated", req.Row),
		})
	}
}

// AutoSync returns a handler for POST /api/v1/auto-sync. It starts a job
// for every "Start" row.
func AutoSync(svc JobService, queue SheetQueue) gin.HandlerFunc {
	if queue == nil {
		return queueDisabled
	}
	return func(c *gin.Context) {
		started, err := svc.SyncQueue(c.Request.Context(), queue)
		if err != nil {
			abortErr(c, http.StatusBadGateway, err)
			return
		}
		c.JSON(http.StatusOK, models.AutoSyncResponse{
			Status:  "success",
			Message: fmt.Sprintf("Started %d job(s)", len(started)),
			Jobs:    started,
		})
	}
}
