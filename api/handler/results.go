package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
	"github.com/humbal1/pierce-doc-links-scrapper/results"
)

// ListResults returns a handler for GET /api/v1/results.
func ListResults(store *results.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		files, err := store.List()
		if err != nil {
			abortErr(c, http.StatusInternalServerError, err)
			return
		}
		c.JSON(http.StatusOK, models.ResultsResponse{Status: "success", Files: files})
	}
}

// DownloadResult returns a handler for GET /api/v1/results/:filename.
func DownloadResult(store *results.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("filename")
		path, err := store.Path(name)
		if err != nil {
			abort(c, http.StatusNotFound, models.ErrCodeNotFound, "File not found")
			return
		}
		c.FileAttachment(path, name)
	}
}
