package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// DocumentTypes returns a handler for GET /api/v1/document-types. It opens a
// browser session, so callers should expect it to take several seconds.
func DocumentTypes(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		types, err := catalog.DocumentTypes(c.Request.Context())
		if err != nil {
			abortErr(c, http.StatusBadGateway, err)
			return
		}
		c.JSON(http.StatusOK, models.DocumentTypesResponse{Status: "success", DocumentTypes: types})
	}
}
