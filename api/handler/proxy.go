package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
	"github.com/humbal1/pierce-doc-links-scrapper/proxy"
)

// ImageProxy returns a handler for GET /api/v1/image-proxy?url=...
func ImageProxy(f *proxy.Fetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := f.Fetch(c.Request.Context(), c.Query("url"))
		if err != nil {
			var upErr *proxy.UpstreamError
			switch {
			case errors.Is(err, proxy.ErrMissingURL):
				abort(c, http.StatusBadRequest, models.ErrCodeInvalidInput, err.Error())
			case errors.Is(err, proxy.ErrHostNotAllowed):
				abort(c, http.StatusForbidden, models.ErrCodeForbidden, "Only Pierce County URLs allowed")
			case errors.As(err, &upErr):
				abort(c, upErr.Status, models.ErrCodeSessionExpired, upErr.Error())
			default:
				abort(c, http.StatusBadGateway, models.ErrCodeUpstream, err.Error())
			}
			return
		}
		defer resp.Body.Close()

		c.DataFromReader(http.StatusOK, resp.ContentLength, resp.ContentType, resp.Body, nil)
	}
}
