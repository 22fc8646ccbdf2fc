package relay

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const ErrTotals = "totals_unavailable"

type StatusResponse struct {
	Running bool `json:"running"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// RegisterRoutes mounts the pipeline control surface. The ingester
// outlives any request, so its loop is bound to the background context
// rather than the request's.
func RegisterRoutes(r gin.IRouter, ingester *Ingester, client redis.UniversalClient) {
	r.POST("/relay/ingester/start", func(c *gin.Context) {
		ingester.Start(context.Background())
		c.JSON(http.StatusOK, StatusResponse{Running: true})
	})
	r.POST("/relay/ingester/stop", func(c *gin.Context) {
		ingester.Stop()
		c.JSON(http.StatusOK, StatusResponse{Running: false})
	})
	r.GET("/relay/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, StatusResponse{Running: ingester.Running()})
	})
	r.GET("/relay/totals", func(c *gin.Context) {
		totals, err := ReadTotals(c.Request.Context(), client)
		if err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: ErrTotals})
			return
		}
		c.JSON(http.StatusOK, totals)
	})
}
