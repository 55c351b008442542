package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	config "github.com/sourcecrowd/crowdfund-go/config"
)

// Health reports whether the database is reachable.
func Health(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := cfg.MongoClient.Ping(ctx, nil); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
