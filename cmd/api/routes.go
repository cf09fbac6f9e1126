package main

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func (app *application) routes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	// simple logger middleware that uses zap
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		app.Logger.Sugar().Infow("http", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "duration", time.Since(start))
	})

	origins := app.Config.GetCORSOrigins()
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" && slices.Contains(origins, origin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{
			"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With",
		}, ", "))
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) {
		if err := app.DB.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		// provider callbacks authenticate with their own signature
		v1.POST("/video/events", app.Handler.ProviderEvents)
	}

	protected := v1.Group("/")
	protected.Use(app.AuthMiddleware(), app.RateLimitMiddleware())
	{
		// application routes
		protected.POST("/applications", app.Handler.CreateApplication)
		protected.GET("/applications", app.Handler.ListApplications)
		protected.GET("/applications/:id", app.Handler.GetApplication)
		protected.POST("/applications/:id/advance", app.Handler.Advance)
		protected.POST("/applications/:id/reject", app.Handler.Reject)
		protected.POST("/applications/:id/withdraw", app.Handler.Withdraw)
		protected.PATCH("/applications/:id/hired-status", app.Handler.UpdateHiredStatus)
		protected.PUT("/applications/:id/client-feedback", app.Handler.UpdateClientFeedback)
		protected.GET("/applications/:id/timeline", app.Handler.ListTimeline)

		// recruiter gate
		protected.POST("/applications/:id/release", app.Handler.Release)
		protected.POST("/applications/:id/send-back", app.Handler.SendBack)
		protected.POST("/applications/:id/revoke-sharing", app.Handler.RevokeSharing)

		// video sessions
		protected.POST("/video-calls", app.Handler.CreateVideoCall)
		protected.GET("/applications/:id/video-calls", app.Handler.ListVideoCalls)
		protected.POST("/video-calls/:id/end", app.Handler.EndVideoCall)
		protected.POST("/video-calls/:id/tokens", app.Handler.IssueTokens)
		protected.POST("/video-calls/:id/transcript", app.Handler.AttachTranscript)
		protected.DELETE("/video-calls/:id", app.Handler.DeleteVideoCall)

		// offers
		protected.POST("/offers", app.Handler.SendOffer)
		protected.GET("/offers/:id", app.Handler.GetOffer)
		protected.GET("/applications/:id/offer", app.Handler.GetApplicationOffer)
		protected.POST("/offers/:id/view", app.Handler.MarkOfferViewed)
		protected.POST("/offers/:id/counter", app.Handler.SubmitCounterOffer)
		protected.POST("/offers/:id/counter/accept", app.Handler.AcceptCounterOffer)
		protected.POST("/offers/:id/counter/reject", app.Handler.RejectCounterOffer)
		protected.POST("/offers/:id/respond", app.Handler.RespondToOffer)
		protected.POST("/offers/:id/withdraw", app.Handler.WithdrawOffer)

		// outbound webhooks
		protected.POST("/webhooks", app.Handler.CreateWebhook)
		protected.GET("/webhooks", app.Handler.ListWebhooks)
		protected.DELETE("/webhooks/:id", app.Handler.DeleteWebhook)
		protected.GET("/webhooks/:id/deliveries", app.Handler.ListDeliveries)
	}

	return r
}
