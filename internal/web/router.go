// Package web serves the dashboard JSON API over gin.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskmate/internal/auth"
	"taskmate/internal/insights"
	"taskmate/internal/metrics"
	"taskmate/internal/schedule"
	"taskmate/internal/storage"
	"taskmate/internal/tasks"
	logx "taskmate/pkg/logx"
)

const (
	maxBodySize       = 64 << 10
	defaultHistoryMax = 20
)

// TaskSubmitter is implemented by *tasks.Service.
type TaskSubmitter interface {
	Submit(ctx context.Context, req tasks.Request) (tasks.ScheduledTask, error)
}

// InsightFlows is implemented by *insights.Service.
type InsightFlows interface {
	GenerateInsights(ctx context.Context, in insights.InsightsInput) (insights.InsightsOutput, error)
	SuggestActions(ctx context.Context, in insights.SuggestionsInput) (insights.SuggestionsOutput, error)
	History(ctx context.Context, limit int) ([]storage.InsightRecord, error)
}

// Deps wires the handlers. Builder and PreviewCount are read per request so
// config reloads take effect without rebuilding the router.
type Deps struct {
	Auth         *auth.Authenticator
	Builder      func() schedule.Builder
	PreviewCount func() int
	Tasks        TaskSubmitter
	Insights     InsightFlows
	Metrics      *metrics.Metrics
	// ModelTimeout bounds one insight or suggestion flow. nil or <= 0 leaves
	// only the request context.
	ModelTimeout func() time.Duration
	// Health returns extra data for /healthz (e.g. supervisor snapshots).
	Health func() any
	Log    logx.Logger
}

type handlers struct {
	Deps
}

// NewRouter builds the gin engine. Call gin.SetMode before NewRouter.
func NewRouter(d Deps) *gin.Engine {
	if d.Builder == nil {
		b := schedule.NewBuilder()
		d.Builder = func() schedule.Builder { return b }
	}
	if d.PreviewCount == nil {
		d.PreviewCount = func() int { return 3 }
	}
	if d.Auth == nil {
		d.Auth = auth.New(auth.Config{})
	}
	h := &handlers{Deps: d}

	router := gin.New()
	router.Use(gin.Recovery(), h.requestLog(), limitBody(maxBodySize))

	router.GET("/healthz", h.handleHealth)
	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := router.Group("/api", d.Auth.Middleware("/api/login"))
	{
		api.POST("/login", h.handleLogin)
		api.GET("/employees", h.handleEmployees)
		api.GET("/dashboard/stats", h.handleStats)
		api.GET("/dashboard/chart", h.handleChart)
		api.POST("/schedules/compile", h.handleCompile)
		api.POST("/tasks", h.handleSubmitTask)
		api.POST("/insights", h.handleInsights)
		api.POST("/suggestions", h.handleSuggestions)
		api.GET("/insights/history", h.handleHistory)
	}
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
	})
	return router
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
