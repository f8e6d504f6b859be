package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taskmate/internal/directory"
	"taskmate/internal/insights"
	"taskmate/internal/metrics"
	"taskmate/internal/schedule"
	"taskmate/internal/storage"
	"taskmate/internal/tasks"
	logx "taskmate/pkg/logx"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// compileRequest flattens the recurrence fields next to frequency.
type compileRequest struct {
	Frequency string `json:"frequency"`
	schedule.Fields
}

type compileResponse struct {
	Frequency string      `json:"frequency"`
	Cron      string      `json:"cron"`
	Summary   string      `json:"summary"`
	NextRuns  []time.Time `json:"next_runs"`
}

func (h *handlers) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.Log.Debug("http request",
			logx.String("method", c.Request.Method),
			logx.String("path", c.Request.URL.Path),
			logx.Int("status", c.Writer.Status()),
			logx.Duration("took", time.Since(start)),
		)
	}
}

func (h *handlers) handleHealth(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if h.Health != nil {
		resp["runtime"] = h.Health()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	tok, err := h.Auth.Login(req.Email, req.Password)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": tok})
}

func (h *handlers) handleEmployees(c *gin.Context) {
	list := directory.FilterEmployees(c.Query("q"), c.DefaultQuery("status", directory.StatusAll))
	c.JSON(http.StatusOK, gin.H{"success": true, "employees": list, "count": len(list)})
}

func (h *handlers) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": directory.Stats(), "key_metrics": directory.KeyMetrics()})
}

func (h *handlers) handleChart(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "chart": directory.Chart()})
}

func (h *handlers) handleCompile(c *gin.Context) {
	var req compileRequest
	if !bind(c, &req) {
		return
	}
	b := h.Builder()
	spec, err := b.ValidateAndBuild(req.Frequency, req.Fields)
	if err != nil {
		h.Metrics.ObserveScheduleBuild(req.Frequency, metrics.ResultInvalid)
		invalid(c, schedule.Problems(err), err)
		return
	}
	h.Metrics.ObserveScheduleBuild(req.Frequency, metrics.ResultOK)

	runs, err := b.NextRuns(spec, time.Now(), h.PreviewCount())
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []time.Time{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "schedule": compileResponse{
		Frequency: spec.Frequency().String(),
		Cron:      schedule.Compile(spec),
		Summary:   schedule.Describe(spec),
		NextRuns:  runs,
	}})
}

func (h *handlers) handleSubmitTask(c *gin.Context) {
	if h.Tasks == nil {
		fail(c, http.StatusServiceUnavailable, errors.New("task service unavailable"))
		return
	}
	var req tasks.Request
	if !bind(c, &req) {
		return
	}
	task, err := h.Tasks.Submit(c.Request.Context(), req)
	if err != nil {
		var inv *tasks.Invalid
		if errors.As(err, &inv) {
			invalid(c, inv.Problems, err)
			return
		}
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "task": task})
}

func (h *handlers) handleInsights(c *gin.Context) {
	var in insights.InsightsInput
	if !bindOptional(c, &in) {
		return
	}
	if strings.TrimSpace(in.Metrics) == "" {
		in.Metrics = directory.KeyMetrics()
	}
	if h.Insights == nil {
		modelFail(c, insights.ErrDisabled)
		return
	}
	ctx, cancel := h.flowContext(c)
	defer cancel()
	out, err := h.Insights.GenerateInsights(ctx, in)
	if err != nil {
		modelFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "insights": out})
}

func (h *handlers) handleSuggestions(c *gin.Context) {
	var in insights.SuggestionsInput
	if !bind(c, &in) {
		return
	}
	if h.Insights == nil {
		modelFail(c, insights.ErrDisabled)
		return
	}
	ctx, cancel := h.flowContext(c)
	defer cancel()
	out, err := h.Insights.SuggestActions(ctx, in)
	if err != nil {
		modelFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "suggestions": out})
}

func (h *handlers) flowContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.ModelTimeout != nil {
		if d := h.ModelTimeout(); d > 0 {
			return context.WithTimeout(c.Request.Context(), d)
		}
	}
	return context.WithCancel(c.Request.Context())
}

func (h *handlers) handleHistory(c *gin.Context) {
	limit := defaultHistoryMax
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fail(c, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}
	if h.Insights == nil {
		fail(c, http.StatusNotFound, storage.ErrDisabled)
		return
	}
	recs, err := h.Insights.History(c.Request.Context(), limit)
	if errors.Is(err, storage.ErrDisabled) {
		fail(c, http.StatusNotFound, errors.New("insight history disabled"))
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	if recs == nil {
		recs = []storage.InsightRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "history": recs, "count": len(recs)})
}

// bind decodes a required JSON body and answers 400 on failure.
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		fail(c, http.StatusBadRequest, errors.New("invalid JSON body: "+err.Error()))
		return false
	}
	return true
}

// bindOptional accepts an empty body.
func bindOptional(c *gin.Context, v any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bind(c, v)
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func invalid(c *gin.Context, problems []schedule.FieldError, err error) {
	if problems == nil {
		problems = []schedule.FieldError{}
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "error": err.Error(), "problems": problems})
}

func modelFail(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, insights.ErrInvalidInput):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, insights.ErrDisabled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	fail(c, status, err)
}
