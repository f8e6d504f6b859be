package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskmate/internal/eventbus"
	"taskmate/internal/metrics"
	"taskmate/internal/storage"
	logx "taskmate/pkg/logx"
)

type InsightsInput struct {
	Metrics string `json:"metrics"`
}

type InsightsOutput struct {
	Summary          string `json:"summary"`
	SuggestedActions string `json:"suggestedActions"`
}

type SuggestionsInput struct {
	KeyMetrics string `json:"keyMetrics"`
	Summary    string `json:"summary"`
}

type SuggestionsOutput struct {
	Suggestions string `json:"suggestions"`
}

// Service runs the flows against a Model. Store, bus and metrics are optional.
type Service struct {
	model   Model
	store   storage.Store
	bus     eventbus.Bus
	metrics *metrics.Metrics
	log     logx.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithStore(st storage.Store) Option     { return func(s *Service) { s.store = st } }
func WithBus(b eventbus.Bus) Option         { return func(s *Service) { s.bus = b } }
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }
func WithLogger(log logx.Logger) Option     { return func(s *Service) { s.log = log } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// New returns a Service. A nil model makes every flow return ErrDisabled.
func New(model Model, opts ...Option) *Service {
	s := &Service{model: model, bus: eventbus.Nop, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	if s.bus == nil {
		s.bus = eventbus.Nop
	}
	s.log = s.log.With(logx.String("comp", "insights"))
	return s
}

// Enabled reports whether a model is configured.
func (s *Service) Enabled() bool { return s != nil && s.model != nil }

// GenerateInsights summarizes the metrics and proposes actions.
func (s *Service) GenerateInsights(ctx context.Context, in InsightsInput) (InsightsOutput, error) {
	var out InsightsOutput
	metricsLine := strings.TrimSpace(in.Metrics)
	if metricsLine == "" {
		return out, fmt.Errorf("%w: metrics is required", ErrInvalidInput)
	}
	prompt, err := render(insightsTmpl, InsightsInput{Metrics: metricsLine})
	if err != nil {
		return out, fmt.Errorf("render prompt: %w", err)
	}

	err = s.run(ctx, storage.FlowInsights, Request{Prompt: prompt, Schema: insightsSchema}, &out, func() error {
		if strings.TrimSpace(out.Summary) == "" || strings.TrimSpace(out.SuggestedActions) == "" {
			return ErrEmptyOutput
		}
		return nil
	}, func() storage.InsightRecord {
		return storage.InsightRecord{Input: metricsLine, Summary: out.Summary, Actions: out.SuggestedActions}
	})
	if err != nil {
		return InsightsOutput{}, err
	}
	return out, nil
}

// SuggestActions turns metrics and their summary into concrete suggestions.
func (s *Service) SuggestActions(ctx context.Context, in SuggestionsInput) (SuggestionsOutput, error) {
	var out SuggestionsOutput
	in.KeyMetrics = strings.TrimSpace(in.KeyMetrics)
	in.Summary = strings.TrimSpace(in.Summary)
	var missing []string
	if in.KeyMetrics == "" {
		missing = append(missing, "keyMetrics")
	}
	if in.Summary == "" {
		missing = append(missing, "summary")
	}
	if len(missing) > 0 {
		return out, fmt.Errorf("%w: %s required", ErrInvalidInput, strings.Join(missing, " and "))
	}
	prompt, err := render(suggestionsTmpl, in)
	if err != nil {
		return out, fmt.Errorf("render prompt: %w", err)
	}

	err = s.run(ctx, storage.FlowSuggestions, Request{Prompt: prompt, Schema: suggestionsSchema, Safety: suggestionsSafety}, &out, func() error {
		if strings.TrimSpace(out.Suggestions) == "" {
			return ErrEmptyOutput
		}
		return nil
	}, func() storage.InsightRecord {
		return storage.InsightRecord{Input: in.KeyMetrics, Summary: in.Summary, Actions: out.Suggestions}
	})
	if err != nil {
		return SuggestionsOutput{}, err
	}
	return out, nil
}

// History lists recorded flow outputs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]storage.InsightRecord, error) {
	if s.store == nil {
		return nil, storage.ErrDisabled
	}
	return s.store.ListInsights(ctx, limit)
}

func (s *Service) run(ctx context.Context, flow string, req Request, out any, check func() error, record func() storage.InsightRecord) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	req.Flow = flow
	start := s.now()
	raw, err := s.model.Generate(ctx, req)
	if err == nil {
		err = decodeStrict(raw, out)
	}
	if err == nil {
		err = check()
	}
	took := s.now().Sub(start)
	if err != nil {
		s.metrics.ObserveModel(flow, metrics.ResultError, took)
		s.log.Warn("model flow failed", logx.String("flow", flow), logx.Duration("took", took), logx.Err(err))
		return err
	}
	s.metrics.ObserveModel(flow, metrics.ResultOK, took)

	rec := record()
	rec.ID = uuid.NewString()
	rec.At = s.now()
	rec.Flow = flow
	rec.Model = s.model.Name()
	rec.TookMS = took.Milliseconds()
	if s.store != nil {
		if err := s.store.AppendInsight(ctx, rec); err != nil {
			s.log.Warn("record insight failed", logx.String("flow", flow), logx.Err(err))
		}
	}

	evType := eventbus.InsightsGenerated
	if flow == storage.FlowSuggestions {
		evType = eventbus.SuggestionsGenerated
	}
	s.bus.Publish(eventbus.Event{Type: evType, Time: rec.At, Data: rec})
	s.log.Info("model flow done", logx.String("flow", flow), logx.String("id", rec.ID), logx.Duration("took", took))
	return nil
}

// decodeStrict decodes exactly one JSON object with only known fields.
func decodeStrict(raw string, out any) error {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyOutput
		}
		return fmt.Errorf("decode model output: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("decode model output: trailing data")
	}
	return nil
}
