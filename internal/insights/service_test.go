package insights

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmate/internal/eventbus"
	"taskmate/internal/metrics"
	"taskmate/internal/storage"
	logx "taskmate/pkg/logx"
)

type fakeModel struct {
	mu    sync.Mutex
	reply string
	err   error
	reqs  []Request
}

func (f *fakeModel) Name() string { return "fake-model" }

func (f *fakeModel) Generate(ctx context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.reply, f.err
}

func (f *fakeModel) last() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

func newStore(t *testing.T) storage.Store {
	t.Helper()
	st, err := storage.Open(storage.Config{Driver: "file", Path: filepath.Join(t.TempDir(), "h.db")}, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestGenerateInsights(t *testing.T) {
	t.Parallel()
	m := &fakeModel{reply: `{"summary":"Completion is strong.","suggestedActions":"Tackle the 12 overdue tasks."}`}
	st := newStore(t)
	bus := eventbus.New()
	events, unsub := bus.Subscribe(4)
	defer unsub()

	svc := New(m, WithStore(st), WithBus(bus), WithMetrics(metrics.New()))
	out, err := svc.GenerateInsights(context.Background(), InsightsInput{Metrics: "Task Completion Rate: 85%"})
	require.NoError(t, err)
	assert.Equal(t, "Completion is strong.", out.Summary)
	assert.Equal(t, "Tackle the 12 overdue tasks.", out.SuggestedActions)

	req := m.last()
	assert.Equal(t, storage.FlowInsights, req.Flow)
	assert.Contains(t, req.Prompt, "Metrics: Task Completion Rate: 85%")
	assert.Same(t, insightsSchema, req.Schema)
	assert.Empty(t, req.Safety)

	hist, err := svc.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, storage.FlowInsights, hist[0].Flow)
	assert.Equal(t, "fake-model", hist[0].Model)
	assert.Equal(t, "Tackle the 12 overdue tasks.", hist[0].Actions)
	assert.NotEmpty(t, hist[0].ID)

	select {
	case e := <-events:
		assert.Equal(t, eventbus.InsightsGenerated, e.Type)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestSuggestActionsUsesSafetySettings(t *testing.T) {
	t.Parallel()
	m := &fakeModel{reply: `{"suggestions":"1. Rebalance workloads."}`}
	svc := New(m)
	out, err := svc.SuggestActions(context.Background(), SuggestionsInput{KeyMetrics: "Overdue Tasks: 12", Summary: "Overdue work is rising."})
	require.NoError(t, err)
	assert.Equal(t, "1. Rebalance workloads.", out.Suggestions)

	req := m.last()
	assert.Contains(t, req.Prompt, "Based on the following key metrics: Overdue Tasks: 12")
	assert.Contains(t, req.Prompt, "And the following summary: Overdue work is rising.")
	assert.Equal(t, []SafetySetting{
		{Category: HarmHateSpeech, Threshold: BlockOnlyHigh},
		{Category: HarmDangerousContent, Threshold: BlockNone},
		{Category: HarmHarassment, Threshold: BlockMediumAndAbove},
		{Category: HarmSexuallyExplicit, Threshold: BlockLowAndAbove},
	}, req.Safety)

	_, err = svc.History(context.Background(), 0)
	assert.ErrorIs(t, err, storage.ErrDisabled)
}

func TestInputValidation(t *testing.T) {
	t.Parallel()
	m := &fakeModel{}
	svc := New(m)

	_, err := svc.GenerateInsights(context.Background(), InsightsInput{Metrics: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SuggestActions(context.Background(), SuggestionsInput{})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "keyMetrics and summary required")

	assert.Empty(t, m.reqs, "model must not be called on invalid input")
}

func TestOutputChecks(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		reply string
		want  error
	}{
		{"empty body", "", ErrEmptyOutput},
		{"blank field", `{"summary":"ok","suggestedActions":"  "}`, ErrEmptyOutput},
		{"missing field", `{"summary":"ok"}`, ErrEmptyOutput},
		{"unknown field", `{"summary":"a","suggestedActions":"b","extra":1}`, nil},
		{"trailing data", `{"summary":"a","suggestedActions":"b"} {}`, nil},
		{"not json", `Sure! Here are insights.`, nil},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			st := newStore(t)
			svc := New(&fakeModel{reply: tc.reply}, WithStore(st))
			out, err := svc.GenerateInsights(context.Background(), InsightsInput{Metrics: "m"})
			require.Error(t, err)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			} else {
				assert.True(t, strings.HasPrefix(err.Error(), "decode model output"), err.Error())
			}
			assert.Equal(t, InsightsOutput{}, out)

			hist, _ := st.ListInsights(context.Background(), 0)
			assert.Empty(t, hist)
		})
	}
}

func TestModelErrorPropagates(t *testing.T) {
	t.Parallel()
	boom := errors.New("upstream down")
	svc := New(&fakeModel{err: boom})
	_, err := svc.SuggestActions(context.Background(), SuggestionsInput{KeyMetrics: "k", Summary: "s"})
	assert.ErrorIs(t, err, boom)
}

func TestDisabled(t *testing.T) {
	t.Parallel()
	svc := New(nil)
	assert.False(t, svc.Enabled())
	_, err := svc.GenerateInsights(context.Background(), InsightsInput{Metrics: "m"})
	assert.ErrorIs(t, err, ErrDisabled)
}
