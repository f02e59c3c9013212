package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/hupe1980/routemesh/agent"
	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/internal/testutil"
	"github.com/hupe1980/routemesh/logging"
	"github.com/hupe1980/routemesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type observerMock struct {
	mock.Mock
}

func (o *observerMock) ObserveRoute(agent string, fallback bool) {
	o.Called(agent, fallback)
}

func mustAgent(t *testing.T, name, desc string, llm model.Model) *agent.Agent {
	t.Helper()
	a, err := agent.New(name, desc, "Instructions for "+name, llm)
	require.NoError(t, err)
	return a
}

// newBillingSecurity registers A (billing) and B (security) on a shared
// router model.
func newBillingSecurity(t *testing.T, classify string, optFns ...func(o *Options)) (*Orchestrator, *model.MockModel) {
	t.Helper()
	llm := testutil.RouterModel(testutil.Always(classify), map[string]string{
		"A": "billing reply",
		"B": "security reply",
	})

	o := New(NewLLMClassifier(llm), optFns...)
	o.AddAgent(mustAgent(t, "A", "billing", llm))
	o.AddAgent(mustAgent(t, "B", "security", llm))
	return o, llm
}

func TestRouteRequest_EndToEnd(t *testing.T) {
	o, llm := newBillingSecurity(t, "B is the best fit")

	res, err := o.RouteRequest(context.Background(), "my account was hacked", nil)
	require.NoError(t, err)
	assert.Equal(t, "B", res.Agent)
	assert.Equal(t, "security reply", res.Response)
	assert.False(t, res.Fallback)
	assert.NotEmpty(t, res.RequestID.String())

	reqs := llm.Requests()
	require.Len(t, reqs, 2, "one classification call plus one persona call")
	assert.True(t, testutil.IsClassification(reqs[0]))
	assert.Equal(t, "B", testutil.PersonaName(reqs[1].System))
}

func TestRouteRequest_AgentMatchesClassifyIntent(t *testing.T) {
	o, _ := newBillingSecurity(t, "a")

	d, err := o.ClassifyIntent(context.Background(), "invoice question")
	require.NoError(t, err)

	res, err := o.RouteRequest(context.Background(), "invoice question", nil)
	require.NoError(t, err)
	assert.Equal(t, d.Agent, res.Agent)
	assert.Equal(t, "billing reply", res.Response)
}

func TestClassifyIntent_EchoedName(t *testing.T) {
	o, llm := newBillingSecurity(t, "B")

	d, err := o.ClassifyIntent(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, Decision{Agent: "B", Raw: "B"}, d)

	// Classification never invokes an agent.
	require.Len(t, llm.Requests(), 1)
	assert.True(t, testutil.IsClassification(llm.Requests()[0]))
}

func TestClassifyIntent_FallbackToFirst(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&logging.Config{Level: logging.LogLevelDebug, Format: "text", Output: &buf})

	obs := &observerMock{}
	obs.On("ObserveRoute", "A", true).Once()

	o, _ := newBillingSecurity(t, "none of them", func(o *Options) {
		o.Logger = logger
		o.Observer = obs
	})

	d, err := o.ClassifyIntent(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "A", d.Agent)
	assert.True(t, d.Fallback)
	assert.Contains(t, buf.String(), "orchestrator.classify.fallback")

	res, err := o.RouteRequest(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, "A", res.Agent)
	assert.True(t, res.Fallback)
	obs.AssertExpectations(t)
}

func TestClassifyIntent_MissError(t *testing.T) {
	o, llm := newBillingSecurity(t, "nobody", func(o *Options) { o.MissPolicy = MissError })

	d, err := o.ClassifyIntent(context.Background(), "q")
	require.ErrorIs(t, err, core.ErrNoMatch)
	assert.Equal(t, "nobody", d.Raw)

	_, err = o.RouteRequest(context.Background(), "q", nil)
	assert.ErrorIs(t, err, core.ErrNoMatch)
	for _, r := range llm.Requests() {
		assert.True(t, testutil.IsClassification(r), "no agent may run on a miss")
	}
}

func TestEmptyRegistry(t *testing.T) {
	llm := model.NewMockModel("m", "mock")
	o := New(NewLLMClassifier(llm))

	assert.NotPanics(t, func() {
		_, err := o.ClassifyIntent(context.Background(), "q")
		assert.ErrorIs(t, err, core.ErrNoAgents)

		_, err = o.RouteRequest(context.Background(), "q", nil)
		assert.ErrorIs(t, err, core.ErrNoAgents)
	})
	assert.Empty(t, llm.Requests())
}

func TestAddAgent_OverwriteKeepsPosition(t *testing.T) {
	llm := model.NewMockModel("m", "mock")
	o := New(NewLLMClassifier(llm))

	first := mustAgent(t, "A", "first", llm)
	second := mustAgent(t, "A", "second", llm)

	o.AddAgent(first)
	o.AddAgent(mustAgent(t, "B", "b", llm))
	o.AddAgent(second)

	agents := o.Agents()
	require.Len(t, agents, 2)
	assert.Same(t, second, agents[0])
	assert.Equal(t, "B", agents[1].Name())
	assert.Equal(t, 2, o.Len())

	got, ok := o.Agent("A")
	require.True(t, ok)
	assert.Same(t, second, got)

	_, ok = o.Agent("missing")
	assert.False(t, ok)
}

func TestRouteRequest_DoesNotMutateHistory(t *testing.T) {
	o, llm := newBillingSecurity(t, "A")
	history := testutil.NewConversationBuilder().User("hi").Assistant("hello").Build()

	_, err := o.RouteRequest(context.Background(), "next", history)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	last, _ := llm.LastRequest()
	require.Len(t, last.Messages, 3)
	assert.Equal(t, "next", last.Messages[2].Text())
}

func TestRouteRequest_Errors(t *testing.T) {
	cause := errors.New("classifier offline")
	llm := model.NewMockModel("m", "mock")

	o := New(ClassifierFunc(func(context.Context, string, []core.Candidate) (string, error) {
		return "", cause
	}))
	o.AddAgent(mustAgent(t, "A", "a", llm))

	_, err := o.RouteRequest(context.Background(), "q", nil)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, llm.Requests())

	agentErr := errors.New("persona offline")
	failing := model.NewMockModel("f", "mock")
	failing.FailWith(agentErr)

	o2 := New(ClassifierFunc(func(context.Context, string, []core.Candidate) (string, error) { return "A", nil }))
	o2.AddAgent(mustAgent(t, "A", "a", failing))

	_, err = o2.RouteRequest(context.Background(), "q", nil)
	assert.ErrorIs(t, err, agentErr)
}

func TestClassifierFunc_ReceivesCandidatesInOrder(t *testing.T) {
	llm := model.NewMockModel("m", "mock")
	var got []core.Candidate

	o := New(ClassifierFunc(func(_ context.Context, _ string, c []core.Candidate) (string, error) {
		got = c
		return "C", nil
	}))
	for _, n := range []string{"C", "A", "B"} {
		o.AddAgent(mustAgent(t, n, "desc "+n, llm))
	}

	_, err := o.ClassifyIntent(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []core.Candidate{{Name: "C", Description: "desc C"}, {Name: "A", Description: "desc A"}, {Name: "B", Description: "desc B"}}, got)
}

func TestConcurrentRouting(t *testing.T) {
	o, _ := newBillingSecurity(t, "B")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := o.RouteRequest(context.Background(), "q", nil)
			assert.NoError(t, err)
			assert.Equal(t, "B", res.Agent)
		}()
	}
	wg.Wait()
}

func TestResult_JSON(t *testing.T) {
	o, _ := newBillingSecurity(t, "A")
	res, err := o.RouteRequest(context.Background(), "q", nil)
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.ElementsMatch(t, []string{"request_id", "agent", "response", "fallback"}, keys(m))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
