package middleware

import (
	"context"
	"time"

	"github.com/hupe1980/routemesh/internal/tokens"
	"github.com/hupe1980/routemesh/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Recorder defines the interface for recording model and routing metrics.
type Recorder interface {
	// ObserveRequest records a completed Generate call.
	ObserveRequest(modelName, provider string, promptTokens, completionTokens int, success bool, duration time.Duration)

	// ObserveQueueWait records time spent waiting on the rate limiter.
	ObserveQueueWait(modelName string, duration time.Duration)

	// ObserveRoute records a routed query and whether it fell back.
	ObserveRoute(agent string, fallback bool)
}

// NoopRecorder discards all metrics.
type NoopRecorder struct{}

// Nop returns a recorder that discards all metrics.
func Nop() Recorder { return NoopRecorder{} }

// ObserveRequest does nothing.
func (NoopRecorder) ObserveRequest(string, string, int, int, bool, time.Duration) {}

// ObserveQueueWait does nothing.
func (NoopRecorder) ObserveQueueWait(string, time.Duration) {}

// ObserveRoute does nothing.
func (NoopRecorder) ObserveRoute(string, bool) {}

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	requestsTotal   *prometheus.CounterVec
	tokensTotal     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	queueWaitTime   *prometheus.HistogramVec
	routesTotal     *prometheus.CounterVec
	fallbackTotal   prometheus.Counter
}

// NewPrometheusRecorder registers the routemesh collectors on reg. A nil reg
// uses prometheus.DefaultRegisterer.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routemesh_model_requests_total",
				Help: "Total number of model requests by model, provider and status",
			},
			[]string{"model", "provider", "status"},
		),
		tokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routemesh_model_tokens_total",
				Help: "Total number of tokens used in model requests",
			},
			[]string{"model", "type"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "routemesh_model_request_duration_seconds",
				Help:    "Duration of model requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model", "provider"},
		),
		queueWaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "routemesh_model_queue_wait_duration_seconds",
				Help:    "Time spent waiting for rate limit availability",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model"},
		),
		routesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routemesh_routes_total",
				Help: "Total number of routed queries by handling agent",
			},
			[]string{"agent"},
		),
		fallbackTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "routemesh_classification_fallback_total",
				Help: "Classifier replies that named no registered agent and fell back to the first one",
			},
		),
	}
}

// ObserveRequest records a completed Generate call.
func (p *PrometheusRecorder) ObserveRequest(modelName, provider string, promptTokens, completionTokens int, success bool, duration time.Duration) {
	status := statusSuccess
	if !success {
		status = statusError
	}

	p.requestsTotal.WithLabelValues(modelName, provider, status).Inc()

	if success {
		p.tokensTotal.WithLabelValues(modelName, "prompt").Add(float64(promptTokens))
		p.tokensTotal.WithLabelValues(modelName, "completion").Add(float64(completionTokens))
	}

	p.requestDuration.WithLabelValues(modelName, provider).Observe(duration.Seconds())
}

// ObserveQueueWait records time spent waiting for rate limit availability.
func (p *PrometheusRecorder) ObserveQueueWait(modelName string, duration time.Duration) {
	p.queueWaitTime.WithLabelValues(modelName).Observe(duration.Seconds())
}

// ObserveRoute records a routed query.
func (p *PrometheusRecorder) ObserveRoute(agent string, fallback bool) {
	p.routesTotal.WithLabelValues(agent).Inc()
	if fallback {
		p.fallbackTotal.Inc()
	}
}

// UsageExtractor returns prompt and completion token counts for a call.
type UsageExtractor func(req model.Request, resp *model.Response) (promptTokens, completionTokens int)

// DefaultUsageExtractor prefers provider reported usage and falls back to a
// local tokenizer estimate.
func DefaultUsageExtractor(req model.Request, resp *model.Response) (promptTokens, completionTokens int) {
	if resp.Usage != nil && resp.Usage.TotalTokens > 0 {
		return resp.Usage.PromptTokens, resp.Usage.CompletionTokens
	}

	promptText := req.System
	for _, msg := range req.Messages {
		promptText += msg.Text() + "\n"
	}

	completionTokens = 0
	if text, err := resp.Text(); err == nil {
		completionTokens = tokens.Count(text)
	}

	return tokens.Count(promptText), completionTokens
}

// Metrics records latency, status and token usage for every Generate call.
// A nil extractor uses DefaultUsageExtractor.
func Metrics(recorder Recorder, extractor UsageExtractor) model.Middleware {
	if recorder == nil {
		recorder = Nop()
	}
	if extractor == nil {
		extractor = DefaultUsageExtractor
	}

	return func(next model.Model) model.Model {
		return model.Wrap(next, func(ctx context.Context, req model.Request) (*model.Response, error) {
			start := time.Now()
			resp, err := next.Generate(ctx, req)
			duration := time.Since(start)

			var promptTokens, completionTokens int
			if err == nil {
				promptTokens, completionTokens = extractor(req, resp)
			}

			info := next.Info()
			recorder.ObserveRequest(info.Name, info.Provider, promptTokens, completionTokens, err == nil, duration)

			return resp, err
		})
	}
}
