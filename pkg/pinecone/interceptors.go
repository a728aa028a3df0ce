package pinecone

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/pinecone/internal/constants"
)

// Request targets.
const (
	TargetController = "controller"
	TargetIndex      = "index"
)

const (
	metadataStartTime = "start_time"
	metadataSpan      = "span"
)

// Request represents an HTTP request that can be intercepted.
type Request struct {
	Method   string
	URL      string
	Target   string
	Headers  http.Header
	Body     []byte
	Metadata map[string]interface{}
}

// Response represents a completed attempt. Error is set when no response was received.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

// RequestInterceptor is called before a request is sent. Returning an error
// aborts the call before it reaches the network.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor observes a completed attempt. It cannot change the outcome.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response)

// InterceptorChain manages a chain of interceptors.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain creates a new interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{
		requestInterceptors:  make([]RequestInterceptor, 0),
		responseInterceptors: make([]ResponseInterceptor, 0),
	}
}

// AddRequestInterceptor adds a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)
}

// AddResponseInterceptor adds a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)
}

// Len returns the total number of interceptors.
func (c *InterceptorChain) Len() int {
	return len(c.requestInterceptors) + len(c.responseInterceptors)
}

// ExecuteRequestInterceptors runs all request interceptors, stopping at the first error.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	for _, interceptor := range c.requestInterceptors {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs all response interceptors.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response) {
	for _, interceptor := range c.responseInterceptors {
		interceptor(ctx, req, resp)
	}
}

// HeaderInterceptor adds custom headers to requests. The authentication,
// accept and content-type headers are always set by the transport afterwards
// and cannot be replaced here.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		for key, value := range headers {
			req.Headers.Set(key, value)
		}

		return nil
	}
}

// RateLimitInterceptor paces requests on the client side. Waiting honours the
// request context; a cancelled wait aborts the call.
func RateLimitInterceptor(requestsPerSecond float64, burst int) RequestInterceptor {
	if burst <= 0 {
		burst = constants.DefaultRateLimitBurst
	}

	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)

	return func(ctx context.Context, req *Request) error {
		err := limiter.Wait(ctx)
		if err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		return nil
	}
}

// MetricsCollector records request counts and latencies in Prometheus.
type MetricsCollector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetricsCollector registers the client metrics on reg. Registering twice
// on the same registry reuses the existing collectors.
func NewMetricsCollector(reg prometheus.Registerer) (*MetricsCollector, error) {
	m := &MetricsCollector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pinecone",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total requests by method, target and status.",
		}, []string{"method", "target", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pinecone",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "target"}),
	}

	if err := registerOrReuse(reg, &m.requests); err != nil {
		return nil, err
	}

	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}

	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("metric already registered with incompatible type: %T", are.ExistingCollector)
			}

			*c = existing

			return nil
		}

		return fmt.Errorf("register metric: %w", err)
	}

	return nil
}

// RequestInterceptor records the request start time.
func (m *MetricsCollector) RequestInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		req.Metadata[metadataStartTime] = time.Now()

		return nil
	}
}

// ResponseInterceptor records the outcome and latency of the attempt.
func (m *MetricsCollector) ResponseInterceptor() ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) {
		status := "error"
		if resp.Error == nil {
			status = strconv.Itoa(resp.StatusCode)
		}

		m.requests.WithLabelValues(req.Method, req.Target, status).Inc()

		if startTime, ok := req.Metadata[metadataStartTime].(time.Time); ok {
			m.duration.WithLabelValues(req.Method, req.Target).Observe(time.Since(startTime).Seconds())
		}
	}
}

// TracingInterceptors returns a pair of interceptors that wrap every attempt
// in an OpenTelemetry client span. The span context is injected into the
// outgoing headers through the global text map propagator.
func TracingInterceptors(tracer trace.Tracer) (RequestInterceptor, ResponseInterceptor) {
	onRequest := func(ctx context.Context, req *Request) error {
		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		spanCtx, span := tracer.Start(ctx, "pinecone "+req.Method+" "+req.Target,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("http.request.method", req.Method),
				attribute.String("url.full", req.URL),
				attribute.String("pinecone.target", req.Target),
			),
		)
		req.Metadata[metadataSpan] = span

		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		otel.GetTextMapPropagator().Inject(spanCtx, propagation.HeaderCarrier(req.Headers))

		return nil
	}

	onResponse := func(ctx context.Context, req *Request, resp *Response) {
		span, ok := req.Metadata[metadataSpan].(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		if resp.Error != nil {
			span.RecordError(resp.Error)
			span.SetStatus(codes.Error, resp.Error.Error())

			return
		}

		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

		if resp.StatusCode >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		}
	}

	return onRequest, onResponse
}
