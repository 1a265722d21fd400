package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// PrometheusHandler returns a Gin handler for Prometheus metrics
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler != nil {
			handler.ServeHTTP(c.Writer, c.Request)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "metrics handler not initialized",
			})
		}
	}
}

// Metrics holds the domain instruments recorded by services and the chat gateway
type Metrics struct {
	registrations metric.Int64Counter
	logins        metric.Int64Counter
	tokensIssued  metric.Int64Counter
	wsConnections metric.Int64UpDownCounter
	messages      metric.Int64Counter
}

// NewMetrics creates the domain instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.registrations, err = meter.Int64Counter("auth_registrations_total",
		metric.WithDescription("Accounts registered")); err != nil {
		return nil, fmt.Errorf("failed to create registrations counter: %w", err)
	}

	if m.logins, err = meter.Int64Counter("auth_logins_total",
		metric.WithDescription("Login attempts by result")); err != nil {
		return nil, fmt.Errorf("failed to create logins counter: %w", err)
	}

	if m.tokensIssued, err = meter.Int64Counter("auth_tokens_issued_total",
		metric.WithDescription("Token pairs issued by flow")); err != nil {
		return nil, fmt.Errorf("failed to create tokens counter: %w", err)
	}

	if m.wsConnections, err = meter.Int64UpDownCounter("chat_ws_connections",
		metric.WithDescription("Open chat WebSocket connections")); err != nil {
		return nil, fmt.Errorf("failed to create connections gauge: %w", err)
	}

	if m.messages, err = meter.Int64Counter("chat_messages_total",
		metric.WithDescription("Chat messages persisted by type")); err != nil {
		return nil, fmt.Errorf("failed to create messages counter: %w", err)
	}

	return m, nil
}

// NewNopMetrics returns instruments that record nothing
func NewNopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("nop"))
	return m
}

func (m *Metrics) RecordRegistration(ctx context.Context) {
	m.registrations.Add(ctx, 1)
}

// RecordLogin counts a login attempt; result is success, failure or disabled.
func (m *Metrics) RecordLogin(ctx context.Context, result string) {
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) RecordTokensIssued(ctx context.Context, flow string) {
	m.tokensIssued.Add(ctx, 1, metric.WithAttributes(attribute.String("flow", flow)))
}

func (m *Metrics) ConnectionOpened(ctx context.Context) {
	m.wsConnections.Add(ctx, 1)
}

func (m *Metrics) ConnectionClosed(ctx context.Context) {
	m.wsConnections.Add(ctx, -1)
}

func (m *Metrics) RecordMessage(ctx context.Context, messageType string) {
	m.messages.Add(ctx, 1, metric.WithAttributes(attribute.String("type", messageType)))
}
