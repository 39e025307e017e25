package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "sesbridge"

// Metrics holds all sesbridge metric instruments.
type Metrics struct {
	// AuthzDenied counts access decisions that denied the caller, with a
	// "layer" attribute naming the check that failed.
	AuthzDenied metric.Int64Counter
	// RequestsCreated counts new workflow requests by kind.
	RequestsCreated metric.Int64Counter
	// RequestTransitions counts status transitions by target status.
	RequestTransitions metric.Int64Counter
	// LoginFailures counts rejected login attempts.
	LoginFailures metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.AuthzDenied, err = meter.Int64Counter("sesbridge.authz.denied",
		metric.WithDescription("Number of denied access decisions"))
	if err != nil {
		return nil, err
	}

	m.RequestsCreated, err = meter.Int64Counter("sesbridge.requests.created",
		metric.WithDescription("Number of workflow requests created"))
	if err != nil {
		return nil, err
	}

	m.RequestTransitions, err = meter.Int64Counter("sesbridge.requests.transitions",
		metric.WithDescription("Number of request status transitions"))
	if err != nil {
		return nil, err
	}

	m.LoginFailures, err = meter.Int64Counter("sesbridge.auth.login_failures",
		metric.WithDescription("Number of rejected login attempts"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
