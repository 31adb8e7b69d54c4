// Package stage defines the contract between the worker manager and the
// job handlers that wrap external tools.
package stage

import (
	"context"

	"moviola/internal/queue"
)

// Sink receives captured tool output line by line while a job runs.
type Sink interface {
	Line(text string)
}

// Handler executes one job kind.
type Handler interface {
	Kind() queue.Kind
	Execute(ctx context.Context, job *queue.Job, out Sink) error
	HealthCheck(ctx context.Context) Health
}

// Health describes a handler's readiness, typically whether its external
// tool resolves on PATH.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy builds a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy builds a not-ready Health record with a reason.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
