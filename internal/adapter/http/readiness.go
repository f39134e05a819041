package http

import (
	"context"
	"errors"
	"fmt"
)

// Pinger is implemented by the disaster store and every cache backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Readiness reports ready when every named dependency answers a ping.
type Readiness map[string]Pinger

// CheckReadiness pings each dependency and joins the failures.
func (r Readiness) CheckReadiness(ctx context.Context) error {
	var errs []error
	for name, p := range r {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
