package lifecycle

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Component is one long-lived unit of the process: the blacklist, the
// engine, the metrics server, the chat gateway.
type Component interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runtime starts components in registration order and stops them in
// reverse, so producers go down before the stores they write to.
type Runtime struct {
	components []Component
	logger     *log.Entry
}

func NewRuntime(components ...Component) *Runtime {
	return &Runtime{
		components: components,
		logger:     log.WithField("component", "runtime"),
	}
}

func (r *Runtime) Register(component Component) {
	if component == nil {
		return
	}
	r.components = append(r.components, component)
}

// Start brings every component up. A failure stops the already
// started components, in reverse, before returning.
func (r *Runtime) Start(ctx context.Context) error {
	started := make([]Component, 0, len(r.components))
	for _, component := range r.components {
		if component == nil {
			continue
		}
		if err := component.Start(ctx); err != nil {
			_ = r.stopAll(ctx, started)
			return errors.Wrapf(err, "start %T", component)
		}
		r.logger.WithField("unit", fmt.Sprintf("%T", component)).Debug("started")
		started = append(started, component)
	}
	return nil
}

func (r *Runtime) Stop(ctx context.Context) error {
	return r.stopAll(ctx, r.components)
}

// stopAll keeps going past failures so every component gets its Stop;
// the first error is returned, the rest are logged.
func (r *Runtime) stopAll(ctx context.Context, components []Component) error {
	var stopErr error
	for i := len(components) - 1; i >= 0; i-- {
		component := components[i]
		if component == nil {
			continue
		}
		if err := component.Stop(ctx); err != nil {
			if stopErr == nil {
				stopErr = errors.Wrapf(err, "stop %T", component)
				continue
			}
			r.logger.WithError(err).WithField("unit", fmt.Sprintf("%T", component)).Error("cant stop component")
		}
	}
	return stopErr
}
