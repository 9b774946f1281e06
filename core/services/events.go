package services

import (
	"encoding/json"
	"fmt"

	"github.com/mudler/xlog"
	"github.com/nats-io/nats.go"

	"github.com/mudler/LocalSRS/core/schema"
)

// JobSubjectPrefix is the NATS subject tree job lifecycle events publish
// under; the job state is the final token.
const JobSubjectPrefix = "localsrs.jobs"

// EventPublisher pushes job lifecycle events to NATS. Without an address it
// is a no-op, so callers never branch on whether eventing is configured.
type EventPublisher struct {
	nc *nats.Conn
}

func NewEventPublisher(address string) (*EventPublisher, error) {
	if address == "" {
		return &EventPublisher{}, nil
	}
	nc, err := nats.Connect(address,
		nats.Name("localsrs"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", address, err)
	}
	xlog.Info("publishing job events", "nats", address, "subject", JobSubjectPrefix+".*")
	return &EventPublisher{nc: nc}, nil
}

// PublishJob emits the job under localsrs.jobs.<state>. Publishing is best
// effort: failures are logged, never surfaced to the pipeline.
func (p *EventPublisher) PublishJob(job *schema.Job) {
	if p == nil || p.nc == nil {
		return
	}
	data, err := json.Marshal(job)
	if err != nil {
		xlog.Warn("cannot marshal job event", "job", job.ID, "error", err)
		return
	}
	subject := fmt.Sprintf("%s.%s", JobSubjectPrefix, job.State)
	if err := p.nc.Publish(subject, data); err != nil {
		xlog.Warn("job event publish failed", "job", job.ID, "subject", subject, "error", err)
	}
}

func (p *EventPublisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		xlog.Warn("nats drain failed", "error", err)
	}
}
