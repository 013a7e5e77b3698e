package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"shenanigigs/common/telemetry"
	"shenanigigs/services/starschema/internal/errors"
)

var tracer = telemetry.GetTracer("shenanigigs/starschema/events")

const (
	RunCompletedSubject = "starschema.run.completed"
	RunRequestedSubject = "starschema.run.requested"
)

// RunCompleted announces a finished load so downstream consumers can refresh.
type RunCompleted struct {
	RunID      string         `json:"run_id"`
	InputPath  string         `json:"input_path"`
	Postings   int            `json:"postings"`
	Rows       map[string]int `json:"rows"`
	Unresolved map[string]int `json:"unresolved,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

type Publisher interface {
	PublishRunCompleted(ctx context.Context, event *RunCompleted) error
	Close()
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
}

func NewPublisher(logger *zap.Logger, conn *nats.Conn, subject string) Publisher {
	if subject == "" {
		subject = RunCompletedSubject
	}
	return &natsPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger,
	}
}

func (p *natsPublisher) PublishRunCompleted(ctx context.Context, event *RunCompleted) error {
	_, span := tracer.Start(ctx, "PublishRunCompleted")
	defer span.End()

	data, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return errors.Internal("marshaling run event", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", p.subject),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(p.subject, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish run event",
			zap.String("run_id", event.RunID),
			zap.Error(err))
		return errors.Unavailable("publishing to NATS", err)
	}

	p.logger.Debug("published run event",
		zap.String("run_id", event.RunID),
		zap.String("subject", p.subject))
	return nil
}

func (p *natsPublisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
	}
}
