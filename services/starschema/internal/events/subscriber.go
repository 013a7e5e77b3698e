package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"shenanigigs/services/starschema/internal/config"
)

// RunRequest asks a serving instance to build the star schema for one input.
// Empty fields fall back to the instance's configuration.
type RunRequest struct {
	InputPath   string `json:"input_path"`
	InputFormat string `json:"input_format"`
	OutputDir   string `json:"output_dir"`
}

type Runner interface {
	RunRequested(ctx context.Context, req RunRequest) error
}

type Handler struct {
	logger  *zap.Logger
	nc      *nats.Conn
	tracer  trace.Tracer
	runner  Runner
	timeout time.Duration
	sub     *nats.Subscription
}

func NewHandler(logger *zap.Logger, nc *nats.Conn, tracer trace.Tracer, runner Runner, cfg *config.Config) *Handler {
	return &Handler{
		logger:  logger,
		nc:      nc,
		tracer:  tracer,
		runner:  runner,
		timeout: cfg.RunTimeout,
	}
}

// RegisterSubscriptions joins the run queue group, so each request is handled
// by one instance only.
func (h *Handler) RegisterSubscriptions(lc fx.Lifecycle) error {
	sub, err := h.nc.QueueSubscribe(RunRequestedSubject, "starschema", h.handleRunRequest)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", RunRequestedSubject, err)
	}

	h.sub = sub
	h.logger.Info("Registered NATS subscriptions", zap.String("subject", RunRequestedSubject))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return h.sub.Unsubscribe()
		},
	})

	return nil
}

func (h *Handler) handleRunRequest(msg *nats.Msg) {
	ctx := context.Background()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	ctx, span := h.tracer.Start(ctx, "handleRunRequest")
	defer span.End()

	var req RunRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			h.logger.Error("Invalid run request",
				zap.Error(err),
				zap.String("subject", msg.Subject),
			)
			return
		}
	}

	if err := h.runner.RunRequested(ctx, req); err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to run star schema build",
			zap.Error(err),
			zap.String("input_path", req.InputPath),
		)
		return
	}

	h.logger.Info("Successfully handled run request",
		zap.String("input_path", req.InputPath),
	)
}
