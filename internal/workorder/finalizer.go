package workorder

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/octafabbri/hey/internal/dispatch"
	"github.com/octafabbri/hey/pkg/logging"
)

var finalizerTracer = otel.Tracer("hey.internal.workorder.finalizer")

// DocumentRenderer produces the human-readable work order document.
type DocumentRenderer interface {
	Render(req *dispatch.ServiceRequest) ([]byte, error)
}

// Notifier fans out status changes to interested parties.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, req *dispatch.ServiceRequest) error
}

// Finalizer turns a confirmed draft into a submitted work order.
// Persistence gates the status change: if the repository write fails,
// the caller's record is untouched and can be retried.
type Finalizer struct {
	repo     Repository
	renderer DocumentRenderer
	notifier Notifier
	logger   *logging.Logger
}

// NewFinalizer wires the submission pipeline. renderer and notifier
// may be nil; their failures never block submission either way.
func NewFinalizer(repo Repository, renderer DocumentRenderer, notifier Notifier, logger *logging.Logger) *Finalizer {
	if repo == nil {
		panic("workorder: repository cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Finalizer{repo: repo, renderer: renderer, notifier: notifier, logger: logger}
}

// Finalize submits the record. Calling it on an already-submitted
// record is a no-op returning the record unchanged, so a retried
// consent cannot double-submit.
func (f *Finalizer) Finalize(ctx context.Context, req *dispatch.ServiceRequest) (*dispatch.ServiceRequest, error) {
	ctx, span := finalizerTracer.Start(ctx, "workorder.finalize")
	defer span.End()
	span.SetAttributes(attribute.String("request.id", req.ID))

	if req.Status != dispatch.StatusDraft {
		f.logger.Info("finalize called on non-draft request, skipping",
			"request_id", req.ID, "status", string(req.Status))
		return req.Clone(), nil
	}

	submitted := req.Clone()
	submitted.Status = dispatch.StatusSubmitted
	now := time.Now().UTC()
	submitted.SubmittedAt = &now

	if err := f.repo.Upsert(ctx, submitted); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("workorder: persist submission: %w", err)
	}

	if f.renderer != nil {
		if _, err := f.renderer.Render(submitted); err != nil {
			// The work order exists; a broken document only affects
			// the download.
			f.logger.Error("work order document render failed",
				"request_id", submitted.ID, "error", err.Error())
		}
	}
	if f.notifier != nil {
		if err := f.notifier.NotifyStatusChange(ctx, submitted); err != nil {
			f.logger.Error("submission notification failed",
				"request_id", submitted.ID, "error", err.Error())
		}
	}

	f.logger.Info("work order submitted",
		"request_id", submitted.ID,
		"service_type", string(submitted.ServiceType),
		"urgency", string(submitted.Urgency),
	)
	return submitted, nil
}
