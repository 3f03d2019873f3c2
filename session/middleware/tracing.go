package middleware

import (
	"context"

	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/pipeline"
	"github.com/absmach/tabula/session"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ session.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    session.Service
}

func Tracing(tracer trace.Tracer, svc session.Service) session.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) CreateSession(ctx context.Context, upload session.Upload) (session.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "create-session", trace.WithAttributes(
		attribute.String("name", upload.Name),
		attribute.String("format", string(upload.Format)),
		attribute.Int("bytes", len(upload.Data)),
	))
	defer span.End()

	return tm.svc.CreateSession(ctx, upload)
}

func (tm *tracing) CloneSample(ctx context.Context, sampleID string, task compute.TaskKind) (session.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "clone-sample", trace.WithAttributes(
		attribute.String("sample_id", sampleID),
		attribute.String("task", string(task)),
	))
	defer span.End()

	return tm.svc.CloneSample(ctx, sampleID, task)
}

func (tm *tracing) ListSamples(ctx context.Context) ([]session.Sample, error) {
	ctx, span := tm.tracer.Start(ctx, "list-samples")
	defer span.End()

	return tm.svc.ListSamples(ctx)
}

func (tm *tracing) GetSession(ctx context.Context, id string, previewRows int) (session.View, error) {
	ctx, span := tm.tracer.Start(ctx, "get-session", trace.WithAttributes(
		attribute.String("id", id),
		attribute.Int("preview_rows", previewRows),
	))
	defer span.End()

	return tm.svc.GetSession(ctx, id, previewRows)
}

func (tm *tracing) ListSessions(ctx context.Context, offset, limit uint64) (session.SessionPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-sessions", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListSessions(ctx, offset, limit)
}

func (tm *tracing) SetTarget(ctx context.Context, id, target string) (session.View, error) {
	ctx, span := tm.tracer.Start(ctx, "set-target", trace.WithAttributes(
		attribute.String("id", id),
		attribute.String("target", target),
	))
	defer span.End()

	return tm.svc.SetTarget(ctx, id, target)
}

func (tm *tracing) RunStage(ctx context.Context, id string, stage pipeline.Stage) (resp session.StageResult, err error) {
	ctx, span := tm.tracer.Start(ctx, "run-stage", trace.WithAttributes(
		attribute.String("id", id),
		attribute.String("stage", stage.Kind.String()),
		attribute.String("method", string(stage.Method)),
		attribute.Int("test_percentage", stage.TestFraction),
	))
	defer span.End()

	resp, err = tm.svc.RunStage(ctx, id, stage)
	if err == nil {
		span.SetAttributes(
			attribute.String("state", resp.State.String()),
			attribute.Int64("version", int64(resp.Version)),
		)
	}

	return resp, err
}

func (tm *tracing) GetSplit(ctx context.Context, id string) (session.TrainingInput, error) {
	ctx, span := tm.tracer.Start(ctx, "get-split", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.GetSplit(ctx, id)
}

func (tm *tracing) Train(ctx context.Context, id, model string) (compute.TrainResult, error) {
	ctx, span := tm.tracer.Start(ctx, "train", trace.WithAttributes(
		attribute.String("id", id),
		attribute.String("model", model),
	))
	defer span.End()

	return tm.svc.Train(ctx, id, model)
}

func (tm *tracing) ClearSession(ctx context.Context, id string) error {
	ctx, span := tm.tracer.Start(ctx, "clear-session", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.ClearSession(ctx, id)
}
