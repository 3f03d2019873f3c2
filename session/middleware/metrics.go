package middleware

import (
	"context"
	"time"

	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/pipeline"
	"github.com/absmach/tabula/session"
	"github.com/go-kit/kit/metrics"
)

var _ session.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     session.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc session.Service) session.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) CreateSession(ctx context.Context, upload session.Upload) (session.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "create-session").Add(1)
		mm.latency.With("method", "create-session").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.CreateSession(ctx, upload)
}

func (mm *metricsMiddleware) CloneSample(ctx context.Context, sampleID string, task compute.TaskKind) (session.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "clone-sample").Add(1)
		mm.latency.With("method", "clone-sample").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.CloneSample(ctx, sampleID, task)
}

func (mm *metricsMiddleware) ListSamples(ctx context.Context) ([]session.Sample, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-samples").Add(1)
		mm.latency.With("method", "list-samples").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListSamples(ctx)
}

func (mm *metricsMiddleware) GetSession(ctx context.Context, id string, previewRows int) (session.View, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-session").Add(1)
		mm.latency.With("method", "get-session").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetSession(ctx, id, previewRows)
}

func (mm *metricsMiddleware) ListSessions(ctx context.Context, offset, limit uint64) (session.SessionPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-sessions").Add(1)
		mm.latency.With("method", "list-sessions").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListSessions(ctx, offset, limit)
}

func (mm *metricsMiddleware) SetTarget(ctx context.Context, id, target string) (session.View, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "set-target").Add(1)
		mm.latency.With("method", "set-target").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.SetTarget(ctx, id, target)
}

// RunStage labels by stage kind so slow stages are told apart.
func (mm *metricsMiddleware) RunStage(ctx context.Context, id string, stage pipeline.Stage) (session.StageResult, error) {
	defer func(begin time.Time) {
		method := "run-stage-" + stage.Kind.String()
		mm.counter.With("method", method).Add(1)
		mm.latency.With("method", method).Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.RunStage(ctx, id, stage)
}

func (mm *metricsMiddleware) GetSplit(ctx context.Context, id string) (session.TrainingInput, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-split").Add(1)
		mm.latency.With("method", "get-split").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetSplit(ctx, id)
}

func (mm *metricsMiddleware) Train(ctx context.Context, id, model string) (compute.TrainResult, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "train").Add(1)
		mm.latency.With("method", "train").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Train(ctx, id, model)
}

func (mm *metricsMiddleware) ClearSession(ctx context.Context, id string) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "clear-session").Add(1)
		mm.latency.With("method", "clear-session").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ClearSession(ctx, id)
}
