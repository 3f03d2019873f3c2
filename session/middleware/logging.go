package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/pipeline"
	"github.com/absmach/tabula/session"
)

var _ session.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    session.Service
}

func Logging(logger *slog.Logger, svc session.Service) session.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) CreateSession(ctx context.Context, upload session.Upload) (resp session.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("upload",
				slog.String("name", upload.Name),
				slog.String("format", string(upload.Format)),
				slog.Int("bytes", len(upload.Data)),
				slog.String("task", string(upload.Task)),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Create session failed", args...)

			return
		}
		args = append(args, slog.String("id", resp.ID))
		lm.logger.Info("Create session completed successfully", args...)
	}(time.Now())

	return lm.svc.CreateSession(ctx, upload)
}

func (lm *loggingMiddleware) CloneSample(ctx context.Context, sampleID string, task compute.TaskKind) (resp session.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("sample",
				slog.String("id", sampleID),
				slog.String("task", string(task)),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Clone sample failed", args...)

			return
		}
		args = append(args, slog.String("session_id", resp.ID))
		lm.logger.Info("Clone sample completed successfully", args...)
	}(time.Now())

	return lm.svc.CloneSample(ctx, sampleID, task)
}

func (lm *loggingMiddleware) ListSamples(ctx context.Context) (resp []session.Sample, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List samples failed", args...)

			return
		}
		lm.logger.Info("List samples completed successfully", args...)
	}(time.Now())

	return lm.svc.ListSamples(ctx)
}

func (lm *loggingMiddleware) GetSession(ctx context.Context, id string, previewRows int) (resp session.View, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", id),
				slog.Int("preview_rows", previewRows),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get session failed", args...)

			return
		}
		lm.logger.Info("Get session completed successfully", args...)
	}(time.Now())

	return lm.svc.GetSession(ctx, id, previewRows)
}

func (lm *loggingMiddleware) ListSessions(ctx context.Context, offset, limit uint64) (resp session.SessionPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List sessions failed", args...)

			return
		}
		lm.logger.Info("List sessions completed successfully", args...)
	}(time.Now())

	return lm.svc.ListSessions(ctx, offset, limit)
}

func (lm *loggingMiddleware) SetTarget(ctx context.Context, id, target string) (resp session.View, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", id),
				slog.String("target", target),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Set target failed", args...)

			return
		}
		args = append(args, slog.String("state", resp.Dataset.State.String()))
		lm.logger.Info("Set target completed successfully", args...)
	}(time.Now())

	return lm.svc.SetTarget(ctx, id, target)
}

func (lm *loggingMiddleware) RunStage(ctx context.Context, id string, stage pipeline.Stage) (resp session.StageResult, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("stage",
				slog.String("session_id", id),
				slog.String("kind", stage.Kind.String()),
				slog.String("method", string(stage.Method)),
				slog.Int("test_percentage", stage.TestFraction),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Run stage failed", args...)

			return
		}
		args = append(args,
			slog.String("state", resp.State.String()),
			slog.Uint64("version", resp.Version),
			slog.String("fingerprint", resp.Fingerprint),
		)
		lm.logger.Info("Run stage completed successfully", args...)
	}(time.Now())

	return lm.svc.RunStage(ctx, id, stage)
}

func (lm *loggingMiddleware) GetSplit(ctx context.Context, id string) (resp session.TrainingInput, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", id),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get split failed", args...)

			return
		}
		lm.logger.Info("Get split completed successfully", args...)
	}(time.Now())

	return lm.svc.GetSplit(ctx, id)
}

func (lm *loggingMiddleware) Train(ctx context.Context, id, model string) (resp compute.TrainResult, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", id),
				slog.String("model", model),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Train failed", args...)

			return
		}
		lm.logger.Info("Train completed successfully", args...)
	}(time.Now())

	return lm.svc.Train(ctx, id, model)
}

func (lm *loggingMiddleware) ClearSession(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", id),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Clear session failed", args...)

			return
		}
		lm.logger.Info("Clear session completed successfully", args...)
	}(time.Now())

	return lm.svc.ClearSession(ctx, id)
}
