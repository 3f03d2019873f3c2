package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/0x6flab/namegenerator"
	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/pipeline"
	pkgerrors "github.com/absmach/tabula/pkg/errors"
	"github.com/absmach/tabula/pkg/mqtt"
	"github.com/absmach/tabula/pkg/storage"
	"github.com/absmach/tabula/session/samples"
	"github.com/absmach/tabula/table"
	"github.com/google/uuid"
)

const defPreviewRows = 20

var (
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported dataset format", pipeline.ErrInvalidParameter)
	ErrTrainerNotSet     = errors.New("training service not configured")
)

type Config struct {
	// RetainOnServer registers uploads with the compute service when it
	// supports it, so restores are served by the service.
	RetainOnServer bool
	PreviewRows    int
}

type service struct {
	sessions  storage.Storage
	compute   compute.Service
	trainer   compute.Trainer
	publisher mqtt.Publisher
	namegen   func() string
	logger    *slog.Logger
	cfg       Config
}

// entry is the stored form of a session.
type entry struct {
	mu      sync.Mutex
	session Session
	ctrl    *pipeline.Controller
}

func (e *entry) meta() Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.session
}

func (e *entry) touch() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.session.UpdatedAt = time.Now().UTC()
}

// NewService builds the session manager. trainer and publisher may be nil.
func NewService(cfg Config, sessions storage.Storage, svc compute.Service, trainer compute.Trainer, publisher mqtt.Publisher, logger *slog.Logger) Service {
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = defPreviewRows
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	gen := namegenerator.NewGenerator()

	return &service{
		sessions:  sessions,
		compute:   svc,
		trainer:   trainer,
		publisher: publisher,
		namegen:   func() string { return gen.Generate() },
		logger:    logger,
		cfg:       cfg,
	}
}

func (svc *service) CreateSession(ctx context.Context, upload Upload) (Session, error) {
	format := upload.Format
	if format == "" {
		format = CSV
		if strings.EqualFold(filepath.Ext(upload.Name), ".xlsx") {
			format = XLSX
		}
	}

	var (
		t   table.Table
		raw []byte
		err error
	)
	switch format {
	case CSV:
		t, err = table.Parse(upload.Data)
		raw = upload.Data
	case XLSX:
		t, err = table.FromXLSX(bytes.NewReader(upload.Data), upload.Sheet)
		if err == nil {
			raw, err = table.Encode(t)
		}
	default:
		return Session{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Session{}, err
	}

	return svc.open(ctx, upload.Name, upload.Name, t, raw, upload.Task)
}

func (svc *service) CloneSample(ctx context.Context, sampleID string, task compute.TaskKind) (Session, error) {
	sample, ok := samples.Get(sampleID)
	if !ok {
		return Session{}, fmt.Errorf("sample %q: %w", sampleID, pkgerrors.ErrNotFound)
	}
	t, err := table.Parse(sample.Data)
	if err != nil {
		return Session{}, err
	}
	if task == "" {
		task = compute.TaskKind(sample.Task)
	}

	return svc.open(ctx, sample.Name, "sample:"+sample.ID, t, sample.Data, task)
}

func (svc *service) ListSamples(_ context.Context) ([]Sample, error) {
	return samples.List(), nil
}

func (svc *service) open(ctx context.Context, name, source string, t table.Table, raw []byte, task compute.TaskKind) (Session, error) {
	if task == "" {
		task = compute.Classification
	}
	if !task.Valid() {
		return Session{}, fmt.Errorf("%w: unknown task %q", pipeline.ErrInvalidParameter, task)
	}

	prov := compute.Provenance{Raw: raw}
	if reg, ok := svc.compute.(compute.Registry); ok && svc.cfg.RetainOnServer {
		id, err := reg.RegisterDataset(ctx, source, raw)
		if err != nil {
			return Session{}, err
		}
		prov = compute.Provenance{DatasetID: id}
	}

	store, err := pipeline.NewStore(compute.Snapshot{Table: t, Provenance: prov}, task)
	if err != nil {
		return Session{}, err
	}

	if name == "" {
		name = svc.namegen()
	}
	now := time.Now().UTC()
	s := Session{
		ID:        uuid.NewString(),
		Name:      name,
		Source:    source,
		Task:      task,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e := &entry{
		session: s,
		ctrl:    pipeline.NewController(store, svc.compute, svc.logger),
	}
	if err := svc.sessions.Create(ctx, s.ID, e); err != nil {
		return Session{}, err
	}

	return s, nil
}

func (svc *service) GetSession(ctx context.Context, id string, previewRows int) (View, error) {
	e, err := svc.entry(ctx, id)
	if err != nil {
		return View{}, err
	}
	if previewRows <= 0 {
		previewRows = svc.cfg.PreviewRows
	}

	return e.view(previewRows), nil
}

func (e *entry) view(previewRows int) View {
	v := e.ctrl.Store().View()
	p := table.Preview(v.Table, previewRows)

	return View{
		Session: e.meta(),
		Dataset: v,
		Header:  p.Header,
		Preview: p.Rows,
	}
}

func (svc *service) ListSessions(ctx context.Context, offset, limit uint64) (SessionPage, error) {
	data, total, err := svc.sessions.List(ctx, offset, limit)
	if err != nil {
		return SessionPage{}, err
	}

	sessions := make([]Session, 0, len(data))
	for _, d := range data {
		e, ok := d.(*entry)
		if !ok {
			return SessionPage{}, pkgerrors.ErrInvalidData
		}
		sessions = append(sessions, e.meta())
	}

	return SessionPage{
		Offset:   offset,
		Limit:    limit,
		Total:    total,
		Sessions: sessions,
	}, nil
}

func (svc *service) SetTarget(ctx context.Context, id, target string) (View, error) {
	e, err := svc.entry(ctx, id)
	if err != nil {
		return View{}, err
	}
	if _, err := e.ctrl.SetTarget(target); err != nil {
		return View{}, err
	}
	e.touch()

	return e.view(svc.cfg.PreviewRows), nil
}

func (svc *service) RunStage(ctx context.Context, id string, stage pipeline.Stage) (StageResult, error) {
	e, err := svc.entry(ctx, id)
	if err != nil {
		return StageResult{}, err
	}

	res, err := e.ctrl.Run(ctx, stage)
	if err != nil {
		return StageResult{}, err
	}
	e.touch()

	sr := StageResult{
		SessionID:   id,
		Result:      res,
		Fingerprint: e.ctrl.Store().Fingerprint(),
	}
	svc.publish(ctx, sr)

	return sr, nil
}

func (svc *service) publish(ctx context.Context, sr StageResult) {
	if svc.publisher == nil {
		return
	}

	ev := StageEvent{
		SessionID:   sr.SessionID,
		Stage:       sr.Kind,
		State:       sr.State,
		Version:     sr.Version,
		Fingerprint: sr.Fingerprint,
		Delta:       sr.Delta,
		Timestamp:   time.Now().UTC(),
	}
	topic := StageTopic(sr.SessionID, sr.Kind.String())
	if err := svc.publisher.Publish(ctx, topic, ev); err != nil {
		svc.logger.WarnContext(ctx, "failed to publish stage event",
			slog.String("topic", topic),
			slog.Any("error", err),
		)
	}
}

func (svc *service) GetSplit(ctx context.Context, id string) (TrainingInput, error) {
	e, err := svc.entry(ctx, id)
	if err != nil {
		return TrainingInput{}, err
	}

	h := e.ctrl.Splits()
	a, err := h.Artifacts()
	if err != nil {
		return TrainingInput{}, err
	}
	target, err := h.Target()
	if err != nil {
		return TrainingInput{}, err
	}

	return TrainingInput{
		SessionID: id,
		Target:    target,
		Task:      e.ctrl.Store().Task(),
		XTrain:    a.XTrain.Transfer(),
		XTest:     a.XTest.Transfer(),
		YTrain:    a.YTrain,
		YTest:     a.YTest,
		Classes:   e.ctrl.Store().Classes(),
	}, nil
}

func (svc *service) Train(ctx context.Context, id, model string) (compute.TrainResult, error) {
	if svc.trainer == nil {
		return compute.TrainResult{}, ErrTrainerNotSet
	}

	in, err := svc.GetSplit(ctx, id)
	if err != nil {
		return compute.TrainResult{}, err
	}

	return svc.trainer.Train(ctx, compute.TrainRequest{
		ModelName: model,
		XTrain:    in.XTrain,
		YTrain:    in.YTrain,
		XTest:     in.XTest,
		YTest:     in.YTest,
		SessionID: id,
		Task:      in.Task,
	})
}

func (svc *service) ClearSession(ctx context.Context, id string) error {
	e, err := svc.entry(ctx, id)
	if err != nil {
		return err
	}
	e.ctrl.Store().Clear()

	return svc.sessions.Delete(ctx, id)
}

func (svc *service) entry(ctx context.Context, id string) (*entry, error) {
	data, err := svc.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	e, ok := data.(*entry)
	if !ok {
		return nil, pkgerrors.ErrInvalidData
	}

	return e, nil
}
