package api

import (
	"context"
	"errors"

	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/absmach/tabula/compute"
	pkgerrors "github.com/absmach/tabula/pkg/errors"
	"github.com/absmach/tabula/session"
	"github.com/go-kit/kit/endpoint"
)

func createSessionEndpoint(svc session.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(createSessionReq)
		if !ok {
			return sessionRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return sessionRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		s, err := svc.CreateSession(ctx, req.upload)
		if err != nil {
			return sessionRes{}, err
		}

		return sessionRes{Session: s, created: true}, nil
	}
}

func cloneSampleEndpoint(svc session.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(cloneSampleReq)
		if !ok {
			return sessionRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return sessionRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		s, err := svc.CloneSample(ctx, req.id, compute.TaskKind(req.task))
		if err != nil {
			return sessionRes{}, err
		}

		return sessionRes{Session: s, created: true}, nil
	}
}

func listSamplesEndpoint(svc session.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		samples, err := svc.ListSamples(ctx)
		if err != nil {
			return samplesRes{}, err
		}

		return samplesRes{Samples: samples}, nil
	}
}

func getSessionEndpoint(svc session.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(getSessionReq)
		if !ok {
			return viewRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return viewRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		v, err := svc.GetSession(ctx, req.id, req.preview)
		if err != nil {
			return viewRes{}, err
		}

		return viewRes{View: v}, nil
	}
}

func listSessionsEndpoint(svc session.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listSessionsRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listSessionsRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		page, err := svc.ListSessions(ctx, req.offset, req.limit)
		if err != nil {
			return listSessionsRes{}, err
		}

		return listSessionsRes{SessionPage: page}, nil
	}
}

func setTargetEndpoint(svc session.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(setTargetReq)
		if !ok {
			return viewRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return viewRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		v, err := svc.SetTarget(ctx, req.id, req.Target)
		if err != nil {
			return viewRes{}, err
		}

		return viewRes{View: v}, nil
	}
}

func runStageEndpoint(svc session.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(runStageReq)
		if !ok {
			return stageRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return stageRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		res, err := svc.RunStage(ctx, req.id, req.Stage)
		if err != nil {
			return stageRes{}, err
		}

		return stageRes{StageResult: res}, nil
	}
}

func getSplitEndpoint(svc session.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return splitRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return splitRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		in, err := svc.GetSplit(ctx, req.id)
		if err != nil {
			return splitRes{}, err
		}

		return splitRes{TrainingInput: in}, nil
	}
}

func trainEndpoint(svc session.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(trainReq)
		if !ok {
			return trainRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return trainRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		res, err := svc.Train(ctx, req.id, req.Model)
		if err != nil {
			return trainRes{}, err
		}

		return trainRes{TrainResult: res}, nil
	}
}

func clearSessionEndpoint(svc session.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return clearRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return clearRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		if err := svc.ClearSession(ctx, req.id); err != nil {
			return clearRes{}, err
		}

		return clearRes{}, nil
	}
}
