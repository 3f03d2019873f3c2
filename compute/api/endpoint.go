package api

import (
	"context"
	"errors"

	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/absmach/tabula/compute"
	pkgerrors "github.com/absmach/tabula/pkg/errors"
	"github.com/absmach/tabula/table"
	"github.com/go-kit/kit/endpoint"
)

// Service is the processing engine served over HTTP.
type Service interface {
	compute.Service
	compute.Registry
	Restore(ctx context.Context, id string) (table.Table, error)
}

func statisticsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(datasetReq)
		if !ok {
			return statisticsRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return statisticsRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		stats, err := svc.ComputeStatistics(ctx, compute.Snapshot{Table: req.table})
		if err != nil {
			return statisticsRes{}, err
		}

		return statisticsRes{Statistics: stats}, nil
	}
}

func checkMissingEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(datasetReq)
		if !ok {
			return missingRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return missingRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		report, err := svc.CheckMissing(ctx, compute.Snapshot{Table: req.table})
		if err != nil {
			return missingRes{}, err
		}

		return missingRes{MissingValues: report}, nil
	}
}

func handleMissingEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(taskReq)
		if !ok {
			return handleMissingRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return handleMissingRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		t, changes, err := svc.HandleMissing(ctx, compute.Snapshot{Table: req.table}, req.target, req.task)
		if err != nil {
			return handleMissingRes{}, err
		}

		return handleMissingRes{Dataset: t.Transfer(), Changes: changes}, nil
	}
}

func encodeEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(datasetReq)
		if !ok {
			return datasetRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return datasetRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		t, classes, err := svc.EncodeCategorical(ctx, compute.Snapshot{Table: req.table}, req.target)
		if err != nil {
			return datasetRes{}, err
		}

		return datasetRes{Dataset: t.Transfer(), Classes: classes}, nil
	}
}

func scaleEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(scaleReq)
		if !ok {
			return scaleRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return scaleRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		t, msg, err := svc.ScaleFeatures(ctx, compute.Snapshot{Table: req.table}, req.method, req.target)
		if err != nil {
			return scaleRes{}, err
		}

		return scaleRes{Dataset: t.Transfer(), Message: msg}, nil
	}
}

func splitEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(splitReq)
		if !ok {
			return splitRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return splitRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		a, err := svc.SplitDataset(ctx, compute.Snapshot{Table: req.table}, req.target, req.testPercentage, req.task)
		if err != nil {
			return splitRes{}, err
		}

		return splitRes{
			XTrain: a.XTrain.Transfer(),
			XTest:  a.XTest.Transfer(),
			YTrain: a.YTrain,
			YTest:  a.YTest,
		}, nil
	}
}

func registerEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(registerReq)
		if !ok {
			return registerRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return registerRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		id, err := svc.RegisterDataset(ctx, req.name, req.raw)
		if err != nil {
			return registerRes{}, err
		}

		return registerRes{DatasetID: id}, nil
	}
}

func restoreEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(restoreReq)
		if !ok {
			return datasetRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return datasetRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		t, err := svc.Restore(ctx, req.id)
		if err != nil {
			return datasetRes{}, err
		}

		return datasetRes{Dataset: t.Transfer()}, nil
	}
}
