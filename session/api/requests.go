package api

import (
	"errors"

	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/absmach/tabula/pipeline"
	"github.com/absmach/tabula/pkg/api"
	"github.com/absmach/tabula/session"
)

var (
	errMissingFile   = errors.New("missing dataset file")
	errMissingTarget = errors.New("missing target variable")
	errMissingModel  = errors.New("missing model name")
	errLimitSize     = errors.New("limit exceeds maximum")
)

type createSessionReq struct {
	upload session.Upload
}

func (req *createSessionReq) validate() error {
	if len(req.upload.Data) == 0 {
		return errMissingFile
	}

	return nil
}

type entityReq struct {
	id string
}

func (req *entityReq) validate() error {
	if req.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type cloneSampleReq struct {
	entityReq
	task string
}

type getSessionReq struct {
	entityReq
	preview int
}

type listEntityReq struct {
	offset, limit uint64
}

func (req *listEntityReq) validate() error {
	if req.limit > api.MaxLimitSize {
		return errLimitSize
	}

	return nil
}

type setTargetReq struct {
	entityReq
	Target string `json:"target"`
}

func (req *setTargetReq) validate() error {
	if err := req.entityReq.validate(); err != nil {
		return err
	}
	if req.Target == "" {
		return errMissingTarget
	}

	return nil
}

type runStageReq struct {
	entityReq
	pipeline.Stage
}

type trainReq struct {
	entityReq
	Model string `json:"model_name"`
}

func (req *trainReq) validate() error {
	if err := req.entityReq.validate(); err != nil {
		return err
	}
	if req.Model == "" {
		return errMissingModel
	}

	return nil
}
