package api

import (
	"errors"

	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/pipeline"
	"github.com/absmach/tabula/table"
)

var errMissingFile = errors.New("missing dataset file")

type datasetReq struct {
	table  table.Table
	target string
	task   compute.TaskKind
}

func (req datasetReq) validate() error {
	return req.table.Validate()
}

type targetReq struct {
	datasetReq
}

func (req targetReq) validate() error {
	if req.target == "" {
		return pipeline.ErrMissingTarget
	}

	return req.datasetReq.validate()
}

type taskReq struct {
	targetReq
}

func (req taskReq) validate() error {
	if !req.task.Valid() {
		return pipeline.ErrInvalidParameter
	}

	return req.targetReq.validate()
}

type scaleReq struct {
	datasetReq
	method compute.ScaleMethod
}

func (req scaleReq) validate() error {
	if !req.method.Valid() {
		return pipeline.ErrInvalidParameter
	}

	return req.datasetReq.validate()
}

type splitReq struct {
	taskReq
	testPercentage int
}

func (req splitReq) validate() error {
	if req.testPercentage < 1 || req.testPercentage > 99 {
		return pipeline.ErrInvalidParameter
	}

	return req.taskReq.validate()
}

type registerReq struct {
	name string
	raw  []byte
}

func (req registerReq) validate() error {
	if len(req.raw) == 0 {
		return errMissingFile
	}

	return nil
}

type restoreReq struct {
	id string
}

func (req restoreReq) validate() error {
	if req.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}
