package api

import (
	"net/http"

	"github.com/absmach/supermq"
	"github.com/absmach/tabula/compute"
)

var (
	_ supermq.Response = (*statisticsRes)(nil)
	_ supermq.Response = (*missingRes)(nil)
	_ supermq.Response = (*handleMissingRes)(nil)
	_ supermq.Response = (*datasetRes)(nil)
	_ supermq.Response = (*scaleRes)(nil)
	_ supermq.Response = (*splitRes)(nil)
	_ supermq.Response = (*registerRes)(nil)
)

type statisticsRes struct {
	Statistics compute.ColumnStatistics `json:"statistics"`
}

func (res statisticsRes) Code() int {
	return http.StatusOK
}

func (res statisticsRes) Headers() map[string]string {
	return map[string]string{}
}

func (res statisticsRes) Empty() bool {
	return false
}

type missingRes struct {
	MissingValues compute.MissingReport `json:"missing_values"`
}

func (res missingRes) Code() int {
	return http.StatusOK
}

func (res missingRes) Headers() map[string]string {
	return map[string]string{}
}

func (res missingRes) Empty() bool {
	return false
}

type handleMissingRes struct {
	Dataset [][]string `json:"dataset"`
	Changes []string   `json:"changes"`
}

func (res handleMissingRes) Code() int {
	return http.StatusOK
}

func (res handleMissingRes) Headers() map[string]string {
	return map[string]string{}
}

func (res handleMissingRes) Empty() bool {
	return false
}

type datasetRes struct {
	Dataset [][]string `json:"dataset"`
	Classes []string   `json:"classes,omitempty"`
}

func (res datasetRes) Code() int {
	return http.StatusOK
}

func (res datasetRes) Headers() map[string]string {
	return map[string]string{}
}

func (res datasetRes) Empty() bool {
	return false
}

type scaleRes struct {
	Dataset [][]string `json:"dataset"`
	Message string     `json:"message"`
}

func (res scaleRes) Code() int {
	return http.StatusOK
}

func (res scaleRes) Headers() map[string]string {
	return map[string]string{}
}

func (res scaleRes) Empty() bool {
	return false
}

type splitRes struct {
	XTrain [][]string `json:"x_train"`
	XTest  [][]string `json:"x_test"`
	YTrain []float64  `json:"y_train"`
	YTest  []float64  `json:"y_test"`
}

func (res splitRes) Code() int {
	return http.StatusOK
}

func (res splitRes) Headers() map[string]string {
	return map[string]string{}
}

func (res splitRes) Empty() bool {
	return false
}

type registerRes struct {
	DatasetID string `json:"dataset_id"`
}

func (res registerRes) Code() int {
	return http.StatusCreated
}

func (res registerRes) Headers() map[string]string {
	return map[string]string{
		"Location": "/datasets/" + res.DatasetID,
	}
}

func (res registerRes) Empty() bool {
	return false
}
