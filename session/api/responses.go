package api

import (
	"net/http"

	"github.com/absmach/supermq"
	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/session"
)

var (
	_ supermq.Response = (*sessionRes)(nil)
	_ supermq.Response = (*viewRes)(nil)
	_ supermq.Response = (*listSessionsRes)(nil)
	_ supermq.Response = (*samplesRes)(nil)
	_ supermq.Response = (*stageRes)(nil)
	_ supermq.Response = (*splitRes)(nil)
	_ supermq.Response = (*trainRes)(nil)
	_ supermq.Response = (*clearRes)(nil)
)

type sessionRes struct {
	session.Session
	created bool
}

func (res sessionRes) Code() int {
	if res.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (res sessionRes) Headers() map[string]string {
	if res.created {
		return map[string]string{
			"Location": "/sessions/" + res.ID,
		}
	}

	return map[string]string{}
}

func (res sessionRes) Empty() bool {
	return false
}

type viewRes struct {
	session.View
}

func (res viewRes) Code() int {
	return http.StatusOK
}

func (res viewRes) Headers() map[string]string {
	return map[string]string{}
}

func (res viewRes) Empty() bool {
	return false
}

type listSessionsRes struct {
	session.SessionPage
}

func (res listSessionsRes) Code() int {
	return http.StatusOK
}

func (res listSessionsRes) Headers() map[string]string {
	return map[string]string{}
}

func (res listSessionsRes) Empty() bool {
	return false
}

type samplesRes struct {
	Samples []session.Sample `json:"samples"`
}

func (res samplesRes) Code() int {
	return http.StatusOK
}

func (res samplesRes) Headers() map[string]string {
	return map[string]string{}
}

func (res samplesRes) Empty() bool {
	return false
}

type stageRes struct {
	session.StageResult
}

func (res stageRes) Code() int {
	return http.StatusOK
}

func (res stageRes) Headers() map[string]string {
	return map[string]string{}
}

func (res stageRes) Empty() bool {
	return false
}

type splitRes struct {
	session.TrainingInput
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

type trainRes struct {
	compute.TrainResult
}

func (res trainRes) Code() int {
	return http.StatusOK
}

func (res trainRes) Headers() map[string]string {
	return map[string]string{}
}

func (res trainRes) Empty() bool {
	return false
}

type clearRes struct{}

func (res clearRes) Code() int {
	return http.StatusNoContent
}

func (res clearRes) Headers() map[string]string {
	return map[string]string{}
}

func (res clearRes) Empty() bool {
	return true
}
