package sdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

func (sdk *tabulaSDK) CreateSession(upload Upload) (Session, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", upload.Name)
	if err != nil {
		return Session{}, err
	}
	if _, err := part.Write(upload.Data); err != nil {
		return Session{}, err
	}
	fields := map[string]string{
		"name":   upload.Name,
		"format": upload.Format,
		"sheet":  upload.Sheet,
		"task":   upload.Task,
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return Session{}, err
		}
	}
	if err := w.Close(); err != nil {
		return Session{}, err
	}

	body, err := sdk.processRequest(http.MethodPost, sdk.managerURL+sessionsEndpoint, w.FormDataContentType(), buf.Bytes(), http.StatusCreated)
	if err != nil {
		return Session{}, err
	}

	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return Session{}, err
	}

	return s, nil
}

func (sdk *tabulaSDK) CloneSample(id, task string) (Session, error) {
	reqURL := sdk.managerURL + samplesEndpoint + "/" + url.PathEscape(id) + "/clone"
	if task != "" {
		reqURL += "?task=" + url.QueryEscape(task)
	}

	body, err := sdk.processRequest(http.MethodPost, reqURL, CTJSON, nil, http.StatusCreated)
	if err != nil {
		return Session{}, err
	}

	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return Session{}, err
	}

	return s, nil
}

func (sdk *tabulaSDK) ListSamples() ([]Sample, error) {
	body, err := sdk.processRequest(http.MethodGet, sdk.managerURL+samplesEndpoint, CTJSON, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var res struct {
		Samples []Sample `json:"samples"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, err
	}

	return res.Samples, nil
}

func (sdk *tabulaSDK) GetSession(id string, previewRows int) (SessionView, error) {
	reqURL := sdk.managerURL + sessionsEndpoint + "/" + id
	if previewRows > 0 {
		reqURL += fmt.Sprintf("?preview=%d", previewRows)
	}

	body, err := sdk.processRequest(http.MethodGet, reqURL, CTJSON, nil, http.StatusOK)
	if err != nil {
		return SessionView{}, err
	}

	var v SessionView
	if err := json.Unmarshal(body, &v); err != nil {
		return SessionView{}, err
	}

	return v, nil
}

func (sdk *tabulaSDK) ListSessions(offset, limit uint64) (SessionPage, error) {
	queries := make([]string, 0)
	if offset > 0 {
		queries = append(queries, fmt.Sprintf("offset=%d", offset))
	}
	if limit > 0 {
		queries = append(queries, fmt.Sprintf("limit=%d", limit))
	}
	query := ""
	if len(queries) > 0 {
		query = "?" + strings.Join(queries, "&")
	}

	body, err := sdk.processRequest(http.MethodGet, sdk.managerURL+sessionsEndpoint+query, CTJSON, nil, http.StatusOK)
	if err != nil {
		return SessionPage{}, err
	}

	var page SessionPage
	if err := json.Unmarshal(body, &page); err != nil {
		return SessionPage{}, err
	}

	return page, nil
}

func (sdk *tabulaSDK) SetTarget(id, target string) (SessionView, error) {
	data, err := json.Marshal(map[string]string{"target": target})
	if err != nil {
		return SessionView{}, err
	}

	body, err := sdk.processRequest(http.MethodPut, sdk.managerURL+sessionsEndpoint+"/"+id+"/target", CTJSON, data, http.StatusOK)
	if err != nil {
		return SessionView{}, err
	}

	var v SessionView
	if err := json.Unmarshal(body, &v); err != nil {
		return SessionView{}, err
	}

	return v, nil
}

func (sdk *tabulaSDK) RunStage(id string, stage Stage) (StageResult, error) {
	data, err := json.Marshal(stage)
	if err != nil {
		return StageResult{}, err
	}

	body, err := sdk.processRequest(http.MethodPost, sdk.managerURL+sessionsEndpoint+"/"+id+"/stages", CTJSON, data, http.StatusOK)
	if err != nil {
		return StageResult{}, err
	}

	var res StageResult
	if err := json.Unmarshal(body, &res); err != nil {
		return StageResult{}, err
	}

	return res, nil
}

func (sdk *tabulaSDK) GetSplit(id string) (TrainingInput, error) {
	body, err := sdk.processRequest(http.MethodGet, sdk.managerURL+sessionsEndpoint+"/"+id+"/split", CTJSON, nil, http.StatusOK)
	if err != nil {
		return TrainingInput{}, err
	}

	var in TrainingInput
	if err := json.Unmarshal(body, &in); err != nil {
		return TrainingInput{}, err
	}

	return in, nil
}

func (sdk *tabulaSDK) Train(id, model string) (TrainResult, error) {
	data, err := json.Marshal(map[string]string{"model_name": model})
	if err != nil {
		return TrainResult{}, err
	}

	body, err := sdk.processRequest(http.MethodPost, sdk.managerURL+sessionsEndpoint+"/"+id+"/train", CTJSON, data, http.StatusOK)
	if err != nil {
		return TrainResult{}, err
	}

	var res TrainResult
	if err := json.Unmarshal(body, &res); err != nil {
		return TrainResult{}, err
	}

	return res, nil
}

func (sdk *tabulaSDK) ClearSession(id string) error {
	_, err := sdk.processRequest(http.MethodDelete, sdk.managerURL+sessionsEndpoint+"/"+id, CTJSON, nil, http.StatusNoContent)

	return err
}
