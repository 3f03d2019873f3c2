// Package http is an HTTP adapter for a remote dataset-processing service.
// Each stage call uploads the complete dataset as CSV and decodes the JSON
// response; nothing is cached and failed calls are not retried.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/table"
	"github.com/klauspost/compress/gzip"
)

const (
	ctJSON = "application/json"

	fileKey         = "file"
	fileName        = "dataset.csv"
	nameKey         = "name"
	targetKey       = "target_variable"
	taskKey         = "task"
	methodKey       = "method"
	testPercentKey  = "test_percentage"
	maxErrorBodyLen = 4096
)

var (
	_ compute.Service  = (*Client)(nil)
	_ compute.Registry = (*Client)(nil)
	_ compute.Trainer  = (*Client)(nil)

	errUnexpectedStatus = errors.New("unexpected response code")
	errInvalidResponse  = errors.New("invalid response")
)

type Config struct {
	URL        string
	TrainerURL string
	Timeout    time.Duration
	Gzip       bool
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	url        string
	trainerURL string
	gzip       bool
	client     *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config) *Client {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	trainerURL := cfg.TrainerURL
	if trainerURL == "" {
		trainerURL = cfg.URL
	}

	return &Client{
		url:        strings.TrimSuffix(cfg.URL, "/"),
		trainerURL: strings.TrimSuffix(trainerURL, "/"),
		gzip:       cfg.Gzip,
		client:     client,
		logger:     logger,
	}
}

func (c *Client) ComputeStatistics(ctx context.Context, s compute.Snapshot) (compute.ColumnStatistics, error) {
	var res statisticsRes
	if err := c.submit(ctx, compute.StageStatistics, "/statistics", s.Table, nil, &res); err != nil {
		return nil, err
	}
	if res.Statistics == nil {
		return nil, compute.NewError(compute.StageStatistics, fmt.Errorf("%w: statistics missing", errInvalidResponse))
	}

	return res.Statistics, nil
}

func (c *Client) CheckMissing(ctx context.Context, s compute.Snapshot) (compute.MissingReport, error) {
	var res missingRes
	if err := c.submit(ctx, compute.StageMissingCheck, "/missing/check", s.Table, nil, &res); err != nil {
		return nil, err
	}
	if res.MissingValues == nil {
		return nil, compute.NewError(compute.StageMissingCheck, fmt.Errorf("%w: missing_values missing", errInvalidResponse))
	}
	for col, n := range res.MissingValues {
		if n < 0 {
			return nil, compute.NewError(compute.StageMissingCheck, fmt.Errorf("%w: negative count %d for %q", errInvalidResponse, n, col))
		}
		if !s.Table.HasColumn(col) {
			return nil, compute.NewError(compute.StageMissingCheck, fmt.Errorf("%w: unknown column %q", errInvalidResponse, col))
		}
	}

	return res.MissingValues, nil
}

func (c *Client) HandleMissing(ctx context.Context, s compute.Snapshot, target string, kind compute.TaskKind) (table.Table, []string, error) {
	fields := url.Values{
		targetKey: {target},
		taskKey:   {string(kind)},
	}

	var res datasetRes
	if err := c.submit(ctx, compute.StageMissingHandle, "/missing/handle", s.Table, fields, &res); err != nil {
		return table.Table{}, nil, err
	}
	t, err := table.FromTransfer(res.Dataset)
	if err != nil {
		return table.Table{}, nil, compute.NewError(compute.StageMissingHandle, err)
	}
	changes := res.Changes
	if changes == nil {
		changes = []string{}
	}

	return t, changes, nil
}

func (c *Client) EncodeCategorical(ctx context.Context, s compute.Snapshot, target string) (table.Table, []string, error) {
	fields := url.Values{targetKey: {target}}

	res, t, err := c.transform(ctx, compute.StageEncode, "/encoding", s.Table, fields)
	if err != nil {
		return table.Table{}, nil, err
	}

	return t, res.Classes, nil
}

func (c *Client) ScaleFeatures(ctx context.Context, s compute.Snapshot, method compute.ScaleMethod, target string) (table.Table, string, error) {
	fields := url.Values{
		methodKey: {string(method)},
		targetKey: {target},
	}

	res, t, err := c.transform(ctx, compute.StageScale, "/scaling", s.Table, fields)
	if err != nil {
		return table.Table{}, "", err
	}

	return t, res.Message, nil
}

func (c *Client) SplitDataset(ctx context.Context, s compute.Snapshot, target string, testFraction int, kind compute.TaskKind) (compute.SplitArtifacts, error) {
	fields := url.Values{
		targetKey:      {target},
		testPercentKey: {strconv.Itoa(testFraction)},
		taskKey:        {string(kind)},
	}

	var res splitRes
	if err := c.submit(ctx, compute.StageSplit, "/split", s.Table, fields, &res); err != nil {
		return compute.SplitArtifacts{}, err
	}

	xTrain, err := table.FromTransfer(res.XTrain)
	if err != nil {
		return compute.SplitArtifacts{}, compute.NewError(compute.StageSplit, fmt.Errorf("x_train: %w", err))
	}
	xTest, err := table.FromTransfer(res.XTest)
	if err != nil {
		return compute.SplitArtifacts{}, compute.NewError(compute.StageSplit, fmt.Errorf("x_test: %w", err))
	}
	a := compute.SplitArtifacts{
		XTrain: xTrain,
		XTest:  xTest,
		YTrain: res.YTrain,
		YTest:  res.YTest,
	}
	if err := a.Validate(target); err != nil {
		return compute.SplitArtifacts{}, compute.NewError(compute.StageSplit, fmt.Errorf("%w: %w", errInvalidResponse, err))
	}
	if total := xTrain.NumRows() + xTest.NumRows(); total != s.Table.NumRows() {
		return compute.SplitArtifacts{}, compute.NewError(compute.StageSplit, fmt.Errorf("%w: split has %d rows, dataset has %d", errInvalidResponse, total, s.Table.NumRows()))
	}

	return a, nil
}

// RestoreOriginal fetches the retained original from the service. A snapshot
// holding the raw upload is reparsed locally without a round trip.
func (c *Client) RestoreOriginal(ctx context.Context, s compute.Snapshot) (table.Table, error) {
	if !s.Provenance.Retained() {
		t, err := table.Parse(s.Provenance.Raw)
		if err != nil {
			return table.Table{}, compute.NewError(compute.StageRestore, err)
		}

		return t, nil
	}

	reqURL := fmt.Sprintf("%s/datasets/%s/restore", c.url, url.PathEscape(s.Provenance.DatasetID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return table.Table{}, compute.NewError(compute.StageRestore, err)
	}

	var res datasetRes
	if err := c.do(req, compute.StageRestore, http.StatusOK, &res); err != nil {
		return table.Table{}, err
	}
	t, err := table.FromTransfer(res.Dataset)
	if err != nil {
		return table.Table{}, compute.NewError(compute.StageRestore, err)
	}

	return t, nil
}

func (c *Client) RegisterDataset(ctx context.Context, name string, raw []byte) (string, error) {
	body, contentType, err := multipartBody(raw, url.Values{nameKey: {name}})
	if err != nil {
		return "", compute.NewError(compute.StageRegister, err)
	}
	req, err := c.newRequest(ctx, c.url+"/datasets", contentType, body)
	if err != nil {
		return "", compute.NewError(compute.StageRegister, err)
	}

	var res registerRes
	if err := c.do(req, compute.StageRegister, http.StatusCreated, &res); err != nil {
		return "", err
	}
	if res.DatasetID == "" {
		return "", compute.NewError(compute.StageRegister, fmt.Errorf("%w: dataset_id missing", errInvalidResponse))
	}

	return res.DatasetID, nil
}

// Train posts split artifacts to the trainer. Classification requests go to
// /train-classifier, everything else to /train.
func (c *Client) Train(ctx context.Context, tr compute.TrainRequest) (compute.TrainResult, error) {
	data, err := json.Marshal(tr)
	if err != nil {
		return compute.TrainResult{}, compute.NewError(compute.StageTrain, err)
	}

	endpoint := "/train"
	if tr.Task == compute.Classification {
		endpoint = "/train-classifier"
	}
	req, err := c.newRequest(ctx, c.trainerURL+endpoint, ctJSON, data)
	if err != nil {
		return compute.TrainResult{}, compute.NewError(compute.StageTrain, err)
	}

	var res compute.TrainResult
	if err := c.do(req, compute.StageTrain, http.StatusOK, &res); err != nil {
		return compute.TrainResult{}, err
	}

	return res, nil
}

func (c *Client) transform(ctx context.Context, stage, path string, t table.Table, fields url.Values) (datasetRes, table.Table, error) {
	var res datasetRes
	if err := c.submit(ctx, stage, path, t, fields, &res); err != nil {
		return datasetRes{}, table.Table{}, err
	}
	out, err := table.FromTransfer(res.Dataset)
	if err != nil {
		return datasetRes{}, table.Table{}, compute.NewError(stage, err)
	}

	return res, out, nil
}

// submit uploads the full table with form fields and decodes a 200 response into v.
func (c *Client) submit(ctx context.Context, stage, path string, t table.Table, fields url.Values, v any) error {
	csv, err := table.Encode(t)
	if err != nil {
		return compute.NewError(stage, err)
	}
	body, contentType, err := multipartBody(csv, fields)
	if err != nil {
		return compute.NewError(stage, err)
	}
	req, err := c.newRequest(ctx, c.url+path, contentType, body)
	if err != nil {
		return compute.NewError(stage, err)
	}

	c.logger.DebugContext(ctx, "submitting dataset", slog.String("stage", stage), slog.Int("rows", t.NumRows()), slog.Int("bytes", len(csv)))

	return c.do(req, stage, http.StatusOK, v)
}

func (c *Client) newRequest(ctx context.Context, reqURL, contentType string, body []byte) (*http.Request, error) {
	if c.gzip {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(body); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		body = buf.Bytes()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", ctJSON)
	if c.gzip {
		req.Header.Set("Content-Encoding", "gzip")
	}

	return req, nil
}

func (c *Client) do(req *http.Request, stage string, expectedCode int, v any) error {
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return compute.NewError(stage, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(req.Context(), "compute round trip",
		slog.String("stage", stage),
		slog.Int("status", resp.StatusCode),
		slog.String("duration", time.Since(start).String()),
	)

	if resp.StatusCode != expectedCode {
		return compute.NewError(stage, statusError(resp))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return compute.NewError(stage, fmt.Errorf("%w: %w", errInvalidResponse, err))
	}

	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))

	var e errorRes
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return fmt.Errorf("%w %d: %s", errUnexpectedStatus, resp.StatusCode, e.Error)
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Errorf("%w %d: %s", errUnexpectedStatus, resp.StatusCode, msg)
	}

	return fmt.Errorf("%w %d", errUnexpectedStatus, resp.StatusCode)
}

func multipartBody(file []byte, fields url.Values) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile(fileKey, fileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(file); err != nil {
		return nil, "", err
	}
	for key, values := range fields {
		for _, value := range values {
			if err := mw.WriteField(key, value); err != nil {
				return nil, "", err
			}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), mw.FormDataContentType(), nil
}
