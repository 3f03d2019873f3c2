package sdk

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/pipeline"
	"github.com/absmach/tabula/session"
)

const (
	CTJSON string = "application/json"

	sessionsEndpoint = "/sessions"
	samplesEndpoint  = "/samples"
)

type (
	Session       = session.Session
	SessionPage   = session.SessionPage
	SessionView   = session.View
	StageResult   = session.StageResult
	TrainingInput = session.TrainingInput
	Sample        = session.Sample
	Stage         = pipeline.Stage
	TrainResult   = compute.TrainResult
)

// Upload is a dataset file sent to create a session.
type Upload struct {
	Name   string
	Data   []byte
	Format string
	Sheet  string
	Task   string
}

type SDK interface {
	// CreateSession uploads a dataset and opens a session on it.
	//
	// example:
	//  data, _ := os.ReadFile("iris.csv")
	//  s, _ := sdk.CreateSession(sdk.Upload{Name: "iris.csv", Data: data})
	//  fmt.Println(s.ID)
	CreateSession(upload Upload) (Session, error)

	// CloneSample opens a session on a bundled sample dataset. An empty task
	// keeps the sample's own task.
	//
	// example:
	//  s, _ := sdk.CloneSample("iris", "")
	CloneSample(id, task string) (Session, error)

	// ListSamples lists the bundled sample datasets.
	ListSamples() ([]Sample, error)

	// GetSession gets a session with a preview of at most previewRows rows.
	// Zero selects the server default.
	//
	// example:
	//  v, _ := sdk.GetSession("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040", 10)
	//  fmt.Println(v.Dataset.State)
	GetSession(id string, previewRows int) (SessionView, error)

	// ListSessions lists sessions.
	//
	// example:
	//  page, _ := sdk.ListSessions(0, 10)
	ListSessions(offset, limit uint64) (SessionPage, error)

	// SetTarget selects the target column of a session.
	SetTarget(id, target string) (SessionView, error)

	// RunStage runs one preprocessing stage.
	//
	// example:
	//  res, _ := sdk.RunStage(id, sdk.Stage{Kind: pipeline.Split, TestFraction: 20})
	RunStage(id string, stage Stage) (StageResult, error)

	// GetSplit returns the train/test partitions of a split session.
	GetSplit(id string) (TrainingInput, error)

	// Train forwards the split to model training.
	Train(id, model string) (TrainResult, error)

	// ClearSession discards a session and its dataset.
	ClearSession(id string) error
}

type tabulaSDK struct {
	managerURL string
	client     *http.Client
}

type Config struct {
	ManagerURL      string
	TLSVerification bool
}

func NewSDK(cfg Config) SDK {
	return &tabulaSDK{
		managerURL: cfg.ManagerURL,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

type errorRes struct {
	Error string `json:"error"`
}

func (sdk *tabulaSDK) processRequest(method, reqURL, contentType string, data []byte, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", contentType)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		var e errorRes
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return []byte{}, fmt.Errorf("unexpected response code: %d: %s", resp.StatusCode, e.Error)
		}

		return []byte{}, fmt.Errorf("unexpected response code: %d", resp.StatusCode)
	}

	return body, nil
}
