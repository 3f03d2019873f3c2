package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/compute/local"
	"github.com/absmach/tabula/pkg/api"
	pkgerrors "github.com/absmach/tabula/pkg/errors"
	"github.com/absmach/tabula/table"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	maxFileSize = 1024 * 1024 * 100

	fileKey        = "file"
	nameKey        = "name"
	targetKey      = "target_variable"
	taskKey        = "task"
	methodKey      = "method"
	testPercentKey = "test_percentage"
	datasetIDKey   = "datasetID"
)

func MakeHandler(svc Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, encodeError)),
	}

	mux.Use(decompress)

	mux.Post("/statistics", otelhttp.NewHandler(kithttp.NewServer(
		statisticsEndpoint(svc),
		decodeDatasetReq,
		api.EncodeResponse,
		opts...,
	), "compute-statistics").ServeHTTP)

	mux.Route("/missing", func(r chi.Router) {
		r.Post("/check", otelhttp.NewHandler(kithttp.NewServer(
			checkMissingEndpoint(svc),
			decodeDatasetReq,
			api.EncodeResponse,
			opts...,
		), "check-missing").ServeHTTP)
		r.Post("/handle", otelhttp.NewHandler(kithttp.NewServer(
			handleMissingEndpoint(svc),
			decodeTaskReq,
			api.EncodeResponse,
			opts...,
		), "handle-missing").ServeHTTP)
	})

	mux.Post("/encoding", otelhttp.NewHandler(kithttp.NewServer(
		encodeEndpoint(svc),
		decodeDatasetReq,
		api.EncodeResponse,
		opts...,
	), "encode-categorical").ServeHTTP)

	mux.Post("/scaling", otelhttp.NewHandler(kithttp.NewServer(
		scaleEndpoint(svc),
		decodeScaleReq,
		api.EncodeResponse,
		opts...,
	), "scale-features").ServeHTTP)

	mux.Post("/split", otelhttp.NewHandler(kithttp.NewServer(
		splitEndpoint(svc),
		decodeSplitReq,
		api.EncodeResponse,
		opts...,
	), "split-dataset").ServeHTTP)

	mux.Route("/datasets", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			registerEndpoint(svc),
			decodeRegisterReq,
			api.EncodeResponse,
			opts...,
		), "register-dataset").ServeHTTP)
		r.Get("/{datasetID}/restore", otelhttp.NewHandler(kithttp.NewServer(
			restoreEndpoint(svc),
			decodeRestoreReq,
			api.EncodeResponse,
			opts...,
		), "restore-dataset").ServeHTTP)
	})

	mux.Get("/health", supermq.Health("compute", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// decompress inflates gzip-encoded request bodies.
func decompress(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
			next.ServeHTTP(w, r)

			return
		}

		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, errors.Join(apiutil.ErrValidation, err))

			return
		}
		defer zr.Close()

		r.Body = io.NopCloser(zr)
		r.Header.Del("Content-Encoding")
		r.ContentLength = -1
		next.ServeHTTP(w, r)
	})
}

func encodeError(ctx context.Context, err error, w http.ResponseWriter) {
	switch {
	case errors.Is(err, local.ErrInvalidInput):
		api.WriteError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, table.ErrMalformedTable):
		api.WriteError(w, http.StatusBadRequest, err)
	case errors.Is(err, pkgerrors.ErrNotFound):
		api.WriteError(w, http.StatusNotFound, err)
	case errors.Is(err, compute.ErrRemoteCompute):
		api.WriteError(w, http.StatusInternalServerError, err)
	default:
		api.EncodeError(ctx, err, w)
	}
}

func readDataset(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxFileSize); err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}
	file, _, err := r.FormFile(fileKey)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, errMissingFile, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	return data, nil
}

func parseDataset(r *http.Request) (datasetReq, error) {
	data, err := readDataset(r)
	if err != nil {
		return datasetReq{}, err
	}
	t, err := table.Parse(data)
	if err != nil {
		return datasetReq{}, errors.Join(apiutil.ErrValidation, err)
	}

	return datasetReq{
		table:  t,
		target: r.FormValue(targetKey),
		task:   compute.TaskKind(r.FormValue(taskKey)),
	}, nil
}

func decodeDatasetReq(_ context.Context, r *http.Request) (any, error) {
	return parseDataset(r)
}

func decodeTaskReq(_ context.Context, r *http.Request) (any, error) {
	req, err := parseDataset(r)
	if err != nil {
		return nil, err
	}

	return taskReq{targetReq{req}}, nil
}

func decodeScaleReq(_ context.Context, r *http.Request) (any, error) {
	req, err := parseDataset(r)
	if err != nil {
		return nil, err
	}
	method := compute.ScaleMethod(r.FormValue(methodKey))
	if method == "" {
		method = compute.Standard
	}

	return scaleReq{datasetReq: req, method: method}, nil
}

func decodeSplitReq(_ context.Context, r *http.Request) (any, error) {
	req, err := parseDataset(r)
	if err != nil {
		return nil, err
	}
	pct, err := strconv.Atoi(r.FormValue(testPercentKey))
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return splitReq{taskReq: taskReq{targetReq{req}}, testPercentage: pct}, nil
}

func decodeRegisterReq(_ context.Context, r *http.Request) (any, error) {
	data, err := readDataset(r)
	if err != nil {
		return nil, err
	}

	return registerReq{name: r.FormValue(nameKey), raw: data}, nil
}

func decodeRestoreReq(_ context.Context, r *http.Request) (any, error) {
	return restoreReq{id: chi.URLParam(r, datasetIDKey)}, nil
}
