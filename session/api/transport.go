package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/pkg/api"
	"github.com/absmach/tabula/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	maxFileSize = 1024 * 1024 * 100

	fileKey    = "file"
	nameKey    = "name"
	formatKey  = "format"
	sheetKey   = "sheet"
	taskKey    = "task"
	previewKey = "preview"
	idKey      = "id"
)

// MakeHandler returns the session HTTP API. Empty allowedOrigins disables CORS.
func MakeHandler(svc session.Service, logger *slog.Logger, instanceID string, allowedOrigins []string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, encodeError)),
	}

	if len(allowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{"Location"},
			MaxAge:         300,
		}))
	}

	mux.Route("/sessions", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			createSessionEndpoint(svc),
			decodeCreateSessionReq,
			api.EncodeResponse,
			opts...,
		), "create-session").ServeHTTP)
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listSessionsEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-sessions").ServeHTTP)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
				getSessionEndpoint(svc),
				decodeGetSessionReq,
				api.EncodeResponse,
				opts...,
			), "get-session").ServeHTTP)
			r.Delete("/", otelhttp.NewHandler(kithttp.NewServer(
				clearSessionEndpoint(svc),
				decodeEntityReq,
				api.EncodeResponse,
				opts...,
			), "clear-session").ServeHTTP)
			r.Put("/target", otelhttp.NewHandler(kithttp.NewServer(
				setTargetEndpoint(svc),
				decodeSetTargetReq,
				api.EncodeResponse,
				opts...,
			), "set-target").ServeHTTP)
			r.Post("/stages", otelhttp.NewHandler(kithttp.NewServer(
				runStageEndpoint(svc),
				decodeRunStageReq,
				api.EncodeResponse,
				opts...,
			), "run-stage").ServeHTTP)
			r.Get("/split", otelhttp.NewHandler(kithttp.NewServer(
				getSplitEndpoint(svc),
				decodeEntityReq,
				api.EncodeResponse,
				opts...,
			), "get-split").ServeHTTP)
			r.Post("/train", otelhttp.NewHandler(kithttp.NewServer(
				trainEndpoint(svc),
				decodeTrainReq,
				api.EncodeResponse,
				opts...,
			), "train").ServeHTTP)
		})
	})

	mux.Route("/samples", func(r chi.Router) {
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listSamplesEndpoint(svc),
			kithttp.NopRequestDecoder,
			api.EncodeResponse,
			opts...,
		), "list-samples").ServeHTTP)
		r.Post("/{id}/clone", otelhttp.NewHandler(kithttp.NewServer(
			cloneSampleEndpoint(svc),
			decodeCloneSampleReq,
			api.EncodeResponse,
			opts...,
		), "clone-sample").ServeHTTP)
	})

	mux.Get("/health", supermq.Health("tabula", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func encodeError(ctx context.Context, err error, w http.ResponseWriter) {
	switch {
	case errors.Is(err, session.ErrTrainerNotSet):
		api.WriteError(w, http.StatusServiceUnavailable, err)
	default:
		api.EncodeError(ctx, err, w)
	}
}

func decodeCreateSessionReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}
	if err := r.ParseMultipartForm(maxFileSize); err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	file, header, err := r.FormFile(fileKey)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, errMissingFile, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	name := r.FormValue(nameKey)
	if name == "" {
		name = header.Filename
	}

	return createSessionReq{
		upload: session.Upload{
			Name:   name,
			Format: session.Format(strings.ToLower(r.FormValue(formatKey))),
			Data:   data,
			Sheet:  r.FormValue(sheetKey),
			Task:   compute.TaskKind(r.FormValue(taskKey)),
		},
	}, nil
}

func decodeEntityReq(_ context.Context, r *http.Request) (any, error) {
	return entityReq{id: chi.URLParam(r, idKey)}, nil
}

func decodeGetSessionReq(_ context.Context, r *http.Request) (any, error) {
	preview, err := apiutil.ReadNumQuery[uint64](r, previewKey, 0)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return getSessionReq{
		entityReq: entityReq{id: chi.URLParam(r, idKey)},
		preview:   int(preview),
	}, nil
}

func decodeCloneSampleReq(_ context.Context, r *http.Request) (any, error) {
	return cloneSampleReq{
		entityReq: entityReq{id: chi.URLParam(r, idKey)},
		task:      r.URL.Query().Get(taskKey),
	}, nil
}

func decodeListEntityReq(_ context.Context, r *http.Request) (any, error) {
	o, err := apiutil.ReadNumQuery[uint64](r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	l, err := apiutil.ReadNumQuery[uint64](r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return listEntityReq{
		offset: o,
		limit:  l,
	}, nil
}

func decodeSetTargetReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	req := setTargetReq{entityReq: entityReq{id: chi.URLParam(r, idKey)}}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return req, nil
}

func decodeRunStageReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	req := runStageReq{entityReq: entityReq{id: chi.URLParam(r, idKey)}}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return req, nil
}

func decodeTrainReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	req := trainReq{entityReq: entityReq{id: chi.URLParam(r, idKey)}}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return req, nil
}
