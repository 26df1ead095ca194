// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/internal/serving"
	"github.com/okian/attrition/pkg/logger"
)

// Predictor scores employees against the active model.
type Predictor interface {
	Predict(ctx context.Context, emp model.Employee) (*model.PredictionResult, error)
	PredictBatch(ctx context.Context, items []serving.BatchItem) []serving.BatchResult
}

// Catalog exposes the model registry.
type Catalog interface {
	Models(ctx context.Context, limit int) ([]model.RegisteredModel, error)
	ActiveModel(ctx context.Context) (*model.RegisteredModel, error)
	Activate(ctx context.Context, id string) (*model.RegisteredModel, error)
}

// TrainingScheduler queues offline training runs.
type TrainingScheduler interface {
	SubmitTraining(ctx context.Context, job model.TrainingJob) (model.JobStatus, error)
	Job(ctx context.Context, id string) (model.JobStatus, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Predictor
	Catalog
	TrainingScheduler
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	predictHandler  *PredictHandler
	modelsHandler   *ModelsHandler
	trainingHandler *TrainingHandler
	logger          logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		predictHandler:  NewPredictHandler(deps, cfg.maxBatchSize, cfg.maxBodyBytes),
		modelsHandler:   NewModelsHandler(deps, cfg.maxModelsLimit),
		trainingHandler: NewTrainingHandler(deps, cfg.maxBodyBytes),
		logger:          cfg.logger,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("POST /predict/batch", MetricsMiddleware(s.predictHandler.HandlePredictBatch, "predict_batch"))
	mux.HandleFunc("GET /models", MetricsMiddleware(s.modelsHandler.HandleList, "models"))
	mux.HandleFunc("GET /models/active", MetricsMiddleware(s.modelsHandler.HandleActive, "models_active"))
	mux.HandleFunc("POST /models/{id}/activate", MetricsMiddleware(s.modelsHandler.HandleActivate, "models_activate"))
	mux.HandleFunc("POST /train", MetricsMiddleware(s.trainingHandler.HandleSubmit, "train"))
	mux.HandleFunc("GET /train/{job_id}", MetricsMiddleware(s.trainingHandler.HandleStatus, "train_status"))

	s.logger.Info(ctx, "api routes registered")
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps err onto a status code and writes it.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

// decodeJSON reads at most limit bytes of JSON into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	body := http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", ErrBodyTooLarge, limit)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
