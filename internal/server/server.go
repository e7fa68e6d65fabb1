// Package server exposes the validation engine over HTTP, so training
// pipelines can check a candidate options document without shipping the
// schema registry themselves.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/example/traincheck/internal/errors"
	"github.com/example/traincheck/internal/logging"
	"github.com/example/traincheck/internal/metrics"
	"github.com/example/traincheck/internal/registry"
	"github.com/example/traincheck/internal/validate"
)

// maxDocumentSize bounds request bodies. Options documents are small;
// anything near a megabyte is not one.
const maxDocumentSize = 1 << 20

// Server serves the validation API.
type Server struct {
	registry *registry.Registry
	httpSrv  *http.Server
}

// Report is the response body for a validation request.
type Report struct {
	RequestID    string               `json:"request_id"`
	Architecture string               `json:"architecture"`
	Valid        bool                 `json:"valid"`
	Violations   []validate.Violation `json:"violations"`
}

// New creates a server bound to addr.
func New(addr string, reg *registry.Registry) *Server {
	s := &Server{registry: reg}

	router := httprouter.New()
	router.POST("/v1/validate/:architecture", s.handleValidate)
	router.GET("/v1/architectures", s.handleArchitectures)
	router.GET("/healthz", s.handleHealth)
	router.Handler(http.MethodGet, "/metrics", metrics.Handler())

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start runs the server until it is shut down.
func (s *Server) Start() error {
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := uuid.NewString()
	arch := ps.ByName("architecture")

	root, ok := s.registry.Schema(arch)
	if !ok {
		errors.ErrUnknownArchitecture.
			WithDetails("known architectures: "+strings.Join(s.registry.Names(), ", ")).
			WithRequestID(requestID).
			WriteJSON(w)
		return
	}

	// UseNumber keeps the integer/float distinction the engine relies on;
	// plain decoding would flatten every number to float64.
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDocumentSize))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		errors.ErrBadRequest.
			WithDetails("invalid JSON document: "+err.Error()).
			WithRequestID(requestID).
			WriteJSON(w)
		return
	}

	start := time.Now()
	violations := validate.Validate(doc, root)
	metrics.RecordValidation(arch, violations, time.Since(start))

	logging.Info("document validated",
		zap.String("request_id", requestID),
		zap.String("architecture", arch),
		zap.Int("violations", len(violations)),
	)

	report := Report{
		RequestID:    requestID,
		Architecture: arch,
		Valid:        len(violations) == 0,
		Violations:   violations,
	}
	if report.Violations == nil {
		report.Violations = []validate.Violation{}
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleArchitectures(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]any{
		"architectures": s.registry.Names(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
