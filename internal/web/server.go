package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fangji-app/fangji/internal/assistant"
	"github.com/fangji-app/fangji/internal/draft"
	"github.com/fangji-app/fangji/internal/secrets"
	"github.com/fangji-app/fangji/internal/service"
)

type Server struct {
	prescriptions *service.PrescriptionService
	assistant     *assistant.Service
	drafts        *draft.Manager
	secrets       *secrets.Store
	secretName    string
	mux           *http.ServeMux
	logger        *slog.Logger

	// One recognition and one conversation turn may be outstanding at a
	// time; a second concurrent call is a caller error, not a queue.
	ocrMu  sync.Mutex
	chatMu sync.Mutex
}

func NewServer(prescriptions *service.PrescriptionService, asst *assistant.Service, drafts *draft.Manager, sec *secrets.Store, secretName string, logger *slog.Logger) *Server {
	s := &Server{
		prescriptions: prescriptions,
		assistant:     asst,
		drafts:        drafts,
		secrets:       sec,
		secretName:    secretName,
		mux:           http.NewServeMux(),
		logger:        logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /prescriptions", s.handleListPrescriptions)
	s.mux.HandleFunc("POST /prescriptions", s.handleCreatePrescription)
	s.mux.HandleFunc("GET /prescriptions/{id}", s.handleGetPrescription)
	s.mux.HandleFunc("PUT /prescriptions/{id}", s.handleUpdatePrescription)
	s.mux.HandleFunc("DELETE /prescriptions/{id}", s.handleDeletePrescription)
	s.mux.HandleFunc("GET /search", s.handleSearch)
	s.mux.HandleFunc("GET /statistics", s.handleStatistics)
	s.mux.HandleFunc("GET /herbs", s.handleListHerbNames)
	s.mux.HandleFunc("GET /symptoms", s.handleListSymptomLabels)

	s.mux.HandleFunc("POST /ocr", s.handleRecognize)
	s.mux.HandleFunc("GET /drafts/{id}", s.handleGetDraft)
	s.mux.HandleFunc("PATCH /drafts/{id}", s.handlePatchDraft)
	s.mux.HandleFunc("DELETE /drafts/{id}", s.handleDiscardDraft)
	s.mux.HandleFunc("PUT /drafts/{id}/usage", s.handlePutDraftUsage)
	s.mux.HandleFunc("POST /drafts/{id}/herbs", s.handleAddDraftHerb)
	s.mux.HandleFunc("PUT /drafts/{id}/herbs/{index}", s.handleUpdateDraftHerb)
	s.mux.HandleFunc("DELETE /drafts/{id}/herbs/{index}", s.handleRemoveDraftHerb)
	s.mux.HandleFunc("POST /drafts/{id}/commit", s.handleCommitDraft)

	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("GET /chat/history", s.handleChatHistory)
	s.mux.HandleFunc("DELETE /chat/history", s.handleClearChatHistory)
	s.mux.HandleFunc("POST /recommend", s.handleRecommend)

	s.mux.HandleFunc("GET /settings/api-key", s.handleGetAPIKey)
	s.mux.HandleFunc("PUT /settings/api-key", s.handlePutAPIKey)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes the request body into dst, rejecting unknown fields.
func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
