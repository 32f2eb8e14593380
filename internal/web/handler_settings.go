package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fangji-app/fangji/internal/secrets"
)

type apiKeyRequest struct {
	APIKey string `json:"api_key"`
}

type apiKeyStatus struct {
	Configured bool   `json:"configured"`
	Masked     string `json:"masked,omitempty"`
}

func (s *Server) handleGetAPIKey(w http.ResponseWriter, r *http.Request) {
	key, err := s.secrets.Get(s.secretName)
	if errors.Is(err, secrets.ErrNotFound) {
		s.writeJSON(w, http.StatusOK, apiKeyStatus{})
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to read credential")
		s.logger.Error("read api key failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, apiKeyStatus{Configured: true, Masked: maskKey(key)})
}

func (s *Server) handlePutAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		s.writeError(w, http.StatusBadRequest, "api key required")
		return
	}

	if err := s.secrets.Set(s.secretName, key); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to store credential")
		s.logger.Error("store api key failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, apiKeyStatus{Configured: true, Masked: maskKey(key)})
}

// maskKey keeps only the first and last few characters of a credential.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
