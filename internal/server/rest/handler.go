package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/onetimesecret/internal/common"
	"github.com/dmitrijs2005/onetimesecret/internal/timex"
)

// GenerateRequest is the payload of POST /api/generate. TTL is optional and
// accepts Go duration strings ("1h30m"); when omitted the configured default
// applies.
type GenerateRequest struct {
	Secret     string         `json:"secret"`
	Passphrase string         `json:"passphrase"`
	TTL        timex.Duration `json:"ttl,omitempty"`
}

// GenerateResponse carries the lookup key of the newly stored secret.
type GenerateResponse struct {
	SecretKey string `json:"secret_key"`
}

// PassphraseRequest is the payload of POST /api/secrets/{secret_key}.
type PassphraseRequest struct {
	Passphrase string `json:"passphrase"`
}

// SecretResponse carries the decrypted secret.
type SecretResponse struct {
	Secret string `json:"secret"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Secret == "" || req.Passphrase == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "secret and passphrase are required"})
		return
	}

	key, err := s.secrets.Generate(r.Context(), req.Secret, req.Passphrase, req.TTL.Duration)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, GenerateResponse{SecretKey: key})
}

func (s *Server) handleGetSecret(w http.ResponseWriter, r *http.Request) {

	lookupKey := r.PathValue("secret_key")

	var req PassphraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Passphrase == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "passphrase is required"})
		return
	}

	plaintext, err := s.secrets.Get(r.Context(), lookupKey, req.Passphrase)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, SecretResponse{Secret: plaintext})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// writeError maps the service error taxonomy onto status codes. Wrong
// passphrase and missing secret are kept distinguishable (403 vs 404): lookup
// keys are high-entropy, so revealing that a key exists to someone already
// holding it leaks nothing useful, while the legitimate recipient learns they
// mistyped the passphrase rather than that the secret is gone.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorSecretNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "secret not found"})
	case errors.Is(err, common.ErrorInvalidPassphrase):
		s.writeJSON(w, http.StatusForbidden, errorResponse{Error: "invalid passphrase"})
	case errors.Is(err, common.ErrorStoreUnavailable):
		s.logger.Error(r.Context(), "storage unavailable", "error", err.Error())
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "storage unavailable"})
	default:
		s.logger.Error(r.Context(), "request failed", "error", err.Error())
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(context.Background(), "failed to encode response", "error", err.Error())
	}
}
