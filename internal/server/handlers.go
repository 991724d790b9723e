package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vitalvault/vitalvault/internal/vault"
)

// maxPayloadBytes caps a single stored blob at 64 MiB.
const maxPayloadBytes = 64 << 20

type storeRequest struct {
	Identity string            `json:"identity"`
	Kind     string            `json:"kind"`
	Tags     map[string]string `json:"tags,omitempty"`
	Data     string            `json:"data"` // base64 ciphertext
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	if strings.TrimSpace(req.Identity) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "identity required"})
		return
	}
	if req.Kind == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kind required"})
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid base64 data"})
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty payload"})
		return
	}

	rec, err := s.db.SavePayload(r.Context(), req.Identity, req.Kind, req.Tags, data)
	if err != nil {
		s.log.Error("store failed", "identity", req.Identity, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"uri":          rec.URI,
		"content_hash": rec.ContentHash,
		"size":         rec.Size,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	identityAddr := r.URL.Query().Get("identity")
	if identityAddr == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "identity parameter required"})
		return
	}
	kind := r.URL.Query().Get("kind")

	records, err := s.db.ListPayloads(r.Context(), identityAddr, kind)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if records == nil {
		records = []vault.PayloadRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "uri parameter required"})
		return
	}
	if !strings.HasPrefix(uri, vault.URIPrefix) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unrecognized uri scheme"})
		return
	}

	data, err := s.db.GetPayloadData(r.Context(), uri)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "payload not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"uri":  uri,
		"data": base64.StdEncoding.EncodeToString(data),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
