package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rmax-ai/mrpconf/pkg/model"
	"github.com/rmax-ai/mrpconf/pkg/store"
)

const maxBodyBytes = 1 << 20

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		scenarios, err := s.store.ListScenarios(r.Context())
		if err != nil {
			s.storeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, scenarios)

	case http.MethodPost:
		var sc model.Scenario
		if err := decodeBody(w, r, &sc); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json_body")
			return
		}
		if err := sc.Validate(); err != nil {
			writeErrorReason(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		if err := s.store.CreateScenario(r.Context(), sc, s.template); err != nil {
			s.storeError(w, r, err)
			return
		}
		s.logger.Info("scenario_created", "trace_id", getTraceID(r.Context()), "scenario", sc.ScenarioID)
		writeJSON(w, http.StatusCreated, sc)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	}
}

func (s *Server) handleTechnical(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.store.GetTechnical(r.Context())
		if err != nil {
			s.storeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)

	case http.MethodPut:
		items, ok := decodeItems(w, r)
		if !ok {
			return
		}
		if err := s.store.PutTechnical(r.Context(), items); err != nil {
			s.storeError(w, r, err)
			return
		}
		s.logger.Info("technical_saved", "trace_id", getTraceID(r.Context()), "items", len(items))
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	}
}

func (s *Server) handleOperational(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("scenarioId")
	if id == "" {
		writeError(w, http.StatusNotFound, "scenario_not_found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		items, err := s.store.GetOperational(r.Context(), id)
		if err != nil {
			s.storeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)

	case http.MethodPut:
		items, ok := decodeItems(w, r)
		if !ok {
			return
		}
		if err := s.store.PutOperational(r.Context(), id, items); err != nil {
			s.storeError(w, r, err)
			return
		}
		s.logger.Info("operational_saved", "trace_id", getTraceID(r.Context()), "scenario", id, "items", len(items))
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	}
}

// storeError maps store failures onto status codes.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeErrorReason(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, store.ErrScenarioNotFound):
		writeError(w, http.StatusNotFound, "scenario_not_found")
	case errors.Is(err, store.ErrScenarioExists):
		writeError(w, http.StatusConflict, "scenario_exists")
	default:
		// Don't expose internal error details, but log them
		s.logger.Error("store_failure", "trace_id", getTraceID(r.Context()), "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_server_error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// decodeItems reads a configuration set. A JSON null is rejected: a set is
// always replaced by an explicit array.
func decodeItems(w http.ResponseWriter, r *http.Request) ([]model.ConfigItem, bool) {
	var items []model.ConfigItem
	if err := decodeBody(w, r, &items); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json_body")
		return nil, false
	}
	if items == nil {
		writeErrorReason(w, http.StatusBadRequest, "invalid_json_body", "expected a JSON array")
		return nil, false
	}
	return items, true
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{Error: code})
}

func writeErrorReason(w http.ResponseWriter, status int, code, reason string) {
	writeJSON(w, status, errorResponse{Error: code, Reason: reason})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(w, `{"error":"encode_failed"}`)
	}
}
