package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fangji-app/fangji/internal/draft"
)

func (s *Server) handleListPrescriptions(w http.ResponseWriter, r *http.Request) {
	list, err := s.prescriptions.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list prescriptions")
		s.logger.Error("list prescriptions failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, toPrescriptionsJSON(list))
}

func (s *Server) handleCreatePrescription(w http.ResponseWriter, r *http.Request) {
	var req prescriptionRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	details, err := s.prescriptions.Create(r.Context(), req.toDomain())
	if err != nil {
		if errors.Is(err, draft.ErrBlankName) || errors.Is(err, draft.ErrNoHerbs) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to create prescription")
		s.logger.Error("create prescription failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toDetailsJSON(details))
}

func (s *Server) handleGetPrescription(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid prescription id")
		return
	}

	details, err := s.prescriptions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to get prescription")
		s.logger.Error("get prescription failed", "id", id, "error", err)
		return
	}
	if details == nil {
		s.writeError(w, http.StatusNotFound, "prescription not found")
		return
	}
	s.writeJSON(w, http.StatusOK, toDetailsJSON(details))
}

func (s *Server) handleUpdatePrescription(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid prescription id")
		return
	}

	existing, err := s.prescriptions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to get prescription")
		s.logger.Error("get prescription failed", "id", id, "error", err)
		return
	}
	if existing == nil {
		s.writeError(w, http.StatusNotFound, "prescription not found")
		return
	}

	var req prescriptionRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.writeError(w, http.StatusBadRequest, "prescription name required")
		return
	}

	details := req.toDomain()
	details.ID = id
	if err := s.prescriptions.Update(r.Context(), details); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to update prescription")
		s.logger.Error("update prescription failed", "id", id, "error", err)
		return
	}

	updated, err := s.prescriptions.Get(r.Context(), id)
	if err != nil || updated == nil {
		s.writeError(w, http.StatusInternalServerError, "failed to reload prescription")
		s.logger.Error("reload prescription failed", "id", id, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, toDetailsJSON(updated))
}

func (s *Server) handleDeletePrescription(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid prescription id")
		return
	}

	if err := s.prescriptions.Delete(r.Context(), id); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to delete prescription")
		s.logger.Error("delete prescription failed", "id", id, "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeJSON(w, http.StatusOK, []detailsJSON{})
		return
	}

	results, err := s.prescriptions.Search(r.Context(), query)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "search failed")
		s.logger.Error("search failed", "query", query, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, toDetailsListJSON(results))
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.prescriptions.Statistics(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		s.logger.Error("statistics failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, toStatisticsJSON(stats))
}

func (s *Server) handleListHerbNames(w http.ResponseWriter, r *http.Request) {
	names, err := s.prescriptions.HerbNames(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list herbs")
		s.logger.Error("list herb names failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleListSymptomLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := s.prescriptions.SymptomLabels(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list symptoms")
		s.logger.Error("list symptom labels failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, labels)
}

// parseID extracts the {id} path variable and returns it as int64.
func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
