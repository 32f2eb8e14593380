package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fangji-app/fangji/internal/draft"
	"github.com/fangji-app/fangji/internal/ocr"
)

const maxImageSize = 20 * 1024 * 1024 // 20 MB

// allowedImageTypes is the set of MIME types accepted for prescription
// photos. The decode pipeline handles JPEG and PNG.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// draftSessionJSON pairs the opaque session id with the current draft state.
type draftSessionJSON struct {
	SessionID string      `json:"session_id"`
	Draft     draft.Draft `json:"draft"`
}

func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	if !s.ocrMu.TryLock() {
		s.writeError(w, http.StatusConflict, "recognition already in progress")
		return
	}
	defer s.ocrMu.Unlock()

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to read file")
		s.logger.Error("read upload failed", "error", err)
		return
	}
	if !allowedImageTypes[http.DetectContentType(imageData)] {
		s.writeError(w, http.StatusBadRequest, "unsupported image format")
		return
	}

	d, err := s.assistant.Recognize(r.Context(), imageData)
	if err != nil {
		if errors.Is(err, ocr.ErrParse) {
			s.writeError(w, http.StatusBadGateway, "recognition returned unusable output")
			return
		}
		s.writeError(w, http.StatusBadGateway, "recognition failed")
		s.logger.Error("recognition failed", "error", err)
		return
	}

	id := s.drafts.Put(d)
	s.writeJSON(w, http.StatusCreated, draftSessionJSON{SessionID: id, Draft: d})
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	d, err := s.drafts.Get(id)
	if err != nil {
		s.draftError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, draftSessionJSON{SessionID: id, Draft: d})
}

// draftPatch carries partial field edits; absent fields stay as they are.
type draftPatch struct {
	Name         *string `json:"name"`
	PatientName  *string `json:"patient_name"`
	Description  *string `json:"description"`
	SpecialNotes *string `json:"special_notes"`
}

func (s *Server) handlePatchDraft(w http.ResponseWriter, r *http.Request) {
	var patch draftPatch
	if err := readJSON(r, &patch); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := r.PathValue("id")
	d, err := s.drafts.Update(id, func(d draft.Draft) (draft.Draft, error) {
		if patch.Name != nil {
			d = d.WithName(*patch.Name)
		}
		if patch.PatientName != nil {
			d = d.WithPatientName(*patch.PatientName)
		}
		if patch.Description != nil {
			d = d.WithDescription(*patch.Description)
		}
		if patch.SpecialNotes != nil {
			d = d.WithSpecialNotes(*patch.SpecialNotes)
		}
		return d, nil
	})
	if err != nil {
		s.draftError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, draftSessionJSON{SessionID: id, Draft: d})
}

func (s *Server) handlePutDraftUsage(w http.ResponseWriter, r *http.Request) {
	var usage draft.Usage
	if err := readJSON(r, &usage); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := r.PathValue("id")
	d, err := s.drafts.Update(id, func(d draft.Draft) (draft.Draft, error) {
		return d.WithUsage(usage), nil
	})
	if err != nil {
		s.draftError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, draftSessionJSON{SessionID: id, Draft: d})
}

func (s *Server) handleAddDraftHerb(w http.ResponseWriter, r *http.Request) {
	var herb draft.Herb
	if err := readJSON(r, &herb); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := r.PathValue("id")
	d, err := s.drafts.Update(id, func(d draft.Draft) (draft.Draft, error) {
		return d.AddHerb(herb), nil
	})
	if err != nil {
		s.draftError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, draftSessionJSON{SessionID: id, Draft: d})
}

func (s *Server) handleUpdateDraftHerb(w http.ResponseWriter, r *http.Request) {
	index, err := parseHerbIndex(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid herb index")
		return
	}

	var herb draft.Herb
	if err := readJSON(r, &herb); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := r.PathValue("id")
	d, err := s.drafts.Update(id, func(d draft.Draft) (draft.Draft, error) {
		return d.UpdateHerb(index, herb)
	})
	if err != nil {
		s.draftError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, draftSessionJSON{SessionID: id, Draft: d})
}

func (s *Server) handleRemoveDraftHerb(w http.ResponseWriter, r *http.Request) {
	index, err := parseHerbIndex(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid herb index")
		return
	}

	id := r.PathValue("id")
	d, err := s.drafts.Update(id, func(d draft.Draft) (draft.Draft, error) {
		return d.RemoveHerb(index)
	})
	if err != nil {
		s.draftError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, draftSessionJSON{SessionID: id, Draft: d})
}

// commitRequest optionally tags the committed prescription with symptoms.
type commitRequest struct {
	Symptoms []string `json:"symptoms"`
}

func (s *Server) handleCommitDraft(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if r.ContentLength > 0 {
		if err := readJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	id := r.PathValue("id")
	d, err := s.drafts.Get(id)
	if err != nil {
		s.draftError(w, err)
		return
	}

	details, err := s.prescriptions.CommitDraft(r.Context(), d, req.Symptoms)
	if err != nil {
		if errors.Is(err, draft.ErrBlankName) || errors.Is(err, draft.ErrNoHerbs) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to save prescription")
		s.logger.Error("commit draft failed", "session_id", id, "error", err)
		return
	}

	// The session ends only after a successful save, so a failed commit can
	// be edited and retried.
	s.drafts.Discard(id)
	s.writeJSON(w, http.StatusCreated, toDetailsJSON(details))
}

func (s *Server) handleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	s.drafts.Discard(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// draftError maps draft package errors to HTTP status codes.
func (s *Server) draftError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, draft.ErrSessionGone):
		s.writeError(w, http.StatusNotFound, "draft session not found")
	case errors.Is(err, draft.ErrHerbIndex):
		s.writeError(w, http.StatusBadRequest, "herb index out of range")
	default:
		s.writeError(w, http.StatusInternalServerError, "draft operation failed")
		s.logger.Error("draft operation failed", "error", err)
	}
}

func parseHerbIndex(r *http.Request) (int, error) {
	return strconv.Atoi(r.PathValue("index"))
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
