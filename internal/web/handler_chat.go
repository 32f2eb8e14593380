package web

import (
	"net/http"
	"strings"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatReply struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message required")
		return
	}

	if !s.chatMu.TryLock() {
		s.writeError(w, http.StatusConflict, "a conversation turn is already in progress")
		return
	}
	defer s.chatMu.Unlock()

	reply, err := s.assistant.Chat(r.Context(), req.Message)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "assistant request failed")
		s.logger.Error("chat failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, chatReply{Reply: reply})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.assistant.History(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load chat history")
		s.logger.Error("load chat history failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, toChatMessagesJSON(history))
}

func (s *Server) handleClearChatHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.assistant.ClearHistory(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to clear chat history")
		s.logger.Error("clear chat history failed", "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type recommendRequest struct {
	Symptoms     string `json:"symptoms"`
	Constitution string `json:"constitution"`
	AgeGender    string `json:"age_gender"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Symptoms) == "" {
		s.writeError(w, http.StatusBadRequest, "symptoms required")
		return
	}

	if !s.chatMu.TryLock() {
		s.writeError(w, http.StatusConflict, "a conversation turn is already in progress")
		return
	}
	defer s.chatMu.Unlock()

	reply, err := s.assistant.Recommend(r.Context(), req.Symptoms, req.Constitution, req.AgeGender)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "assistant request failed")
		s.logger.Error("recommend failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, chatReply{Reply: reply})
}
