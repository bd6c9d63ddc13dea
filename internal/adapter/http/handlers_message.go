package adapthttp

import (
	"net/http"

	"socialmedia/internal/domain"
)

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PostedBy        int64  `json:"posted_by"`
		MessageText     string `json:"message_text"`
		TimePostedEpoch int64  `json:"time_posted_epoch"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	m, err := s.messages.Post(r.Context(), domain.Message{
		PostedBy:        body.PostedBy,
		MessageText:     body.MessageText,
		TimePostedEpoch: body.TimePostedEpoch,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	items, err := s.messages.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "message_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	m, ok, err := s.messages.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !ok {
		writeEmpty(w)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "message_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	m, ok, err := s.messages.Delete(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !ok {
		writeEmpty(w)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleUpdateMessage edits message_text. Unlike the lookups, a missing
// message is a client error here.
func (s *Server) handleUpdateMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "message_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var body struct {
		MessageText string `json:"message_text"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	m, err := s.messages.Edit(r.Context(), id, body.MessageText)
	if domain.IsNotFound(err) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleMessagesByAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "account_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	items, err := s.messages.ListByAuthor(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
