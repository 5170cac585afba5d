package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pribylovaa/go-social-network/internal/models"

	apierrors "github.com/pribylovaa/go-social-network/internal/transport/http/errors"
)

// CreateChat — 201 для нового чата, 200 если найден существующий диалог.
func (h *Handlers) CreateChat(w http.ResponseWriter, r *http.Request) {
	var in CreateChatRequest
	if err := h.decode(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	sess := sessionFrom(r)
	c, created, err := h.svc.CreateChat(r.Context(), sess, in.ParticipantIDs)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	writeJSON(w, status, chatFromModel(c, sess.UserID))
}

func (h *Handlers) ListChats(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	sess := sessionFrom(r)
	page, err := h.svc.ListChats(r.Context(), sess, p)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listFrom(page, func(c *models.Chat) ChatResponse {
		return chatFromModel(c, sess.UserID)
	}))
}

func (h *Handlers) ChatByID(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	c, err := h.svc.ChatByID(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatFromModel(c, sess.UserID))
}

func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	var in SendMessageRequest
	if err := h.decode(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	m, err := h.svc.SendMessage(r.Context(), sessionFrom(r), chi.URLParam(r, "id"), in.Content)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageFromModel(m))
}

func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	page, err := h.svc.ListMessages(r.Context(), sessionFrom(r), chi.URLParam(r, "id"), p)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listFrom(page, messageFromModel))
}

func (h *Handlers) OpenChat(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.svc.OpenChat(r.Context(), sessionFrom(r), chi.URLParam(r, "id")))
}
