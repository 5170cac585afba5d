package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-social-network/internal/transport/http/errors"
)

func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	page, err := h.svc.ListNotifications(r.Context(), sessionFrom(r), p)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listFrom(page, notificationFromModel))
}

func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.svc.MarkNotificationRead(r.Context(), sessionFrom(r), chi.URLParam(r, "id")))
}
