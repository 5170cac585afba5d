package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/service"
	"github.com/pribylovaa/go-social-network/internal/session"

	apierrors "github.com/pribylovaa/go-social-network/internal/transport/http/errors"
)

func (h *Handlers) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var in CreateGroupRequest
	if err := h.decode(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	g, err := h.svc.CreateGroup(r.Context(), sessionFrom(r), service.CreateGroupInput{
		Name:        in.Name,
		Description: in.Description,
		IsPrivate:   in.IsPrivate,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, groupFromModel(g))
}

func (h *Handlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	page, err := h.svc.ListGroups(r.Context(), sessionFrom(r), p)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listFrom(page, groupFromModel))
}

func (h *Handlers) GroupByID(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.GroupByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, groupFromModel(g))
}

func (h *Handlers) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.svc.DeleteGroup(r.Context(), sessionFrom(r), chi.URLParam(r, "id")))
}

func (h *Handlers) JoinGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.JoinGroup(r.Context(), sessionFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, groupFromModel(g))
}

func (h *Handlers) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.svc.LeaveGroup(r.Context(), sessionFrom(r), chi.URLParam(r, "id")))
}

func (h *Handlers) InviteUser(w http.ResponseWriter, r *http.Request) {
	var in InviteRequest
	if err := h.decode(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	g, err := h.svc.InviteUser(r.Context(), sessionFrom(r), chi.URLParam(r, "id"), in.UserID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, groupFromModel(g))
}

func (h *Handlers) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.svc.DeclineInvite(r.Context(), sessionFrom(r), chi.URLParam(r, "id")))
}

// memberAction — админские операции над участником {user_id} группы {id}.
func (h *Handlers) memberAction(call func(context.Context, session.Session, string, string) (*models.Group, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := call(r.Context(), sessionFrom(r), chi.URLParam(r, "id"), chi.URLParam(r, "user_id"))
		if err != nil {
			apierrors.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, groupFromModel(g))
	}
}

func (h *Handlers) ApproveMember(w http.ResponseWriter, r *http.Request) {
	h.memberAction(h.svc.ApproveMember)(w, r)
}

func (h *Handlers) RejectMember(w http.ResponseWriter, r *http.Request) {
	h.memberAction(h.svc.RejectMember)(w, r)
}

func (h *Handlers) RemoveMember(w http.ResponseWriter, r *http.Request) {
	h.memberAction(h.svc.RemoveMember)(w, r)
}
