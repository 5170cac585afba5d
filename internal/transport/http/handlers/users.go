package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/service"

	apierrors "github.com/pribylovaa/go-social-network/internal/transport/http/errors"
)

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Me(r.Context(), sessionFrom(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(u, true))
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in UpdateProfileRequest
	if err := h.decode(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	u, err := h.svc.UpdateProfile(r.Context(), sessionFrom(r), service.UpdateProfileInput{
		Username:    in.Username,
		DisplayName: in.DisplayName,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(u, true))
}

func (h *Handlers) SetFCMToken(w http.ResponseWriter, r *http.Request) {
	var in FCMTokenRequest
	if err := h.decode(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.SetFCMToken(r.Context(), sessionFrom(r), in.Token); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Friends(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Friends(r.Context(), sessionFrom(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listFrom(&models.Page[models.User]{Items: users}, func(u *models.User) UserResponse {
		return userFromModel(u, false)
	}))
}

func (h *Handlers) SavedPosts(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	sess := sessionFrom(r)
	page, err := h.svc.SavedPosts(r.Context(), sess, p)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listFrom(page, func(p *models.Post) PostResponse {
		return postFromModel(p, sess.UserID)
	}))
}

func (h *Handlers) UserByID(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.UserByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(u, false))
}

func (h *Handlers) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.svc.SendFriendRequest(r.Context(), sessionFrom(r), chi.URLParam(r, "id")))
}

func (h *Handlers) CancelFriendRequest(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.svc.CancelFriendRequest(r.Context(), sessionFrom(r), chi.URLParam(r, "id")))
}

func (h *Handlers) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.svc.AcceptFriendRequest(r.Context(), sessionFrom(r), chi.URLParam(r, "id")))
}

func (h *Handlers) DeclineFriendRequest(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.svc.DeclineFriendRequest(r.Context(), sessionFrom(r), chi.URLParam(r, "id")))
}

func (h *Handlers) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.svc.RemoveFriend(r.Context(), sessionFrom(r), chi.URLParam(r, "id")))
}
