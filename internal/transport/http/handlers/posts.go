package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/service"

	apierrors "github.com/pribylovaa/go-social-network/internal/transport/http/errors"
)

func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in CreatePostRequest
	if err := h.decode(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	sess := sessionFrom(r)
	p, err := h.svc.CreatePost(r.Context(), sess, service.CreatePostInput{
		Content:   in.Content,
		MediaURLs: in.MediaURLs,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, postFromModel(p, sess.UserID))
}

func (h *Handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	page, err := h.svc.ListPosts(r.Context(), service.ListPostsInput{
		AuthorID:  r.URL.Query().Get("author_id"),
		PageSize:  p.PageSize,
		PageToken: p.PageToken,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	viewer := sessionFrom(r).UserID
	writeJSON(w, http.StatusOK, listFrom(page, func(p *models.Post) PostResponse {
		return postFromModel(p, viewer)
	}))
}

func (h *Handlers) PostByID(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.PostByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, postFromModel(p, sessionFrom(r).UserID))
}

func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.svc.DeletePost(r.Context(), sessionFrom(r), chi.URLParam(r, "id")))
}

func (h *Handlers) TogglePostLike(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	p, liked, err := h.svc.TogglePostLike(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PostLikeResponse{Liked: liked, Post: postFromModel(p, sess.UserID)})
}

func (h *Handlers) TogglePostSave(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	p, saved, err := h.svc.TogglePostSave(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PostSaveResponse{Saved: saved, Post: postFromModel(p, sess.UserID)})
}

func (h *Handlers) SharePost(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	p, err := h.svc.SharePost(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, postFromModel(p, sess.UserID))
}
