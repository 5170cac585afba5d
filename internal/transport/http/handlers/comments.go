package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pribylovaa/go-social-network/internal/service"

	apierrors "github.com/pribylovaa/go-social-network/internal/transport/http/errors"
)

// CommentTree — дерево комментариев поста: верхний уровень от новых к старым,
// ответы внутри от старых к новым.
func (h *Handlers) CommentTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.CommentTree(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := ListResponse[CommentResponse]{Items: make([]CommentResponse, 0, len(tree))}
	for i := range tree {
		out.Items = append(out.Items, commentFromModel(&tree[i]))
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	var in AddCommentRequest
	if err := h.decode(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	c, err := h.svc.AddComment(r.Context(), sessionFrom(r), service.AddCommentInput{
		PostID:   chi.URLParam(r, "id"),
		ParentID: in.ParentID,
		Content:  in.Content,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, commentFromModel(c))
}

func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.svc.DeleteComment(r.Context(), sessionFrom(r), chi.URLParam(r, "id")))
}

func (h *Handlers) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	c, liked, err := h.svc.ToggleCommentLike(r.Context(), sessionFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CommentLikeResponse{Liked: liked, Comment: commentFromModel(c)})
}
