package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aerofans/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// ReplyHandler provides HTTP handlers for replies under a post.
type ReplyHandler struct {
	replyService *services.ReplyService
}

// NewReplyHandler constructs a handler with the provided service.
func NewReplyHandler(replyService *services.ReplyService) *ReplyHandler {
	return &ReplyHandler{replyService: replyService}
}

// ReplyRouter registers reply routes on a router already scoped to a post.
func ReplyRouter(
	r chi.Router,
	replyService *services.ReplyService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewReplyHandler(replyService)

	r.With(authMiddleware).Post("/", handler.CreateReply)
	r.Get("/all", handler.ListReplies)
	r.Route("/{replyID}", func(r chi.Router) {
		r.Get("/", handler.GetReply)
		r.With(authMiddleware).Patch("/", handler.UpdateReply)
		r.With(authMiddleware).Delete("/", handler.DeleteReply)
	})
}

func (h *ReplyHandler) CreateReply(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	postID, err := parsePostID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	text, err := parseTextBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.replyService.Create(r.Context(), postID, userID, text)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func (h *ReplyHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePostID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	replies, err := h.replyService.ListByPost(r.Context(), postID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, replies)
}

func (h *ReplyHandler) GetReply(w http.ResponseWriter, r *http.Request) {
	id, postID, err := parseReplyIDs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.replyService.Get(r.Context(), id, postID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func (h *ReplyHandler) UpdateReply(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, postID, err := parseReplyIDs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	text, err := parseTextBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.replyService.Update(r.Context(), id, postID, userID, text)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func (h *ReplyHandler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, postID, err := parseReplyIDs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.replyService.Delete(r.Context(), id, postID, userID); err != nil {
		writeAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func parseReplyIDs(r *http.Request) (id, postID int, err error) {
	postID, err = parsePostID(r)
	if err != nil {
		return 0, 0, err
	}

	raw := chi.URLParam(r, "replyID")
	id, err = strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, 0, errors.New("invalid reply id")
	}
	return id, postID, nil
}
