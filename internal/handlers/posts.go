package handlers

import (
	"net/http"
	"strconv"

	"the-arch-backend/internal/middleware"
	"the-arch-backend/internal/models"
	"the-arch-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// PostHandler handles post and feed endpoints
type PostHandler struct {
	postService     *services.PostService
	feedService     *services.FeedService
	questionService *services.QuestionService
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService *services.PostService, feedService *services.FeedService, questionService *services.QuestionService) *PostHandler {
	return &PostHandler{
		postService:     postService,
		feedService:     feedService,
		questionService: questionService,
	}
}

// Feed handles GET /api/posts/feed/{archID}?page=...&limit=...
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := chi.URLParam(r, "archID")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	feed, err := h.feedService.Feed(r.Context(), archID, userID, page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, feed, http.StatusOK)
}

// Create handles POST /api/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		ArchID  string         `json:"arch_id"`
		Content string         `json:"content"`
		Media   []models.Media `json:"media"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.postService.Create(r.Context(), req.ArchID, userID, req.Content, req.Media)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, post, http.StatusCreated)
}

// Get handles GET /api/posts/{postID}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	postID := chi.URLParam(r, "postID")

	post, err := h.postService.Get(r.Context(), postID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, post, http.StatusOK)
}

// Like handles POST /api/posts/{postID}/like
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	postID := chi.URLParam(r, "postID")

	liked, likes, err := h.postService.ToggleLike(r.Context(), postID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]interface{}{"liked": liked, "likes": likes}, http.StatusOK)
}

// Comment handles POST /api/posts/{postID}/comment
func (h *PostHandler) Comment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	postID := chi.URLParam(r, "postID")

	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.postService.AddComment(r.Context(), postID, userID, req.Content)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, comment, http.StatusCreated)
}

// Delete handles DELETE /api/posts/{postID}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	postID := chi.URLParam(r, "postID")

	if err := h.postService.Delete(r.Context(), postID, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]string{"message": "Post deleted"}, http.StatusOK)
}

// ShareResponse handles POST /api/posts/share-response/{responseID}.
// Same rule as POST /api/responses/{responseID}/share.
func (h *PostHandler) ShareResponse(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	responseID := chi.URLParam(r, "responseID")

	if _, err := h.questionService.Share(r.Context(), responseID, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]string{"message": "Response shared with arch"}, http.StatusOK)
}
