package handlers

import (
	"net/http"
	"strconv"

	"the-arch-backend/internal/middleware"
	"the-arch-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// QuestionHandler handles daily question and response endpoints
type QuestionHandler struct {
	questionService *services.QuestionService
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(questionService *services.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// Today handles GET /api/questions/today
func (h *QuestionHandler) Today(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	questions, err := h.questionService.TodayForAsker(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, questions, http.StatusOK)
}

// AboutMe handles GET /api/questions/about-me
func (h *QuestionHandler) AboutMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	questions, err := h.questionService.AboutMeToday(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, questions, http.StatusOK)
}

// Respond handles POST /api/questions/{questionID}/respond
func (h *QuestionHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	questionID := chi.URLParam(r, "questionID")

	var req struct {
		Response       string `json:"response"`
		SharedWithArch bool   `json:"shared_with_arch"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.questionService.Respond(r.Context(), questionID, userID, req.Response, req.SharedWithArch)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, resp, http.StatusOK)
}

// Pass handles POST /api/questions/{questionID}/pass
func (h *QuestionHandler) Pass(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	questionID := chi.URLParam(r, "questionID")

	resp, err := h.questionService.Pass(r.Context(), questionID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, resp, http.StatusOK)
}

// Retract handles DELETE /api/questions/{questionID}/response
func (h *QuestionHandler) Retract(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	questionID := chi.URLParam(r, "questionID")

	if err := h.questionService.Retract(r.Context(), questionID, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]string{"message": "Response deleted"}, http.StatusOK)
}

// ForArch handles GET /api/questions/arch/{archID}
func (h *QuestionHandler) ForArch(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := chi.URLParam(r, "archID")

	questions, err := h.questionService.ForArch(r.Context(), archID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, questions, http.StatusOK)
}

// ArchStats handles GET /api/questions/arch/{archID}/stats
func (h *QuestionHandler) ArchStats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := chi.URLParam(r, "archID")

	stats, err := h.questionService.ArchStats(r.Context(), archID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, stats, http.StatusOK)
}

// Share handles POST /api/responses/{responseID}/share
func (h *QuestionHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	responseID := chi.URLParam(r, "responseID")

	if _, err := h.questionService.Share(r.Context(), responseID, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]string{"message": "Response shared with arch"}, http.StatusOK)
}

// Responses handles GET /api/responses/question/{questionID}
func (h *QuestionHandler) Responses(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	questionID := chi.URLParam(r, "questionID")

	question, err := h.questionService.Get(r.Context(), questionID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, question.Responses, http.StatusOK)
}

// History handles GET /api/responses/user/history?arch_id=...&limit=...&offset=...
func (h *QuestionHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := r.URL.Query().Get("arch_id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	history, err := h.questionService.History(r.Context(), userID, archID, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, history, http.StatusOK)
}

// UserStats handles GET /api/responses/user/stats?arch_id=...
func (h *QuestionHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	archID := r.URL.Query().Get("arch_id")

	stats, err := h.questionService.UserStats(r.Context(), userID, archID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, stats, http.StatusOK)
}
