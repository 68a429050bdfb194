package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"doubt-battle-service/internal/app"
	"doubt-battle-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

// RESTHandler exposes the battle engine over plain HTTP. The caller's
// identity comes from the X-User-ID header; swapping in real auth middleware
// only has to repopulate that header.
type RESTHandler struct {
	service *app.BattleService
	logger  *slog.Logger
}

func NewRESTHandler(service *app.BattleService, logger *slog.Logger) *RESTHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RESTHandler{service: service, logger: logger}
}

// Routes mounts the REST surface on a chi router.
func (h *RESTHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/battles", h.createBattle)
	r.Get("/battles/{code}", h.getBattle)
	r.Post("/battles/{code}/join", h.joinBattle)
	r.Post("/battles/{code}/answer", h.submitAnswer)
	r.Get("/leaderboard", h.leaderboard)
	return r
}

type createBattleRequest struct {
	Subject      string `json:"subject"`
	NumQuestions int    `json:"numQuestions"`
	Topic        string `json:"topic,omitempty"`
	Opponent     string `json:"opponent,omitempty"`
}

type answerRequest struct {
	QuestionIndex  int `json:"questionIndex"`
	SelectedAnswer int `json:"selectedAnswer"`
	TimeTaken      int `json:"timeTaken"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *RESTHandler) createBattle(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	var req createBattleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, domain.ErrInvalidRequest)
		return
	}

	view, err := h.service.Create(r.Context(), app.CreateParams{
		Subject:       domain.Subject(req.Subject),
		QuestionCount: req.NumQuestions,
		Topic:         req.Topic,
		ChallengerID:  userID,
		OpponentID:    req.Opponent,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, view)
}

func (h *RESTHandler) getBattle(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *RESTHandler) joinBattle(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	view, err := h.service.Join(r.Context(), chi.URLParam(r, "code"), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *RESTHandler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, domain.ErrInvalidRequest)
		return
	}

	outcome, err := h.service.SubmitAnswer(r.Context(), chi.URLParam(r, "code"), userID,
		req.QuestionIndex, req.SelectedAnswer, req.TimeTaken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, outcome)
}

func (h *RESTHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, r, domain.ErrInvalidRequest)
			return
		}
		limit = parsed
	}
	entries, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("write response", "error", err)
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses with stable
// string codes the client can branch on.
func (h *RESTHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, domain.ErrBattleNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrInvalidState):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, domain.ErrStaleSubmission):
		status, code = http.StatusConflict, "stale_submission"
	case errors.Is(err, domain.ErrDuplicateSubmission):
		status, code = http.StatusConflict, "duplicate_submission"
	case errors.Is(err, domain.ErrGenerationFailed):
		status, code = http.StatusBadGateway, "generation_failed"
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	h.writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: err.Error()}})
}
