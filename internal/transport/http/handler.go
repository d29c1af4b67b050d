package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/domain"
)

// Handler exposes the scoring, response and analytics use cases over REST.
// Authentication and company permission checks happen at the gateway; the
// caller's identity arrives pre-verified in the X-User-ID header.
type Handler struct {
	scoring   *app.ScoringService
	responses *app.ResponseService
	analytics *app.AnalyticsService
	overdue   *app.OverdueService
	store     app.QuizStore
	log       *zap.SugaredLogger
}

func NewHandler(
	scoring *app.ScoringService,
	responses *app.ResponseService,
	analytics *app.AnalyticsService,
	overdue *app.OverdueService,
	store app.QuizStore,
	log *zap.SugaredLogger,
) *Handler {
	return &Handler{
		scoring:   scoring,
		responses: responses,
		analytics: analytics,
		overdue:   overdue,
		store:     store,
		log:       log,
	}
}

// Routes mounts the REST surface.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Post("/quizzes/complete", h.completeQuiz)
	r.Get("/responses", h.userResponses)
	r.Get("/quizzes/{quizID}/responses", h.userQuizResponses)
	r.Get("/quizzes/{quizID}/score-trend", h.quizScoreTrend)
	r.Get("/companies/{companyID}/quizzes/{quizID}/responses.csv", h.companyQuizResponsesCSV)
	r.Get("/users/{userID}/score-trend", h.userScoreTrend)
	r.Get("/users/{userID}/overdue-quizzes", h.overdueQuizzes)
	return r
}

type scoreResponse struct {
	Score int `json:"score"`
}

func (h *Handler) completeQuiz(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var completion domain.Completion
	if err := json.NewDecoder(r.Body).Decode(&completion); err != nil {
		h.writeError(w, domain.NewBusinessRule("invalid completion payload"))
		return
	}

	quiz, err := h.store.GetQuiz(r.Context(), completion.QuizID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.scoring.EvaluateQuiz(r.Context(), quiz, completion, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, scoreResponse{Score: result.Score})
}

func (h *Handler) userResponses(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	results, err := h.responses.UserResponses(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if results == nil {
		results = []domain.QuizDetailResult{}
	}
	h.writeJSON(w, results)
}

func (h *Handler) userQuizResponses(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	quizID, err := pathID(r, "quizID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		csvBody, err := h.responses.UserQuizResponseCSV(r.Context(), userID, quizID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(csvBody))
		return
	}

	display, err := h.responses.UserQuizResponse(r.Context(), userID, quizID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, display)
}

func (h *Handler) companyQuizResponsesCSV(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		h.writeError(w, err)
		return
	}
	quizID, err := pathID(r, "quizID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	csvBody, err := h.responses.CompanyQuizResponsesCSV(r.Context(), companyID, quizID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Write([]byte(csvBody))
}

func (h *Handler) quizScoreTrend(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathID(r, "quizID")
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.scoreTrend(w, r, domain.ScoreSubject{Kind: domain.SubjectQuiz, ID: quizID})
}

func (h *Handler) userScoreTrend(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.scoreTrend(w, r, domain.ScoreSubject{Kind: domain.SubjectUser, ID: userID})
}

func (h *Handler) scoreTrend(w http.ResponseWriter, r *http.Request, subject domain.ScoreSubject) {
	interval, err := app.ParseInterval(r.URL.Query().Get("interval"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	points, err := h.analytics.AveragesOverIntervals(subject, interval).Collect(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if points == nil {
		points = []domain.TrendPoint{}
	}
	h.writeJSON(w, points)
}

func (h *Handler) overdueQuizzes(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		h.writeError(w, err)
		return
	}
	quizzes, err := h.overdue.OverdueQuizzes(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	h.writeJSON(w, quizzes)
}

func callerID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		return uuid.Nil, domain.NewBusinessRule("missing or invalid X-User-ID header")
	}
	return id, nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domain.NewBusinessRule("invalid " + name)
	}
	return id, nil
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		h.writeStatusJSON(w, http.StatusNotFound, errorResponse{Detail: err.Error()})
	case domain.IsBusinessRule(err):
		h.writeStatusJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
	default:
		h.log.Errorw("request failed", "error", err)
		h.writeStatusJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, payload any) {
	h.writeStatusJSON(w, http.StatusOK, payload)
}

func (h *Handler) writeStatusJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Errorw("write response", "error", err)
	}
}
