// Package api exposes the game service over HTTP/JSON.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/prem-predictor/internal/game"
	"github.com/utakatalp/prem-predictor/internal/league"
	"github.com/utakatalp/prem-predictor/internal/scoring"
)

// userHeader carries the caller's user name. Authentication is out of scope;
// the name is resolved against the user repository.
const userHeader = "X-User"

// Handler contains dependencies for HTTP handlers
type Handler struct {
	svc *game.Service
	log logrus.FieldLogger
}

func NewHandler(svc *game.Service, log logrus.FieldLogger) *Handler {
	return &Handler{svc: svc, log: log}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return false
	}
	return true
}

func caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := strings.TrimSpace(r.Header.Get(userHeader))
	if name == "" {
		respondError(w, http.StatusBadRequest, userHeader+" header is required")
		return "", false
	}
	return name, true
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "prem-predictor",
	})
}

type evaluateRequest struct {
	Prediction       scoring.Prediction `json:"prediction"`
	ActualFinalTable league.FinalTable  `json:"actualFinalTable"`
	UseOdds          *bool              `json:"useOdds"`
}

// Evaluate scores a prediction against a supplied table. useOdds defaults
// to true.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decode(w, r, &req) {
		return
	}
	useOdds := req.UseOdds == nil || *req.UseOdds

	b, err := h.svc.Evaluate(r.Context(), req.Prediction, req.ActualFinalTable, useOdds)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

type challengeScoreRequest struct {
	UserAnswer    float64               `json:"userAnswer"`
	CorrectAnswer float64               `json:"correctAnswer"`
	Kind          scoring.ChallengeKind `json:"kind"`
}

func (h *Handler) ScoreChallengeAnswer(w http.ResponseWriter, r *http.Request) {
	var req challengeScoreRequest
	if !decode(w, r, &req) {
		return
	}
	points := scoring.ScoreChallengeAnswer(req.UserAnswer, req.CorrectAnswer, req.Kind)
	respondJSON(w, http.StatusOK, map[string]int{"points": points})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Users(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.User(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

type registerRequest struct {
	Name    string `json:"name"`
	Team    string `json:"team"`
	IsAdmin bool   `json:"isAdmin"`
}

func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.RegisterUser(r.Context(), req.Name, req.Team, req.IsAdmin)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

func (h *Handler) ListPredictions(w http.ResponseWriter, r *http.Request) {
	preds, err := h.svc.Predictions(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, preds)
}

func (h *Handler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Prediction(r.Context(), mux.Vars(r)["user"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// SubmitPrediction stores the caller's own prediction.
func (h *Handler) SubmitPrediction(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	var p scoring.Prediction
	if !decode(w, r, &p) {
		return
	}
	saved, err := h.svc.SubmitPrediction(r.Context(), user, p)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

type adminUpdateRequest struct {
	TargetUser string `json:"targetUser"`
	scoring.Prediction
}

func (h *Handler) AdminUpdatePrediction(w http.ResponseWriter, r *http.Request) {
	admin, ok := caller(w, r)
	if !ok {
		return
	}
	var req adminUpdateRequest
	if !decode(w, r, &req) {
		return
	}
	saved, err := h.svc.AdminUpdatePrediction(r.Context(), admin, req.TargetUser, req.Prediction)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

type tableRequest struct {
	Table league.FinalTable `json:"table"`
}

func (h *Handler) SetFinalTable(w http.ResponseWriter, r *http.Request) {
	admin, ok := caller(w, r)
	if !ok {
		return
	}
	var req tableRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.SetFinalTable(r.Context(), admin, mux.Vars(r)["season"], req.Table)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (h *Handler) GetFinalTable(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.FinalTable(r.Context(), mux.Vars(r)["season"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// Leaderboard scores every prediction of the season. ?useOdds=false skips
// the odds lookup.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	useOdds := true
	if v := r.URL.Query().Get("useOdds"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "useOdds must be a boolean")
			return
		}
		useOdds = parsed
	}
	board, err := h.svc.Leaderboard(r.Context(), mux.Vars(r)["season"], useOdds)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}

func (h *Handler) OddsSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.OddsSummary(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

func (h *Handler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Challenges(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

type createChallengeRequest struct {
	Week     int                   `json:"week"`
	Kind     scoring.ChallengeKind `json:"kind"`
	Question string                `json:"question"`
}

func (h *Handler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	admin, ok := caller(w, r)
	if !ok {
		return
	}
	var req createChallengeRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.svc.CreateChallenge(r.Context(), admin, req.Week, req.Kind, req.Question)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

type answerRequest struct {
	Answer float64 `json:"answer"`
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	var req answerRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.svc.SubmitAnswer(r.Context(), user, mux.Vars(r)["id"], req.Answer)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

type settleRequest struct {
	Result float64 `json:"result"`
}

func (h *Handler) SettleChallenge(w http.ResponseWriter, r *http.Request) {
	admin, ok := caller(w, r)
	if !ok {
		return
	}
	var req settleRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.svc.SettleChallenge(r.Context(), admin, mux.Vars(r)["id"], req.Result)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}
