package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// RouterOptions tunes the middleware stack.
type RouterOptions struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter mounts every route on a gorilla/mux router behind request ids,
// access logging, panic recovery, a request timeout and CORS.
func NewRouter(h *Handler, log *logrus.Logger, opts RouterOptions) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:3000"}
	}

	r := mux.NewRouter()

	// Middleware
	r.Use(requestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	// Routes
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/evaluate", h.Evaluate).Methods(http.MethodPost)

	v1.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	v1.HandleFunc("/users", h.RegisterUser).Methods(http.MethodPost)
	v1.HandleFunc("/users/{name}", h.GetUser).Methods(http.MethodGet)

	v1.HandleFunc("/predictions", h.ListPredictions).Methods(http.MethodGet)
	v1.HandleFunc("/predictions", h.SubmitPrediction).Methods(http.MethodPost)
	v1.HandleFunc("/predictions/admin-update", h.AdminUpdatePrediction).Methods(http.MethodPost)
	v1.HandleFunc("/predictions/{user}", h.GetPrediction).Methods(http.MethodGet)

	v1.HandleFunc("/seasons/{season}/table", h.SetFinalTable).Methods(http.MethodPut)
	v1.HandleFunc("/seasons/{season}/table", h.GetFinalTable).Methods(http.MethodGet)
	v1.HandleFunc("/seasons/{season}/leaderboard", h.Leaderboard).Methods(http.MethodGet)

	v1.HandleFunc("/odds/summary", h.OddsSummary).Methods(http.MethodGet)

	v1.HandleFunc("/challenges/score", h.ScoreChallengeAnswer).Methods(http.MethodPost)
	v1.HandleFunc("/challenges", h.ListChallenges).Methods(http.MethodGet)
	v1.HandleFunc("/challenges", h.CreateChallenge).Methods(http.MethodPost)
	v1.HandleFunc("/challenges/{id}/answers", h.SubmitAnswer).Methods(http.MethodPost)
	v1.HandleFunc("/challenges/{id}/settle", h.SettleChallenge).Methods(http.MethodPost)

	// CORS wraps the router so preflight requests never reach route matching
	return cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", userHeader, requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})(r)
}

const requestIDHeader = "X-Request-ID"

// requestID echoes the caller's X-Request-ID or mints a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}
