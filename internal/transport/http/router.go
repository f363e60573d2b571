package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"cogniquiz-service/internal/app"
	"cogniquiz-service/internal/domain"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// API serves the read-mostly REST endpoints next to the websocket game.
type API struct {
	service *app.QuizService
	log     *zap.Logger
}

func NewAPI(service *app.QuizService, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{service: service, log: log}
}

// NewRouter mounts the websocket endpoint and the REST API, wrapped with CORS
// and access logging.
func NewRouter(api *API, ws *WSHandler, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws", ws.ServeWS)

	sub := r.PathPrefix("/api").Subrouter()
	sub.HandleFunc("/leaderboard", api.listLeaderboard).Methods(http.MethodGet)
	sub.HandleFunc("/leaderboard", api.clearLeaderboard).Methods(http.MethodDelete)
	sub.HandleFunc("/categories", api.listCategories).Methods(http.MethodGet)
	sub.HandleFunc("/themes", api.listThemes).Methods(http.MethodGet)
	sub.HandleFunc("/daily", api.dailyStatus).Methods(http.MethodGet)
	sub.HandleFunc("/sessions/{id}", api.getSession).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodDelete, http.MethodOptions}),
	)
	accessLog := zap.NewStdLog(log.Named("access")).Writer()
	return handlers.CombinedLoggingHandler(accessLog, cors(r))
}

type leaderboardResponse struct {
	Records []domain.ScoreRecord `json:"records"`
	Error   string               `json:"error,omitempty"`
}

// listLeaderboard degrades to an empty board when storage cannot be read.
func (a *API) listLeaderboard(w http.ResponseWriter, r *http.Request) {
	records, err := a.service.Leaderboard(r.Context())
	resp := leaderboardResponse{Records: records}
	if resp.Records == nil {
		resp.Records = []domain.ScoreRecord{}
	}
	if err != nil {
		a.log.Warn("leaderboard unavailable", zap.Error(err))
		resp.Error = domain.UserMessage(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) clearLeaderboard(w http.ResponseWriter, r *http.Request) {
	if err := a.service.ClearLeaderboard(r.Context()); err != nil {
		a.log.Error("clear leaderboard failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, domain.UserMessage(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.service.Categories(r.Context()))
}

func (a *API) listThemes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Themes())
}

func (a *API) dailyStatus(w http.ResponseWriter, r *http.Request) {
	status, err := a.service.DailyStatus(r.Context())
	if err != nil {
		a.log.Warn("daily status unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, domain.UserMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type sessionResponse struct {
	app.ShellSnapshot
	ShareText string `json:"shareText,omitempty"`
}

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	shell, err := a.service.Session(mux.Vars(r)["id"])
	if errors.Is(err, domain.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	resp := sessionResponse{ShellSnapshot: shell.Snapshot()}
	if resp.Summary != nil && !resp.Summary.WasError {
		resp.ShareText = domain.ShareText(*resp.Summary, a.service.Categories(r.Context()))
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
