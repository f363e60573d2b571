package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"cogniquiz-service/internal/app"
	"cogniquiz-service/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	service  *app.QuizService
	defaults domain.QuizParameters
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, defaults domain.QuizParameters, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service:  service,
		defaults: defaults,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Key string `json:"key"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type readyPayload struct {
	SessionID   string                `json:"sessionId"`
	Phase       domain.Phase          `json:"phase"`
	Preferences domain.Preferences    `json:"preferences"`
	Defaults    domain.QuizParameters `json:"defaults"`
}

type phasePayload struct {
	Phase    domain.Phase    `json:"phase"`
	Summary  *domain.Summary `json:"summary,omitempty"`
	Message  string          `json:"message,omitempty"`
	Recovery domain.Recovery `json:"recovery,omitempty"`
}

type tokenPayload struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

type questionPayload struct {
	Index    int               `json:"index"`
	Count    int               `json:"count"`
	Question *app.QuestionView `json:"question"`
	TimeLeft int               `json:"timeLeft"`
	Score    domain.Score      `json:"score"`
}

type selectedPayload struct {
	Key string `json:"key"`
}

type tickPayload struct {
	TimeLeft int `json:"timeLeft"`
}

type revealPayload struct {
	Feedback       domain.Feedback `json:"feedback"`
	Selected       string          `json:"selected,omitempty"`
	CorrectAnswers []string        `json:"correctAnswers"`
	Score          domain.Score    `json:"score"`
	Last           bool            `json:"last"`
}

type leaderboardPayload struct {
	Records []domain.ScoreRecord `json:"records"`
	Error   string               `json:"error,omitempty"`
}

type errorPayload struct {
	Message  string          `json:"message"`
	Recovery domain.Recovery `json:"recovery,omitempty"`
}

// outbox is the per-connection send queue. Pushes never block because they
// come from session listeners that hold session locks.
type outbox struct {
	mu     sync.Mutex
	closed bool
	ch     chan outboundMessage
	log    *zap.Logger
}

func (o *outbox) push(msg outboundMessage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	select {
	case o.ch <- msg:
	default:
		o.log.Warn("ws send queue full, dropping message", zap.String("type", msg.Type))
	}
}

func (o *outbox) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.ch)
	}
}

// ServeWS upgrades HTTP requests to websockets and gives each connection its own shell.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	out := &outbox{ch: make(chan outboundMessage, 128), log: h.log}
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range out.ch {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", zap.Error(err))
				// keep draining so pushes never pile up
				for range out.ch {
				}
				return
			}
		}
	}()

	shell := h.service.Open(func(ev app.Event) {
		if msg, ok := eventMessage(ev); ok {
			out.push(msg)
		}
	})
	log := h.log.With(zap.String("session", shell.ID()))
	log.Info("ws connected")

	// a swept shell ends its connection; the read loop below then unwinds
	go func() {
		<-shell.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	out.push(outboundMessage{Type: "ready", Payload: readyPayload{
		SessionID:   shell.ID(),
		Phase:       shell.Phase(),
		Preferences: shell.Preferences(),
		Defaults:    h.defaults,
	}})

	ctx := r.Context()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(ctx, shell, inbound, out)
	}

	h.service.Close(shell.ID())
	shell.Wait()
	out.close()
	<-writerDone
	log.Info("ws disconnected")
}

func (h *WSHandler) dispatch(ctx context.Context, shell *app.Shell, in inboundMessage, out *outbox) {
	var err error
	switch in.Type {
	case "begin":
		params := h.defaults
		if len(in.Payload) > 0 && string(in.Payload) != "null" {
			if jsonErr := json.Unmarshal(in.Payload, &params); jsonErr != nil {
				out.push(errorMessage(errors.New("invalid begin payload")))
				return
			}
		}
		err = shell.Begin(ctx, params)
		if isLoadFailure(err) {
			// already reported through the session events
			return
		}
	case "daily":
		err = shell.BeginDaily(ctx)
		if isLoadFailure(err) {
			return
		}
	case "select":
		var payload selectPayload
		if jsonErr := json.Unmarshal(in.Payload, &payload); jsonErr != nil {
			out.push(errorMessage(errors.New("invalid select payload")))
			return
		}
		err = shell.Select(payload.Key)
	case "submit":
		err = shell.Submit()
	case "next":
		_, err = shell.Next(ctx)
	case "abandon":
		err = shell.Abandon()
	case "startNew":
		err = shell.StartNew()
	case "leaderboard":
		records, lbErr := shell.ShowLeaderboard(ctx)
		if lbErr != nil && errors.Is(lbErr, domain.ErrInvalidTransition) {
			err = lbErr
			break
		}
		payload := leaderboardPayload{Records: records}
		if payload.Records == nil {
			payload.Records = []domain.ScoreRecord{}
		}
		if lbErr != nil {
			payload.Error = domain.UserMessage(lbErr)
		}
		out.push(outboundMessage{Type: "leaderboard", Payload: payload})
	case "clearLeaderboard":
		if err = h.service.ClearLeaderboard(ctx); err == nil {
			out.push(outboundMessage{Type: "leaderboard", Payload: leaderboardPayload{Records: []domain.ScoreRecord{}}})
		}
	case "settings":
		if err = shell.ShowSettings(); err == nil {
			out.push(outboundMessage{Type: "preferences", Payload: shell.Preferences()})
		}
	case "preferences":
		prefs := shell.Preferences()
		if jsonErr := json.Unmarshal(in.Payload, &prefs); jsonErr != nil {
			out.push(errorMessage(errors.New("invalid preferences payload")))
			return
		}
		if err = shell.SetPreferences(prefs); err == nil {
			out.push(outboundMessage{Type: "preferences", Payload: prefs})
		}
	case "back":
		err = shell.Back()
	default:
		err = errors.New("unsupported message type")
	}
	if err != nil {
		out.push(errorMessage(err))
	}
}

// isLoadFailure reports errors that the game already published as an error event.
func isLoadFailure(err error) bool {
	var svc *domain.ServiceError
	return errors.As(err, &svc)
}

func errorMessage(err error) outboundMessage {
	payload := errorPayload{Message: err.Error()}
	var svc *domain.ServiceError
	switch {
	case errors.As(err, &svc),
		errors.Is(err, domain.ErrStorageRead),
		errors.Is(err, domain.ErrStorageWrite),
		errors.Is(err, domain.ErrTokenNotReady),
		errors.Is(err, domain.ErrDailyAlreadyPlayed):
		payload = errorPayload{Message: domain.UserMessage(err), Recovery: domain.RecoveryFor(err)}
	}
	return outboundMessage{Type: "error", Payload: payload}
}

// eventMessage maps a session event to its wire message.
func eventMessage(ev app.Event) (outboundMessage, bool) {
	switch ev.Type {
	case app.EventPhase:
		p := phasePayload{Phase: ev.Phase, Summary: ev.Summary}
		if ev.Err != nil {
			p.Message = domain.UserMessage(ev.Err)
			p.Recovery = domain.RecoveryFor(ev.Err)
		}
		return outboundMessage{Type: "phase", Payload: p}, true
	case app.EventToken:
		p := tokenPayload{Ready: ev.Err == nil}
		if ev.Err != nil {
			p.Error = domain.UserMessage(ev.Err)
		}
		return outboundMessage{Type: "token", Payload: p}, true
	case app.EventLoading:
		return outboundMessage{Type: "loading", Payload: struct{}{}}, true
	}

	g := ev.Game
	if g == nil {
		return outboundMessage{}, false
	}
	switch ev.Type {
	case app.EventQuestion:
		return outboundMessage{Type: "question", Payload: questionPayload{
			Index:    g.Index,
			Count:    g.Count,
			Question: g.Question,
			TimeLeft: g.TimeLeft,
			Score:    g.Score,
		}}, true
	case app.EventSelected:
		return outboundMessage{Type: "selected", Payload: selectedPayload{Key: g.Selected}}, true
	case app.EventTick:
		return outboundMessage{Type: "tick", Payload: tickPayload{TimeLeft: g.TimeLeft}}, true
	case app.EventReveal:
		p := revealPayload{
			Feedback: g.Feedback,
			Selected: g.Selected,
			Score:    g.Score,
			Last:     g.Index == g.Count-1,
		}
		if g.Question != nil {
			p.CorrectAnswers = g.Question.CorrectAnswers
		}
		return outboundMessage{Type: "reveal", Payload: p}, true
	case app.EventComplete:
		return outboundMessage{Type: "summary", Payload: ev.Summary}, true
	case app.EventError:
		return outboundMessage{Type: "error", Payload: errorPayload{
			Message:  g.Error,
			Recovery: g.Recovery,
		}}, true
	}
	return outboundMessage{}, false
}
