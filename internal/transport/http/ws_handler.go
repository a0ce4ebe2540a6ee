package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"blindtest-service/internal/app"
	"blindtest-service/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// PlayerFactory builds the playback capability for one connection.
type PlayerFactory func(userID, deviceID string) (app.Player, error)

// GameHandler runs the quiz over a websocket: the client sends start,
// answer, refresh, and settings messages; the session's events stream back.
type GameHandler struct {
	service  *app.GameService
	players  PlayerFactory
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewGameHandler(service *app.GameService, players PlayerFactory, logger zerolog.Logger) *GameHandler {
	return &GameHandler{
		service: service,
		players: players,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.With().Str("component", "ws").Logger(),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	ForceRefresh bool `json:"forceRefresh"`
}

type answerPayload struct {
	OptionID string `json:"optionId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and wires the connection into the game.
func (h *GameHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	deviceID := r.URL.Query().Get("deviceId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	var pumps sync.WaitGroup

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	// The active subscription is replaced on every (re)start.
	var cancelSub func()
	subscribe := func() {
		if cancelSub != nil {
			cancelSub()
		}
		events, cancel, err := h.service.Subscribe(userID)
		if err != nil {
			send <- errorMessage(err)
			return
		}
		cancelSub = cancel
		pumps.Add(1)
		go func() {
			defer pumps.Done()
			for {
				select {
				case ev, ok := <-events:
					if !ok {
						return
					}
					select {
					case send <- outboundMessage[any]{Type: ev.Type, Payload: ev.Payload}:
					case <-closeSignals:
						return
					}
				case <-closeSignals:
					return
				}
			}
		}()
	}

	if best, err := h.service.HighScore(r.Context(), userID); err == nil {
		send <- outboundMessage[any]{Type: "highScore", Payload: best}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start", "refresh":
			var payload startPayload
			_ = json.Unmarshal(inbound.Payload, &payload)
			force := payload.ForceRefresh || inbound.Type == "refresh"
			player, err := h.players(userID, deviceID)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			if _, err := h.service.Start(r.Context(), userID, player, force); err != nil {
				h.logger.Warn().Err(err).Str("user_id", userID).Msg("start failed")
				send <- errorMessage(err)
				continue
			}
			subscribe()
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage(errors.New("invalid answer payload"))
				continue
			}
			if _, err := h.service.Answer(userID, payload.OptionID); err != nil {
				// First answer wins; a late duplicate is not an error worth
				// surfacing to the client.
				if !errors.Is(err, domain.ErrAlreadyAnswered) {
					send <- errorMessage(err)
				}
			}
		case "settings":
			var patch app.SettingsPatch
			if err := json.Unmarshal(inbound.Payload, &patch); err != nil {
				send <- errorMessage(errors.New("invalid settings payload"))
				continue
			}
			updated := h.service.UpdateSettings(patch)
			send <- outboundMessage[any]{Type: "settings", Payload: updated}
		default:
			send <- errorMessage(errors.New("unsupported message type"))
		}
	}

	close(closeSignals)
	if cancelSub != nil {
		cancelSub()
	}
	h.service.End(userID)
	pumps.Wait()
	close(send)
	<-writerDone
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}
