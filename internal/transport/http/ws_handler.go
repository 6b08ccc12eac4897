package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"eatpl-quiz-service/internal/app"
	"eatpl-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

const tickInterval = time.Second

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type tickPayload struct {
	ElapsedSeconds int `json:"elapsedSeconds"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

// serveAttemptWS streams an attempt to its owner and accepts answers and
// navigation over the same connection.
func (s *Server) serveAttemptWS(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context()).ID
	attemptID := chi.URLParam(r, "id")
	ctx := r.Context()

	// Resolve before upgrading so a missing attempt is a plain 404.
	updates, cancel, err := s.attempts.Subscribe(ctx, userID, attemptID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cancel()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			var msg outboundMessage[any]
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				msg = outboundMessage[any]{Type: "attempt", Payload: update}
			case <-ticker.C:
				// Get also expires a timed attempt whose deadline passed.
				view, err := s.attempts.Get(ctx, userID, attemptID)
				if err != nil || view.State != domain.AttemptActive {
					continue
				}
				msg = outboundMessage[any]{Type: "tick", Payload: tickPayload{ElapsedSeconds: view.ElapsedSeconds}}
			case <-closeSignals:
				return
			}
			select {
			case send <- msg:
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if msg, ok := s.handleAttemptMessage(r, userID, attemptID, inbound); ok {
			send <- msg
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// handleAttemptMessage applies one client command. Attempt changes reach the
// client through the subscription; only direct replies are returned here.
func (s *Server) handleAttemptMessage(r *http.Request, userID, attemptID string, in inboundMessage) (outboundMessage[any], bool) {
	ctx := r.Context()
	switch in.Type {
	case "answer":
		var payload answerRequest
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}, true
		}
		res, _, err := s.attempts.Answer(ctx, userID, attemptID, payload.QuestionID, payload.Label)
		if err != nil {
			return errorMessage(err), true
		}
		return outboundMessage[any]{Type: "answerResult", Payload: res}, true
	case app.MoveNext, app.MovePrevious, app.MoveGoto:
		move := app.Move{Kind: in.Type}
		if in.Type == app.MoveGoto {
			if err := json.Unmarshal(in.Payload, &move); err != nil {
				return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid goto payload"}}, true
			}
			move.Kind = app.MoveGoto
		}
		if _, err := s.attempts.Navigate(ctx, userID, attemptID, move); err != nil {
			return errorMessage(err), true
		}
		return outboundMessage[any]{}, false
	case "start":
		if _, err := s.attempts.Begin(ctx, userID, attemptID); err != nil {
			return errorMessage(err), true
		}
		return outboundMessage[any]{}, false
	case "finish":
		res, _, err := s.attempts.Finish(ctx, userID, attemptID)
		if err != nil {
			return errorMessage(err), true
		}
		return outboundMessage[any]{Type: "result", Payload: res}, true
	default:
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}, true
	}
}
