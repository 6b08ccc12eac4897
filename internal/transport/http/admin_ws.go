package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"eatpl-quiz-service/internal/app"
	"eatpl-quiz-service/internal/domain"
)

type browsePayload struct {
	Search              string `json:"search"`
	HasEmptyExplanation bool   `json:"hasEmptyExplanation"`
	questionsPage
}

type searchCommand struct {
	Text string `json:"text"`
}

type pageCommand struct {
	Page int `json:"page"`
}

type filterCommand struct {
	HasEmptyExplanation bool `json:"hasEmptyExplanation"`
}

// serveBrowseWS keeps the admin listing state of one client: search text is
// debounced, paging and filtering apply immediately.
func (s *Server) serveBrowseWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	browser := app.NewQuestionBrowser(r.Context(), s.questions, s.opts.SearchDebounce, limit)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

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
		defer close(eventsDone)
		for ev := range browser.Events() {
			var msg outboundMessage[any]
			if ev.Err != nil {
				msg = errorMessage(ev.Err)
			} else {
				msg = outboundMessage[any]{Type: "questions", Payload: browsePayload{
					Search:              ev.Query.Search,
					HasEmptyExplanation: ev.Query.HasEmptyExplanation,
					questionsPage:       newQuestionsPage(ev.Page),
				}}
			}
			select {
			case send <- msg:
			case <-closeSignals:
				return
			}
		}
	}()

	go browser.Refresh()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "search":
			var cmd searchCommand
			if err := json.Unmarshal(inbound.Payload, &cmd); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid search payload"}}
				continue
			}
			browser.SetSearch(cmd.Text)
		case "page":
			var cmd pageCommand
			if err := json.Unmarshal(inbound.Payload, &cmd); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid page payload"}}
				continue
			}
			browser.SetPage(cmd.Page)
		case "filter":
			var cmd filterCommand
			if err := json.Unmarshal(inbound.Payload, &cmd); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid filter payload"}}
				continue
			}
			browser.SetFilter(cmd.HasEmptyExplanation)
		default:
			send <- errorMessage(domain.ErrInvalidInput)
		}
	}

	close(closeSignals)
	browser.Close()
	<-eventsDone
	close(send)
	<-writerDone
}
