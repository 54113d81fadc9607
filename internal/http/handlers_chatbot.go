package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"bigboss/internal/chatbot"
	"bigboss/internal/log"
)

const (
	chatbotOpAsk = "chatbot_ask"

	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 4096
)

// chatbotStatus maps a bridge error to the status and text the widget shows.
func chatbotStatus(err error) (int, string) {
	switch {
	case errors.Is(err, chatbot.ErrEmptyQuestion):
		return http.StatusBadRequest, "Please enter your question"
	case errors.Is(err, chatbot.ErrBridge):
		return http.StatusInternalServerError, "Unable to process your request"
	case errors.Is(err, chatbot.ErrUnavailable):
		return http.StatusInternalServerError, "Service unavailable"
	default:
		return http.StatusInternalServerError, "Service error"
	}
}

func (s *Server) ask(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", chatbot.ErrEmptyQuestion
	}
	if s.deps.Chatbot == nil {
		return "", chatbot.ErrUnavailable
	}
	return s.deps.Chatbot.Ask(ctx, question)
}

func (s *Server) handleChatbot(w http.ResponseWriter, r *http.Request) {
	answer, err := s.ask(r.Context(), r.URL.Query().Get("msg"))
	if err != nil {
		code, msg := chatbotStatus(err)
		logger := log.FromContext(r.Context()).WithComponent(log.ComponentChatbot)
		if code >= 500 {
			logger.LogError(r.Context(), "Chatbot request failed", err, chatbotOpAsk)
		} else {
			logger.WarnContext(r.Context(), "Chatbot request rejected", log.FieldError, err)
		}
		TextError(code, msg).Write(w)
		return
	}
	NewResponse().Text(answer).Write(w)
}

type chatMessage struct {
	Message string `json:"message"`
}

type chatReply struct {
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

// handleChatbotSocket serves the live chat channel: each {"message"} frame is
// answered with {"reply"} or {"error"}. Questions on one connection are
// answered in order.
func (s *Server) handleChatbotSocket(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentChatbot)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnContext(r.Context(), "Websocket upgrade failed", log.FieldError, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	replies := make(chan chatReply)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case reply, ok := <-replies:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if !ok {
					_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
				if err := conn.WriteJSON(reply); err != nil {
					cancel()
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.DebugContext(ctx, "Chatbot socket opened")
	for {
		var msg chatMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WarnContext(ctx, "Chatbot socket closed unexpectedly", log.FieldError, err)
			}
			break
		}

		var reply chatReply
		answer, err := s.ask(ctx, msg.Message)
		if err != nil {
			_, reply.Error = chatbotStatus(err)
		} else {
			reply.Reply = answer
		}

		select {
		case replies <- reply:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}

	close(replies)
	<-done
	logger.DebugContext(ctx, "Chatbot socket closed")
}
