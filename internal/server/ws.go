package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/lmsbot/internal/classify"
	"github.com/ziadkadry99/lmsbot/internal/h5p"
	"github.com/ziadkadry99/lmsbot/internal/orchestrator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type           string `json:"type"` // "message"
	ConversationID string `json:"conversation_id"`
	Course         string `json:"course,omitempty"`
	Content        string `json:"content"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type           string       `json:"type"` // "response" or "error"
	ConversationID string       `json:"conversation_id"`
	Content        string       `json:"content"`
	Generated      *h5p.Content `json:"generated,omitempty"`
	ContentID      string       `json:"content_id,omitempty"`
	Done           bool         `json:"done,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read", zap.Error(err))
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendError(conn, "", "invalid message format")
			continue
		}
		if req.Content == "" {
			s.sendError(conn, req.ConversationID, "content is required")
			continue
		}
		if req.Type != "message" {
			s.sendError(conn, req.ConversationID, "unknown message type: "+req.Type)
			continue
		}
		if req.ConversationID == "" {
			req.ConversationID = uuid.NewString()
		}

		s.handleChatMessage(conn, r, req)
	}
}

func (s *Server) handleChatMessage(conn *websocket.Conn, r *http.Request, req chatRequest) {
	ctx := r.Context()

	if s.machine != nil {
		cls := classify.Classify(req.Content, s.machine.Active(req.ConversationID))
		if reply, handled := s.machine.Handle(ctx, req.ConversationID, req.Course, req.Content, cls); handled {
			s.sendResponse(conn, chatResponse{
				Type:           "response",
				ConversationID: req.ConversationID,
				Content:        reply.Text,
				Generated:      reply.Content,
				ContentID:      reply.ContentID,
				Done:           reply.Done,
			})
			return
		}
	}

	ans, err := s.engine.Answer(ctx, orchestrator.Query{
		Text:           req.Content,
		Course:         req.Course,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		if orchestrator.IsValidation(err) {
			s.sendError(conn, req.ConversationID, err.Error())
			return
		}
		s.log.Error("websocket answer", zap.Error(err))
		s.sendError(conn, req.ConversationID, "Sorry, something went wrong on our end. Please try again in a moment.")
		return
	}

	s.sendResponse(conn, chatResponse{
		Type:           "response",
		ConversationID: ans.ConversationID,
		Content:        ans.Text,
	})
}

func (s *Server) sendResponse(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		s.log.Warn("websocket write", zap.Error(err))
	}
}

func (s *Server) sendError(conn *websocket.Conn, conversationID, message string) {
	resp := chatResponse{
		Type:           "error",
		ConversationID: conversationID,
		Content:        message,
	}
	if err := conn.WriteJSON(resp); err != nil {
		s.log.Warn("websocket write", zap.Error(err))
	}
}
