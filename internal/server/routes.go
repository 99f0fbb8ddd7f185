package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/lmsbot/internal/classify"
	"github.com/ziadkadry99/lmsbot/internal/h5p"
	"github.com/ziadkadry99/lmsbot/internal/llm"
	"github.com/ziadkadry99/lmsbot/internal/orchestrator"
)

type queryRequest struct {
	Query            string         `json:"query"`
	Course           string         `json:"course,omitempty"`
	Source           string         `json:"source,omitempty"`
	ConversationID   string         `json:"conversation_id,omitempty"`
	AllCourses       bool           `json:"all_courses,omitempty"`
	PreviousMessages []turnPayload  `json:"previous_messages,omitempty"`
}

type turnPayload struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type queryResponse struct {
	Query          string       `json:"query"`
	Response       string       `json:"response"`
	ConversationID string       `json:"conversation_id"`
	Course         string       `json:"course,omitempty"`
	Source         string       `json:"source,omitempty"`
	Content        *h5p.Content `json:"content,omitempty"`
	ContentID      string       `json:"content_id,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	s.serveQuery(w, r, "")
}

// handleVideoQuery is handleQuery with the video source filter forced on.
func (s *Server) handleVideoQuery(w http.ResponseWriter, r *http.Request) {
	s.serveQuery(w, r, "youtube")
}

func (s *Server) serveQuery(w http.ResponseWriter, r *http.Request, forcedSource string) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "request body must be valid JSON"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "query must not be empty"})
		return
	}
	if forcedSource != "" {
		req.Source = forcedSource
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	// An active or newly requested content session takes the turn before
	// the ordinary answer pipeline sees it.
	if s.machine != nil {
		cls := classify.Classify(req.Query, len(req.PreviousMessages) > 0)
		if reply, handled := s.machine.Handle(r.Context(), req.ConversationID, req.Course, req.Query, cls); handled {
			writeJSON(w, http.StatusOK, queryResponse{
				Query:          req.Query,
				Response:       reply.Text,
				ConversationID: req.ConversationID,
				Course:         req.Course,
				Content:        reply.Content,
				ContentID:      reply.ContentID,
			})
			return
		}
	}

	ans, err := s.engine.Answer(r.Context(), orchestrator.Query{
		Text:           req.Query,
		Course:         req.Course,
		Source:         req.Source,
		ConversationID: req.ConversationID,
		AllCourses:     req.AllCourses,
		History:        toMessages(req.PreviousMessages),
	})
	if err != nil {
		if orchestrator.IsValidation(err) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		s.log.Error("answering query", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error: "Sorry, something went wrong on our end. Please try again in a moment.",
		})
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Query:          req.Query,
		Response:       ans.Text,
		ConversationID: ans.ConversationID,
		Course:         req.Course,
		Source:         req.Source,
	})
}

type generateRequest struct {
	Query       string `json:"query"`
	Course      string `json:"course,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

type generateResponse struct {
	Content   *h5p.Content `json:"content"`
	ContentID string       `json:"content_id,omitempty"`
}

// handleGenerate produces structured content in one shot, without the
// multi-turn parameter flow.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "content generation is not configured"})
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "request body must be valid JSON"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "query must not be empty"})
		return
	}

	contentType := req.ContentType
	topic := ""
	if cls := classify.Classify(req.Query, false); cls.IsContentGeneration {
		topic = cls.Content.Topic
		if contentType == "" {
			contentType = cls.Content.ContentType
		}
	}
	if contentType == "" {
		contentType = classify.TypeQuiz
	}
	if topic == "" {
		topic = strings.TrimSpace(req.Query)
	}

	sess := &h5p.Session{
		ID:          uuid.NewString(),
		Course:      req.Course,
		ContentType: contentType,
		Topic:       topic,
		Params:      h5p.ExtractParameters(req.Query),
		RawParams:   req.Query,
	}
	content := s.generator.Generate(r.Context(), sess)

	resp := generateResponse{Content: content}
	if s.contents != nil {
		body, err := json.Marshal(content)
		if err == nil {
			rec := h5p.ContentRecord{
				ID:          uuid.NewString(),
				Course:      sess.Course,
				ContentType: sess.ContentType,
				Topic:       sess.Topic,
				Body:        string(body),
			}
			if err := s.contents.Save(r.Context(), rec); err != nil {
				s.log.Error("persisting generated content", zap.Error(err))
			} else {
				resp.ContentID = rec.ID
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	if s.contents == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "content storage is not configured"})
		return
	}

	rec, err := s.contents.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, h5p.ErrContentNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "content not found"})
		return
	}
	if err != nil {
		s.log.Error("fetching content", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error: "Sorry, something went wrong on our end. Please try again in a moment.",
		})
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

type contentTypeInfo struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// handleContentTypes lists the supported content formats.
func (s *Server) handleContentTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []contentTypeInfo{
		{Type: classify.TypeQuiz, Name: "Quiz", Description: "A set of questions with marked correct answers."},
		{Type: classify.TypeInteractiveVideo, Name: "Interactive Video", Description: "A video with questions placed along its timeline."},
		{Type: classify.TypePresentation, Name: "Course Presentation", Description: "A slide deck summarizing course material."},
		{Type: classify.TypeFlashcards, Name: "Flashcards", Description: "Question and answer cards for self study."},
	})
}

// handleClearCache empties every registered cache. Always succeeds.
func (s *Server) handleClearCache(w http.ResponseWriter, _ *http.Request) {
	for _, c := range s.clearers {
		c.Clear()
	}
	s.log.Info("caches cleared", zap.Int("stores", len(s.clearers)))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toMessages(turns []turnPayload) []llm.Message {
	if len(turns) == 0 {
		return nil
	}
	msgs := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, llm.Message{Role: llm.Role(t.Role), Content: t.Content})
	}
	return msgs
}
