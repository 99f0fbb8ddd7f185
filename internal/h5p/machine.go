package h5p

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/lmsbot/internal/classify"
)

// Machine runs the multi-turn content-generation flow. Each conversation
// has at most one active session; a conversation without a session is idle
// and only a content-generation intent starts one.
type Machine struct {
	sessions *SessionStore
	gen      *Generator
	contents *ContentStore
	log      *zap.Logger
}

// NewMachine creates a Machine. contents may be nil, in which case generated
// content is returned but not persisted.
func NewMachine(sessions *SessionStore, gen *Generator, contents *ContentStore, log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{sessions: sessions, gen: gen, contents: contents, log: log}
}

// Active reports whether the conversation has a content session in flight.
func (m *Machine) Active(conversationID string) bool {
	_, ok := m.sessions.Get(conversationID)
	return ok
}

// Handle advances the flow by one turn. It returns (nil, false) when the
// conversation is idle and the text carries no content-generation intent;
// the caller then falls through to the ordinary answer pipeline.
func (m *Machine) Handle(ctx context.Context, conversationID, course, text string, cls classify.Classification) (*Reply, bool) {
	sess, ok := m.sessions.Get(conversationID)
	if !ok {
		if !cls.IsContentGeneration {
			return nil, false
		}
		return m.start(conversationID, course, cls.Content), true
	}

	switch sess.Stage {
	case StageParameters:
		return m.collectParameters(sess, text), true
	case StageName:
		return m.collectName(sess, text), true
	case StageDescription:
		return m.collectDescription(ctx, sess, text), true
	case StageComplete:
		return m.finishOrRestart(sess, text), true
	default:
		// Unreachable: Stage is a closed type and every transition above
		// assigns a named constant.
		panic(fmt.Sprintf("h5p: session %s in invalid stage %d", sess.ID, sess.Stage))
	}
}

func (m *Machine) start(conversationID, course string, req *classify.ContentRequest) *Reply {
	sess := &Session{
		ID:          conversationID,
		Course:      course,
		ContentType: req.ContentType,
		Topic:       req.Topic,
		Stage:       StageParameters,
		CreatedAt:   time.Now(),
	}
	m.sessions.Save(sess)

	m.log.Info("content session started",
		zap.String("conversation", conversationID),
		zap.String("content_type", sess.ContentType),
		zap.String("topic", sess.Topic))

	return &Reply{Text: clarifyingQuestion(sess)}
}

// clarifyingQuestion is content-type specific so the first prompt reads
// naturally for each format.
func clarifyingQuestion(sess *Session) string {
	subject := sess.Topic
	if subject == "" {
		subject = "your topic"
	}
	switch sess.ContentType {
	case classify.TypePresentation:
		return fmt.Sprintf("Great, a presentation about %s. How many slides do you want, and for what level (beginner, intermediate or advanced)?", subject)
	case classify.TypeInteractiveVideo:
		return fmt.Sprintf("Great, an interactive video about %s. How many questions should appear in it, and at what difficulty?", subject)
	case classify.TypeFlashcards:
		return fmt.Sprintf("Great, flashcards about %s. How many cards do you want, and at what difficulty?", subject)
	default:
		return fmt.Sprintf("Great, a quiz about %s. How many questions do you want, at what difficulty (beginner, intermediate or advanced), and which question types (for example multiple choice or true/false)?", subject)
	}
}

func (m *Machine) collectParameters(sess *Session, text string) *Reply {
	sess.Params = ExtractParameters(text)
	sess.RawParams = strings.TrimSpace(text)
	sess.Stage = StageName
	m.sessions.Save(sess)

	return &Reply{Text: "What should it be called?"}
}

func (m *Machine) collectName(sess *Session, text string) *Reply {
	sess.Name = strings.TrimSpace(text)
	sess.Stage = StageDescription
	m.sessions.Save(sess)

	return &Reply{Text: "Add a short description for it."}
}

func (m *Machine) collectDescription(ctx context.Context, sess *Session, text string) *Reply {
	sess.Description = strings.TrimSpace(text)

	content := m.gen.Generate(ctx, sess)
	sess.Result = content
	sess.Stage = StageComplete
	m.sessions.Save(sess)

	contentID := m.persist(ctx, sess, content)

	return &Reply{
		Text: fmt.Sprintf("Here is %q with %d items. Would you like to modify it?",
			content.Title, len(content.Items)),
		Content:   content,
		ContentID: contentID,
	}
}

func (m *Machine) finishOrRestart(sess *Session, text string) *Reply {
	if wantsModification(text) {
		// Keep what the content is about, drop how it was parameterized.
		sess.Params = Parameters{}
		sess.RawParams = ""
		sess.Stage = StageParameters
		m.sessions.Save(sess)
		return &Reply{Text: "Sure. How many items, at what difficulty, and which question types?"}
	}

	m.sessions.Delete(sess.ID)
	m.log.Info("content session finished", zap.String("conversation", sess.ID))
	return &Reply{Text: "All done! Your content is ready to use.", Done: true}
}

// persist stores the generated content and returns its ID, or "" when no
// content store is configured or the write fails. A failed write never
// breaks the conversational flow.
func (m *Machine) persist(ctx context.Context, sess *Session, content *Content) string {
	if m.contents == nil {
		return ""
	}

	body, err := json.Marshal(content)
	if err != nil {
		m.log.Error("marshalling generated content", zap.Error(err))
		return ""
	}

	rec := ContentRecord{
		ID:             uuid.NewString(),
		ConversationID: sess.ID,
		Course:         sess.Course,
		ContentType:    sess.ContentType,
		Topic:          sess.Topic,
		Name:           sess.Name,
		Description:    sess.Description,
		Body:           string(body),
	}
	if err := m.contents.Save(ctx, rec); err != nil {
		m.log.Error("persisting generated content", zap.Error(err))
		return ""
	}
	return rec.ID
}
