package h5p

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ziadkadry99/lmsbot/internal/classify"
	"github.com/ziadkadry99/lmsbot/internal/db"
)

func newTestMachine(t *testing.T, comp completer) (*Machine, *ContentStore) {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	sessions := NewSessionStore(time.Hour)
	contents := NewContentStore(database)
	gen := NewGenerator(comp, nil, "test-model", nil)
	return NewMachine(sessions, gen, contents, nil), contents
}

func contentClassification(contentType, topic string) classify.Classification {
	return classify.Classification{
		IsContentGeneration: true,
		Content:             &classify.ContentRequest{Action: "create", ContentType: contentType, Topic: topic},
	}
}

func TestMachineIdleWithoutContentIntent(t *testing.T) {
	m, _ := newTestMachine(t, &fakeCompleter{err: errors.New("unused")})

	reply, handled := m.Handle(context.Background(), "conv", "Biology101",
		"what is photosynthesis?", classify.Classification{})
	if handled || reply != nil {
		t.Fatalf("idle machine handled a plain question: %+v", reply)
	}
	if m.Active("conv") {
		t.Error("session created without content intent")
	}
}

func TestMachineFullFlow(t *testing.T) {
	ctx := context.Background()
	// A failing provider forces the deterministic template, which keeps the
	// flow assertions independent of generation output.
	m, contents := newTestMachine(t, &fakeCompleter{err: errors.New("down")})

	reply, handled := m.Handle(ctx, "conv", "Biology101",
		"create a quiz about photosynthesis", contentClassification("quiz", "photosynthesis"))
	if !handled {
		t.Fatal("content request not handled")
	}
	if reply.Text == "" || reply.Content != nil {
		t.Fatalf("expected a clarifying question, got %+v", reply)
	}
	if !m.Active("conv") {
		t.Fatal("no session after content request")
	}

	reply, _ = m.Handle(ctx, "conv", "Biology101", "10 questions, advanced, multiple choice", classify.Classification{})
	if reply.Content != nil {
		t.Fatalf("generated before name stage: %+v", reply)
	}

	reply, _ = m.Handle(ctx, "conv", "Biology101", "My Quiz", classify.Classification{})
	if reply.Content != nil {
		t.Fatalf("generated before description stage: %+v", reply)
	}

	reply, _ = m.Handle(ctx, "conv", "Biology101", "A test quiz", classify.Classification{})
	if reply.Content == nil {
		t.Fatal("no content after description")
	}
	if len(reply.Content.Items) != 10 {
		t.Errorf("items = %d, want 10", len(reply.Content.Items))
	}
	if reply.Content.Title != "My Quiz" {
		t.Errorf("title = %q, want My Quiz", reply.Content.Title)
	}

	sess, ok := m.sessions.Get("conv")
	if !ok || sess.Stage != StageComplete {
		t.Fatalf("session not complete: %+v", sess)
	}
	if sess.Params.Quantity != 10 || sess.Params.Difficulty != "advanced" {
		t.Errorf("parameters not captured: %+v", sess.Params)
	}
	if len(sess.Params.QuestionTypes) != 1 || sess.Params.QuestionTypes[0] != "multiple_choice" {
		t.Errorf("question types not captured: %+v", sess.Params.QuestionTypes)
	}

	if reply.ContentID == "" {
		t.Fatal("generated content was not persisted")
	}
	rec, err := contents.Get(ctx, reply.ContentID)
	if err != nil {
		t.Fatalf("fetching persisted content: %v", err)
	}
	if rec.Course != "Biology101" || rec.ContentType != "quiz" || rec.Name != "My Quiz" {
		t.Errorf("persisted record mismatch: %+v", rec)
	}

	// Declining the modify offer destroys the session.
	reply, _ = m.Handle(ctx, "conv", "Biology101", "no, it's perfect", classify.Classification{})
	if !reply.Done {
		t.Error("decline did not finish the session")
	}
	if m.Active("conv") {
		t.Error("session still active after finish")
	}
}

func TestMachineModifyRestartsParameters(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMachine(t, &fakeCompleter{err: errors.New("down")})

	turns := []string{
		"create a quiz about photosynthesis",
		"5 questions, beginner",
		"Quiz One",
		"First version",
	}
	cls := contentClassification("quiz", "photosynthesis")
	for _, turn := range turns {
		m.Handle(ctx, "conv", "Biology101", turn, cls)
		cls = classify.Classification{}
	}

	reply, _ := m.Handle(ctx, "conv", "Biology101", "yes, change it", classify.Classification{})
	if reply.Done {
		t.Fatal("modify request ended the session")
	}

	sess, ok := m.sessions.Get("conv")
	if !ok {
		t.Fatal("session gone after modify request")
	}
	if sess.Stage != StageParameters {
		t.Errorf("stage = %v, want parameters", sess.Stage)
	}
	if sess.Params.Quantity != 0 || sess.RawParams != "" {
		t.Errorf("old parameters survived the reset: %+v", sess.Params)
	}
	if sess.ContentType != "quiz" || sess.Topic != "photosynthesis" {
		t.Errorf("type or topic lost across reset: %+v", sess)
	}

	// The second round collects fresh parameters.
	m.Handle(ctx, "conv", "Biology101", "3 questions, advanced", classify.Classification{})
	sess, _ = m.sessions.Get("conv")
	if sess.Params.Quantity != 3 || sess.Params.Difficulty != "advanced" {
		t.Errorf("new parameters not captured: %+v", sess.Params)
	}
}

func TestMachineSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMachine(t, &fakeCompleter{err: errors.New("down")})

	m.Handle(ctx, "a", "Biology101", "create a quiz about cells", contentClassification("quiz", "cells"))
	if m.Active("b") {
		t.Error("session leaked to another conversation")
	}

	reply, handled := m.Handle(ctx, "b", "History201", "what caused the war?", classify.Classification{})
	if handled || reply != nil {
		t.Error("other conversation drawn into the content flow")
	}
}
