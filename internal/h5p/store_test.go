package h5p

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ziadkadry99/lmsbot/internal/db"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	store := NewSessionStore(time.Hour)

	if _, ok := store.Get("conv"); ok {
		t.Fatal("empty store returned a session")
	}

	sess := &Session{ID: "conv", Course: "Biology101", ContentType: "quiz", Stage: StageParameters}
	store.Save(sess)

	got, ok := store.Get("conv")
	if !ok {
		t.Fatal("saved session not found")
	}
	if got.Course != "Biology101" || got.Stage != StageParameters {
		t.Errorf("got %+v", got)
	}

	// Save under the same ID replaces the session.
	sess.Stage = StageName
	store.Save(sess)
	got, _ = store.Get("conv")
	if got.Stage != StageName {
		t.Errorf("stage = %v after resave", got.Stage)
	}

	store.Delete("conv")
	if _, ok := store.Get("conv"); ok {
		t.Error("deleted session still present")
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d after delete", store.Len())
	}
}

func TestSessionStoreCopiesOnGetAndSave(t *testing.T) {
	store := NewSessionStore(time.Hour)

	sess := &Session{ID: "conv", Stage: StageParameters, Topic: "mitosis"}
	store.Save(sess)

	// Mutating the saved pointer must not reach the stored session.
	sess.Stage = StageComplete
	got, _ := store.Get("conv")
	if got.Stage != StageParameters {
		t.Errorf("stored stage changed through the caller's pointer: %v", got.Stage)
	}

	// Two readers get independent copies; only Save publishes a change.
	other, _ := store.Get("conv")
	got.Stage = StageName
	if other.Stage != StageParameters {
		t.Errorf("one reader's mutation leaked into another's copy: %v", other.Stage)
	}
	store.Save(got)
	latest, _ := store.Get("conv")
	if latest.Stage != StageName {
		t.Errorf("saved change not visible on re-read: %v", latest.Stage)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore(20 * time.Millisecond)
	store.Save(&Session{ID: "conv", Stage: StageParameters})

	time.Sleep(40 * time.Millisecond)
	if _, ok := store.Get("conv"); ok {
		t.Error("session survived past its TTL")
	}
}

func TestContentStoreRoundTrip(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer database.Close()

	store := NewContentStore(database)
	ctx := context.Background()

	rec := ContentRecord{
		ID:             "content-1",
		ConversationID: "conv",
		Course:         "Biology101",
		ContentType:    "quiz",
		Topic:          "photosynthesis",
		Name:           "My Quiz",
		Description:    "A test quiz",
		Body:           `{"title":"My Quiz","type":"quiz","items":[]}`,
	}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("saving content: %v", err)
	}

	got, err := store.Get(ctx, "content-1")
	if err != nil {
		t.Fatalf("fetching content: %v", err)
	}
	if got.Name != "My Quiz" || got.Course != "Biology101" || got.Body != rec.Body {
		t.Errorf("got %+v", got)
	}
	if got.CreatedAt == "" {
		t.Error("created_at not populated by the database")
	}
}

func TestContentStoreGetMissing(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer database.Close()

	_, err = NewContentStore(database).Get(context.Background(), "nope")
	if !errors.Is(err, ErrContentNotFound) {
		t.Errorf("err = %v, want ErrContentNotFound", err)
	}
}
