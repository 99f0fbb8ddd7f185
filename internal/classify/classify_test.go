package classify

import "testing"

func TestGreetingDetection(t *testing.T) {
	cases := []struct {
		text     string
		prior    bool
		greeting bool
	}{
		{"hi", false, true},
		{"Hello!", false, true},
		{"hey there", false, true},
		{"good morning", false, true},
		{"hi, how are you", false, true}, // under five words
		{"hello can you explain what photosynthesis is", false, false},
		{"hi there I was wondering what the krebs cycle does?", false, false},
		{"hi", true, false}, // prior context suppresses greeting
		{"what is photosynthesis", false, false},
		{"highway construction history", false, false}, // "hi" prefix must not match inside words
	}

	for _, tc := range cases {
		got := Classify(tc.text, tc.prior)
		if got.IsGreeting != tc.greeting {
			t.Errorf("Classify(%q, prior=%v).IsGreeting = %v, want %v",
				tc.text, tc.prior, got.IsGreeting, tc.greeting)
		}
	}
}

func TestVideoIntent(t *testing.T) {
	cases := []struct {
		text  string
		video bool
	}{
		{"is there a video about mitosis", true},
		{"show me the lecture recording", true},
		{"which tutorial covers loops", true},
		{"what is on youtube about this", true},
		{"what is photosynthesis", false},
	}

	for _, tc := range cases {
		if got := Classify(tc.text, false); got.IsVideoIntent != tc.video {
			t.Errorf("Classify(%q).IsVideoIntent = %v, want %v", tc.text, got.IsVideoIntent, tc.video)
		}
	}
}

func TestCourseMetaIntent(t *testing.T) {
	cases := []struct {
		text string
		meta bool
	}{
		{"what does this course cover", true},
		{"tell me about the course syllabus", true},
		{"what is the course about", true},
		{"what is a mitochondrion", false},
	}

	for _, tc := range cases {
		if got := Classify(tc.text, false); got.IsCourseMetaIntent != tc.meta {
			t.Errorf("Classify(%q).IsCourseMetaIntent = %v, want %v", tc.text, got.IsCourseMetaIntent, tc.meta)
		}
	}
}

func TestContentGenerationExtraction(t *testing.T) {
	cases := []struct {
		text        string
		contentType string
		topic       string
	}{
		{"create a quiz about photosynthesis", TypeQuiz, "photosynthesis"},
		{"generate a presentation on the French Revolution", TypePresentation, "the French Revolution"},
		{"make an interactive video covering cell division", TypeInteractiveVideo, "cell division"},
		{"build some flashcards for organic chemistry", TypeFlashcards, "organic chemistry"},
		{"create a drag and drop about anatomy", TypeDragAndDrop, "anatomy"},
		{"generate a quiz", TypeQuiz, ""},
	}

	for _, tc := range cases {
		got := Classify(tc.text, false)
		if !got.IsContentGeneration {
			t.Errorf("Classify(%q) should detect content generation", tc.text)
			continue
		}
		if got.Content.ContentType != tc.contentType {
			t.Errorf("Classify(%q).ContentType = %q, want %q", tc.text, got.Content.ContentType, tc.contentType)
		}
		if got.Content.Topic != tc.topic {
			t.Errorf("Classify(%q).Topic = %q, want %q", tc.text, got.Content.Topic, tc.topic)
		}
	}
}

func TestGenericContentFallsBackToQuiz(t *testing.T) {
	got := Classify("make some h5p content about mitosis", false)
	if !got.IsContentGeneration {
		t.Fatal("expected content generation intent")
	}
	if got.Content.ContentType != TypeQuiz {
		t.Errorf("generic request should default to quiz, got %q", got.Content.ContentType)
	}
	if got.Content.Topic != "mitosis" {
		t.Errorf("topic = %q, want mitosis", got.Content.Topic)
	}
}

func TestBareFormatMention(t *testing.T) {
	got := Classify("can I get h5p for this unit", false)
	if !got.IsContentGeneration {
		t.Fatal("bare format mention should trigger content generation")
	}
	if got.Content.ContentType != TypeQuiz {
		t.Errorf("expected quiz default, got %q", got.Content.ContentType)
	}
}

func TestNoIntentFallsThrough(t *testing.T) {
	got := Classify("summarize chapter three", false)
	if got.IsGreeting || got.IsVideoIntent || got.IsCourseMetaIntent || got.IsContentGeneration {
		t.Errorf("expected no special intent, got %+v", got)
	}
}

func TestEmptyInput(t *testing.T) {
	got := Classify("   ", false)
	if got != (Classification{}) {
		t.Errorf("expected zero classification for whitespace, got %+v", got)
	}
}

func TestHasExplanatoryKeyword(t *testing.T) {
	if !HasExplanatoryKeyword("explain how photosynthesis works") {
		t.Error("expected explanatory keyword match")
	}
	if HasExplanatoryKeyword("list the chapters") {
		t.Error("unexpected explanatory keyword match")
	}
}
