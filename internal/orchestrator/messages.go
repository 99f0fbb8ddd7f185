package orchestrator

import (
	"fmt"
	"strings"
)

// Canned user-facing strings. Raw retrieval or provider errors never reach
// the caller; they are mapped onto one of these.
const (
	msgCourseEmpty = "This course doesn't have any materials yet. Please check back once your instructor has uploaded content."

	msgNoCourseMatch = "I couldn't find anything about that in this course's materials. Try rephrasing, or ask about another topic from the course."

	msgNoVideoMatch = "I couldn't find a video that covers that. Try asking without the video filter, or ask about a different topic."

	msgTookTooLong = "That took too long to answer. Please try a simpler or more specific question."

	msgStoreUnavailable = "I'm having trouble searching the course materials right now. Please try again in a moment."

	msgNothingHelpful = "I found nothing helpful for that question. Please try rephrasing it."

	lightweightDisclaimer = "I'm running in lightweight mode right now, so here is the most relevant excerpt from your course materials:"
)

// greetingMessage is the canned reply to a bare greeting, scoped to the
// course when one is bound.
func greetingMessage(course string) string {
	if course != "" {
		return fmt.Sprintf("Hello! I'm your assistant for %s. Ask me anything about the course materials.", course)
	}
	return "Hello! I'm your course assistant. Ask me anything about your course materials."
}

// firstSentences returns at most n leading sentences of text.
func firstSentences(text string, n int) string {
	remaining := strings.TrimSpace(text)
	var out strings.Builder
	for i := 0; i < n && remaining != ""; i++ {
		idx := strings.IndexAny(remaining, ".!?")
		if idx < 0 {
			out.WriteString(remaining)
			break
		}
		out.WriteString(remaining[:idx+1])
		out.WriteString(" ")
		remaining = strings.TrimSpace(remaining[idx+1:])
	}
	return strings.TrimSpace(out.String())
}
