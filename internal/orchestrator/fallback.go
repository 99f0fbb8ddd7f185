package orchestrator

import (
	"fmt"

	"github.com/ziadkadry99/lmsbot/internal/retrieval"
)

// extractiveFallback answers from retrieved material alone, for when no
// generation provider is usable. It never fails: with no chunks it falls
// back to a generic message.
func extractiveFallback(chunks []retrieval.Chunk) string {
	if len(chunks) == 0 {
		return msgNothingHelpful
	}

	best := chunks[0]
	for _, c := range chunks[1:] {
		if c.Score > best.Score {
			best = c
		}
	}

	excerpt := firstSentences(best.Text, 3)
	if excerpt == "" {
		return msgNothingHelpful
	}
	return fmt.Sprintf("%s\n\n%s", lightweightDisclaimer, excerpt)
}
