package retrieval

// Outcome describes how the filter cascade ended.
type Outcome int

const (
	// OutcomeOK means the cascade produced chunks (possibly none, if even
	// the most relaxed search found nothing).
	OutcomeOK Outcome = iota
	// OutcomeCourseEmpty is terminal: the requested course holds no
	// documents at all.
	OutcomeCourseEmpty
	// OutcomeNoCourseMatch means a course-scoped question found nothing and
	// relaxing the filter would leak material from other courses.
	OutcomeNoCourseMatch
	// OutcomeNoVideoMatch means a video-scoped question found no matching
	// video material.
	OutcomeNoVideoMatch
	// OutcomeTimeout means the cascade exceeded its wall-clock budget.
	OutcomeTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeCourseEmpty:
		return "course_empty"
	case OutcomeNoCourseMatch:
		return "no_course_match"
	case OutcomeNoVideoMatch:
		return "no_video_match"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Chunk is a bounded span of course material with its relevance score.
type Chunk struct {
	Text   string
	Score  float32
	Course string
	Source string
	Title  string
	URL    string
}

// Options scope a retrieval request.
type Options struct {
	Course string
	Source string
	// CourseMeta and VideoIntent mark intents whose empty results must not
	// be relaxed into a cross-scope search.
	CourseMeta  bool
	VideoIntent bool
	TopK        int
}

// Result is the output of one cascade run.
type Result struct {
	Chunks  []Chunk
	Outcome Outcome
}
