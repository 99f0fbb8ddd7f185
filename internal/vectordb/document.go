package vectordb

import "time"

// SourceType categorizes where a piece of course material came from.
type SourceType string

const (
	SourcePDF        SourceType = "pdf"
	SourceYouTube    SourceType = "youtube"
	SourceSharePoint SourceType = "sharepoint"
	SourceSlides     SourceType = "slides"
)

// Document represents one ingested chunk of course material.
type Document struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata holds structured information about a document chunk.
type DocumentMetadata struct {
	Course     string
	Source     SourceType
	Title      string
	URL        string
	DocumentID string
	ChunkIndex int
	UpdatedAt  time.Time
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter narrows a search by metadata fields. Empty fields are
// unconstrained.
type SearchFilter struct {
	Course string
	Source SourceType
}

// Empty reports whether the filter constrains nothing.
func (f *SearchFilter) Empty() bool {
	return f == nil || (f.Course == "" && f.Source == "")
}
