package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lmsbot/internal/vectordb"
)

var (
	indexCourse string
	indexSource string
)

// indexedDocument is the JSON shape of one entry in an index file. Chunking
// happens upstream in the ingestion connectors; this command loads their
// output.
type indexedDocument struct {
	Text       string `json:"text"`
	Course     string `json:"course,omitempty"`
	Source     string `json:"source,omitempty"`
	Title      string `json:"title,omitempty"`
	URL        string `json:"url,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
	ChunkIndex int    `json:"chunk_index,omitempty"`
}

var indexCmd = &cobra.Command{
	Use:   "index <file.json>",
	Short: "Load pre-chunked course material into the vector store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApp()
		if err != nil {
			return err
		}
		defer application.close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		var entries []indexedDocument
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}
		if len(entries) == 0 {
			return fmt.Errorf("%s contains no documents", args[0])
		}

		docs := make([]vectordb.Document, 0, len(entries))
		for _, e := range entries {
			if e.Text == "" {
				continue
			}
			course := e.Course
			if indexCourse != "" {
				course = indexCourse
			}
			source := e.Source
			if indexSource != "" {
				source = indexSource
			}
			docID := e.DocumentID
			if docID == "" {
				docID = uuid.NewString()
			}
			docs = append(docs, vectordb.Document{
				ID:      fmt.Sprintf("%s-%d", docID, e.ChunkIndex),
				Content: e.Text,
				Metadata: vectordb.DocumentMetadata{
					Course:     course,
					Source:     vectordb.SourceType(source),
					Title:      e.Title,
					URL:        e.URL,
					DocumentID: docID,
					ChunkIndex: e.ChunkIndex,
					UpdatedAt:  time.Now(),
				},
			})
		}

		ctx := cmd.Context()
		if err := application.store.AddDocuments(ctx, docs); err != nil {
			return fmt.Errorf("indexing documents: %w", err)
		}

		vectorDir := filepath.Join(application.cfg.DataDir, "vectordb")
		if err := application.store.Persist(ctx, vectorDir); err != nil {
			return fmt.Errorf("persisting vector store: %w", err)
		}

		fmt.Printf("Indexed %d chunks (%d total in store).\n", len(docs), application.store.Count())
		return nil
	},
}

var deleteCourseCmd = &cobra.Command{
	Use:   "delete-course <course>",
	Short: "Remove all indexed material for a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApp()
		if err != nil {
			return err
		}
		defer application.close()

		ctx := cmd.Context()
		if err := application.store.DeleteByCourse(ctx, args[0]); err != nil {
			return fmt.Errorf("deleting course %s: %w", args[0], err)
		}
		if err := application.store.Persist(ctx, filepath.Join(application.cfg.DataDir, "vectordb")); err != nil {
			return fmt.Errorf("persisting vector store: %w", err)
		}

		fmt.Printf("Removed all material for %s.\n", args[0])
		return nil
	},
}

func init() {
	indexCmd.Flags().StringVar(&indexCourse, "course", "", "override the course for every document")
	indexCmd.Flags().StringVar(&indexSource, "source", "", "override the source type for every document")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(deleteCourseCmd)
}
