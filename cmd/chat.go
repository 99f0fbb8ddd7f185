package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lmsbot/internal/classify"
	"github.com/ziadkadry99/lmsbot/internal/orchestrator"
)

var (
	chatCourse     string
	chatAllCourses bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the course assistant from the terminal",
	Long:  `Opens an interactive session against the indexed course material. Type "exit" or "quit" to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApp()
		if err != nil {
			return err
		}
		defer application.close()

		conversationID := uuid.NewString()
		if chatCourse != "" {
			fmt.Printf("Chatting about %s. Type \"exit\" to leave.\n\n", chatCourse)
		} else {
			fmt.Println("Chatting across all indexed material. Type \"exit\" to leave.")
			fmt.Println()
		}

		input := promptui.Prompt{Label: "you"}
		for {
			line, err := input.Run()
			if err != nil {
				// Ctrl-C or Ctrl-D ends the session.
				if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
					return nil
				}
				return fmt.Errorf("reading input: %w", err)
			}

			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if text == "exit" || text == "quit" {
				return nil
			}

			fmt.Println(runTurn(cmd.Context(), application, conversationID, text))
			fmt.Println()
		}
	},
}

// runTurn routes one utterance through the content flow or the answer
// pipeline, mirroring what the HTTP handler does.
func runTurn(ctx context.Context, application *app, conversationID, text string) string {
	cls := classify.Classify(text, application.machine.Active(conversationID))
	if reply, handled := application.machine.Handle(ctx, conversationID, chatCourse, text, cls); handled {
		out := reply.Text
		if reply.Content != nil {
			out += fmt.Sprintf("\n(generated %q with %d items)", reply.Content.Title, len(reply.Content.Items))
		}
		return out
	}

	ans, err := application.engine.Answer(ctx, orchestrator.Query{
		Text:           text,
		Course:         chatCourse,
		ConversationID: conversationID,
		AllCourses:     chatAllCourses,
	})
	if err != nil {
		return fmt.Sprintf("(%v)", err)
	}
	return ans.Text
}

func init() {
	chatCmd.Flags().StringVar(&chatCourse, "course", "", "course to scope answers to")
	chatCmd.Flags().BoolVar(&chatAllCourses, "all-courses", false, "search across every indexed course")
	rootCmd.AddCommand(chatCmd)
}
