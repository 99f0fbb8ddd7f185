package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lmsbot",
	Short: "Course chatbot with retrieval-grounded answers and content generation",
	Long: `lmsbot answers student questions by searching indexed course material
and generating a grounded response, and drives a multi-turn flow for
producing structured learning content such as quizzes and presentations.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".lmsbot.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
