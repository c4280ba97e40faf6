package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/tutorgate/internal/quiz"
	"github.com/spf13/cobra"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Inspect quiz topics and history",
}

var quizTopicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the topics of the built-in question bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		bank, err := quiz.DefaultBank()
		if err != nil {
			return fmt.Errorf("load question bank: %w", err)
		}

		fmt.Printf("%-28s  %-20s  %5s  %6s  %5s\n", "Topic", "Key", "Easy", "Medium", "Hard")
		fmt.Println(strings.Repeat("─", 72))
		for _, t := range bank.Topics() {
			fmt.Printf("%-28s  %-20s  %5d  %6d  %5d\n",
				truncate(t.Topic, 28), truncate(t.TopicKey, 20),
				t.Counts[quiz.Easy], t.Counts[quiz.Medium], t.Counts[quiz.Hard])
		}
		return nil
	},
}

var quizHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a user's finished quizzes, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		if user == "" {
			return errors.New("--user is required")
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		entries, err := s.QuizHistoryRepo().ListHistory(cmd.Context(), user)
		if err != nil {
			return fmt.Errorf("list history: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No quizzes finished yet.")
			return nil
		}

		fmt.Printf("%-19s  %-24s  %-6s  %6s  %7s  %6s\n",
			"Finished", "Topic", "Level", "Score", "Correct", "Time")
		fmt.Println(strings.Repeat("─", 80))
		for _, e := range entries {
			fmt.Printf("%-19s  %-24s  %-6s  %5d%%  %3d/%-3d  %5ds\n",
				e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				truncate(e.Topic, 24),
				e.BaseDifficulty,
				e.ScorePercent,
				e.CorrectCount, e.TotalQuestions,
				e.TimeSpentSeconds,
			)
		}
		return nil
	},
}

func init() {
	quizHistoryCmd.Flags().StringP("user", "u", "", "User id")

	quizCmd.AddCommand(quizTopicsCmd)
	quizCmd.AddCommand(quizHistoryCmd)
}
