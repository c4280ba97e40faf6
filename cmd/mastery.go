package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/tutorgate/internal/mastery"
	"github.com/abhisek/tutorgate/internal/ui/theme"
	"github.com/spf13/cobra"
)

var masteryCmd = &cobra.Command{
	Use:   "mastery",
	Short: "Show a user's mastery per topic",
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

		topics, err := mastery.NewTracker(s.MasteryRepo()).List(cmd.Context(), user)
		if err != nil {
			return fmt.Errorf("list mastery: %w", err)
		}
		if len(topics) == 0 {
			fmt.Println("No topics studied yet.")
			return nil
		}

		fmt.Printf("%-28s  %7s  %-10s  %8s  %s\n", "Topic", "Mastery", "State", "Sessions", "Last studied")
		fmt.Println(strings.Repeat("─", 80))
		for _, t := range topics {
			state := string(mastery.ResolveState(t.Mastery, t.SessionsCount))
			fmt.Printf("%-28s  %6d%%  %s  %8d  %s\n",
				truncate(t.Topic, 28),
				t.Mastery,
				theme.MasteryStyle(state).Render(fmt.Sprintf("%-10s", state)),
				t.SessionsCount,
				t.LastStudied.Local().Format("2006-01-02 15:04"),
			)
		}
		return nil
	},
}

func init() {
	masteryCmd.Flags().StringP("user", "u", "", "User id")
}
