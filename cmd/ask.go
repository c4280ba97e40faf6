package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/tutorgate/internal/config"
	"github.com/abhisek/tutorgate/internal/llm"
	"github.com/abhisek/tutorgate/internal/logging"
	"github.com/abhisek/tutorgate/internal/tutor"
	"github.com/abhisek/tutorgate/internal/ui/theme"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>...",
	Short: "Ask the tutor a question using keys from the environment",
	Long: "Ask sends one question through the provider gateway. Keys are read from\n" +
		"GEMINI_API_KEY, GROQ_API_KEY, CEREBRAS_API_KEY and OPENROUTER_API_KEY\n" +
		"(comma separated for several keys per provider).",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		course, _ := cmd.Flags().GetString("course")
		topic, _ := cmd.Flags().GetString("topic")
		verbose, _ := cmd.Flags().GetBool("verbose")

		creds := llm.CredentialsFromEnv()
		if len(creds) == 0 {
			return errors.New("no API keys found in the environment")
		}

		cfg, err := config.FromEnv()
		if err != nil {
			return err
		}
		if err := cfg.LLM.Validate(); err != nil {
			return fmt.Errorf("invalid provider configuration: %w", err)
		}

		log := logging.Nop()
		if verbose {
			if log, err = logging.New("development"); err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer log.Sync()
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		gw := llm.NewGateway(llm.DefaultRegistry(cfg.LLM, s.EventRepo()), cfg.LLM.ChatTimeout, log)
		res := gw.Call(cmd.Context(), llm.Request{
			System:  tutor.SystemPrompt(course, topic),
			Message: strings.Join(args, " "),
			Purpose: llm.PurposeAsk,
		}, creds)

		if verbose {
			printAttempts(res.Attempts)
		}
		if !res.Success {
			return fmt.Errorf("%s: %s", res.ErrorKind, res.ErrorMessage)
		}

		fmt.Println(res.Content)
		fmt.Println()
		fmt.Println(theme.Hint.Render(fmt.Sprintf("answered by %s (%s)", res.Provider.DisplayName(), res.Model)))
		return nil
	},
}

func printAttempts(attempts []llm.Attempt) {
	for _, a := range attempts {
		outcome := "ok"
		if !a.Succeeded() {
			outcome = string(a.ErrorKind)
		}
		fmt.Printf("%s %-10s key #%d  %5dms  %s\n",
			theme.Mark(a.Succeeded()), a.Provider.DisplayName(), a.KeyIndex, a.LatencyMs, outcome)
	}
}

func init() {
	askCmd.Flags().String("course", "", "Course id used to frame the answer")
	askCmd.Flags().String("topic", "", "Topic used to frame the answer")
	askCmd.Flags().BoolP("verbose", "v", false, "Show every provider attempt and debug logs")
}
