package cmd

import (
	"fmt"

	"github.com/abhisek/tutorgate/internal/llm"
	"github.com/abhisek/tutorgate/internal/ui/theme"
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Inspect provider API keys",
}

var keysCheckCmd = &cobra.Command{
	Use:   "check [key]...",
	Short: "Check which provider a key belongs to and whether it is well formed",
	Long: "Check detects the provider of each key from its shape. Keys are never\n" +
		"printed in full. Without arguments the keys in the environment are checked.",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")

		var creds []llm.Credential
		for _, k := range args {
			creds = append(creds, llm.Credential{Key: k, Provider: llm.ProviderID(provider)})
		}
		if len(creds) == 0 {
			creds = llm.CredentialsFromEnv()
		}
		if len(creds) == 0 {
			fmt.Println("No keys to check.")
			return nil
		}

		fmt.Println(theme.Heading.Render(fmt.Sprintf("%-3s  %-12s  %s", "", "Provider", "Key")))
		valid := 0
		for _, c := range creds {
			c = c.Resolve()
			ok := c.Valid()
			if ok {
				valid++
			}
			fmt.Printf("%-3s  %-12s  %s\n", theme.Mark(ok), c.Provider.DisplayName(), llm.Mask(c.Key))
		}

		summary := fmt.Sprintf("%d of %d keys are well formed", valid, len(creds))
		if valid == 0 {
			fmt.Println(theme.Bad.Render(summary))
			return fmt.Errorf("no usable keys")
		}
		fmt.Println(theme.Good.Render(summary))
		return nil
	},
}

func init() {
	keysCheckCmd.Flags().String("provider", "", "Provider the keys belong to (gemini, groq, cerebras, openrouter); detected when empty")

	keysCmd.AddCommand(keysCheckCmd)
}
