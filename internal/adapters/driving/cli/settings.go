package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var settingsJSON bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the LLM, embedding, chunking and index settings.

Settings are read from built-in defaults, then ~/.sercha-rag/config.toml,
then a .env file and the environment. API keys are always masked.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY [VALUE]",
	Short: "Write a setting to the config file",
	Long: `Validate a value and write it to the config file.

Secret keys such as llm.api_key are prompted for without echo when the
value is omitted.

Examples:
  sercha-rag settings set llm.model llama-3.1-8b-instant
  sercha-rag settings set chunk.size 400
  sercha-rag settings set llm.api_key`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset KEY",
	Short: "Remove a setting from the config file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsUnset,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the embedding and LLM providers are reachable",
	RunE:  runSettingsCheck,
}

// readSecret reads a value without echo when stdin is a terminal.
var readSecret = func(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func init() {
	settingsCmd.PersistentFlags().BoolVar(&settingsJSON, "json", false, "output settings as JSON")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsUnsetCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings: %w", errNotConfigured)
	}
	entries := settingsService.Entries()

	if settingsJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal settings: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	section := ""
	for _, e := range entries {
		name, key := splitKey(e.Key)
		if name != section {
			section = name
			cmd.Printf("\n[%s]\n", section)
		}
		value := e.Value
		if value == "" {
			value = "(not set)"
		}
		cmd.Printf("  %s: %s (%s)\n", key, value, e.Source)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings: %w", errNotConfigured)
	}
	key := args[0]

	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		if !isSecretKey(key) {
			return fmt.Errorf("%s needs a value: %w", key, domain.ErrInvalidInput)
		}
		cmd.Printf("Enter %s: ", key)
		v, err := readSecret(cmd.InOrStdin())
		cmd.Println()
		if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		value = v
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	cmd.Printf("Saved %s\n", key)
	return nil
}

func runSettingsUnset(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings: %w", errNotConfigured)
	}
	if err := settingsService.Unset(args[0]); err != nil {
		return fmt.Errorf("failed to remove setting: %w", err)
	}
	cmd.Printf("Removed %s\n", args[0])
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings: %w", errNotConfigured)
	}
	if err := settingsService.Check(cmd.Context()); err != nil {
		return fmt.Errorf("provider check failed: %w", err)
	}
	cmd.Println("Embedding and LLM providers are reachable.")
	return nil
}

func isSecretKey(key string) bool {
	for _, e := range settingsService.Entries() {
		if e.Key == key {
			return e.Secret
		}
	}
	return false
}

// splitKey splits "llm.model" into its section and field.
func splitKey(key string) (string, string) {
	section, field, ok := strings.Cut(key, ".")
	if !ok {
		return "general", key
	}
	return section, field
}
