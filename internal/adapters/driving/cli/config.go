package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/docrag/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change configuration",
	Long: `Reads and writes the TOML configuration file. Environment variables such
as OPENAI_API_KEY, EMBEDDING_MODEL, GPT_MODEL and TOP_K override the
stored values at startup.`,
	Annotations: map[string]string{annotationNoServices: "true"},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known key with its stored value",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a stored value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Store a value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset [key]",
	Short: "Remove a stored value so the default applies",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [key]",
	Short: "Store an API key without echoing it",
	Long: `Prompts for a secret such as embedding.api_key or llm.api_key and
stores it without echoing it to the terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigSetKey,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Ping the configured embedding and answer providers",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetKeyCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return notConfigured("config")
	}

	for _, key := range file.KnownKeys() {
		value, ok := configStore.Get(key.Name)
		shown := "(default)"
		if ok {
			shown = file.FormatValue(key, value)
		}
		env := ""
		if key.Env != "" {
			env = "  [$" + key.Env + "]"
		}
		cmd.Printf("  %-22s %s%s\n", key.Name, shown, env)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return notConfigured("config")
	}
	key, ok := file.LookupKey(args[0])
	if !ok {
		return fmt.Errorf("unknown key: %s", args[0])
	}

	value, ok := configStore.Get(key.Name)
	if !ok {
		cmd.Printf("%s is not set\n", key.Name)
		return nil
	}
	cmd.Println(file.FormatValue(key, value))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return notConfigured("config")
	}

	value, err := file.ParseValue(args[0], args[1])
	if err != nil {
		return err
	}
	if err := configStore.Set(args[0], value); err != nil {
		return fmt.Errorf("failed to save %s: %w", args[0], err)
	}

	key, _ := file.LookupKey(args[0])
	cmd.Printf("%s = %s\n", key.Name, file.FormatValue(key, value))
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return notConfigured("config")
	}
	if _, ok := file.LookupKey(args[0]); !ok {
		return fmt.Errorf("unknown key: %s", args[0])
	}

	if err := configStore.Unset(args[0]); err != nil {
		return fmt.Errorf("failed to unset %s: %w", args[0], err)
	}
	cmd.Printf("%s unset\n", args[0])
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return notConfigured("config")
	}
	cmd.Println(configStore.Path())
	return nil
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return notConfigured("config")
	}
	key, ok := file.LookupKey(args[0])
	if !ok {
		return fmt.Errorf("unknown key: %s", args[0])
	}
	if key.Kind != file.KindSecret {
		return fmt.Errorf("%s is not a secret; use 'docrag config set'", key.Name)
	}

	cmd.Printf("Enter %s: ", key.Name)
	secret, err := readSecret(cmd.InOrStdin())
	cmd.Println()
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == "" {
		return errors.New("no value entered")
	}

	if err := configStore.Set(key.Name, secret); err != nil {
		return fmt.Errorf("failed to save %s: %w", key.Name, err)
	}
	cmd.Printf("%s = %s\n", key.Name, file.FormatValue(key, secret))
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return notConfigured("config")
	}
	settings, err := file.LoadSettings(configStore, nil)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	embedErr := ai.ValidateEmbeddingConfig(ctx, &settings.Embedding)
	printCheck(cmd, "embedding", string(settings.Embedding.Provider), embedErr)
	llmErr := ai.ValidateLLMConfig(ctx, &settings.LLM)
	printCheck(cmd, "llm", string(settings.LLM.Provider), llmErr)

	if embedErr != nil || llmErr != nil {
		return errors.New("provider check failed")
	}
	return nil
}

func printCheck(cmd *cobra.Command, name, provider string, err error) {
	if err != nil {
		cmd.Printf("%-10s %s: %v\n", name, provider, err)
		return
	}
	cmd.Printf("%-10s %s: ok\n", name, provider)
}

// readSecret reads a line without echo when in is a terminal.
func readSecret(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
