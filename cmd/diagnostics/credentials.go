package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/ukydev/equipment-diagnostics/internal/config"
)

var (
	storeURL string
	storeKey string
	aiKey    string
)

// credentialsCmd manages the persisted credential overrides
var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage store and AI credentials",
	Long: `Persist or inspect the credential overrides. Environment variables always
win over the override file; a running server picks up new values on restart.`,
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Persist store and/or AI credentials",
	RunE:  runCredentialsSet,
}

var credentialsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which credentials resolve and from where",
	RunE:  runCredentialsStatus,
}

func init() {
	credentialsSetCmd.Flags().StringVar(&storeURL, "store-url", "", "MongoDB connection URI")
	credentialsSetCmd.Flags().StringVar(&storeKey, "store-key", "", "MongoDB access key")
	credentialsSetCmd.Flags().StringVar(&aiKey, "ai-key", "", "Gemini API key")
	credentialsSetCmd.MarkFlagsRequiredTogether("store-url", "store-key")
	credentialsSetCmd.MarkFlagsOneRequired("store-url", "ai-key")

	credentialsCmd.AddCommand(credentialsSetCmd)
	credentialsCmd.AddCommand(credentialsStatusCmd)
}

func runCredentialsSet(cmd *cobra.Command, args []string) error {
	r := newResolver()
	if storeURL != "" || storeKey != "" {
		if err := r.SetStoreCredentials(storeURL, storeKey); err != nil {
			return err
		}
	}
	if aiKey != "" {
		if err := r.SetAIKey(aiKey); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved to %s. Restart the server to apply them.\n", r.Path())
	return nil
}

func runCredentialsStatus(cmd *cobra.Command, args []string) error {
	printStatus(cmd.OutOrStdout(), newResolver())
	return nil
}

func printStatus(w io.Writer, r *config.Resolver) {
	fmt.Fprintf(w, "Override file: %s\n", r.Path())
	for _, key := range []string{config.KeyStoreURL, config.KeyStoreKey, config.KeyAIKey} {
		_, source := r.LookupSource(key)
		if source == config.SourceNone {
			source = "missing"
		}
		fmt.Fprintf(w, "  %-18s %s\n", key, source)
	}
	fmt.Fprintf(w, "Store configured: %t\n", r.StoreConfigured())
	fmt.Fprintf(w, "AI configured:    %t\n", r.AIKey() != "")
}
