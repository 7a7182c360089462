package main

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/equipment-diagnostics/internal/config"
)

var credentialsFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "AI-assisted equipment fault diagnosis service",
	Long: `Equipment diagnostics pairs a fault report with the equipment manual and
field history, asks a generative model for likely causes and ranked solutions,
and records how technicians resolved each case.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&credentialsFile, "credentials-file", "", "Credential override file (default: user config dir)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(credentialsCmd)
}

func newResolver() *config.Resolver {
	return config.NewResolver(credentialsFile)
}

func main() {
	// A missing .env is fine; the environment and override file still apply.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to read .env")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
