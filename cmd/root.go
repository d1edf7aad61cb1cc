// Package cmd implements the command-line interface for the enrichment service.
package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/enrichment/cmd/common"
	"github.com/jonesrussell/north-cloud/enrichment/cmd/enrich"
	"github.com/jonesrussell/north-cloud/enrichment/cmd/httpd"
	"github.com/jonesrussell/north-cloud/enrichment/cmd/validate"
)

// rootCmd represents the root command for the enrichment CLI.
var rootCmd = &cobra.Command{
	Use:   "enrichment",
	Short: "Enrich business records from their websites",
	Long: `Fetches each business website, extracts contact signals and offerings,
optionally asks an AI model to classify the business, and writes one record
per input business.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	// .env is optional; the config loader handles ENV_FILE and .env.local.
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $CONFIG_PATH or ./config.yml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.Int("concurrency", 0, "businesses processed in parallel")
	flags.Bool("no-ai", false, "disable the AI business analyzer")

	mustBind(common.KeyConfig, "config")
	mustBind(common.KeyDebug, "debug")
	mustBind(common.KeyConcurrency, "concurrency")
	mustBind(common.KeyNoAI, "no-ai")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "enrichment version %s\n", common.Version)
		},
	})

	rootCmd.AddCommand(enrich.Command())
	rootCmd.AddCommand(httpd.Command())
	rootCmd.AddCommand(validate.Command())
}

func mustBind(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind %s flag: %v", flag, err))
	}
}
