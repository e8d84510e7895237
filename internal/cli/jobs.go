package cli

import (
	"interviewai/internal/common"
	"interviewai/internal/config"

	"github.com/spf13/cobra"
)

var jobsConfig common.CommandConfig

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the job categories and roles",
	Long: `List the job categories and roles offered in the job selection step.
The catalog comes from interview.catalogFile, or the built-in list.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if jobsConfig.OutputFormat == "" {
			jobsConfig.OutputFormat = "text"
		}
		return common.ValidateOutputFormat(jobsConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		logger := getLoggerFromContext(cmd.Context())

		catalog := cfg.Catalog
		if catalog == nil {
			catalog = config.DefaultJobCatalog()
		}
		return common.NewOutputHandler(cmd.OutOrStdout(), logger).HandleOutput(catalog, jobsConfig)
	},
}

func init() {
	jobsCmd.Flags().StringVarP(&jobsConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	jobsCmd.Flags().StringVar(&jobsConfig.OutputFormat, "format", "", "Output format: text, markdown, json or yaml")

	_ = jobsCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.NewOutputHandler(nil, nil).SupportedFormats(), cobra.ShellCompDirectiveNoFileComp
	})
}
