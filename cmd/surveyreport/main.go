package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AntonyShaps/regression-project-stc/pkg/report"
)

func main() {
	var (
		configPath string
		outputDir  string
	)

	cmd := &cobra.Command{
		Use:   "surveyreport",
		Short: "Render the unemployment-benefit survey analysis report",
		Long: "surveyreport runs the full analysis pipeline over the bundled synthetic\n" +
			"survey extract and writes the report document, its charts and the\n" +
			"table appendix to the output directory.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := report.DefaultConfig()
			if configPath != "" {
				var err error
				cfg, err = report.LoadConfig(configPath)
				if err != nil {
					return err
				}
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}

			logger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer logger.Sync()

			rep, err := report.NewBuilder(cfg, logger).Run()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "report written to %s (%d sections, %d limitations)\n",
				cfg.OutputDir, len(rep.Sections), len(rep.Limitations))
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "optional YAML config overriding the published defaults")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
