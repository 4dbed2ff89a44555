package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ndelcourt/optidispatch/app"
	"github.com/ndelcourt/optidispatch/config"
	"github.com/ndelcourt/optidispatch/core/suggest"
	"github.com/ndelcourt/optidispatch/infra/logger"
	"github.com/ndelcourt/optidispatch/pkg/export"
)

var (
	suggestTopN       int
	suggestUnassigned bool
	suggestOutput     string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Rank candidate technicians per dispatch without committing anything",
	RunE:  runSuggest,
}

func init() {
	suggestCmd.Flags().IntVarP(&suggestTopN, "top-n", "n", 5, "options to keep per dispatch")
	suggestCmd.Flags().BoolVar(&suggestUnassigned, "unassigned-only", false, "skip dispatches that already carry a technician")
	suggestCmd.Flags().StringVarP(&suggestOutput, "output", "o", "", "CSV output file (default stdout)")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("suggest").Errorf("service close: %v", err)
		}
	}()

	options, err := svc.Suggest(cmd.Context(), suggest.Params{
		TopN:           suggestTopN,
		OnlyUnassigned: suggestUnassigned,
	})
	if err != nil {
		return err
	}

	out := os.Stdout
	if suggestOutput != "" {
		f, err := os.Create(suggestOutput)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	return export.WriteSuggestionsCSV(out, options)
}
