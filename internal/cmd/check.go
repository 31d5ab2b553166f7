package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mailcred/mailcred/internal/config"
	"github.com/mailcred/mailcred/internal/observability"
	"github.com/mailcred/mailcred/internal/output"
)

var checkCmd = &cobra.Command{
	Use:   "check <email>",
	Short: "Analyze an email sender address",
	Long:  "Analyze whether an email address belongs to the brand it claims to represent",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	checkCmd.Flags().Bool("no-cache", false, "Skip the registrant cache")
}

func runCheck(cmd *cobra.Command, args []string) error {
	email := strings.TrimSpace(args[0])
	if email == "" {
		return errors.New("email address is required")
	}

	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	startedAt := time.Now()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

	cfg := config.GetConfig()
	if cfg == nil {
		return errors.New("config not loaded")
	}

	pipeline, err := buildPipeline(ctx, cfg, db, !noCache)
	if err != nil {
		return err
	}

	result := pipeline.Sanitize(ctx, email)

	formatter := output.NewFormatter(format)
	rendered, err := formatter.FormatResult(result)
	if err != nil {
		return err
	}
	if rendered != "" {
		fmt.Println(rendered)
	}

	if format != output.FormatJSON {
		observability.CLILogger.Info("Analysis complete",
			zap.String("veredict", string(result.Verdict)),
			zap.Float64("confidence", result.Confidence),
			zap.Duration("elapsed", time.Since(startedAt)),
		)
	}
	return nil
}
