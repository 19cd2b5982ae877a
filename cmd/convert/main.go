// Command convert runs the producer export pipeline on a local spreadsheet
// and prints the paths of the archives it writes.
//
// Usage:
//
//	convert producers.xlsx --sheet Agents --out ./exports
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/entityexport/internal/config"
	"github.com/JonMunkholm/entityexport/internal/core"
	"github.com/JonMunkholm/entityexport/internal/logging"
)

type options struct {
	sheet    string
	out      string
	profile  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a producer spreadsheet into per-entity JSON archives",
		Long: `Reads one sheet of an .xlsx, .xls or .csv file, runs the Individual and Firm
passes and writes outputAgents_MM-DD-YYYY.zip and outputAgencies_MM-DD-YYYY.zip
into a new run directory under --out.

Without --sheet the configured default sheet (CONVERT_DEFAULT_SHEET_INDEX) is used.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.sheet, "sheet", "s", "", "sheet name (default: configured sheet index)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output directory (default: WORKSPACE_ROOT)")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "YAML mapping profile (default: CONVERT_PROFILE_PATH)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default: LOG_LEVEL)")

	return cmd
}

func runConvert(cmd *cobra.Command, path string, opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(logLevel(opts, cfg), cfg.Logging.Format)

	if opts.out != "" {
		cfg.Workspace.Root = opts.out
	}
	if opts.profile != "" {
		cfg.Convert.ProfilePath = opts.profile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	service, err := core.NewService(cfg)
	if err != nil {
		return err
	}

	result, err := service.Convert(cmd.Context(), core.ConvertRequest{
		FileName:  filepath.Base(path),
		SheetName: opts.sheet,
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
	}

	out := cmd.OutOrStdout()
	for _, e := range result.Entities {
		fmt.Fprintf(out, "%s\t%d records", e.Path, e.Written)
		if e.Skipped > 0 {
			fmt.Fprintf(out, ", %d skipped", e.Skipped)
		}
		fmt.Fprintln(out)
	}
	return nil
}

// logLevel prefers --log-level over the configured LOG_LEVEL.
func logLevel(opts options, cfg *config.Config) string {
	if opts.logLevel != "" {
		return opts.logLevel
	}
	return cfg.Logging.Level
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "convert:", err)
		os.Exit(1)
	}
}
