package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bill-assistant/internal/bootstrap"
	"bill-assistant/internal/extract"
	"bill-assistant/internal/extraction"
	"bill-assistant/internal/llm"
	"bill-assistant/internal/shared/config"
	"bill-assistant/internal/shared/storage/db"
)

const transcribeWorkers = 4

// --- migrate ---

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		ctx := cmd.Context()

		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultCLIOptions()))
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer sqlDB.Close()

		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		if status, _ := cmd.Flags().GetBool("status"); status {
			return db.MigrationStatus(ctx, sqlDB)
		}
		return nil
	},
}

// --- transcribe ---

var transcribeCmd = &cobra.Command{
	Use:   "transcribe FILE...",
	Short: "Print the text recovered from bills",
	Long: `Print the text recovered from one or more bills.

Examples:
  billctl transcribe --type pdf march.pdf april.pdf
  billctl transcribe --type image receipt.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileType, _ := cmd.Flags().GetString("type")
		if _, err := extract.NormalizeFileType(fileType); err != nil {
			return err
		}

		cfg := config.Load()
		text := bootstrap.BuildTextAcquirer(cfg, nil)

		transcripts, err := transcribeAll(cmd.Context(), text, fileType, args)
		if err != nil {
			return err
		}
		return printTranscripts(cmd.OutOrStdout(), args, transcripts)
	},
}

// transcribeAll reads every file concurrently and returns the transcripts in
// argument order.
func transcribeAll(ctx context.Context, text extraction.TextAcquirer, fileType string, paths []string) ([]string, error) {
	out := make([]string, len(paths))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(transcribeWorkers)
	for i, path := range paths {
		g.Go(func() error {
			transcript, err := text.ExtractText(gCtx, path, fileType)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			out[i] = transcript
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func printTranscripts(w io.Writer, paths, transcripts []string) error {
	for i, path := range paths {
		if len(paths) > 1 {
			if _, err := fmt.Fprintf(w, "==> %s <==\n", path); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, transcripts[i]); err != nil {
			return err
		}
	}
	return nil
}

// --- extract ---

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Extract structured fields from a bill and print them as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileType, _ := cmd.Flags().GetString("type")
		if _, err := extract.NormalizeFileType(fileType); err != nil {
			return err
		}

		cfg := config.Load()
		ctx := cmd.Context()

		model, err := bootstrap.BuildLLM(ctx, cfg)
		if err != nil {
			return err
		}
		text := bootstrap.BuildTextAcquirer(cfg, nil)

		svc := &extraction.Service{
			Text:        text,
			LLM:         llm.Instrumented{Next: model, Operation: "extraction", Timeout: cfg.LLMTimeout},
			Temperature: cfg.ExtractionTemperature,
		}
		fields, err := svc.ExtractFields(ctx, args[0], fileType)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(fields)
	},
}

func init() {
	migrateCmd.Flags().Bool("status", false, "print migration status after applying")
	transcribeCmd.Flags().String("type", "pdf", "file type: pdf or image")
	extractCmd.Flags().String("type", "pdf", "file type: pdf or image")
}
