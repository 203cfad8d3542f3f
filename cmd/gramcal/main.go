package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/gramcal/gramcal/internal/auth"
	"github.com/gramcal/gramcal/internal/calendar"
	"github.com/gramcal/gramcal/internal/common"
	"github.com/gramcal/gramcal/internal/export"
	"github.com/gramcal/gramcal/internal/extract"
	"github.com/gramcal/gramcal/internal/pipeline"
	"github.com/gramcal/gramcal/internal/repository"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "gramcal",
		Short:         "Turn flyer photos from Instagram DMs into calendar events",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(commitCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(dbhealthCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openPool(ctx context.Context, logger *slog.Logger) (*pgxpool.Pool, *common.Config, error) {
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.DSN == "" {
		return nil, nil, fmt.Errorf("DB_URL env var is required")
	}
	pool, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        2,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: time.Minute,
		DialTimeout:     5 * time.Second,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return pool, cfg, nil
}

// extractCmd runs the heuristic extractor over flyer text without touching
// the database. Useful for tuning the matchers against real flyers.
func extractCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract a candidate event from flyer text (stdin or --file)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			var err error
			if file != "" {
				raw, err = os.ReadFile(file)
			} else {
				raw, err = io.ReadAll(os.Stdin)
			}
			if err != nil {
				return err
			}

			candidate := extract.Extract(string(raw))
			out, err := json.MarshalIndent(candidate, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			if extract.NeedsConfirmation(candidate) {
				fmt.Fprintln(os.Stderr, "would require confirmation")
			} else {
				fmt.Fprintln(os.Stderr, "would auto-commit")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "read flyer text from a file instead of stdin")
	return cmd
}

func commitCmd() *cobra.Command {
	var userFlag, draftFlag string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit a draft event to Google Calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			var draftID *uuid.UUID
			if draftFlag != "" {
				id, err := uuid.Parse(draftFlag)
				if err != nil {
					return fmt.Errorf("invalid --draft: %w", err)
				}
				draftID = &id
			}

			ctx := cmd.Context()
			logger := quietLogger()
			pool, cfg, err := openPool(ctx, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			drafts := repository.NewDraftRepository(pool, logger)
			committed := repository.NewCommittedEventRepository(pool, logger)
			credentials := repository.NewCredentialRepository(pool, logger)
			tokens := auth.NewManager(auth.Config{
				TokenURL:     cfg.Google.TokenURL,
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				Timeout:      cfg.Google.Timeout,
			}, credentials, nil, logger)
			client := calendar.NewClient(calendar.Config{
				BaseURL: cfg.Google.CalendarURL,
				Timeout: cfg.Google.Timeout,
			}, nil, logger)

			stage := pipeline.NewCommitStage(logger, drafts, committed, tokens, client)
			res, err := stage.Commit(ctx, userID, draftID)
			if err != nil {
				return err
			}

			fmt.Printf("committed draft %s\n", res.DraftID)
			fmt.Printf("calendar event: %s\n", res.ProviderEventID)
			if res.HTMLLink != "" {
				fmt.Printf("link: %s\n", res.HTMLLink)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userFlag, "user", "", "user id (required)")
	cmd.Flags().StringVar(&draftFlag, "draft", "", "draft id (defaults to the latest eligible draft)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func exportCmd() *cobra.Command {
	var userFlag, fromFlag, toFlag, outFlag string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export committed events to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			from, err := parseDateFlag(fromFlag)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			to, err := parseDateFlag(toFlag)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}

			ctx := cmd.Context()
			logger := quietLogger()
			pool, _, err := openPool(ctx, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			committed := repository.NewCommittedEventRepository(pool, logger)
			drafts := repository.NewDraftRepository(pool, logger)
			svc := export.NewService(committed, drafts, logger)

			data, err := svc.ExportCommittedXLSX(ctx, userID, from, to)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outFlag, data, 0644); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%d bytes)\n", outFlag, len(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&userFlag, "user", "", "user id (required)")
	cmd.Flags().StringVar(&fromFlag, "from", "", "start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&toFlag, "to", "", "end date, YYYY-MM-DD")
	cmd.Flags().StringVar(&outFlag, "out", "events.xlsx", "output file")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func dbhealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dbhealth",
		Short: "Check database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := quietLogger()
			pool, _, err := openPool(ctx, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := repository.HealthCheck(ctx, pool, 3*time.Second, logger); err != nil {
				return err
			}
			fmt.Println("database OK")
			return nil
		},
	}
}

func parseDateFlag(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}
