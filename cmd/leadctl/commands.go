package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"lead_intel_backend/internal/events"
	"lead_intel_backend/internal/leads"
	"lead_intel_backend/internal/leads/domain"
	"lead_intel_backend/internal/leads/repository"
	"lead_intel_backend/internal/leads/scoring"
	"lead_intel_backend/internal/leads/service"
	"lead_intel_backend/internal/leads/transport"
	"lead_intel_backend/internal/scheduler"
	"lead_intel_backend/platform/config"
	"lead_intel_backend/platform/db"
	"lead_intel_backend/platform/httpkit"
	"lead_intel_backend/platform/logger"
	"lead_intel_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// scoringOnlyConfig lets `score` run without a database.
type scoringOnlyConfig struct {
	catalogPath string
}

func (c scoringOnlyConfig) GetPhraseCatalogPath() string { return c.catalogPath }
func (scoringOnlyConfig) GetPhoneDefaultRegion() string  { return "" }

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "leadctl",
		Short:         "Operate the lead intelligence pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(scoreCmd(), ingestCmd(), rescoreCmd(), migrateCmd(), tokenCmd())
	return cmd
}

func scoreCmd() *cobra.Command {
	var (
		catalogPath string
		source      string
		region      string
	)

	cmd := &cobra.Command{
		Use:   "score [text]",
		Short: "Score text without storing anything (reads stdin when no text is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := argOrStdin(cmd, args)
			if err != nil {
				return err
			}

			svc, err := leads.NewService(repository.NewMemory(), nil, validator.New(), scoringOnlyConfig{catalogPath: catalogPath}, logger.Nop())
			if err != nil {
				return err
			}

			preview := svc.Preview(text, scoring.Metadata{Source: source, Region: region})
			return writeJSON(cmd.OutOrStdout(), transport.ToPreviewResponse(preview))
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", os.Getenv("PHRASE_CATALOG_PATH"), "Phrase catalog YAML file")
	cmd.Flags().StringVar(&source, "source", "", "Signal source recorded in the factors")
	cmd.Flags().StringVar(&region, "region", "", "Region recorded in the factors")
	return cmd
}

func ingestCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a JSON array of signals from a file or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			raws, err := readSignals(cmd, file)
			if err != nil {
				return err
			}

			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service, _ *config.Config) error {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tLEAD\tCREATED\tSCORE\tSTAGE\tALERT\tWARNINGS")
				for _, raw := range raws {
					res, err := svc.Ingest(ctx, raw)
					if err != nil {
						fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t%v\n", raw.Name, err)
						continue
					}
					alert := "-"
					if res.Alert != nil {
						alert = string(res.Alert.Priority)
					}
					fmt.Fprintf(tw, "%s\t%s\t%t\t%d\t%s\t%s\t%d\n",
						res.Lead.Name, res.Lead.ID, res.Created, res.Lead.IntentScore, res.Lead.Stage, alert, len(res.Warnings))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with an array of signals (default stdin)")
	return cmd
}

func rescoreCmd() *cobra.Command {
	var (
		batchSize int
		dryRun    bool
		queue     bool
	)

	cmd := &cobra.Command{
		Use:   "rescore",
		Short: "Recompute scores and stages for every stored lead",
		RunE: func(cmd *cobra.Command, args []string) error {
			if queue {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				client, err := scheduler.NewClient(cfg)
				if err != nil {
					return err
				}
				defer client.Close()

				id, err := client.EnqueueRescore(cmd.Context(), batchSize, dryRun)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rescore queued as task %s\n", id)
				return nil
			}

			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service, _ *config.Config) error {
				stats, err := svc.Rescore(ctx, batchSize, dryRun)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d changed=%d skipped=%d failed=%d dry-run=%t\n",
					stats.Scanned, stats.Changed, stats.Skipped, stats.Failed, dryRun)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch", 200, "Leads read per page")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report changes without writing them")
	cmd.Flags().BoolVar(&queue, "queue", false, "Hand the pass to the background worker")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := db.RunMigrations(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			statuses, err := db.MigrationStatus(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
			for _, s := range statuses {
				applied := "-"
				if !s.AppliedAt.IsZero() {
					applied = s.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
			}
			return tw.Flush()
		},
	})

	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		userID string
		roles  []string
		ttl    time.Duration
		secret string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for a collector or dashboard user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("JWT_ACCESS_SECRET or --secret is required")
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}

			id := uuid.New()
			if userID != "" {
				parsed, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
				id = parsed
			}

			token, err := httpkit.SignAccessToken(secret, id, roles, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID to embed (random when empty)")
	cmd.Flags().StringSliceVar(&roles, "roles", []string{"collector"}, "Roles granted to the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_ACCESS_SECRET"), "Signing secret")
	return cmd
}

// withService connects to Postgres and builds the leads service for one command.
func withService(ctx context.Context, fn func(context.Context, *service.Service, *config.Config) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Env)

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	bus := events.NewInMemoryBus(log)
	defer bus.Wait()

	svc, err := leads.NewService(repository.New(pool), bus, validator.New(), cfg, log)
	if err != nil {
		return err
	}
	return fn(ctx, svc, cfg)
}

func argOrStdin(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func readSignals(cmd *cobra.Command, file string) ([]domain.RawLead, error) {
	var r io.Reader = cmd.InOrStdin()
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var raws []domain.RawLead
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode signals: %w", err)
	}
	return raws, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
