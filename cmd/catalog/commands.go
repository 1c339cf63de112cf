package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fastprodman/creditledger/internal/config"
	"github.com/fastprodman/creditledger/internal/infra/logging"
	"github.com/fastprodman/creditledger/internal/infra/pgutils"
	pgproducts "github.com/fastprodman/creditledger/internal/repos/products/postgres"
	"github.com/fastprodman/creditledger/internal/services/catalog"
	"github.com/fastprodman/creditledger/pkg/envconf"
)

type catalogConfig struct {
	LogLevel slog.Level `env:"APP_LOG_LEVEL" default:"INFO"`
	Postgres config.PostgresConfig
}

func openDB(cmd *cobra.Command) (*sql.DB, error) {
	cfg := new(catalogConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	return pgutils.OpenDB(cmd.Context(), cfg.Postgres)
}

func newSyncCmd() *cobra.Command {
	var (
		file string
		opts catalog.SyncOptions
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Upsert products from a TOML catalog file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := catalog.LoadFile(file)
			if err != nil {
				return err
			}

			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			//nolint:errcheck
			defer db.Close()

			report, err := catalog.NewSyncer(db).Sync(cmd.Context(), f, opts)
			if err != nil {
				return err
			}

			prefix := ""
			if report.DryRun {
				prefix = "(dry run) "
			}

			printf(cmd, "%screated: %s\n", prefix, joinOrDash(report.Created))
			printf(cmd, "%supdated: %s\n", prefix, joinOrDash(report.Updated))
			printf(cmd, "%sdeactivated: %d\n", prefix, report.Deactivated)

			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "catalog.toml", "Catalog file to apply")
	cmd.Flags().BoolVar(&opts.DeactivateMissing, "deactivate-missing", false, "Deactivate active products absent from the file")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report changes without committing them")

	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every product, active or not",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			//nolint:errcheck
			defer db.Close()

			ps, err := pgproducts.New(db).ListAll(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ORDER\tPRODUCT\tCREDITS\tPRICE\tACTIVE")

			for _, p := range ps {
				price := "-"
				if p.Price.Valid {
					price = p.Price.Decimal.StringFixed(2) + " " + p.Currency
				}

				_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%t\n", p.DisplayOrder, p.ProductID, p.Credits, price, p.IsActive)
			}

			return w.Flush()
		},
	}
}

func joinOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}

	return strings.Join(ids, ", ")
}
