package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fastprodman/creditledger/internal/infra/pgutils"
	"github.com/fastprodman/creditledger/internal/repos/products"
	pgproducts "github.com/fastprodman/creditledger/internal/repos/products/postgres"
)

var errDryRun = errors.New("dry run")

type SyncOptions struct {
	// DeactivateMissing turns off active products absent from the file.
	// Rows are never deleted; past purchases keep their product reference.
	DeactivateMissing bool
	// DryRun computes the report and rolls everything back.
	DryRun bool
}

type SyncReport struct {
	Created     []string
	Updated     []string
	Deactivated int64
	DryRun      bool
}

type Syncer struct {
	db       *sql.DB
	products products.Products
}

func NewSyncer(db *sql.DB) *Syncer {
	return &Syncer{db: db, products: pgproducts.New(db)}
}

// Sync applies f in a single transaction.
func (s *Syncer) Sync(ctx context.Context, f File, opts SyncOptions) (SyncReport, error) {
	err := f.Validate()
	if err != nil {
		return SyncReport{}, err
	}

	var report SyncReport

	err = pgutils.WithTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		report = SyncReport{DryRun: opts.DryRun}
		keep := make([]string, 0, len(f.Products))

		for _, e := range f.Products {
			created, err := s.products.Upsert(ctx, tx, e.Product())
			if err != nil {
				return err
			}

			if created {
				report.Created = append(report.Created, e.ProductID)
			} else {
				report.Updated = append(report.Updated, e.ProductID)
			}

			keep = append(keep, e.ProductID)
		}

		if opts.DeactivateMissing {
			n, err := s.products.DeactivateExcept(ctx, tx, keep)
			if err != nil {
				return err
			}
			report.Deactivated = n
		}

		if opts.DryRun {
			return errDryRun
		}

		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return SyncReport{}, fmt.Errorf("sync catalog: %w", err)
	}

	slog.Info("catalog synced",
		"created", len(report.Created),
		"updated", len(report.Updated),
		"deactivated", report.Deactivated,
		"dry_run", report.DryRun,
	)

	return report, nil
}
