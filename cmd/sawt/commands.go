package main

import (
	"errors"
	"fmt"

	sawt "github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/db"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/menu"
)

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(sawt.GetVersion())
	return nil
}

// MigrateCmd applies the embedded database schema. It is idempotent.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	sqlDB, err := db.Open(&cfg.Database)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := db.Migrate(ctx, sqlDB); err != nil {
		return err
	}
	fmt.Println("✅ schema applied")
	return nil
}

// SeedCmd loads the demo dataset: coverage areas, promo codes, and a
// sample menu. It resets the catalog, so it refuses to run without --yes.
type SeedCmd struct {
	Yes bool `help:"Confirm replacing the catalog and clearing recorded orders."`
}

func (c *SeedCmd) Run(cli *CLI) error {
	if !c.Yes {
		return errors.New("seed replaces the catalog and clears recorded orders; re-run with --yes")
	}

	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	sqlDB, err := db.Open(&cfg.Database)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := db.Migrate(ctx, sqlDB); err != nil {
		return err
	}
	if err := db.Seed(ctx, sqlDB); err != nil {
		return err
	}
	fmt.Println("✅ demo data loaded")
	return nil
}

// ReindexCmd rebuilds the menu vector index from the catalog.
type ReindexCmd struct {
	Purge bool `help:"Delete the existing index contents first."`
}

func (c *ReindexCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	if !cfg.Vector.Enabled {
		return errors.New("vector search is not configured; set PINECONE_API_KEY or the vector section")
	}

	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if c.Purge {
		if err := rt.vec.DeleteAll(ctx); err != nil {
			return fmt.Errorf("purge index: %w", err)
		}
		fmt.Println("🧹 index purged")
	}

	report, err := menu.NewIndexer(rt.store.Menu, rt.vec).ReindexAll(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("✅ indexed %d of %d menu items\n", report.Indexed, report.TotalItems)
	return nil
}

// CleanupCmd deletes expired sessions once and reports the count.
type CleanupCmd struct{}

func (c *CleanupCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	sqlDB, err := db.Open(&cfg.Database)
	if err != nil {
		return err
	}
	store := db.NewStore(sqlDB, cfg.Session.Expiry)
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()

	deleted, err := store.Sessions.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("✅ deleted %d expired sessions\n", deleted)
	return nil
}

// ValidateCmd loads and validates the configuration file.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	fmt.Printf("✅ configuration is valid (%d llm instances)\n", len(cfg.LLMs))
	return nil
}
