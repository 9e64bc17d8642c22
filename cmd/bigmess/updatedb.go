package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nicwaller/bigmess/pkg/apttransport"
	"github.com/nicwaller/bigmess/pkg/merge"
	"github.com/nicwaller/bigmess/pkg/pkgdb"
)

var updateDBOptions struct {
	fileCache string
	pkgDB     string
	initDB    string
	fetch     bool
}

var updateDBCmd = &cobra.Command{
	Use:   "updatedb",
	Short: "Merge cached repository metadata into the package database",
	Long: `Fold the cached indexes of every configured release, the base releases,
the task files and the upstream sidecars into the package database. Files are
read from the file cache only, unless --fetch allows downloading the missing
ones. The merge starts from an empty database unless --init-db names a
previous snapshot.`,
	Args: cobra.NoArgs,
	Example: `  bigmess updatedb
  bigmess updatedb --init-db /srv/pkgdb.gz --fetch -p /tmp/pkgdb.gz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdateDB(cmd.Context())
	},
}

func init() {
	updateDBCmd.Flags().StringVarP(&updateDBOptions.fileCache, "filecache", "c", "",
		"File cache directory (default <cache basedir>/files)")
	updateDBCmd.Flags().StringVarP(&updateDBOptions.pkgDB, "pkgdb", "p", "",
		"Package database file (default <cache basedir>/pkgdb.gz)")
	updateDBCmd.Flags().StringVar(&updateDBOptions.initDB, "init-db", "",
		"Package database snapshot to start from (default: start empty)")
	updateDBCmd.Flags().BoolVar(&updateDBOptions.fetch, "fetch", false,
		"Download files missing from the cache")
}

func runUpdateDB(ctx context.Context) error {
	dir := updateDBOptions.fileCache
	if dir == "" {
		dir = defaultFileCache()
	}
	dbPath := updateDBOptions.pkgDB
	if dbPath == "" {
		dbPath = defaultPkgDB()
	}

	var upstream apttransport.Transport
	if updateDBOptions.fetch {
		upstream = apttransport.NewDefaultRegistry()
	}
	cache, err := apttransport.NewCacheTransport(upstream, apttransport.CacheConfig{
		Dir:     dir,
		Offline: !updateDBOptions.fetch,
	})
	if err != nil {
		return fmt.Errorf("failed to open file cache: %w", err)
	}

	db, err := openDB(updateDBOptions.initDB)
	if err != nil {
		return err
	}

	m := merge.New(cache, cfg.Archive(), db)
	if err := m.Run(ctx); err != nil {
		return err
	}

	if err := pkgdb.Save(db, dbPath); err != nil {
		return fmt.Errorf("failed to save package database: %w", err)
	}
	log.Info().
		Str("path", dbPath).
		Int("sources", len(db.Sources)).
		Int("binaries", len(db.Binaries)).
		Int("tasks", len(db.Tasks)).
		Msg("Package database updated")

	return nil
}

// openDB loads the snapshot at initDB, or returns an empty database when
// no snapshot is named
func openDB(initDB string) (*pkgdb.Database, error) {
	if initDB == "" {
		return pkgdb.New(), nil
	}
	db, err := pkgdb.Load(initDB)
	if err != nil {
		return nil, fmt.Errorf("failed to load package database %s: %w", initDB, err)
	}
	log.Info().Str("path", initDB).Int("sources", len(db.Sources)).Msg("Loaded package database")
	return db, nil
}
