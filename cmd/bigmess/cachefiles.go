package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nicwaller/bigmess/pkg/apttransport"
	"github.com/nicwaller/bigmess/pkg/harvest"
)

var cacheFilesOptions struct {
	fileCache   string
	forceUpdate bool
	purge       bool
	jobs        int
}

var cacheFilesCmd = &cobra.Command{
	Use:   "cachefiles",
	Short: "Download repository metadata into the file cache",
	Long: `Download the Release, Sources and Packages files of every configured
release, the base releases, the task files and the upstream sidecars of every
source package. Documents already in the cache are not downloaded again unless
--force-update is given. --purge empties the cache before downloading.`,
	Args:    cobra.NoArgs,
	Example: `  bigmess cachefiles -j 8`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCacheFiles(cmd.Context())
	},
}

func init() {
	cacheFilesCmd.Flags().StringVarP(&cacheFilesOptions.fileCache, "filecache", "c", "",
		"File cache directory (default <cache basedir>/files)")
	cacheFilesCmd.Flags().BoolVarP(&cacheFilesOptions.forceUpdate, "force-update", "f", false,
		"Download every file again even when a copy is cached")
	cacheFilesCmd.Flags().BoolVar(&cacheFilesOptions.purge, "purge", false,
		"Remove every cached file before downloading")
	cacheFilesCmd.Flags().IntVarP(&cacheFilesOptions.jobs, "jobs", "j", harvest.DefaultJobs,
		"Number of parallel downloads")
}

func runCacheFiles(ctx context.Context) error {
	dir := cacheFilesOptions.fileCache
	if dir == "" {
		dir = defaultFileCache()
	}

	cache, err := apttransport.NewCacheTransport(apttransport.NewDefaultRegistry(), apttransport.CacheConfig{
		Dir:     dir,
		Refresh: cacheFilesOptions.forceUpdate,
	})
	if err != nil {
		return fmt.Errorf("failed to open file cache: %w", err)
	}
	if cacheFilesOptions.purge {
		if err := cache.PurgeCache(); err != nil {
			return fmt.Errorf("failed to purge file cache: %w", err)
		}
	}
	log.Info().Str("dir", cache.Dir()).Msg("Caching repository metadata")

	summary, err := harvest.New(cache, cfg.Archive(), cacheFilesOptions.jobs).Run(ctx)
	if err != nil {
		return err
	}

	hits, misses := cache.GetStats().GetStats()
	log.Info().
		Int64("fetched", summary.Fetched).
		Int64("missing", summary.Missing).
		Int64("failed", summary.Failed).
		Int64("cache_hits", hits).
		Int64("cache_misses", misses).
		Msgf("Cache performance: %d hits, %d misses (%.1f%% hit ratio)",
			hits, misses, cache.GetStats().GetHitRatio()*100)

	return nil
}
