package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nicwaller/bigmess/pkg/config"
)

var options struct {
	debug   bool
	configs []string
}

// cfg is loaded once before any subcommand runs
var cfg *config.Config

// Root command
var rootCmd = &cobra.Command{
	Use:   "bigmess",
	Short: "Aggregate APT repository metadata into a package database",
	Long: `bigmess maintains the metadata behind a Debian-style package portal.
It caches the indexes of the configured releases, merges them into a
package database and generates APT configuration for the mirrors.`,
	Example: `  bigmess cachefiles -j 8
  bigmess updatedb --fetch
  bigmess querycfg "release files"
  bigmess mkaptcfgs -d /srv/www/lists`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if options.debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}

		var err error
		cfg, err = config.Load(options.configs...)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&options.debug, "debug", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringArrayVar(&options.configs, "config", nil,
		"Additional configuration file, read after the default locations (repeatable)")

	rootCmd.AddCommand(cacheFilesCmd)
	rootCmd.AddCommand(updateDBCmd)
	rootCmd.AddCommand(queryCfgCmd)
	rootCmd.AddCommand(mkAptCfgsCmd)
}

func defaultFileCache() string {
	return filepath.Join(cfg.CacheDir(), "files")
}

func defaultPkgDB() string {
	return filepath.Join(cfg.CacheDir(), "pkgdb.gz")
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: false,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal().Msgf("%v", err)
	}
}
