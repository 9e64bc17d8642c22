package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nicwaller/bigmess/pkg/apt/sources"
	"github.com/nicwaller/bigmess/pkg/config"
)

var mkAptCfgsOptions struct {
	destDir string
}

var mkAptCfgsCmd = &cobra.Command{
	Use:   "mkaptcfgs",
	Short: "Generate APT sources lists for all configured mirrors",
	Long: `Write one sources.list snippet per release, mirror and flavour. The "full"
flavour enables main, contrib and non-free, the "libre" flavour only main.`,
	Args:    cobra.NoArgs,
	Example: `  bigmess mkaptcfgs -d /srv/www/lists`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMkAptCfgs(cfg, mkAptCfgsOptions.destDir)
	},
}

func init() {
	mkAptCfgsCmd.Flags().StringVarP(&mkAptCfgsOptions.destDir, "dest-dir", "d", ".",
		"Target directory for the generated lists")
}

func runMkAptCfgs(c *config.Config, destDir string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return err
	}

	for _, snippet := range sources.Snippets(c.Options("release names"), c.Archive().Mirrors) {
		path, err := snippet.WriteFile(destDir)
		if err != nil {
			return err
		}
		log.Debug().Str("path", path).Msg("Wrote APT sources list")
	}
	return nil
}
