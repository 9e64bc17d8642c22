package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nicwaller/bigmess/pkg/config"
)

var queryCfgCmd = &cobra.Command{
	Use:   "querycfg [section [option]]",
	Short: "Print the merged configuration",
	Long: `Print the whole merged configuration, every option of one section as
"key = value" lines, or the value of a single option.`,
	Args: cobra.MaximumNArgs(2),
	Example: `  bigmess querycfg
  bigmess querycfg mirrors
  bigmess querycfg metadata "source extracts baseurl"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQueryCfg(cmd.OutOrStdout(), cfg, args)
	},
}

func runQueryCfg(w io.Writer, c *config.Config, query []string) error {
	switch len(query) {
	case 0:
		_, err := c.WriteTo(w)
		return err
	case 1:
		if !c.HasSection(query[0]) {
			return fmt.Errorf("no section %q", query[0])
		}
		for _, item := range c.Items(query[0]) {
			if _, err := fmt.Fprintf(w, "%s = %s\n", item.Key, item.Value); err != nil {
				return err
			}
		}
		return nil
	default:
		if !c.Has(query[0], query[1]) {
			return fmt.Errorf("no option %q in section %q", query[1], query[0])
		}
		_, err := fmt.Fprintln(w, c.Get(query[0], query[1], ""))
		return err
	}
}
