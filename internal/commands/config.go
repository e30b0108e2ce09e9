package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kbukum/iotmarket/bootstrap"
	"github.com/kbukum/iotmarket/logger"
)

func newConfigCommand(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show where host, port and restApiRoot resolve from",
		Long: `Runs the settings steps of the boot sequence without attaching any
datasource and prints each resolved value with the source that supplied it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			settings, err := bootstrap.ResolveSettings(cfg, bootstrap.WithLogger(logger.Nop()))
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(settings)
			}
			return printSettings(cmd.OutOrStdout(), cfg.Name, settings)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print settings as JSON")
	return cmd
}

func printSettings(w io.Writer, name string, settings []bootstrap.Setting) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
	for _, s := range settings {
		fmt.Fprintf(tw, "%s\t%v\t%s\n", s.Key, s.Value, s.Source)
	}
	if name != "" {
		fmt.Fprintf(tw, "dbmemory\t%s\tname\n", bootstrap.MemoryDataSource(name))
		fmt.Fprintf(tw, "dbmongo\t%s\tname\n", bootstrap.MongoDataSource(name))
	}
	return tw.Flush()
}
