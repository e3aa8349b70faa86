package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/timeblocks/internal/export"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var format, from, to, out string
	cmd := &cobra.Command{
		Use:   "export --format csv|json [--from YYYY-MM-DD] [--to YYYY-MM-DD] [--out path]",
		Short: "Export days with their blocks and laps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q: want csv or json", format)
			}
			return withApp(opts, func(a *app) error {
				if to == "" {
					to = a.tracker.Today()
				}
				if from == "" {
					from = to
				}
				for _, d := range []string{from, to} {
					if _, err := a.tracker.ParseDate(d); err != nil {
						return fmt.Errorf("invalid date %q: want YYYY-MM-DD", d)
					}
				}

				logs, err := a.tracker.Logs(from, to)
				if err != nil {
					return err
				}
				snap := export.Snapshot{Days: logs, AsOf: a.tracker.Now(), Location: a.tracker.Location()}

				switch {
				case out == "" && format == "csv":
					return export.WriteCSV(snap, cmd.OutOrStdout())
				case out == "":
					return export.WriteJSON(snap, cmd.OutOrStdout())
				case format == "csv":
					err = export.ToCSV(snap, out)
				default:
					err = export.ToJSON(snap, out)
				}
				if err != nil {
					return err
				}
				a.log.Info("exported", "format", format, "from", from, "to", to, "days", len(logs), "path", out)
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d days to %s\n", len(logs), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "csv or json")
	cmd.Flags().StringVar(&from, "from", "", "first day (default --to)")
	cmd.Flags().StringVar(&to, "to", "", "last day (default today)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
