package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ArminHamedi/precice/datarecording"
)

var progressRun string

var progressCmd = &cobra.Command{
	Use:   "progress <recording.sqlite3>",
	Short: "Print the timesteps recorded with --record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := printProgress(context.Background(), cmd.OutOrStdout(),
			args[0], progressRun)
		if err != nil {
			fatalf("%v", err)
		}
	},
}

func init() {
	progressCmd.Flags().StringVar(&progressRun, "run", "",
		"Only print the timesteps of this run")

	rootCmd.AddCommand(progressCmd)
}

func printProgress(ctx context.Context, w io.Writer, path, run string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no recording at %s: %w", path, err)
	}

	r, err := datarecording.NewProgressReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	entries, err := datarecording.ReadTimesteps(ctx, r, run)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSCHEME\tPARTICIPANT\tTIMESTEP\tTIME\tITERATIONS")

	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%g\t%d\n",
			e.RunID, e.Scheme, e.Participant, e.Timestep, e.Time,
			e.TotalIterations)
	}

	return tw.Flush()
}
