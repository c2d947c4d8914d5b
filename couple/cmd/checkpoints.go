package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ArminHamedi/precice/datarecording"
)

var (
	checkpointsDB  string
	checkpointsRun string
)

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints",
	Short: "List the simulation checkpoints stored in a database",
	Run: func(cmd *cobra.Command, _ []string) {
		stringFromEnv(cmd, "db", envCheckpointDB, &checkpointsDB)

		err := listCheckpoints(context.Background(), cmd.OutOrStdout(),
			checkpointsDB, checkpointsRun)
		if err != nil {
			fatalf("%v", err)
		}
	},
}

func init() {
	checkpointsCmd.Flags().StringVar(&checkpointsDB, "db", "",
		"SQLite file with checkpoints")
	checkpointsCmd.Flags().StringVar(&checkpointsRun, "run", "",
		"Only list the checkpoints of this run")

	rootCmd.AddCommand(checkpointsCmd)
}

func listCheckpoints(ctx context.Context, w io.Writer, db, run string) error {
	if db == "" {
		return fmt.Errorf("no checkpoint database given, use --db or %s",
			envCheckpointDB)
	}

	if _, err := os.Stat(db); err != nil {
		return fmt.Errorf("no checkpoint database at %s: %w", db, err)
	}

	store, err := datarecording.OpenCheckpointStore(db)
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(ctx, run)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tPARTICIPANT\tTIMESTEP\tTIME\tBYTES\tCREATED")

	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%g\t%d\t%s\n",
			c.RunID, c.Participant, c.Timestep, c.Time, c.Size,
			c.CreatedAt.Format(time.RFC3339))
	}

	return tw.Flush()
}
