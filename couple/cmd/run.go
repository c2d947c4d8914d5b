package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ArminHamedi/precice/com"
	"github.com/ArminHamedi/precice/com/stream"
	"github.com/ArminHamedi/precice/config"
	"github.com/ArminHamedi/precice/cplscheme"
	"github.com/ArminHamedi/precice/datarecording"
	"github.com/ArminHamedi/precice/mesh"
	"github.com/ArminHamedi/precice/monitoring"
	"github.com/ArminHamedi/precice/simulation"
)

type runOptions struct {
	configPath   string
	participant  string
	listen       string
	connect      string
	monitorPort  int
	openMonitor  bool
	checkpointDB string
	recording    string
	restart      string
	dt           float64
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one participant and connect it to its peer over TCP",
	Run: func(cmd *cobra.Command, _ []string) {
		runOpts.fromEnv(cmd)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := runParticipant(ctx, runOpts); err != nil {
			fatalf("Coupling failed: %v", err)
		}
	},
}

func init() {
	addServiceFlags(runCmd, &runOpts)

	runCmd.Flags().StringVar(&runOpts.participant, "participant", "",
		"Name of the local participant")
	runCmd.Flags().StringVar(&runOpts.listen, "listen", "",
		"Address to wait for the peer on, for example :7000")
	runCmd.Flags().StringVar(&runOpts.connect, "connect", "",
		"Address of the waiting peer, for example localhost:7000")

	rootCmd.AddCommand(runCmd)
}

func addServiceFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVar(&opts.configPath, "config", "coupling.yaml",
		"Coupling configuration file")
	cmd.Flags().IntVar(&opts.monitorPort, "monitor-port", -1,
		"Port of the monitoring server, 0 picks a free port, -1 disables it")
	cmd.Flags().BoolVar(&opts.openMonitor, "open-monitor", false,
		"Open the monitor in a browser")
	cmd.Flags().StringVar(&opts.checkpointDB, "checkpoint-db", "",
		"SQLite file that receives simulation checkpoints")
	cmd.Flags().StringVar(&opts.recording, "record", "",
		"Record the progress into <record>_<participant>.sqlite3")
	cmd.Flags().StringVar(&opts.restart, "restart", "",
		"Resume the run <run-id>:<timestep> stored in the checkpoint database")
	cmd.Flags().Float64Var(&opts.dt, "dt", 0.1,
		"Solver step length, used if the configuration sets no timestep length")
}

func (o *runOptions) fromEnv(cmd *cobra.Command) {
	stringFromEnv(cmd, "checkpoint-db", envCheckpointDB, &o.checkpointDB)
	intFromEnv(cmd, "monitor-port", envMonitorPort, &o.monitorPort)
}

type services struct {
	monitor *monitoring.Monitor
	store   *datarecording.CheckpointStore
}

func startServices(opts runOptions) (services, error) {
	var svc services

	if opts.monitorPort >= 0 {
		svc.monitor = monitoring.NewMonitor().WithPortNumber(opts.monitorPort)

		url, err := svc.monitor.StartServer()
		if err != nil {
			return svc, err
		}

		if opts.openMonitor {
			if err := browser.OpenURL(url); err != nil {
				logrus.Warnf("Cannot open the monitor in a browser: %v", err)
			}
		}
	}

	if opts.checkpointDB != "" {
		store, err := datarecording.OpenCheckpointStore(opts.checkpointDB)
		if err != nil {
			return svc, err
		}

		svc.store = store
		logrus.Infof("Writing checkpoints of run %s to %s",
			store.RunID(), opts.checkpointDB)
	}

	return svc, nil
}

// buildSimulation creates the scheme, the solver, and the driver of the
// local participant.
func buildSimulation(
	cfg *config.Config,
	local string,
	comm com.Communication,
	opts runOptions,
	svc services,
) (*simulation.Simulation, error) {
	data, err := cfg.Meshes()
	if err != nil {
		return nil, err
	}

	scheme, err := cfg.BuildScheme(local, comm, data, logrus.StandardLogger())
	if err != nil {
		return nil, err
	}

	logConfiguration(scheme, data)

	b := simulation.MakeBuilder().
		WithScheme(scheme).
		WithSolver(newRelaxationSolver(cfg, local, data, opts.dt)).
		WithLogger(logrus.StandardLogger())

	if svc.monitor != nil {
		b = b.WithMonitor(svc.monitor)
	}

	if svc.store != nil {
		b = b.WithCheckpointStore(svc.store)
	}

	if opts.restart != "" {
		if svc.store == nil {
			return nil, errors.New("--restart needs --checkpoint-db")
		}

		runID, timestep, err := parseRestart(opts.restart)
		if err != nil {
			return nil, err
		}

		logrus.WithFields(logrus.Fields{
			"participant": local,
			"run":         runID,
			"timestep":    timestep,
		}).Info("Resuming from a checkpoint")

		b = b.WithRestart(svc.store, runID, timestep)
	}

	if opts.recording != "" {
		recorder, err := datarecording.Open(opts.recording + "_" + local)
		if err != nil {
			return nil, err
		}

		b = b.WithDataRecorder(recorder)
	}

	return b.Build(local), nil
}

// parseRestart splits a restart point of the form <run-id>:<timestep>.
func parseRestart(s string) (string, int, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 {
		return "", 0, fmt.Errorf("restart point %q is not <run-id>:<timestep>",
			s)
	}

	timestep, err := strconv.Atoi(s[i+1:])
	if err != nil || timestep < 0 {
		return "", 0, fmt.Errorf("restart point %q has no valid timestep", s)
	}

	return s[:i], timestep, nil
}

func logConfiguration(scheme cplscheme.CouplingScheme, data *mesh.Set) {
	names := make([]string, 0, len(data.All()))
	for _, d := range data.All() {
		names = append(names, d.Name())
	}

	logrus.WithFields(logrus.Fields{
		"participant": scheme.LocalParticipant(),
		"partners":    scheme.CouplingPartners(),
		"data":        names,
	}).Info(scheme.PrintBasicState())
}

func connect(ctx context.Context, opts runOptions) (com.Communication, error) {
	switch {
	case opts.listen != "" && opts.connect != "":
		return nil, errors.New("use either --listen or --connect, not both")
	case opts.listen != "":
		logrus.Infof("Waiting for the peer on %s", opts.listen)
		return stream.Accept(ctx, opts.listen)
	case opts.connect != "":
		logrus.Infof("Connecting to the peer at %s", opts.connect)
		return stream.Dial(ctx, opts.connect)
	default:
		return nil, errors.New("one of --listen and --connect is required")
	}
}

func runParticipant(ctx context.Context, opts runOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	if !cfg.HasParticipant(opts.participant) {
		return fmt.Errorf("participant %q is not part of the coupling of "+
			"%s and %s", opts.participant, cfg.Participants.First,
			cfg.Participants.Second)
	}

	svc, err := startServices(opts)
	if err != nil {
		return err
	}

	comm, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer comm.Close()

	sim, err := buildSimulation(cfg, opts.participant, comm, opts, svc)
	if err != nil {
		return err
	}

	runErr := sim.Run(ctx)

	return errors.Join(runErr, sim.Terminate())
}
