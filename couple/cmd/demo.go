package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ArminHamedi/precice/com/direct"
	"github.com/ArminHamedi/precice/config"
	"github.com/ArminHamedi/precice/simulation"
)

var demoOpts runOptions

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run both participants in one process over an in-memory channel",
	Run: func(cmd *cobra.Command, _ []string) {
		demoOpts.fromEnv(cmd)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sims, err := runDemo(ctx, demoOpts)
		if err != nil {
			fatalf("Coupling failed: %v", err)
		}

		for _, s := range sims {
			logrus.WithField("participant", s.Name()).
				Info(s.Scheme().PrintBasicState())
		}
	},
}

func init() {
	addServiceFlags(demoCmd, &demoOpts)

	rootCmd.AddCommand(demoCmd)
}

// runDemo couples the two participants of the configuration with the
// built-in solver and returns their finished simulations.
func runDemo(
	ctx context.Context,
	opts runOptions,
) ([]*simulation.Simulation, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	svc, err := startServices(opts)
	if err != nil {
		return nil, err
	}

	if svc.monitor != nil {
		defer svc.monitor.StopServer()
	}

	firstComm, secondComm := direct.MakeBuilder().Build(cfg.SchemeName())

	first, err := buildSimulation(cfg, cfg.Participants.First, firstComm,
		opts, svc)
	if err != nil {
		return nil, err
	}

	second, err := buildSimulation(cfg, cfg.Participants.Second, secondComm,
		opts, svc)
	if err != nil {
		return nil, err
	}

	secondDone := make(chan error, 1)

	go func() {
		err := second.Run(ctx)
		if err != nil {
			secondComm.Close()
		}

		secondDone <- err
	}()

	firstErr := first.Run(ctx)
	if firstErr != nil {
		firstComm.Close()
	}

	secondErr := <-secondDone

	err = errors.Join(firstErr, secondErr, first.Terminate(),
		second.Terminate())
	if err != nil {
		return nil, err
	}

	return []*simulation.Simulation{first, second}, nil
}
