// Package cmd provides the command-line interface of couple.
package cmd

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// Environment variables that provide defaults for flags.
const (
	envLogLevel     = "COUPLE_LOG_LEVEL"
	envMonitorPort  = "COUPLE_MONITOR_PORT"
	envCheckpointDB = "COUPLE_CHECKPOINT_DB"
)

var logLevel string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "couple",
	Short: "couple runs the participants of a partitioned multi-physics simulation.",
	Long: `couple runs the participants of a partitioned multi-physics ` +
		`simulation. Each participant advances its solver under the control ` +
		`of a coupling scheme and exchanges data with its peer. Settings can ` +
		`also be given in a .env file.`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		loadEnv()

		if !cmd.Flags().Changed("log-level") {
			if v, ok := os.LookupEnv(envLogLevel); ok {
				logLevel = v
			}
		}

		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			fatalf("Invalid log level: %s", logLevel)
		}

		logrus.SetLevel(level)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level (trace, debug, info, warn, error, fatal, panic)")
}

func loadEnv() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.Warnf("Cannot read .env file: %v", err)
	}
}

// stringFromEnv overrides a flag that was not set on the command line.
func stringFromEnv(cmd *cobra.Command, flag, env string, value *string) {
	if cmd.Flags().Changed(flag) {
		return
	}

	if v, ok := os.LookupEnv(env); ok {
		*value = v
	}
}

func intFromEnv(cmd *cobra.Command, flag, env string, value *int) {
	if cmd.Flags().Changed(flag) {
		return
	}

	v, ok := os.LookupEnv(env)
	if !ok {
		return
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		fatalf("%s must be an integer, got %q", env, v)
	}

	*value = n
}

// fatalf logs the error and exits after running the registered exit handlers,
// so that recorders and checkpoint stores are flushed.
func fatalf(format string, args ...any) {
	logrus.Errorf(format, args...)
	atexit.Exit(1)
}
