// Package cmd provides the command-line interface of netsim.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/JamesHertz/the-internet-simulator/sim"
)

// envPrefix is prepended to flag names to find their environment variables,
// e.g. --log-level is read from NETSIM_LOG_LEVEL.
const envPrefix = "NETSIM_"

var logger = slog.New(slog.DiscardHandler)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "netsim",
	Short: "netsim simulates Ethernet networks of hosts and learning switches.",
	Long: `netsim simulates Ethernet networks of hosts and learning switches. ` +
		`Networks are described in DOT or YAML topology files. Flags can ` +
		`also be set in the environment or in a .env file, using the ` +
		`NETSIM_ prefix, e.g. NETSIM_LOG_LEVEL=debug.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadEnv(cmd); err != nil {
			return err
		}

		if err := setupLogger(cmd); err != nil {
			return err
		}

		setupIDGenerator(cmd)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info",
		"Minimum level of the log records: debug, info, warn, or error.")
	rootCmd.PersistentFlags().String("env-file", ".env",
		"File to read environment variables from, if it exists.")
	rootCmd.PersistentFlags().Bool("parallel-ids", false,
		"Use globally unique ids for frames and records instead of "+
			"sequential ones.")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func loadEnv(cmd *cobra.Command) error {
	envFile, _ := cmd.Flags().GetString("env-file")

	err := godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", envFile, err)
	}

	var errs *multierror.Error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}

		v, ok := os.LookupEnv(envName(f.Name))
		if !ok {
			return
		}

		if err := cmd.Flags().Set(f.Name, v); err != nil {
			errs = multierror.Append(errs,
				fmt.Errorf("%s: %w", envName(f.Name), err))
		}
	})

	return errs.ErrorOrNil()
}

func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

func setupLogger(cmd *cobra.Command) error {
	levelStr, _ := cmd.Flags().GetString("log-level")

	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		return fmt.Errorf("invalid log level %q", levelStr)
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	return nil
}

func setupIDGenerator(cmd *cobra.Command) {
	parallel, _ := cmd.Flags().GetBool("parallel-ids")
	if parallel {
		sim.UseParallelIDGenerator()
	}
}
