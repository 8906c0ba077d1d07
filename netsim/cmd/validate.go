package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JamesHertz/the-internet-simulator/topology"
)

var validateCmd = &cobra.Command{
	Use:   "validate <topology>",
	Short: "Check a topology file without running it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := topology.ParseFile(args[0])
		if err != nil {
			return err
		}

		if err := t.Validate(); err != nil {
			return err
		}

		printYAML, _ := cmd.Flags().GetBool("yaml")
		if printYAML {
			p, err := t.YAML()
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(p)

			return err
		}

		numSwitches := 0
		for _, d := range t.Devices {
			if d.Kind == topology.KindSwitch {
				numSwitches++
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"%s: %d devices (%d switches, %d hosts), %d links\n",
			args[0], len(t.Devices), numSwitches,
			len(t.Devices)-numSwitches, len(t.Links))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("yaml", false,
		"Print the topology as YAML instead of a summary.")
}
