package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go-perform/config"
)

func init() {
	rootCmd.AddCommand(inputsCmd)
	inputsCmd.AddCommand(inputsListCmd)
	inputsCmd.AddCommand(inputsSetCmd)
	inputsCmd.AddCommand(inputsRmCmd)
	inputsSetCmd.Flags().Bool("off", false, "keep the port but stop auto-connecting it")
}

var inputsCmd = &cobra.Command{
	Use:   "inputs",
	Short: "Manage the MIDI inputs play connects to",
}

var inputsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured MIDI inputs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return printInputs(cmd.OutOrStdout(), cfg.Inputs)
	},
}

var inputsSetCmd = &cobra.Command{
	Use:   "set <port>",
	Short: "Add a MIDI input or change its auto-connect flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		off, _ := cmd.Flags().GetBool("off")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if in := cfg.FindInput(args[0]); in != nil {
			in.AutoConnect = !off
		} else {
			cfg.AddInput(config.InputConfig{PortName: args[0], AutoConnect: !off})
		}
		return saveConfig(cfg)
	},
}

var inputsRmCmd = &cobra.Command{
	Use:   "rm <port>",
	Short: "Forget a MIDI input",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.FindInput(args[0]) == nil {
			return fmt.Errorf("input %q is not configured", args[0])
		}
		cfg.RemoveInput(args[0])
		return saveConfig(cfg)
	},
}

func printInputs(w io.Writer, inputs []config.InputConfig) error {
	if len(inputs) == 0 {
		fmt.Fprintln(w, "no inputs configured")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PORT\tAUTO-CONNECT")
	for _, in := range inputs {
		auto := "no"
		if in.AutoConnect {
			auto = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\n", in.PortName, auto)
	}
	return tw.Flush()
}
