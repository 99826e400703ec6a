package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go-perform/session"
)

func init() {
	rootCmd.AddCommand(perfsCmd)
	perfsCmd.AddCommand(perfsListCmd)
	perfsCmd.AddCommand(perfsRmCmd)
}

var perfsCmd = &cobra.Command{
	Use:   "perfs",
	Short: "Manage saved performances",
}

var perfsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved performances, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := session.PerformancesDir()
		if err != nil {
			return err
		}
		perfs, err := session.ListPerformances(dir)
		if err != nil {
			return fmt.Errorf("failed to list performances: %w", err)
		}
		return printPerfs(cmd.OutOrStdout(), perfs)
	},
}

var perfsRmCmd = &cobra.Command{
	Use:   "rm <name>...",
	Short: "Delete saved performances",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := session.PerformancesDir()
		if err != nil {
			return err
		}
		for _, name := range args {
			if err := session.DeletePerformance(dir, name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
		}
		return nil
	},
}

func printPerfs(w io.Writer, perfs []session.PerformanceInfo) error {
	if len(perfs) == 0 {
		fmt.Fprintln(w, "no saved performances")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMODULE\tTEMPO\tEVENTS\tSAVED")
	for _, p := range perfs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", p.Name, p.Module, p.Tempo, p.Events, p.Saved.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
