package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go-perform/timeline"
)

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().Bool("normalize", false, "rewrite the fragment sorted and canonical to stdout")
	eventsCmd.Flags().StringP("output", "o", "", "write the normalized fragment to a file")
}

var eventsCmd = &cobra.Command{
	Use:   "events <file>",
	Short: "Show the events of a saved performance",
	Long:  "Decode the [Events] fragment of a performance file and list it row by row.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		normalize, _ := cmd.Flags().GetBool("normalize")
		output, _ := cmd.Flags().GetString("output")

		tl := timeline.New(timeline.DefaultCapacity)
		skipped, err := tl.LoadFile(args[0])
		if err != nil {
			return err
		}
		if output != "" {
			if err := tl.SaveFile(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d events to %s\n", tl.Len(), output)
			return nil
		}
		if normalize {
			return tl.Encode(cmd.OutOrStdout())
		}
		if err := printEvents(cmd.OutOrStdout(), tl.Events()); err != nil {
			return err
		}
		if skipped > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d malformed lines skipped\n", skipped)
		}
		return nil
	},
}

func printEvents(w io.Writer, events []timeline.Event) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tROW\tACTION\tPARAM\tVALUE")
	for _, e := range events {
		param := "-"
		if key := e.Action.ParamKey(); key != "" {
			param = fmt.Sprintf("%s:%d", key, e.Param)
		}
		fmt.Fprintf(tw, "%02d\t%02d\t%s\t%s\t%d\n",
			e.Row/timeline.RowsPerOrder, e.Row%timeline.RowsPerOrder, e.Action, param, e.Value)
	}
	fmt.Fprintf(tw, "\n%d events\n", len(events))
	return tw.Flush()
}
