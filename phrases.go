package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go-perform/phrase"
)

func init() {
	rootCmd.AddCommand(phrasesCmd)
}

var phrasesCmd = &cobra.Command{
	Use:   "phrases <file> [name]",
	Short: "Validate and list a phrase library",
	Long:  "Validate a phrase library and list its phrases, or the steps of one phrase when a name is given.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := phrase.LoadLibrary(args[0])
		if err != nil {
			return err
		}
		if len(args) == 1 {
			return printPhrases(cmd.OutOrStdout(), lib)
		}
		index := lib.Index(args[1])
		if index < 0 {
			return fmt.Errorf("no phrase named %q in %s", args[1], args[0])
		}
		def, _ := lib.Phrase(index)
		return printSteps(cmd.OutOrStdout(), index, def)
	},
}

var phraseKeys = []string{"!", "@", "#", "$", "%", "^", "&", "*"}

func phraseKey(index int) string {
	if index < 0 || index >= len(phraseKeys) {
		return "-"
	}
	return fmt.Sprintf("shift+%d (%s)", index+1, phraseKeys[index])
}

func printPhrases(w io.Writer, lib *phrase.Library) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tSTEPS\tROWS\tKEY")
	for i, def := range lib.Phrases {
		rows := 0
		if n := len(def.Steps); n > 0 {
			rows = def.Steps[n-1].Offset + 1
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", i+1, def.Name, len(def.Steps), rows, phraseKey(i))
	}
	return tw.Flush()
}

func printSteps(w io.Writer, index int, def phrase.Definition) error {
	fmt.Fprintf(w, "%d %s [%s]\n", index+1, def.Name, phraseKey(index))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OFFSET\tACTION\tPARAM\tVALUE")
	for _, st := range def.Steps {
		param := "-"
		if key := st.Action.ParamKey(); key != "" {
			param = fmt.Sprintf("%s:%d", key, st.Param)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", st.Offset, st.Action, param, st.Value)
	}
	return tw.Flush()
}
