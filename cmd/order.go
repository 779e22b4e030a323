package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TFMV/cognilink/models"
)

var orderInput string

var orderCmd = &cobra.Command{
	Use:   "order <graph-file>",
	Short: "Print topics in an order that respects every prerequisite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := readRecord(args[0], orderInput)
		if err != nil {
			return err
		}
		return printStudyOrder(cmd.OutOrStdout(), rec)
	},
}

// printStudyOrder writes a numbered study plan, each topic followed by
// its prerequisites
func printStudyOrder(w io.Writer, rec *models.GraphRecord) error {
	g, err := models.BuildRecord(rec)
	if err != nil {
		return err
	}
	order, err := g.StudyOrder()
	if errors.Is(err, models.ErrCycle) {
		fmt.Fprintln(w, statusIcon(false), Bad.Sprint("no study order exists"))
		return err
	}
	if err != nil {
		return err
	}

	for i, id := range order {
		fmt.Fprintf(w, "%3d. %s", i+1, Brand.Sprint(rec.Label(id)))
		if pre := g.Prerequisites(id); len(pre) > 0 {
			names := make([]string, len(pre))
			for j, p := range pre {
				names[j] = rec.Label(p)
			}
			fmt.Fprint(w, Subtle.Sprintf("  (after %s)", strings.Join(names, ", ")))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(orderCmd)
	orderCmd.Flags().StringVar(&orderInput, "input-format", "", "input format: json, csv or edges (default: from extension)")
}
