package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TFMV/cognilink/models"
	"github.com/TFMV/cognilink/qa"
)

var (
	askGraph string
	askFocus string
)

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask the study assistant, optionally about a graph",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := qa.Question{Text: strings.Join(args, " ")}
		if askGraph != "" {
			rec, err := readRecord(askGraph, "")
			if err != nil {
				return err
			}
			q.Graph = rec
			if askFocus != "" {
				id, err := topicID(rec, askFocus)
				if err != nil {
					return err
				}
				q.Focus = models.Selected(id)
			}
		}

		ctx := cmd.Context()
		if cfg.QA.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.QA.Timeout)
			defer cancel()
		}
		provider := newProvider(cfg, logger)
		answer, err := provider.Answer(ctx, q)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), Subtle.Sprint(provider.Name()))
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askGraph, "graph", "g", "", "graph file giving context")
	askCmd.Flags().StringVar(&askFocus, "focus", "", "topic label the question is about")
}
