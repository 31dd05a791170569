package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "生成履歴を表示・削除します",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "履歴を新しい順に表示します",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				hist, closeHist, err := c.openHistory(cmd.Context())
				if err != nil {
					return err
				}
				defer closeHist()
				return printJSON(cmd.OutOrStdout(), hist.List())
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "指定した履歴を表示します",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				hist, closeHist, err := c.openHistory(cmd.Context())
				if err != nil {
					return err
				}
				defer closeHist()
				rec, found := hist.Get(args[0])
				if !found {
					return fmt.Errorf("履歴が見つかりません: %s", args[0])
				}
				return printJSON(cmd.OutOrStdout(), rec)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "履歴をすべて削除します",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				hist, closeHist, err := c.openHistory(cmd.Context())
				if err != nil {
					return err
				}
				defer closeHist()
				return hist.Clear(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "prefs",
			Short: "前回のプロンプトとスタイルを表示します",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				hist, closeHist, err := c.openHistory(cmd.Context())
				if err != nil {
					return err
				}
				defer closeHist()
				prefs, err := hist.LoadPreferences(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), prefs)
			},
		},
	)
	return cmd
}
