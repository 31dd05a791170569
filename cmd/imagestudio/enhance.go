package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (c *cli) enhanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enhance <prompt>",
		Short: "Gemini でプロンプトを詳細化します",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enh, err := c.newEnhancer(cmd.Context())
			if err != nil {
				return err
			}
			prompt, err := enh.EnhancePrompt(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), prompt)
			return err
		},
	}
}

func (c *cli) captionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "caption <image>",
		Short: "画像の説明文を生成します (パス・URL・データURI)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := c.loadImage(ctx, args[0])
			if err != nil {
				return err
			}
			enh, err := c.newEnhancer(ctx)
			if err != nil {
				return err
			}
			caption, err := enh.Caption(ctx, data)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), caption)
			return err
		},
	}
}
