package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/imgutil"
)

func (c *cli) generateCmd() *cobra.Command {
	var (
		req         domain.ImageGenerationRequest
		seed        int64
		out         string
		jpegQuality int
	)
	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "プロンプトから画像を生成します",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			req.Prompt = strings.Join(args, " ")
			if cmd.Flags().Changed("seed") {
				req.Seed = &seed
			}

			gen, err := c.newGenerator(c.httpClient())
			if err != nil {
				return err
			}
			res, err := gen.Generate(ctx, req)
			if err != nil {
				return err
			}

			hist, closeHist, err := c.openHistory(ctx)
			if err != nil {
				return err
			}
			defer closeHist()
			if err := hist.Add(ctx, res.Record); err != nil {
				slog.WarnContext(ctx, "履歴の保存に失敗しました", "error", err)
			}
			if err := hist.SavePrompt(ctx, req.Prompt); err != nil {
				slog.WarnContext(ctx, "プロンプトの保存に失敗しました", "error", err)
			}
			if err := hist.SaveStyle(ctx, req.Style); err != nil {
				slog.WarnContext(ctx, "スタイルの保存に失敗しました", "error", err)
			}

			if out != "" {
				if res.Image == nil {
					return fmt.Errorf("画像データを取得できなかったため保存できません: %s", res.Record.ImageURL)
				}
				data := res.Image.Data
				if imgutil.NormalizeFormat(filepath.Ext(out)) == imgutil.FormatJPEG {
					if data, err = imgutil.CompressToJPEG(data, jpegQuality); err != nil {
						return err
					}
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("画像を保存できませんでした %s: %w", out, err)
				}
			}
			return printJSON(cmd.OutOrStdout(), res.Record)
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Style, "style", "", "画風 ("+styleNames()+")")
	f.StringVar(&req.NegativePrompt, "negative", "", "ネガティブプロンプト")
	f.IntVar(&req.Width, "width", 0, "幅 (px)")
	f.IntVar(&req.Height, "height", 0, "高さ (px)")
	f.Int64Var(&seed, "seed", 0, "シード値 (省略時はランダム)")
	f.Float64Var(&req.Guidance, "guidance", 0, "ガイダンススケール")
	f.IntVar(&req.Steps, "steps", 0, "ステップ数")
	f.StringVar(&req.Sampler, "sampler", "", "サンプラー")
	f.StringVar(&req.Model, "model", "", "モデル名")
	f.StringVarP(&out, "out", "o", "", "画像の保存先")
	f.IntVar(&jpegQuality, "jpeg-quality", imgutil.DefaultJPEGQuality, "JPEG で保存する場合の品質")
	return cmd
}

func styleNames() string {
	names := make([]string, 0, len(domain.Styles()))
	for _, s := range domain.Styles() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
