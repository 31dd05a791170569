package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/filter"
	"github.com/shouni/gemini-image-studio/pkg/imgutil"
)

func (c *cli) filterCmd() *cobra.Command {
	var (
		params  = domain.DefaultFilterParams()
		effect  string
		opts    filter.EffectOptions
		out     string
		quality int
	)
	cmd := &cobra.Command{
		Use:   "filter <image>",
		Short: "画像にフィルタとエフェクトを適用します",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := filter.EffectStage(effect, opts)
			if err != nil {
				return err
			}
			src, err := c.decodeSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result := filter.NewPipeline(filter.StagesFor(params)...).Then(stage).Run(src.img)
			return writeImage(out, result, quality)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&params.Brightness, "brightness", params.Brightness, "明るさ (%, 0-200)")
	f.Float64Var(&params.Contrast, "contrast", params.Contrast, "コントラスト (%, 0-200)")
	f.Float64Var(&params.Saturation, "saturation", params.Saturation, "彩度 (%, 0-200)")
	f.Float64Var(&params.HueRotate, "hue-rotate", params.HueRotate, "色相回転 (度, -180-180)")
	f.Float64Var(&params.Sepia, "sepia", params.Sepia, "セピア (%, 0-100)")
	f.Float64Var(&params.Grayscale, "grayscale", params.Grayscale, "グレースケール (%, 0-100)")
	f.Float64Var(&params.Invert, "invert", params.Invert, "階調反転 (%, 0-100)")
	f.Float64Var(&params.Blur, "blur", params.Blur, "ぼかし (px, 0-20)")
	f.StringVar(&effect, "effect", "", "エフェクト (pixelate, glitch, vignette, oil)")
	f.IntVar(&opts.Block, "block", 0, "pixelate のブロックサイズ")
	f.Float64Var(&opts.Strength, "strength", 0, "vignette の強さ")
	f.IntVar(&opts.Radius, "radius", 0, "oil の半径")
	f.IntVar(&opts.Levels, "levels", 0, "oil の階調数")
	f.Uint64Var(&opts.Seed, "seed", 0, "glitch の乱数シード")
	f.StringVarP(&out, "out", "o", "filtered.png", "出力先 (拡張子で形式を判定)")
	f.IntVar(&quality, "quality", imgutil.DefaultJPEGQuality, "JPEG の品質")
	return cmd
}

func (c *cli) variantsCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "variants <image>",
		Short: "プリセットごとのバリエーションを一括生成します",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := c.decodeSource(ctx, args[0])
			if err != nil {
				return err
			}
			variants, err := filter.GenerateVariants(ctx, src.img, c.presets(), c.cfg.Filter.Concurrency)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("出力ディレクトリを作成できませんでした: %w", err)
			}
			for _, v := range variants {
				path := filepath.Join(outDir, v.Name+".png")
				if err := writeImage(path, v.Image, 0); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "variants", "出力ディレクトリ")
	return cmd
}

func (c *cli) cropCmd() *cobra.Command {
	var (
		aspect        string
		x, y, w, h    int
		width, height int
		out           string
	)
	cmd := &cobra.Command{
		Use:   "crop <image>",
		Short: "画像を切り抜き・リサイズします",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := c.decodeSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var img image.Image = src.img
			switch {
			case aspect != "":
				if img, err = filter.CropToAspect(img, aspect); err != nil {
					return err
				}
			case w > 0 && h > 0:
				if img, err = filter.Crop(img, image.Rect(x, y, x+w, y+h)); err != nil {
					return err
				}
			}
			if width > 0 || height > 0 {
				if img, err = resizeKeepingAspect(img, width, height); err != nil {
					return err
				}
			}
			return writeImage(out, img, imgutil.DefaultJPEGQuality)
		},
	}

	f := cmd.Flags()
	f.StringVar(&aspect, "aspect", "", "中央を基準に切り抜くアスペクト比 (例: 16:9)")
	f.IntVar(&x, "x", 0, "切り抜きの左端")
	f.IntVar(&y, "y", 0, "切り抜きの上端")
	f.IntVar(&w, "w", 0, "切り抜きの幅")
	f.IntVar(&h, "h", 0, "切り抜きの高さ")
	f.IntVar(&width, "width", 0, "リサイズ後の幅 (0 で高さから算出)")
	f.IntVar(&height, "height", 0, "リサイズ後の高さ (0 で幅から算出)")
	f.StringVarP(&out, "out", "o", "cropped.png", "出力先")
	return cmd
}

// resizeKeepingAspect は片方が 0 の場合に縦横比を保って拡大縮小します。
func resizeKeepingAspect(img image.Image, width, height int) (image.Image, error) {
	b := img.Bounds()
	switch {
	case width <= 0:
		width = max(1, b.Dx()*height/b.Dy())
	case height <= 0:
		height = max(1, b.Dy()*width/b.Dx())
	}
	return filter.Resize(img, width, height)
}
