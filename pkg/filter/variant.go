package filter

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/shouni/gemini-image-studio/pkg/domain"
)

// Preset はバリエーション生成用の固定フィルタ設定です。
type Preset struct {
	Name          string              `json:"name" yaml:"name"`
	Params        domain.FilterParams `json:"params" yaml:"params"`
	Effect        string              `json:"effect,omitempty" yaml:"effect"`
	EffectOptions EffectOptions       `json:"effect_options,omitempty" yaml:"effect_options"`
}

// Pipeline はプリセットを適用するパイプラインを組み立てます。
func (p Preset) Pipeline() (*Pipeline, error) {
	effect, err := EffectStage(p.Effect, p.EffectOptions)
	if err != nil {
		return nil, fmt.Errorf("プリセット %q: %w", p.Name, err)
	}
	return NewPipeline(StagesFor(p.Params)...).Then(effect), nil
}

// Variant は生成されたバリエーション画像です。
type Variant struct {
	Name  string
	Image *image.NRGBA
}

// DefaultPresets は標準のバリエーション一覧を返します。
func DefaultPresets() []Preset {
	base := domain.DefaultFilterParams
	with := func(f func(*domain.FilterParams)) domain.FilterParams {
		p := base()
		f(&p)
		return p
	}

	return []Preset{
		{Name: "vivid", Params: with(func(p *domain.FilterParams) { p.Saturation, p.Contrast = 150, 115 })},
		{Name: "noir", Params: with(func(p *domain.FilterParams) { p.Grayscale, p.Contrast = 100, 140 })},
		{Name: "vintage", Params: with(func(p *domain.FilterParams) { p.Sepia, p.Brightness, p.Contrast = 60, 105, 90 })},
		{Name: "cool", Params: with(func(p *domain.FilterParams) { p.HueRotate, p.Saturation = 30, 110 })},
		{Name: "warm", Params: with(func(p *domain.FilterParams) { p.HueRotate, p.Sepia, p.Brightness = -15, 20, 105 })},
		{Name: "dreamy", Params: with(func(p *domain.FilterParams) { p.Blur, p.Brightness, p.Saturation = 2, 110, 120 })},
		{Name: "pixel", Params: base(), Effect: EffectPixelate, EffectOptions: EffectOptions{Block: 10}},
		{Name: "glitch", Params: base(), Effect: EffectGlitch, EffectOptions: EffectOptions{Seed: 42}},
		{Name: "vignette", Params: base(), Effect: EffectVignette, EffectOptions: EffectOptions{Strength: 0.8}},
		{Name: "oil", Params: base(), Effect: EffectOil, EffectOptions: EffectOptions{Radius: 3, Levels: 20}},
	}
}

// GenerateVariants はプリセットごとのバリエーションを並行に生成します。
// 結果はプリセットの順序を保ち、すべての処理が完了してから返ります。
// concurrency が 0 以下の場合は GOMAXPROCS を上限とします。
func GenerateVariants(ctx context.Context, src image.Image, presets []Preset, concurrency int) ([]Variant, error) {
	pipelines := make([]*Pipeline, len(presets))
	for i, p := range presets {
		pl, err := p.Pipeline()
		if err != nil {
			return nil, err
		}
		pipelines[i] = pl
	}

	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	// 以降 base は読み取り専用として各ゴルーチンで共有する
	base := Clone(src)
	out := make([]Variant, len(presets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range presets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = Variant{Name: presets[i].Name, Image: pipelines[i].Run(base)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "バリエーション生成が完了しました", "count", len(out), "concurrency", concurrency)
	return out, nil
}
