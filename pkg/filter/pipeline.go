package filter

import (
	"errors"
	"fmt"
	"image"
	"math/rand/v2"

	"github.com/shouni/gemini-image-studio/pkg/domain"
)

// Stage はパイプラインの1段です。入力を変更せず新しい画像を返す必要があります。
type Stage func(image.Image) *image.NRGBA

// Pipeline は Stage を登録順に適用します。後段は前段の出力を読みます。
type Pipeline struct {
	stages []Stage
}

// NewPipeline は指定した Stage からなるパイプラインを生成します。nil の Stage は無視されます。
func NewPipeline(stages ...Stage) *Pipeline {
	p := &Pipeline{}
	for _, s := range stages {
		p.Then(s)
	}
	return p
}

// Then は末尾に Stage を追加します。
func (p *Pipeline) Then(s Stage) *Pipeline {
	if s != nil {
		p.stages = append(p.stages, s)
	}
	return p
}

// Len は登録済みの Stage 数を返します。
func (p *Pipeline) Len() int { return len(p.stages) }

// Run はすべての Stage を適用した結果を返します。Stage が空の場合はコピーを返します。
func (p *Pipeline) Run(src image.Image) *image.NRGBA {
	out := Clone(src)
	for _, s := range p.stages {
		out = s(out)
	}
	return out
}

// StagesFor は FilterParams を Clamp した上で、恒等となる段を除いた Stage 列を返します。
// 適用順は brightness, contrast, saturation, hue, sepia, grayscale, invert, blur です。
func StagesFor(params domain.FilterParams) []Stage {
	p := params.Clamp()
	var stages []Stage
	if p.Brightness != 100 {
		stages = append(stages, func(img image.Image) *image.NRGBA { return Brightness(img, p.Brightness) })
	}
	if p.Contrast != 100 {
		stages = append(stages, func(img image.Image) *image.NRGBA { return Contrast(img, p.Contrast) })
	}
	if p.Saturation != 100 {
		stages = append(stages, func(img image.Image) *image.NRGBA { return Saturation(img, p.Saturation) })
	}
	if p.HueRotate != 0 {
		stages = append(stages, func(img image.Image) *image.NRGBA { return HueRotate(img, p.HueRotate) })
	}
	if p.Sepia != 0 {
		stages = append(stages, func(img image.Image) *image.NRGBA { return Sepia(img, p.Sepia) })
	}
	if p.Grayscale != 0 {
		stages = append(stages, func(img image.Image) *image.NRGBA { return Grayscale(img, p.Grayscale) })
	}
	if p.Invert != 0 {
		stages = append(stages, func(img image.Image) *image.NRGBA { return Invert(img, p.Invert) })
	}
	if p.Blur != 0 {
		stages = append(stages, func(img image.Image) *image.NRGBA { return Blur(img, p.Blur) })
	}
	return stages
}

// Apply は FilterParams に従ってフィルタを適用した新しい画像を返します。
func Apply(src image.Image, params domain.FilterParams) *image.NRGBA {
	return NewPipeline(StagesFor(params)...).Run(src)
}

// エフェクト名
const (
	EffectNone     = ""
	EffectPixelate = "pixelate"
	EffectGlitch   = "glitch"
	EffectVignette = "vignette"
	EffectOil      = "oil"
)

// EffectOptions は EffectStage に渡すエフェクトごとの設定です。ゼロ値の項目は既定値になります。
type EffectOptions struct {
	Block    int     `json:"block,omitempty"`    // pixelate
	Strength float64 `json:"strength,omitempty"` // vignette
	Radius   int     `json:"radius,omitempty"`   // oil
	Levels   int     `json:"levels,omitempty"`   // oil
	Seed     uint64  `json:"seed,omitempty"`     // glitch

	Glitch GlitchOptions `json:"-"`
}

const (
	defaultPixelBlock      = 8
	defaultVignetteAmount  = 0.8
	defaultOilRadius       = 4
	defaultOilIntensityLvl = 20
)

// エフェクト設定の上限。ゼロ値は既定値を意味します。
const (
	MaxPixelBlock       = 256
	MaxOilRadius        = 10
	MinOilLevels        = 2
	MaxOilLevels        = 256
	MaxVignetteStrength = 2.0
)

// ErrInvalidEffectOption はエフェクト設定が範囲外の場合に返されます。
var ErrInvalidEffectOption = errors.New("エフェクト設定が範囲外です")

// Validate は各設定値が範囲内かを検証します。ゼロ値は既定値として扱うため許可されます。
func (o EffectOptions) Validate() error {
	switch {
	case o.Block < 0 || o.Block > MaxPixelBlock:
		return fmt.Errorf("%w: block=%d (1-%d)", ErrInvalidEffectOption, o.Block, MaxPixelBlock)
	case o.Radius < 0 || o.Radius > MaxOilRadius:
		return fmt.Errorf("%w: radius=%d (1-%d)", ErrInvalidEffectOption, o.Radius, MaxOilRadius)
	case o.Levels != 0 && (o.Levels < MinOilLevels || o.Levels > MaxOilLevels):
		return fmt.Errorf("%w: levels=%d (%d-%d)", ErrInvalidEffectOption, o.Levels, MinOilLevels, MaxOilLevels)
	case !(o.Strength >= 0 && o.Strength <= MaxVignetteStrength):
		return fmt.Errorf("%w: strength=%g (0-%g)", ErrInvalidEffectOption, o.Strength, MaxVignetteStrength)
	}
	return nil
}

// EffectStage はエフェクト名に対応する Stage を返します。EffectNone の場合は nil を返します。
func EffectStage(name string, opts EffectOptions) (Stage, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	switch name {
	case EffectNone:
		return nil, nil
	case EffectPixelate:
		block := opts.Block
		if block <= 0 {
			block = defaultPixelBlock
		}
		return func(img image.Image) *image.NRGBA { return Pixelate(img, block) }, nil
	case EffectGlitch:
		g := opts.Glitch
		if g == (GlitchOptions{}) {
			g = DefaultGlitchOptions()
		}
		seed := opts.Seed
		return func(img image.Image) *image.NRGBA {
			// 実行ごとに独立した乱数源を使うため、並行実行しても結果は変わらない
			rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
			return Glitch(img, rng, g)
		}, nil
	case EffectVignette:
		strength := opts.Strength
		if strength <= 0 {
			strength = defaultVignetteAmount
		}
		return func(img image.Image) *image.NRGBA { return Vignette(img, strength) }, nil
	case EffectOil:
		radius, levels := opts.Radius, opts.Levels
		if radius <= 0 {
			radius = defaultOilRadius
		}
		if levels <= 0 {
			levels = defaultOilIntensityLvl
		}
		return func(img image.Image) *image.NRGBA { return OilPaint(img, radius, levels) }, nil
	default:
		return nil, fmt.Errorf("未知のエフェクトです: %q", name)
	}
}
