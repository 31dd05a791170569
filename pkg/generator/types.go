package generator

import (
	"errors"
	"time"

	"github.com/shouni/gemini-image-studio/pkg/domain"
)

const (
	DefaultBaseURL  = "https://image.pollinations.ai"
	DefaultTimeout  = 20 * time.Second
	DefaultCacheTTL = time.Hour

	MinDimension = 64
	MaxDimension = 2048
	MaxSteps     = 150
	MaxGuidance  = 30.0

	// maxSeed は Gemini SDK の int32 シードと互換性を保つための上限です。
	maxSeed = 1<<31 - 1
)

var (
	ErrEmptyPrompt       = errors.New("プロンプトが空です")
	ErrInvalidDimensions = errors.New("画像サイズが範囲外です")
	ErrInvalidParameter  = errors.New("生成パラメータが範囲外です")
	ErrTimeout           = errors.New("画像生成がタイムアウトしました")
)

// Defaults はリクエストで省略されたパラメータの既定値です。
type Defaults struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	Steps    int     `yaml:"steps"`
	Guidance float64 `yaml:"guidance"`
	Sampler  string  `yaml:"sampler"`
	Model    string  `yaml:"model"`
}

// DefaultDefaults は既定の生成パラメータを返します。
func DefaultDefaults() Defaults {
	return Defaults{
		Width:    1024,
		Height:   1024,
		Steps:    30,
		Guidance: 7.5,
		Sampler:  "k_euler_ancestral",
		Model:    "flux",
	}
}

// Options は Generator の設定です。ゼロ値の項目には既定値が使われます。
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	StockImages []string
	Cache       ImageCacher // nil の場合はキャッシュなしで動作する
	CacheTTL    time.Duration
	Defaults    Defaults
}

// Result は生成結果です。Image は代替画像の取得にも失敗した場合 nil になります。
type Result struct {
	Record domain.GeneratedImage
	Image  *domain.ImageResponse
}
