package domain

// FilterParams はピクセルフィルタの各パラメータです。
// フィールド間の制約はなく、それぞれ Clamp で独立に範囲内へ丸められます。
type FilterParams struct {
	Brightness float64 `json:"brightness" yaml:"brightness"` // % (0-200)
	Contrast   float64 `json:"contrast" yaml:"contrast"`     // % (0-200)
	Saturation float64 `json:"saturation" yaml:"saturation"` // % (0-200)
	HueRotate  float64 `json:"hue_rotate" yaml:"hue_rotate"` // 度 (-180-180)
	Sepia      float64 `json:"sepia" yaml:"sepia"`           // % (0-100)
	Grayscale  float64 `json:"grayscale" yaml:"grayscale"`   // % (0-100)
	Invert     float64 `json:"invert" yaml:"invert"`         // % (0-100)
	Blur       float64 `json:"blur" yaml:"blur"`             // px (0-20)
}

const (
	MaxPercent      = 200.0
	MaxBlendPercent = 100.0
	MaxHueRotation  = 180.0
	MaxBlurRadiusPx = 20.0
	identityPercent = 100.0
)

// DefaultFilterParams は恒等変換となるパラメータを返します。
func DefaultFilterParams() FilterParams {
	return FilterParams{
		Brightness: identityPercent,
		Contrast:   identityPercent,
		Saturation: identityPercent,
	}
}

// Clamp は各フィールドをそれぞれの範囲内に収めたコピーを返します。
func (p FilterParams) Clamp() FilterParams {
	return FilterParams{
		Brightness: clamp(p.Brightness, 0, MaxPercent),
		Contrast:   clamp(p.Contrast, 0, MaxPercent),
		Saturation: clamp(p.Saturation, 0, MaxPercent),
		HueRotate:  clamp(p.HueRotate, -MaxHueRotation, MaxHueRotation),
		Sepia:      clamp(p.Sepia, 0, MaxBlendPercent),
		Grayscale:  clamp(p.Grayscale, 0, MaxBlendPercent),
		Invert:     clamp(p.Invert, 0, MaxBlendPercent),
		Blur:       clamp(p.Blur, 0, MaxBlurRadiusPx),
	}
}

// IsIdentity は画像に変化を与えないパラメータかどうかを判定します。
func (p FilterParams) IsIdentity() bool {
	return p.Clamp() == DefaultFilterParams()
}

func clamp(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
