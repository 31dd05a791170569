package filter

import (
	"image"
	"math"
)

// Brightness は各チャンネルに pct/100 を乗算します。
func Brightness(src image.Image, pct float64) *image.NRGBA {
	f := pct / 100
	return mapColor(src, func(r, g, b float64) (float64, float64, float64) {
		return r * f, g * f, b * f
	})
}

// Contrast は中間値 128 を中心に各チャンネルを pct/100 倍に引き伸ばします。
func Contrast(src image.Image, pct float64) *image.NRGBA {
	f := pct / 100
	return mapColor(src, func(r, g, b float64) (float64, float64, float64) {
		return (r-128)*f + 128, (g-128)*f + 128, (b-128)*f + 128
	})
}

// Saturation は輝度加重グレーを基準に各チャンネルを pct/100 倍に寄せ/離します。
func Saturation(src image.Image, pct float64) *image.NRGBA {
	f := pct / 100
	return mapColor(src, func(r, g, b float64) (float64, float64, float64) {
		gray := luminance(r, g, b)
		return gray + (r-gray)*f, gray + (g-gray)*f, gray + (b-gray)*f
	})
}

// HueRotate は YIQ 色空間で I/Q 成分を deg 度回転させます。
func HueRotate(src image.Image, deg float64) *image.NRGBA {
	rad := deg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return mapColor(src, func(r, g, b float64) (float64, float64, float64) {
		y := 0.299*r + 0.587*g + 0.114*b
		i := 0.596*r - 0.274*g - 0.322*b
		q := 0.211*r - 0.523*g + 0.312*b

		i, q = i*cos-q*sin, i*sin+q*cos

		return y + 0.956*i + 0.621*q,
			y - 0.272*i - 0.647*q,
			y - 1.106*i + 1.703*q
	})
}

// Sepia は標準的なセピア行列の出力へ pct/100 の割合で混合します。
func Sepia(src image.Image, pct float64) *image.NRGBA {
	t := pct / 100
	return mapColor(src, func(r, g, b float64) (float64, float64, float64) {
		sr := 0.393*r + 0.769*g + 0.189*b
		sg := 0.349*r + 0.686*g + 0.168*b
		sb := 0.272*r + 0.534*g + 0.131*b
		return lerp(r, sr, t), lerp(g, sg, t), lerp(b, sb, t)
	})
}

// Grayscale は輝度加重グレーへ pct/100 の割合で混合します。
// 100% の場合は3チャンネルが同じ値になります。
func Grayscale(src image.Image, pct float64) *image.NRGBA {
	t := pct / 100
	return mapColor(src, func(r, g, b float64) (float64, float64, float64) {
		gray := luminance(r, g, b)
		return lerp(r, gray, t), lerp(g, gray, t), lerp(b, gray, t)
	})
}

// Invert は 255-c へ pct/100 の割合で混合します。
func Invert(src image.Image, pct float64) *image.NRGBA {
	t := pct / 100
	return mapColor(src, func(r, g, b float64) (float64, float64, float64) {
		return lerp(r, 255-r, t), lerp(g, 255-g, t), lerp(b, 255-b, t)
	})
}
