// Package filter は画像に対するピクセル単位の色変換とエフェクトを提供します。
// すべての操作は入力を変更せず、新しく確保した *image.NRGBA を返します。
package filter

import (
	"image"
	"image/color"
	"math"
)

// 輝度の重み係数 (ITU-R BT.601)
const (
	lumaR = 0.2989
	lumaG = 0.587
	lumaB = 0.114
)

// colorFunc は1ピクセル分の RGB を変換する関数です。アルファは変換対象外です。
type colorFunc func(r, g, b float64) (float64, float64, float64)

// Clone は任意の画像を原点基準の *image.NRGBA にコピーします。
func Clone(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	if n, ok := src.(*image.NRGBA); ok {
		rowLen := b.Dx() * 4
		for y := 0; y < b.Dy(); y++ {
			si := n.PixOffset(b.Min.X, b.Min.Y+y)
			di := dst.PixOffset(0, y)
			copy(dst.Pix[di:di+rowLen], n.Pix[si:si+rowLen])
		}
		return dst
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			dst.SetNRGBA(x, y, c)
		}
	}
	return dst
}

// mapColor は全ピクセルに fn を適用した新しい画像を返します。
func mapColor(src image.Image, fn colorFunc) *image.NRGBA {
	dst := Clone(src)
	pix := dst.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		r, g, b := fn(float64(pix[i]), float64(pix[i+1]), float64(pix[i+2]))
		pix[i] = clampByte(r)
		pix[i+1] = clampByte(g)
		pix[i+2] = clampByte(b)
	}
	return dst
}

// clampByte は値を四捨五入し [0,255] に収めます。
func clampByte(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.Round(v))
}

func luminance(r, g, b float64) float64 {
	return lumaR*r + lumaG*g + lumaB*b
}

// lerp は t=0 で from、t=1 で to を正確に返します。
func lerp(from, to, t float64) float64 {
	return from*(1-t) + to*t
}
