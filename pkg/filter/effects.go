package filter

import (
	"image"
	"math"
	"math/rand/v2"
)

// Blur は半径 round(px) のボックスブラーを水平・垂直の順に適用します。
// 画像端は端のピクセルを延長して扱います。
func Blur(src image.Image, px float64) *image.NRGBA {
	radius := int(math.Round(px))
	dst := Clone(src)
	if radius <= 0 {
		return dst
	}

	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	tmp := make([]uint8, len(dst.Pix))
	boxPass(dst.Pix, tmp, w, h, radius, 4, dst.Stride)
	boxPass(tmp, dst.Pix, h, w, radius, dst.Stride, 4)
	return dst
}

// boxPass は1次元の移動平均を適用します。
// n は走査方向の長さ、lines は走査する本数、step は走査方向の隣接ピクセル間のオフセット、
// lineStep は次のラインへのオフセットです。
func boxPass(in, out []uint8, n, lines, radius, step, lineStep int) {
	window := float64(2*radius + 1)
	for l := 0; l < lines; l++ {
		base := l * lineStep
		for c := 0; c < 4; c++ {
			at := func(i int) int {
				if i < 0 {
					i = 0
				} else if i >= n {
					i = n - 1
				}
				return int(in[base+i*step+c])
			}

			sum := 0
			for i := -radius; i <= radius; i++ {
				sum += at(i)
			}
			for i := 0; i < n; i++ {
				out[base+i*step+c] = clampByte(float64(sum) / window)
				sum += at(i+radius+1) - at(i-radius)
			}
		}
	}
}

// Pixelate は画像を block×block のタイルに分割し、各タイルを左上ピクセルの色で塗りつぶします。
func Pixelate(src image.Image, block int) *image.NRGBA {
	dst := Clone(src)
	if block <= 1 {
		return dst
	}

	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for by := 0; by < h; by += block {
		for bx := 0; bx < w; bx += block {
			c := dst.NRGBAAt(bx, by)
			for y := by; y < by+block && y < h; y++ {
				for x := bx; x < bx+block && x < w; x++ {
					dst.SetNRGBA(x, y, c)
				}
			}
		}
	}
	return dst
}

// GlitchOptions はグリッチエフェクトの強さを指定します。
type GlitchOptions struct {
	// LineProbability は各走査線が選ばれる確率です (0-1)。
	LineProbability float64
	// MaxOffset は赤チャンネルを水平にずらす最大ピクセル数です。
	MaxOffset int
}

// DefaultGlitchOptions はグリッチの既定値を返します。
func DefaultGlitchOptions() GlitchOptions {
	return GlitchOptions{LineProbability: 0.1, MaxOffset: 20}
}

// Glitch は無作為に選んだ走査線の赤チャンネルを水平方向にずらします。
// ずれた分はライン内で折り返します。rng を固定すれば結果は再現可能です。
func Glitch(src image.Image, rng *rand.Rand, opts GlitchOptions) *image.NRGBA {
	dst := Clone(src)
	if rng == nil || opts.MaxOffset <= 0 || opts.LineProbability <= 0 {
		return dst
	}

	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	red := make([]uint8, w)
	for y := 0; y < h; y++ {
		if rng.Float64() >= opts.LineProbability {
			continue
		}
		offset := rng.IntN(2*opts.MaxOffset+1) - opts.MaxOffset
		if offset == 0 {
			continue
		}

		row := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for x := 0; x < w; x++ {
			red[x] = row[x*4]
		}
		for x := 0; x < w; x++ {
			from := ((x-offset)%w + w) % w
			row[x*4] = red[from]
		}
	}
	return dst
}

// Vignette は中心からの距離に応じて RGB を暗くします。
// 係数は 1 - strength*dist/maxDist で、0 未満にはなりません。
func Vignette(src image.Image, strength float64) *image.NRGBA {
	dst := Clone(src)
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	cx, cy := float64(w)/2, float64(h)/2
	maxDist := math.Hypot(cx, cy)
	if maxDist == 0 || strength <= 0 {
		return dst
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dist := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			f := math.Max(0, 1-strength*dist/maxDist)
			i := dst.PixOffset(x, y)
			dst.Pix[i] = clampByte(float64(dst.Pix[i]) * f)
			dst.Pix[i+1] = clampByte(float64(dst.Pix[i+1]) * f)
			dst.Pix[i+2] = clampByte(float64(dst.Pix[i+2]) * f)
		}
	}
	return dst
}

// OilPaint は油彩風エフェクトを適用します。
// 各ピクセルについて半径 radius の近傍の輝度を levels 段階に分類し、
// 最頻の段階に属するピクセルの平均色で塗り替えます。levels は 1-256 に収められます。
func OilPaint(src image.Image, radius, levels int) *image.NRGBA {
	in := Clone(src)
	if radius <= 0 {
		return in
	}
	// 輝度は 0-255 のため 256 段階を超える分類は意味を持たない
	levels = min(max(levels, 1), 256)

	w, h := in.Rect.Dx(), in.Rect.Dy()
	dst := image.NewNRGBA(in.Rect)
	counts := make([]int, levels)
	sumR := make([]int, levels)
	sumG := make([]int, levels)
	sumB := make([]int, levels)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			clear(counts)
			clear(sumR)
			clear(sumG)
			clear(sumB)

			for ny := max(0, y-radius); ny <= min(h-1, y+radius); ny++ {
				for nx := max(0, x-radius); nx <= min(w-1, x+radius); nx++ {
					i := in.PixOffset(nx, ny)
					r, g, b := int(in.Pix[i]), int(in.Pix[i+1]), int(in.Pix[i+2])
					level := (r + g + b) / 3 * levels / 256
					counts[level]++
					sumR[level] += r
					sumG[level] += g
					sumB[level] += b
				}
			}

			best := 0
			for l := 1; l < levels; l++ {
				if counts[l] > counts[best] {
					best = l
				}
			}

			i := in.PixOffset(x, y)
			n := float64(counts[best])
			dst.Pix[i] = clampByte(float64(sumR[best]) / n)
			dst.Pix[i+1] = clampByte(float64(sumG[best]) / n)
			dst.Pix[i+2] = clampByte(float64(sumB[best]) / n)
			dst.Pix[i+3] = in.Pix[i+3]
		}
	}
	return dst
}
