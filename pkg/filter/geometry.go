package filter

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
)

// ErrEmptyCrop は切り抜き範囲が画像と重ならない場合に返されます。
var ErrEmptyCrop = errors.New("切り抜き範囲が画像の外側です")

// Crop は画像左上を原点とした rect の範囲を切り出します。
// rect は画像の範囲内に切り詰められます。
func Crop(src image.Image, rect image.Rectangle) (*image.NRGBA, error) {
	b := src.Bounds()
	r := rect.Canon().Add(b.Min).Intersect(b)
	if r.Empty() {
		return nil, ErrEmptyCrop
	}

	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst, nil
}

// Resize は Catmull-Rom 補間で w×h に拡大縮小します。
func Resize(src image.Image, w, h int) (*image.NRGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("不正なサイズです: %dx%d", w, h)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// CropToAspect は "W:H" 形式のアスペクト比で、中央を基準に最大の範囲を切り出します。
func CropToAspect(src image.Image, aspect string) (*image.NRGBA, error) {
	aw, ah, err := ParseAspectRatio(aspect)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	cw, ch := w, w*ah/aw
	if ch > h {
		cw, ch = h*aw/ah, h
	}
	x0, y0 := (w-cw)/2, (h-ch)/2
	return Crop(src, image.Rect(x0, y0, x0+cw, y0+ch))
}

// ParseAspectRatio は "16:9" のような文字列を解析します。
func ParseAspectRatio(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("アスペクト比の形式が不正です: %q", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("アスペクト比の幅が不正です: %q", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("アスペクト比の高さが不正です: %q", s)
	}
	return w, h, nil
}
