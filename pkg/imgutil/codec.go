// Package imgutil は画像のデコード・エンコードと、画像ソースの読み込みを提供します。
package imgutil

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// 出力フォーマット
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatBMP  = "bmp"
)

// DefaultJPEGQuality は quality 未指定時の JPEG 品質です。
const DefaultJPEGQuality = 90

// MaxPixels はデコードを許可する画素数 (幅×高さ) の上限です。
const MaxPixels = 40_000_000

var (
	// ErrNotImage は画像として認識できないデータを受け取った場合に返されます。
	ErrNotImage = errors.New("画像データではありません")
	// ErrImageTooLarge はヘッダ上の画素数が MaxPixels を超える場合に返されます。
	ErrImageTooLarge = errors.New("画像の画素数が上限を超えています")
)

// Decode は画像データをデコードし、画像とフォーマット名を返します。
func Decode(data []byte) (image.Image, string, error) {
	if !IsImage(data) {
		return nil, "", fmt.Errorf("%w (detected: %s)", ErrNotImage, http.DetectContentType(data))
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("画像ヘッダの読み込みに失敗しました: %w", err)
	}
	// 展開前にヘッダの寸法で弾く
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", fmt.Errorf("%w (%dx%d)", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}
	return img, format, nil
}

// IsImage は MIME タイプの判定結果が image/* かどうかを返します。
func IsImage(data []byte) bool {
	return strings.HasPrefix(http.DetectContentType(data), "image/")
}

// Encode は指定されたフォーマットで画像を書き出します。quality は JPEG のみ有効です。
func Encode(w io.Writer, img image.Image, format string, quality int) error {
	switch NormalizeFormat(format) {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		if quality <= 0 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatBMP:
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("未対応の出力フォーマットです: %q", format)
	}
}

// EncodeBytes は Encode の結果をバイト列で返します。
func EncodeBytes(img image.Image, format string, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := Encode(buf, img, format, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NormalizeFormat は拡張子やエイリアスを正規化します。空文字は PNG とみなします。
func NormalizeFormat(format string) string {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "png":
		return FormatPNG
	case "jpg", "jpeg":
		return FormatJPEG
	case "bmp":
		return FormatBMP
	default:
		return format
	}
}

// MimeType はフォーマットに対応する MIME タイプを返します。
func MimeType(format string) string {
	switch NormalizeFormat(format) {
	case FormatJPEG:
		return "image/jpeg"
	case FormatBMP:
		return "image/bmp"
	default:
		return "image/png"
	}
}
