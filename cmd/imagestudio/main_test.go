package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/imgutil"
)

// run はテスト用の一時 DB を使ってルートコマンドを実行します。
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("IMAGESTUDIO_DB_PATH", filepath.Join(t.TempDir(), "studio.db"))
	t.Setenv("IMAGESTUDIO_LOG_LEVEL", "error")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeTestImage(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "src.png")
	require.NoError(t, writeImage(path, img, 0))
	return path
}

func decodeFile(t *testing.T, path string) (image.Image, string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, format, err := imgutil.Decode(data)
	require.NoError(t, err)
	return img, format
}

func TestFilterCommand(t *testing.T) {
	src := writeTestImage(t, 16, 8)
	out := filepath.Join(t.TempDir(), "out.jpg")

	_, err := run(t, "filter", src, "--grayscale", "100", "--effect", "pixelate", "--block", "4", "-o", out)
	require.NoError(t, err)

	img, format := decodeFile(t, out)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, image.Rect(0, 0, 16, 8), img.Bounds())

	_, err = run(t, "filter", src, "--effect", "sparkle", "-o", out)
	assert.Error(t, err)
}

func TestCropCommand(t *testing.T) {
	src := writeTestImage(t, 40, 20)
	dir := t.TempDir()

	t.Run("アスペクト比で切り抜く", func(t *testing.T) {
		out := filepath.Join(dir, "square.png")
		_, err := run(t, "crop", src, "--aspect", "1:1", "-o", out)
		require.NoError(t, err)
		img, _ := decodeFile(t, out)
		assert.Equal(t, 20, img.Bounds().Dx())
		assert.Equal(t, 20, img.Bounds().Dy())
	})

	t.Run("矩形で切り抜いてリサイズする", func(t *testing.T) {
		out := filepath.Join(dir, "rect.png")
		_, err := run(t, "crop", src, "--x", "10", "--y", "0", "--w", "20", "--h", "10", "--width", "10", "-o", out)
		require.NoError(t, err)
		img, _ := decodeFile(t, out)
		assert.Equal(t, image.Rect(0, 0, 10, 5), img.Bounds())
	})
}

func TestVariantsCommand(t *testing.T) {
	src := writeTestImage(t, 12, 12)
	outDir := filepath.Join(t.TempDir(), "variants")

	stdout, err := run(t, "variants", src, "-o", outDir)
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 10)
	assert.Contains(t, stdout, filepath.Join(outDir, "noir.png"))
}

func TestHistoryCommand(t *testing.T) {
	stdout, err := run(t, "history", "list")
	require.NoError(t, err)

	var list []domain.GeneratedImage
	require.NoError(t, json.Unmarshal([]byte(stdout), &list))
	assert.Empty(t, list)

	_, err = run(t, "history", "show", "missing")
	assert.Error(t, err)
}

func TestResizeKeepingAspect(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 20))

	got, err := resizeKeepingAspect(img, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 10), got.Bounds())

	got, err = resizeKeepingAspect(img, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 5), got.Bounds())
}
