package imgutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("PNGとJPEGをデコードできる", func(t *testing.T) {
		for _, format := range []string{"png", "jpeg"} {
			img, got, err := Decode(createDummyImageData(t, format))
			require.NoError(t, err, format)
			assert.Equal(t, format, got)
			assert.Equal(t, image.Rect(0, 0, 10, 10), img.Bounds())
		}
	})

	t.Run("画像でないデータはErrNotImage", func(t *testing.T) {
		_, _, err := Decode([]byte("<html>not an image</html>"))
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("ヘッダ上の画素数が上限を超えるとErrImageTooLarge", func(t *testing.T) {
		_, _, err := Decode(pngHeaderOnly(100000, 100000))
		assert.ErrorIs(t, err, ErrImageTooLarge)
	})
}

// pngHeaderOnly は IHDR だけを持つ PNG を作ります。本体は含みません。
func pngHeaderOnly(width, height uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolor

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestEncode(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	for _, format := range []string{"png", "jpg", "jpeg", "bmp", ".PNG"} {
		t.Run(format, func(t *testing.T) {
			data, err := EncodeBytes(img, format, 0)
			require.NoError(t, err)

			decoded, got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, NormalizeFormat(format), got)
			assert.Equal(t, img.Bounds(), decoded.Bounds())
		})
	}

	t.Run("PNGは可逆である", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, img, FormatPNG, 0))
		decoded, _, err := Decode(buf.Bytes())
		require.NoError(t, err)
		r, g, b, _ := decoded.At(1, 1).RGBA()
		assert.Equal(t, []uint32{10, 20, 30}, []uint32{r >> 8, g >> 8, b >> 8})
	})

	t.Run("未対応フォーマットはエラー", func(t *testing.T) {
		_, err := EncodeBytes(img, "tiff", 0)
		assert.Error(t, err)
	})
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "image/png", MimeType(""))
	assert.Equal(t, "image/jpeg", MimeType("jpg"))
	assert.Equal(t, "image/bmp", MimeType("bmp"))
}
