package imgutil

// CompressToJPEG は Decode が対応する画像データ（PNG, GIF, JPEG, WebP, BMP）を JPEG に再圧縮します。
// quality が 1-100 の範囲外の場合は DefaultJPEGQuality を使います。
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return EncodeBytes(img, FormatJPEG, quality)
}
