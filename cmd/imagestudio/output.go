package main

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/shouni/gemini-image-studio/pkg/imgutil"
)

type filterSource struct {
	img    image.Image
	format string
}

// writeImage は出力パスの拡張子に応じた形式で画像を保存します。拡張子がない場合は PNG です。
func writeImage(path string, img image.Image, quality int) error {
	data, err := imgutil.EncodeBytes(img, filepath.Ext(path), quality)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("画像を保存できませんでした %s: %w", path, err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
