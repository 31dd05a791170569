package generator

import (
	"context"
	"time"

	"github.com/shouni/gemini-image-studio/pkg/domain"
)

// ImageGenerator はビジネスロジック層が利用する統合窓口です。
type ImageGenerator interface {
	Generate(ctx context.Context, req domain.ImageGenerationRequest) (*Result, error)
}

// HTTPClient は、URLからデータを取得するためのインターフェースです。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// ImageCacher は、画像をキャッシュするためのインターフェースです。
type ImageCacher interface {
	// Get は、指定されたキーに紐づくアイテムを取得します。
	Get(key string) (any, bool)
	// Set は、指定されたキーと値、有効期限でアイテムを保存します。
	Set(key string, value any, d time.Duration)
}
