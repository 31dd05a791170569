package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/utils"
)

// PNGの最小構成バイナリ（シグネチャ含む）
var validPng = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90w\x53\xde")

const (
	testBaseURL = "https://img.example.com"
	stockA      = "https://stock.example.com/a.jpg"
)

func newTestGenerator(t *testing.T, httpClient HTTPClient, opts Options) *Generator {
	t.Helper()
	if opts.BaseURL == "" {
		opts.BaseURL = testBaseURL
	}
	if opts.StockImages == nil {
		opts.StockImages = []string{stockA}
	}
	g, err := NewGenerator(httpClient, opts)
	require.NoError(t, err)
	g.newID = func() string { return "id-1" }
	g.newSeed = func() int64 { return 777 }
	g.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return g
}

func TestNewGenerator(t *testing.T) {
	t.Run("httpClientがnilならエラー", func(t *testing.T) {
		_, err := NewGenerator(nil, Options{})
		assert.Error(t, err)
	})

	t.Run("不正なベースURLはエラー", func(t *testing.T) {
		for _, u := range []string{"ftp://x", "not a url", "https://"} {
			_, err := NewGenerator(&mockHTTPClient{}, Options{BaseURL: u})
			assert.Error(t, err, u)
		}
	})

	t.Run("ゼロ値のOptionsには既定値が入る", func(t *testing.T) {
		g, err := NewGenerator(&mockHTTPClient{}, Options{})
		require.NoError(t, err)
		assert.Equal(t, DefaultBaseURL, g.baseURL)
		assert.Equal(t, DefaultTimeout, g.timeout)
		assert.Equal(t, DefaultStockImages, g.stock)
		assert.Equal(t, DefaultDefaults(), g.defaults)
	})
}

func TestGenerator_Generate(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	t.Run("成功: レコードと画像データを返すのだ", func(t *testing.T) {
		httpMock := &mockHTTPClient{
			fetchFunc: func(ctx context.Context, url string) ([]byte, error) { return validPng, nil },
		}
		cache := &mockCache{data: map[string]any{}}
		g := newTestGenerator(t, httpMock, Options{Cache: cache})

		res, err := g.Generate(ctx, domain.ImageGenerationRequest{Prompt: "a cat", Style: "anime", Width: 512, Height: 512})
		require.NoError(t, err)

		rec := res.Record
		assert.Equal(t, "id-1", rec.ID)
		assert.Equal(t, "a cat", rec.Prompt)
		assert.Equal(t, "anime", rec.Style)
		assert.Equal(t, 512, rec.Width)
		assert.False(t, rec.Fallback)
		assert.True(t, strings.HasPrefix(rec.ImageURL, testBaseURL+"/prompt/"))
		assert.Contains(t, rec.ImageURL, "seed=777")
		require.NotNil(t, rec.Seed)
		assert.Equal(t, int64(777), *rec.Seed)
		assert.Equal(t, DefaultDefaults().Steps, *rec.Steps)

		require.NotNil(t, res.Image)
		assert.Equal(t, validPng, res.Image.Data)
		assert.Equal(t, "image/png", res.Image.MimeType)
		assert.Equal(t, int64(777), res.Image.UsedSeed)

		_, found := cache.Get(rec.ImageURL)
		assert.True(t, found, "取得した画像がキャッシュされていないのだ")
	})

	t.Run("指定したシードはそのまま使われるのだ", func(t *testing.T) {
		httpMock := &mockHTTPClient{
			fetchFunc: func(ctx context.Context, url string) ([]byte, error) { return validPng, nil },
		}
		g := newTestGenerator(t, httpMock, Options{})

		res, err := g.Generate(ctx, domain.ImageGenerationRequest{Prompt: "x", Seed: utils.Ptr(int64(5))})
		require.NoError(t, err)
		assert.Equal(t, int64(5), res.Image.UsedSeed)
		assert.Contains(t, httpMock.Calls()[0], "seed=5")
	})

	t.Run("キャッシュヒット時はHTTPを呼ばないのだ", func(t *testing.T) {
		httpMock := &mockHTTPClient{}
		cache := &mockCache{data: map[string]any{}}
		g := newTestGenerator(t, httpMock, Options{Cache: cache})

		req := domain.ImageGenerationRequest{Prompt: "cached", Seed: utils.Ptr(int64(1))}
		norm, err := normalize(req, g.defaults)
		require.NoError(t, err)
		cache.Set(BuildRequestURL(testBaseURL, norm), validPng, time.Hour)

		res, err := g.Generate(ctx, req)
		require.NoError(t, err)
		assert.False(t, res.Record.Fallback)
		assert.Empty(t, httpMock.Calls())
	})

	t.Run("タイムアウト時はストック画像に差し替えるのだ", func(t *testing.T) {
		httpMock := &mockHTTPClient{
			fetchFunc: func(ctx context.Context, url string) ([]byte, error) {
				if url == stockA {
					return validPng, nil
				}
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}
		g := newTestGenerator(t, httpMock, Options{Timeout: 20 * time.Millisecond})

		res, err := g.Generate(ctx, domain.ImageGenerationRequest{Prompt: "slow"})
		require.NoError(t, err)
		assert.True(t, res.Record.Fallback)
		assert.Equal(t, stockA, res.Record.ImageURL)
		require.NotNil(t, res.Image)
		assert.Equal(t, validPng, res.Image.Data)
	})

	t.Run("HTTPエラー時もストック画像に差し替えるのだ", func(t *testing.T) {
		httpMock := &mockHTTPClient{
			fetchFunc: func(ctx context.Context, url string) ([]byte, error) {
				if url == stockA {
					return validPng, nil
				}
				return nil, errors.New("503")
			},
		}
		g := newTestGenerator(t, httpMock, Options{})

		res, err := g.Generate(ctx, domain.ImageGenerationRequest{Prompt: "broken"})
		require.NoError(t, err)
		assert.True(t, res.Record.Fallback)
		assert.Len(t, httpMock.Calls(), 2)
	})

	t.Run("画像以外の応答はフォールバック扱いなのだ", func(t *testing.T) {
		httpMock := &mockHTTPClient{
			fetchFunc: func(ctx context.Context, url string) ([]byte, error) {
				if url == stockA {
					return validPng, nil
				}
				return []byte("<html>rate limited</html>"), nil
			},
		}
		g := newTestGenerator(t, httpMock, Options{})

		res, err := g.Generate(ctx, domain.ImageGenerationRequest{Prompt: "html"})
		require.NoError(t, err)
		assert.True(t, res.Record.Fallback)
	})

	t.Run("代替画像の取得にも失敗した場合は画像なしで返すのだ", func(t *testing.T) {
		httpMock := &mockHTTPClient{
			fetchFunc: func(ctx context.Context, url string) ([]byte, error) { return nil, errors.New("down") },
		}
		g := newTestGenerator(t, httpMock, Options{})

		res, err := g.Generate(ctx, domain.ImageGenerationRequest{Prompt: "all down"})
		require.NoError(t, err)
		assert.True(t, res.Record.Fallback)
		assert.Equal(t, stockA, res.Record.ImageURL)
		assert.Nil(t, res.Image)
	})

	t.Run("ストックが空ならエラーなのだ", func(t *testing.T) {
		httpMock := &mockHTTPClient{
			fetchFunc: func(ctx context.Context, url string) ([]byte, error) { return nil, errors.New("down") },
		}
		g := newTestGenerator(t, httpMock, Options{StockImages: []string{}})

		_, err := g.Generate(ctx, domain.ImageGenerationRequest{Prompt: "x"})
		assert.Error(t, err)
	})

	t.Run("呼び出し元のキャンセルはフォールバックせずエラーなのだ", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		httpMock := &mockHTTPClient{
			fetchFunc: func(ctx context.Context, url string) ([]byte, error) {
				cancel()
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}
		g := newTestGenerator(t, httpMock, Options{})

		_, err := g.Generate(cctx, domain.ImageGenerationRequest{Prompt: "cancelled"})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Len(t, httpMock.Calls(), 1)
	})

	t.Run("検証エラーではHTTPを呼ばないのだ", func(t *testing.T) {
		httpMock := &mockHTTPClient{}
		g := newTestGenerator(t, httpMock, Options{})

		_, err := g.Generate(ctx, domain.ImageGenerationRequest{Prompt: ""})
		assert.ErrorIs(t, err, ErrEmptyPrompt)
		assert.Empty(t, httpMock.Calls())
	})
}

func TestGenerator_fetchWithTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	httpMock := &mockHTTPClient{
		fetchFunc: func(ctx context.Context, url string) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	g := newTestGenerator(t, httpMock, Options{Timeout: 10 * time.Millisecond})

	_, err := g.fetchWithTimeout(context.Background(), "https://img.example.com/slow")
	assert.ErrorIs(t, err, ErrTimeout)
}
