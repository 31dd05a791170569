package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/imgutil"
	"github.com/shouni/gemini-image-studio/pkg/utils"
)

// Generator は外部の画像生成エンドポイントへのリクエストを組み立てて実行します。
// 応答が制限時間内に得られない場合は、プロンプトから決まるストック画像に差し替えます。
type Generator struct {
	httpClient HTTPClient
	cache      ImageCacher
	cacheTTL   time.Duration
	baseURL    string
	timeout    time.Duration
	stock      []string
	defaults   Defaults

	newSeed func() int64
	newID   func() string
	now     func() time.Time
}

var _ ImageGenerator = (*Generator)(nil)

// NewGenerator は依存関係を注入して Generator を初期化します。
func NewGenerator(httpClient HTTPClient, opts Options) (*Generator, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("不正なベースURLです: %q", baseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	stock := opts.StockImages
	if stock == nil {
		stock = DefaultStockImages
	}
	defaults := opts.Defaults
	if defaults == (Defaults{}) {
		defaults = DefaultDefaults()
	}

	return &Generator{
		httpClient: httpClient,
		cache:      opts.Cache,
		cacheTTL:   cacheTTL,
		baseURL:    baseURL,
		timeout:    timeout,
		stock:      stock,
		defaults:   defaults,
		newSeed:    func() int64 { return rand.Int64N(maxSeed) },
		newID:      uuid.NewString,
		now:        time.Now,
	}, nil
}

// Generate はリクエストを検証して画像を生成し、履歴レコードと画像データを返します。
// 外部呼び出しの失敗・タイムアウト・画像以外の応答は代替画像で置き換え、エラーにはしません。
// 呼び出し元のコンテキストがキャンセルされた場合のみエラーを返します。
func (g *Generator) Generate(ctx context.Context, req domain.ImageGenerationRequest) (*Result, error) {
	req, err := normalize(req, g.defaults)
	if err != nil {
		return nil, err
	}
	if req.Seed == nil {
		req.Seed = utils.Ptr(g.newSeed())
	}

	reqURL := BuildRequestURL(g.baseURL, req)
	slog.InfoContext(ctx, "画像生成をリクエストします",
		"style", req.Style, "width", req.Width, "height", req.Height, "seed", utils.DereferenceSeed(req.Seed), "model", req.Model)

	imageURL := reqURL
	fallback := false
	data, err := g.fetchWithTimeout(ctx, reqURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("画像生成が中断されました: %w", ctxErr)
		}

		stock := SelectFallback(req.Prompt, g.stock)
		if stock == "" {
			return nil, fmt.Errorf("画像生成に失敗し、代替画像も設定されていません: %w", err)
		}
		slog.WarnContext(ctx, "外部エンドポイントから画像を取得できないため代替画像に切り替えます",
			"error", err, "fallback_url", stock)

		imageURL, fallback = stock, true
		data, err = g.fetchWithTimeout(ctx, stock)
		if err != nil {
			// 差し替え先の URL だけでも呼び出し元で表示できるため、ここでは失敗にしない
			slog.WarnContext(ctx, "代替画像の取得にも失敗しました", "error", err, "fallback_url", stock)
			data = nil
		}
	}

	record := domain.GeneratedImage{
		ID:        g.newID(),
		ImageURL:  imageURL,
		Prompt:    req.Prompt,
		Style:     req.Style,
		Width:     req.Width,
		Height:    req.Height,
		CreatedAt: g.now().UTC(),
		Model:     req.Model,
		Seed:      req.Seed,
		Guidance:  utils.Ptr(req.Guidance),
		Steps:     utils.Ptr(req.Steps),
		Fallback:  fallback,
	}

	res := &Result{Record: record}
	if len(data) > 0 {
		res.Image = &domain.ImageResponse{
			Data:     data,
			MimeType: http.DetectContentType(data),
			UsedSeed: utils.DereferenceSeed(req.Seed),
		}
	}
	return res, nil
}

// fetchWithTimeout は取得処理と制限時間を競わせます。時間切れの場合は取得を中断して ErrTimeout を返します。
func (g *Generator) fetchWithTimeout(ctx context.Context, rawURL string) ([]byte, error) {
	if data, ok := g.cached(ctx, rawURL); ok {
		return data, nil
	}

	tctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := g.httpClient.FetchBytes(tctx, rawURL)
		ch <- result{data: data, err: err}
	}()

	var r result
	select {
	case r = <-ch:
	case <-tctx.Done():
		if errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w (%s)", ErrTimeout, g.timeout)
		}
		return nil, tctx.Err()
	}

	if r.err != nil {
		return nil, fmt.Errorf("画像の取得に失敗しました: %w", r.err)
	}
	if !imgutil.IsImage(r.data) {
		return nil, fmt.Errorf("%w (detected: %s)", imgutil.ErrNotImage, http.DetectContentType(r.data))
	}

	if g.cache != nil {
		g.cache.Set(rawURL, r.data, g.cacheTTL)
	}
	return r.data, nil
}

func (g *Generator) cached(ctx context.Context, key string) ([]byte, bool) {
	if g.cache == nil {
		return nil, false
	}
	v, found := g.cache.Get(key)
	if !found {
		return nil, false
	}
	data, ok := v.([]byte)
	if !ok {
		slog.WarnContext(ctx, "キャッシュデータが不正な型です", "url", key, "type", fmt.Sprintf("%T", v))
		return nil, false
	}
	return data, true
}
