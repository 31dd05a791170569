package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/spf13/cobra"

	"github.com/shouni/gemini-image-studio/pkg/cache"
	"github.com/shouni/gemini-image-studio/pkg/config"
	"github.com/shouni/gemini-image-studio/pkg/enhancer"
	"github.com/shouni/gemini-image-studio/pkg/filter"
	"github.com/shouni/gemini-image-studio/pkg/generator"
	"github.com/shouni/gemini-image-studio/pkg/history"
	"github.com/shouni/gemini-image-studio/pkg/imgutil"
	"github.com/shouni/gemini-image-studio/pkg/logging"
)

// cli はサブコマンド間で共有する設定と依存関係の組み立てを担当します。
type cli struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:          "imagestudio",
		Short:        "AI 画像生成とフィルタ処理のツール",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if c.logLevel != "" {
				cfg.LogLevel = c.logLevel
			}
			if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML 設定ファイルのパス")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "ログレベル (debug, info, warn, error)")

	root.AddCommand(
		c.generateCmd(),
		c.enhanceCmd(),
		c.captionCmd(),
		c.filterCmd(),
		c.variantsCmd(),
		c.cropCmd(),
		c.historyCmd(),
		c.serveCmd(),
	)
	return root
}

func (c *cli) httpClient() httpkit.ClientInterface {
	return httpkit.New(c.cfg.Generator.Timeout)
}

func (c *cli) newGenerator(httpClient generator.HTTPClient) (*generator.Generator, error) {
	gc := c.cfg.Generator
	opts := generator.Options{
		BaseURL:     gc.BaseURL,
		Timeout:     gc.Timeout,
		StockImages: gc.StockImages,
		CacheTTL:    gc.CacheTTL,
		Defaults:    gc.Defaults,
	}
	if gc.CacheEntries > 0 {
		c, err := cache.New(gc.CacheEntries)
		if err != nil {
			return nil, err
		}
		opts.Cache = c
	}
	return generator.NewGenerator(httpClient, opts)
}

// newEnhancer は Gemini クライアントを初期化します。API キー未設定の場合はエラーです。
func (c *cli) newEnhancer(ctx context.Context) (*enhancer.Enhancer, error) {
	client, err := enhancer.NewGenAIClient(ctx, c.cfg.Gemini.APIKey)
	if err != nil {
		return nil, fmt.Errorf("GEMINI_API_KEY を設定してください: %w", err)
	}
	return enhancer.NewEnhancer(client, c.cfg.Gemini.Model)
}

// openHistory は履歴ストアを開いて保存済みの履歴を読み込みます。
func (c *cli) openHistory(ctx context.Context) (*history.History, func(), error) {
	hc := c.cfg.History
	if dir := filepath.Dir(hc.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("履歴ディレクトリを作成できませんでした: %w", err)
		}
	}
	kv, err := history.OpenSQLite(hc.DBPath, hc.QuotaBytes)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := kv.Close(); err != nil {
			slog.Warn("履歴ストアのクローズに失敗しました", "error", err)
		}
	}

	h, err := history.New(kv, hc.Options)
	if err == nil {
		err = h.Load(ctx)
	}
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return h, closeFn, nil
}

func (c *cli) loadImage(ctx context.Context, src string) ([]byte, error) {
	loader, err := imgutil.NewLoader(c.httpClient(), imgutil.FileReader{})
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx, src)
}

func (c *cli) decodeSource(ctx context.Context, src string) (*filterSource, error) {
	data, err := c.loadImage(ctx, src)
	if err != nil {
		return nil, err
	}
	img, format, err := imgutil.Decode(data)
	if err != nil {
		return nil, err
	}
	return &filterSource{img: img, format: format}, nil
}

// presets は設定ファイルのプリセットを返します。未設定の場合は標準のプリセットです。
func (c *cli) presets() []filter.Preset {
	if len(c.cfg.Filter.Presets) == 0 {
		return filter.DefaultPresets()
	}
	return c.cfg.Filter.Presets
}
