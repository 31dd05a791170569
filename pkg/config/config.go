// Package config はアプリケーション設定を YAML ファイルと環境変数から読み込みます。
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shouni/gemini-image-studio/pkg/enhancer"
	"github.com/shouni/gemini-image-studio/pkg/filter"
	"github.com/shouni/gemini-image-studio/pkg/generator"
	"github.com/shouni/gemini-image-studio/pkg/history"
	"github.com/shouni/gemini-image-studio/pkg/logging"
)

// Config はアプリケーション全体の設定です。
type Config struct {
	Listen    string          `yaml:"listen"`
	LogLevel  string          `yaml:"log_level"`
	LogFormat string          `yaml:"log_format"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Generator GeneratorConfig `yaml:"generator"`
	History   HistoryConfig   `yaml:"history"`
	Filter    FilterConfig    `yaml:"filter"`
}

// GeminiConfig はプロンプト改善とキャプション生成に使う Gemini の設定です。
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// GeneratorConfig は外部画像生成エンドポイントの設定です。
type GeneratorConfig struct {
	BaseURL      string             `yaml:"base_url"`
	Timeout      time.Duration      `yaml:"timeout"`
	CacheTTL     time.Duration      `yaml:"cache_ttl"`
	CacheEntries int                `yaml:"cache_entries"`
	StockImages  []string           `yaml:"stock_images"`
	Defaults     generator.Defaults `yaml:"defaults"`
}

// HistoryConfig は履歴ストアの設定です。
type HistoryConfig struct {
	DBPath          string `yaml:"db_path"`
	QuotaBytes      int64  `yaml:"quota_bytes"`
	history.Options `yaml:",inline"`
}

// FilterConfig はフィルタ処理とバリエーション生成の設定です。
type FilterConfig struct {
	Concurrency int             `yaml:"concurrency"`
	MaxUploadMB int             `yaml:"max_upload_mb"`
	Presets     []filter.Preset `yaml:"presets"`
}

// DefaultConfig は既定の設定を返します。
func DefaultConfig() *Config {
	return &Config{
		Listen:    ":8080",
		LogLevel:  "info",
		LogFormat: "text",
		Gemini:    GeminiConfig{Model: enhancer.DefaultModel},
		Generator: GeneratorConfig{
			BaseURL:      generator.DefaultBaseURL,
			Timeout:      generator.DefaultTimeout,
			CacheTTL:     generator.DefaultCacheTTL,
			CacheEntries: 128,
			StockImages:  generator.DefaultStockImages,
			Defaults:     generator.DefaultDefaults(),
		},
		History: HistoryConfig{
			DBPath:     "imagestudio.db",
			QuotaBytes: history.DefaultQuotaBytes,
			Options: history.Options{
				MaxEntries:     history.DefaultMaxEntries,
				KeepOnOverflow: history.DefaultKeepOnOverflow,
			},
		},
		Filter: FilterConfig{
			MaxUploadMB: 20,
			Presets:     filter.DefaultPresets(),
		},
	}
}

// Load は設定を読み込みます。path が空の場合はファイルを読まず、既定値に環境変数を適用します。
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルを読み込めませんでした %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルの解析に失敗しました %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// applyEnv は環境変数による上書きを適用します。
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"GEMINI_API_KEY":           &c.Gemini.APIKey,
		"IMAGESTUDIO_GEMINI_MODEL": &c.Gemini.Model,
		"IMAGESTUDIO_LISTEN":       &c.Listen,
		"IMAGESTUDIO_LOG_LEVEL":    &c.LogLevel,
		"IMAGESTUDIO_LOG_FORMAT":   &c.LogFormat,
		"IMAGESTUDIO_BASE_URL":     &c.Generator.BaseURL,
		"IMAGESTUDIO_DB_PATH":      &c.History.DBPath,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("IMAGESTUDIO_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("IMAGESTUDIO_TIMEOUT が不正です: %w", err)
		}
		c.Generator.Timeout = d
	}
	if v, ok := lookup("IMAGESTUDIO_CONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IMAGESTUDIO_CONCURRENCY が不正です: %w", err)
		}
		c.Filter.Concurrency = n
	}
	return nil
}

// Validate は設定値の妥当性を検証します。
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format は text または json です: %q", c.LogFormat)
	}
	if u, err := url.Parse(c.Generator.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("generator.base_url が不正です: %q", c.Generator.BaseURL)
	}
	if c.Generator.Timeout <= 0 {
		return fmt.Errorf("generator.timeout must be > 0")
	}
	if c.Generator.CacheEntries < 0 {
		return fmt.Errorf("generator.cache_entries must be >= 0")
	}
	if c.History.DBPath == "" {
		return fmt.Errorf("history.db_path is required")
	}
	if c.History.MaxEntries <= 0 {
		return fmt.Errorf("history.max_entries must be > 0")
	}
	if c.Filter.MaxUploadMB <= 0 {
		return fmt.Errorf("filter.max_upload_mb must be > 0")
	}
	for i, p := range c.Filter.Presets {
		if p.Name == "" {
			return fmt.Errorf("filter.presets[%d]: name is required", i)
		}
		if _, err := p.Pipeline(); err != nil {
			return fmt.Errorf("filter.presets[%d]: %w", i, err)
		}
	}
	return nil
}

// MaxUploadBytes はアップロード画像の上限をバイト数で返します。
func (c *Config) MaxUploadBytes() int64 { return int64(c.Filter.MaxUploadMB) << 20 }
