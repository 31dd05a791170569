// Package server は画像生成・フィルタ・履歴を HTTP API として公開します。
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/filter"
	"github.com/shouni/gemini-image-studio/pkg/generator"
)

const defaultMaxUploadBytes = 20 << 20

// PromptEnhancer はプロンプト改善とキャプション生成を行います。
type PromptEnhancer interface {
	EnhancePrompt(ctx context.Context, prompt string) (string, error)
	Caption(ctx context.Context, data []byte) (string, error)
}

// HistoryStore は生成履歴とユーザー設定を保持します。
type HistoryStore interface {
	Add(ctx context.Context, rec domain.GeneratedImage) error
	List() []domain.GeneratedImage
	Clear(ctx context.Context) error
	SavePrompt(ctx context.Context, prompt string) error
	SaveStyle(ctx context.Context, style string) error
	LoadPreferences(ctx context.Context) (domain.Preferences, error)
}

// Options は Server の設定です。
type Options struct {
	Presets        []filter.Preset
	Concurrency    int
	MaxUploadBytes int64
}

// Server は API のハンドラー群です。
type Server struct {
	generator   generator.ImageGenerator
	enhancer    PromptEnhancer
	history     HistoryStore
	presets     []filter.Preset
	concurrency int
	maxUpload   int64
}

// New は依存関係を注入して Server を初期化します。
// enhancer が nil の場合、/api/enhance と /api/caption は 503 を返します。
func New(gen generator.ImageGenerator, enhancer PromptEnhancer, hist HistoryStore, opts Options) (*Server, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if hist == nil {
		return nil, fmt.Errorf("history is required")
	}
	if opts.Presets == nil {
		opts.Presets = filter.DefaultPresets()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Server{
		generator:   gen,
		enhancer:    enhancer,
		history:     hist,
		presets:     opts.Presets,
		concurrency: opts.Concurrency,
		maxUpload:   opts.MaxUploadBytes,
	}, nil
}

// Handler はルーティング済みの http.Handler を返します。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Post("/enhance", s.handleEnhance)
		r.Post("/caption", s.handleCaption)
		r.Post("/filter", s.handleFilter)
		r.Post("/variants", s.handleVariants)

		r.Get("/history", s.handleListHistory)
		r.Delete("/history", s.handleClearHistory)

		r.Get("/preferences", s.handleGetPreferences)
		r.Put("/preferences", s.handlePutPreferences)
	})
	return r
}

// requestLogger はリクエストごとのアクセスログを slog で出力します。
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			slog.InfoContext(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
				"remote", r.RemoteAddr,
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

var errInternal = errors.New("内部エラーが発生しました")

// recoverer はハンドラの panic を捕捉し、スタックを記録した上で JSON の 500 を返します。
// http.ErrAbortHandler は接続を中断させるため再度 panic させます。
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			slog.ErrorContext(r.Context(), "ハンドラで panic が発生しました",
				"panic", fmt.Sprint(rvr),
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()),
				"stack", string(debug.Stack()),
			)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errInternal.Error()})
		}()
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("レスポンスの書き込みに失敗しました", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "リクエストの処理に失敗しました", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor はエラーに対応する HTTP ステータスを返します。
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
