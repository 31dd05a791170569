package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shouni/gemini-image-studio/pkg/domain"
)

// 永続化に使うキー
const (
	HistoryKey = "image_history"
	PromptKey  = "last_prompt"
	StyleKey   = "selected_style"
)

const (
	DefaultMaxEntries     = 50
	DefaultKeepOnOverflow = 10
)

// Options は History の保持件数を設定します。
type Options struct {
	// MaxEntries はメモリ上および永続化する最大件数です。
	MaxEntries int `yaml:"max_entries"`
	// KeepOnOverflow は容量超過時に残す直近の件数です。
	KeepOnOverflow int `yaml:"keep_on_overflow"`
}

// History は生成履歴を新しい順に保持し、KVStore にミラーします。
type History struct {
	mu sync.RWMutex

	// saveMu はストアへの書き込みを直列化し、永続化の順序をメモリ上の順序と一致させます。
	saveMu sync.Mutex

	store          KVStore
	entries        []domain.GeneratedImage
	maxEntries     int
	keepOnOverflow int
}

// New は History を初期化します。永続化済みの履歴を読み込むには Load を呼び出します。
func New(store KVStore, opts Options) (*History, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.KeepOnOverflow <= 0 {
		opts.KeepOnOverflow = DefaultKeepOnOverflow
	}
	if opts.KeepOnOverflow > opts.MaxEntries {
		opts.KeepOnOverflow = opts.MaxEntries
	}
	return &History{
		store:          store,
		maxEntries:     opts.MaxEntries,
		keepOnOverflow: opts.KeepOnOverflow,
	}, nil
}

// Load はストアから履歴を読み込みます。壊れたデータは警告を出して空の履歴として扱います。
// 保存済みの件数が MaxEntries を超える場合は切り詰めた結果をストアにも書き戻します。
func (h *History) Load(ctx context.Context) error {
	h.saveMu.Lock()
	defer h.saveMu.Unlock()

	raw, found, err := h.store.Get(ctx, HistoryKey)
	if err != nil {
		return fmt.Errorf("履歴の読み込みに失敗しました: %w", err)
	}

	var entries []domain.GeneratedImage
	if found {
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			slog.WarnContext(ctx, "保存された履歴を解析できないため破棄します", "error", err)
			entries = nil
		}
	}
	truncated := len(entries) > h.maxEntries
	if truncated {
		entries = entries[:h.maxEntries]
	}

	h.mu.Lock()
	h.entries = entries
	h.mu.Unlock()

	if truncated {
		slog.InfoContext(ctx, "保存済みの履歴を最大件数に切り詰めます", "max_entries", h.maxEntries)
		return h.persist(ctx, entries)
	}
	return nil
}

// Add はレコードを先頭に追加し、最大件数に切り詰めて永続化します。
// 容量超過時は直近の KeepOnOverflow 件のみを保存し、それでも失敗した場合は永続化された履歴を削除します。
// いずれの場合もメモリ上の履歴は保持されます。
func (h *History) Add(ctx context.Context, rec domain.GeneratedImage) error {
	h.saveMu.Lock()
	defer h.saveMu.Unlock()

	h.mu.Lock()
	entries := make([]domain.GeneratedImage, 0, min(len(h.entries)+1, h.maxEntries))
	entries = append(entries, rec)
	entries = append(entries, h.entries[:min(len(h.entries), h.maxEntries-1)]...)
	h.entries = entries
	h.mu.Unlock()

	return h.persist(ctx, entries)
}

func (h *History) persist(ctx context.Context, entries []domain.GeneratedImage) error {
	err := h.save(ctx, entries)
	if !errors.Is(err, ErrQuotaExceeded) {
		return err
	}

	keep := entries[:min(len(entries), h.keepOnOverflow)]
	slog.WarnContext(ctx, "容量上限のため直近の履歴のみ保存します", "entries", len(entries), "keep", len(keep))
	err = h.save(ctx, keep)
	if !errors.Is(err, ErrQuotaExceeded) {
		return err
	}

	slog.WarnContext(ctx, "容量上限のため保存済みの履歴を削除します", "error", err)
	return h.store.Delete(ctx, HistoryKey)
}

func (h *History) save(ctx context.Context, entries []domain.GeneratedImage) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("履歴のシリアライズに失敗しました: %w", err)
	}
	return h.store.Set(ctx, HistoryKey, string(data))
}

// List は新しい順の履歴のコピーを返します。
func (h *History) List() []domain.GeneratedImage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]domain.GeneratedImage, len(h.entries))
	copy(out, h.entries)
	return out
}

// Get は ID に一致するレコードを返します。
func (h *History) Get(id string) (domain.GeneratedImage, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, e := range h.entries {
		if e.ID == id {
			return e, true
		}
	}
	return domain.GeneratedImage{}, false
}

// Clear はメモリ上と永続化済みの履歴を削除します。
func (h *History) Clear(ctx context.Context) error {
	h.saveMu.Lock()
	defer h.saveMu.Unlock()

	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
	return h.store.Delete(ctx, HistoryKey)
}

// SavePrompt は最後に使われたプロンプトを保存します。
func (h *History) SavePrompt(ctx context.Context, prompt string) error {
	return h.store.Set(ctx, PromptKey, prompt)
}

// SaveStyle は選択中のスタイルを保存します。
func (h *History) SaveStyle(ctx context.Context, style string) error {
	return h.store.Set(ctx, StyleKey, style)
}

// LoadPreferences は保存済みの設定を返します。未保存の項目は空文字です。
func (h *History) LoadPreferences(ctx context.Context) (domain.Preferences, error) {
	var prefs domain.Preferences
	prompt, _, err := h.store.Get(ctx, PromptKey)
	if err != nil {
		return prefs, err
	}
	style, _, err := h.store.Get(ctx, StyleKey)
	if err != nil {
		return prefs, err
	}
	prefs.LastPrompt, prefs.SelectedStyle = prompt, style
	return prefs, nil
}
