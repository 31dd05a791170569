// Package history は生成履歴とユーザー設定をキーバリューストアに永続化します。
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultQuotaBytes はブラウザのローカルストレージ相当の容量上限です。
const DefaultQuotaBytes = 5 << 20

// ErrQuotaExceeded は書き込みによって容量上限を超える場合に返されます。
var ErrQuotaExceeded = errors.New("ストレージの容量上限を超えました")

// KVStore は文字列キーと文字列値を保存するストアです。
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SQLiteKV は SQLite をバックエンドとする KVStore です。
// 全キーと全値のバイト数の合計が quota を超える書き込みは拒否されます。
type SQLiteKV struct {
	db    *sql.DB
	quota int64
	now   func() time.Time
}

var _ KVStore = (*SQLiteKV)(nil)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// OpenSQLite は path のデータベースを開き、テーブルを作成します。
// path に ":memory:" を指定するとメモリ上に作成します。quotaBytes が 0 以下なら無制限です。
func OpenSQLite(path string, quotaBytes int64) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("データベースを開けませんでした: %w", err)
	}
	// ":memory:" は接続ごとに別のデータベースになるため、接続を1本に固定する
	db.SetMaxOpenConns(1)

	pragmas := []string{"PRAGMA busy_timeout = 10000", "PRAGMA synchronous = NORMAL"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range append(pragmas, schema) {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("データベースの初期化に失敗しました (%s): %w", p, err)
		}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベースに接続できませんでした: %w", err)
	}

	return &SQLiteKV{db: db, quota: quotaBytes, now: time.Now}, nil
}

// Close はデータベースを閉じます。
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

// Get はキーの値を返します。存在しない場合は false です。
func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("値の読み込みに失敗しました (key=%s): %w", key, err)
	}
	return value, true, nil
}

// Set はキーに値を保存します。容量上限を超える場合は ErrQuotaExceeded を返し、既存の値は変更しません。
func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションを開始できませんでした: %w", err)
	}
	defer tx.Rollback()

	if s.quota > 0 {
		var used int64
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(length(CAST(key AS BLOB)) + length(CAST(value AS BLOB))), 0) FROM kv WHERE key <> ?`,
			key).Scan(&used)
		if err != nil {
			return fmt.Errorf("使用量の取得に失敗しました: %w", err)
		}
		if size := used + int64(len(key)+len(value)); size > s.quota {
			return fmt.Errorf("%w (key=%s, %d/%d bytes)", ErrQuotaExceeded, key, size, s.quota)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().Unix())
	if err != nil {
		return fmt.Errorf("値の保存に失敗しました (key=%s): %w", key, err)
	}
	return tx.Commit()
}

// Delete はキーを削除します。存在しないキーの削除はエラーになりません。
func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("値の削除に失敗しました (key=%s): %w", key, err)
	}
	return nil
}
