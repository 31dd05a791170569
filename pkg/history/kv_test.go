package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T, quota int64) *SQLiteKV {
	t.Helper()
	kv, err := OpenSQLite(":memory:", quota)
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestSQLiteKV(t *testing.T) {
	ctx := context.Background()

	t.Run("保存・取得・削除", func(t *testing.T) {
		kv := openMemory(t, 0)

		_, found, err := kv.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, kv.Set(ctx, "k", "v1"))
		require.NoError(t, kv.Set(ctx, "k", "v2"))
		v, found, err := kv.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "v2", v)

		require.NoError(t, kv.Delete(ctx, "k"))
		require.NoError(t, kv.Delete(ctx, "k"))
		_, found, _ = kv.Get(ctx, "k")
		assert.False(t, found)
	})

	t.Run("容量上限を超える書き込みは拒否される", func(t *testing.T) {
		kv := openMemory(t, 20)

		require.NoError(t, kv.Set(ctx, "a", "12345"))
		err := kv.Set(ctx, "b", "123456789012345")
		assert.ErrorIs(t, err, ErrQuotaExceeded)

		_, found, _ := kv.Get(ctx, "b")
		assert.False(t, found, "拒否された値が保存されているのだ")

		// 上書きでは自身の旧い値は使用量に含めない
		require.NoError(t, kv.Set(ctx, "a", "123456789012345678"))
	})

	t.Run("マルチバイト文字はバイト数で数える", func(t *testing.T) {
		kv := openMemory(t, 7)
		err := kv.Set(ctx, "k", "ねこ")
		assert.NoError(t, err)
		err = kv.Set(ctx, "k", "ねこだ")
		assert.ErrorIs(t, err, ErrQuotaExceeded)
	})

	t.Run("ファイルに永続化される", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "studio.db")
		kv, err := OpenSQLite(path, 0)
		require.NoError(t, err)
		require.NoError(t, kv.Set(ctx, "k", "persisted"))
		require.NoError(t, kv.Close())

		kv, err = OpenSQLite(path, 0)
		require.NoError(t, err)
		defer kv.Close()
		v, found, err := kv.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "persisted", v)
	})
}
