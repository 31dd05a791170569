package imgutil

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHTTPClient struct {
	data   []byte
	err    error
	called []string
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.called = append(m.called, url)
	return m.data, m.err
}

func TestNewLoader(t *testing.T) {
	_, err := NewLoader(nil, nil)
	assert.Error(t, err, "httpClient が nil の場合はエラー")
}

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()
	pngData := createDummyImageData(t, "png")

	t.Run("http(s)はHTTPクライアント経由で取得する", func(t *testing.T) {
		httpMock := &mockHTTPClient{data: pngData}
		l, err := NewLoader(httpMock, nil)
		require.NoError(t, err)
		l.urlCheck = func(string) (bool, error) { return true, nil }

		got, err := l.Load(ctx, "https://example.com/a.png")
		require.NoError(t, err)
		assert.Equal(t, pngData, got)
		assert.Equal(t, []string{"https://example.com/a.png"}, httpMock.called)
	})

	t.Run("安全でないURLは取得しない", func(t *testing.T) {
		httpMock := &mockHTTPClient{data: pngData}
		l, _ := NewLoader(httpMock, nil)

		_, err := l.Load(ctx, "http://127.0.0.1/evil.png")
		assert.Error(t, err)
		assert.Empty(t, httpMock.called)
	})

	t.Run("HTTPエラーはそのまま返す", func(t *testing.T) {
		want := errors.New("boom")
		l, _ := NewLoader(&mockHTTPClient{err: want}, nil)
		l.urlCheck = func(string) (bool, error) { return true, nil }

		_, err := l.Load(ctx, "https://example.com/a.png")
		assert.ErrorIs(t, err, want)
	})

	t.Run("データURIをデコードできる", func(t *testing.T) {
		l, _ := NewLoader(&mockHTTPClient{}, nil)
		uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)

		got, err := l.Load(ctx, uri)
		require.NoError(t, err)
		assert.Equal(t, pngData, got)
	})

	t.Run("base64以外のデータURIはエラー", func(t *testing.T) {
		l, _ := NewLoader(&mockHTTPClient{}, nil)
		_, err := l.Load(ctx, "data:text/plain,hello")
		assert.Error(t, err)
	})

	t.Run("ローカルファイルはFileReader経由で読む", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "img.png")
		require.NoError(t, os.WriteFile(path, pngData, 0o644))

		l, _ := NewLoader(&mockHTTPClient{}, FileReader{})
		got, err := l.Load(ctx, "file://"+path)
		require.NoError(t, err)
		assert.Equal(t, pngData, got)

		img, format, err := l.LoadImage(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, 10, img.Bounds().Dx())
	})

	t.Run("リーダー未設定ならエラー", func(t *testing.T) {
		l, _ := NewLoader(&mockHTTPClient{}, nil)
		_, err := l.Load(ctx, "/tmp/whatever.png")
		assert.Error(t, err)
	})
}

func TestFileReader_List(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.png"), []byte("x"), 0o644))

	var got []string
	err := FileReader{}.List(context.Background(), dir, func(p string) error {
		rel, _ := filepath.Rel(dir, p)
		got = append(got, rel)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png", filepath.Join("sub", "c.png")}, got)
}
