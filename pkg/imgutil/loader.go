package imgutil

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/gemini-image-studio/pkg/utils"
)

// HTTPClient は、URLからデータを取得するためのインターフェースです。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Loader は URL・データ URI・ローカルパスなどから画像を読み込みます。
type Loader struct {
	httpClient HTTPClient
	reader     remoteio.InputReader
	// urlCheck は SSRF 対策の検証関数です。テストで差し替えます。
	urlCheck func(string) (bool, error)
}

// NewLoader は依存関係を注入して Loader を初期化します。
// reader が nil の場合、http(s) とデータ URI 以外のソースは読み込めません。
func NewLoader(httpClient HTTPClient, reader remoteio.InputReader) (*Loader, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	return &Loader{
		httpClient: httpClient,
		reader:     reader,
		urlCheck:   utils.IsSafeURL,
	}, nil
}

// Load はソースのバイト列を取得します。
func (l *Loader) Load(ctx context.Context, src string) ([]byte, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		return decodeDataURI(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		safe, err := l.urlCheck(src)
		if err != nil {
			return nil, fmt.Errorf("URLの検証に失敗しました: %w", err)
		}
		if !safe {
			return nil, fmt.Errorf("安全ではないURLが指定されました: %s", src)
		}
		return l.httpClient.FetchBytes(ctx, src)
	}

	if l.reader == nil {
		return nil, fmt.Errorf("読み込み元に対応するリーダーが設定されていません: %s", src)
	}
	rc, err := l.reader.Open(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("ソースのオープンに失敗しました: %w", err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// LoadImage はソースを読み込み、画像としてデコードします。
func (l *Loader) LoadImage(ctx context.Context, src string) (image.Image, string, error) {
	data, err := l.Load(ctx, src)
	if err != nil {
		return nil, "", err
	}
	return Decode(data)
}

// decodeDataURI は "data:<mime>;base64,<payload>" 形式を解析します。
func decodeDataURI(uri string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("データURIの形式が不正です")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("base64以外のデータURIには対応していません: %s", meta)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("データURIのデコードに失敗しました: %w", err)
	}
	return data, nil
}

// FileReader はローカルファイルシステムを remoteio.InputReader として扱います。
// "file://" プレフィックスは取り除かれます。
type FileReader struct{}

var _ remoteio.InputReader = (*FileReader)(nil)

// Open はファイルを開きます。
func (FileReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(localPath(uri))
}

// List はディレクトリ配下のファイルパスを辞書順に fn へ渡します。
func (FileReader) List(ctx context.Context, uri string, fn func(string) error) error {
	return filepath.WalkDir(localPath(uri), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		return fn(path)
	})
}

func localPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}
