// Package enhancer は Gemini を利用したプロンプト改善と画像キャプション生成を提供します。
package enhancer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

const (
	enhanceInstruction = `You are an expert prompt engineer for text-to-image diffusion models.
Rewrite the user's idea into one vivid, detailed image prompt.
Describe subject, setting, lighting, composition, color palette and mood.
Keep it under 80 words. Respond with the prompt only, without quotes or commentary.

Idea: `

	captionInstruction = `Describe this image as a detailed text-to-image prompt.
Mention the subject, style, lighting, composition and colors.
Respond with the description only, in a single paragraph.`
)

var (
	ErrEmptyPrompt   = errors.New("プロンプトが空です")
	ErrNotImage      = errors.New("画像データではありません")
	ErrEmptyResponse = errors.New("Geminiからの有効な応答がありませんでした")
)

// TextGenerator は Gemini との通信を抽象化するインターフェースです。
type TextGenerator interface {
	GenerateContent(ctx context.Context, model string, prompt string) (*gemini.Response, error)
	GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
}

// Enhancer はプロンプトの改善と画像からのキャプション生成を担当します。
type Enhancer struct {
	aiClient TextGenerator
	model    string
}

// NewEnhancer は依存関係を注入して Enhancer を初期化します。model が空の場合は DefaultModel を使います。
func NewEnhancer(aiClient TextGenerator, model string) (*Enhancer, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	if model == "" {
		model = DefaultModel
	}
	return &Enhancer{aiClient: aiClient, model: model}, nil
}

// EnhancePrompt はプロンプトを Gemini に渡し、改善されたプロンプトをそのまま返します。
func (e *Enhancer) EnhancePrompt(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	slog.InfoContext(ctx, "プロンプトの改善をリクエストします", "model", e.model, "length", len(prompt))
	resp, err := e.aiClient.GenerateContent(ctx, e.model, enhanceInstruction+prompt)
	if err != nil {
		return "", fmt.Errorf("プロンプト改善エラー: %w", err)
	}
	return parseText(resp)
}

// Caption は画像データを Gemini に渡し、説明文を生成します。
// 画像として認識できないデータは通信前に拒否します。
func (e *Enhancer) Caption(ctx context.Context, data []byte) (string, error) {
	imgPart := toPart(data)
	if imgPart == nil {
		return "", fmt.Errorf("%w (detected: %s)", ErrNotImage, http.DetectContentType(data))
	}

	parts := []*genai.Part{{Text: captionInstruction}, imgPart}
	slog.InfoContext(ctx, "画像キャプションをリクエストします", "model", e.model, "mime_type", imgPart.InlineData.MIMEType)

	resp, err := e.aiClient.GenerateWithParts(ctx, e.model, parts, gemini.GenerateOptions{})
	if err != nil {
		return "", fmt.Errorf("キャプション生成エラー: %w", err)
	}
	return parseText(resp)
}

// toPart はバイト列を genai.Part (InlineData) に変換します。画像でない場合は nil です。
func toPart(data []byte) *genai.Part {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
}

// parseText は最初の候補 (Candidate) のテキストパーツを連結して返します。
func parseText(resp *gemini.Response) (string, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	candidate := resp.RawResponse.Candidates[0]
	var sb strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}
	if text := strings.TrimSpace(sb.String()); text != "" {
		return text, nil
	}

	// 安全フィルター等によるブロックの確認。未設定 ("") は UNSPECIFIED と同じ扱い
	switch candidate.FinishReason {
	case "", genai.FinishReasonUnspecified, genai.FinishReasonStop:
		return "", ErrEmptyResponse
	default:
		return "", fmt.Errorf("テキスト生成が異常終了しました (FinishReason: %s)", candidate.FinishReason)
	}
}
