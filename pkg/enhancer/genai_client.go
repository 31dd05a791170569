package enhancer

import (
	"context"
	"fmt"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// GenAIClient は genai.Client を TextGenerator として扱うためのアダプターです。
type GenAIClient struct {
	client *genai.Client
}

var _ TextGenerator = (*GenAIClient)(nil)

// NewGenAIClient は Gemini API 用のクライアントを生成します。
func NewGenAIClient(ctx context.Context, apiKey string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIClient{client: client}, nil
}

// GenerateContent はテキストのみのプロンプトで生成を行います。
func (c *GenAIClient) GenerateContent(ctx context.Context, model string, prompt string) (*gemini.Response, error) {
	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return nil, err
	}
	return &gemini.Response{RawResponse: resp}, nil
}

// GenerateWithParts はテキストと画像などの複数パーツで生成を行います。
func (c *GenAIClient) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	var config *genai.GenerateContentConfig
	if opts.SystemPrompt != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(opts.SystemPrompt, genai.RoleUser),
		}
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, err
	}
	return &gemini.Response{RawResponse: resp}, nil
}
