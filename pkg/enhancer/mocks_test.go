package enhancer

import (
	"context"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

type mockTextGenerator struct {
	generateContentFunc   func(ctx context.Context, model string, prompt string) (*gemini.Response, error)
	generateWithPartsFunc func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, model string, prompt string) (*gemini.Response, error) {
	return m.generateContentFunc(ctx, model, prompt)
}

func (m *mockTextGenerator) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	return m.generateWithPartsFunc(ctx, model, parts, opts)
}

// textResponse はテキストパーツを持つ応答を組み立てます。
func textResponse(reason genai.FinishReason, texts ...string) *gemini.Response {
	parts := make([]*genai.Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, &genai.Part{Text: t})
	}
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: parts}, FinishReason: reason},
			},
		},
	}
}
