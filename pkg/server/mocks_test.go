package server

import (
	"context"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/generator"
)

type mockGenerator struct {
	generateFunc func(ctx context.Context, req domain.ImageGenerationRequest) (*generator.Result, error)
}

func (m *mockGenerator) Generate(ctx context.Context, req domain.ImageGenerationRequest) (*generator.Result, error) {
	return m.generateFunc(ctx, req)
}

type mockEnhancer struct {
	enhanceFunc func(ctx context.Context, prompt string) (string, error)
	captionFunc func(ctx context.Context, data []byte) (string, error)
}

func (m *mockEnhancer) EnhancePrompt(ctx context.Context, prompt string) (string, error) {
	return m.enhanceFunc(ctx, prompt)
}

func (m *mockEnhancer) Caption(ctx context.Context, data []byte) (string, error) {
	return m.captionFunc(ctx, data)
}
