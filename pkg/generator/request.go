package generator

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shouni/gemini-image-studio/pkg/domain"
)

// BuildPrompt はプロンプト本文に画風の接尾辞を連結します。空の要素は除外されます。
func BuildPrompt(req domain.ImageGenerationRequest) string {
	var parts []string
	if p := strings.TrimSpace(req.Prompt); p != "" {
		parts = append(parts, p)
	}
	if suffix := domain.Style(req.Style).Suffix(); suffix != "" {
		parts = append(parts, suffix)
	}
	return strings.Join(parts, ", ")
}

// BuildRequestURL は外部画像生成エンドポイントへの GET リクエスト URL を組み立てます。
// ゼロ値・空文字のパラメータはクエリに含めません。
func BuildRequestURL(baseURL string, req domain.ImageGenerationRequest) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(baseURL, "/"))
	sb.WriteString("/prompt/")
	sb.WriteString(url.PathEscape(BuildPrompt(req)))

	q := url.Values{}
	if req.Width > 0 {
		q.Set("width", strconv.Itoa(req.Width))
	}
	if req.Height > 0 {
		q.Set("height", strconv.Itoa(req.Height))
	}
	if req.Seed != nil {
		q.Set("seed", strconv.FormatInt(*req.Seed, 10))
	}
	if req.Guidance > 0 {
		q.Set("cfg_scale", strconv.FormatFloat(req.Guidance, 'f', -1, 64))
	}
	if req.Steps > 0 {
		q.Set("steps", strconv.Itoa(req.Steps))
	}
	if req.Sampler != "" {
		q.Set("sampler", req.Sampler)
	}
	if np := strings.TrimSpace(req.NegativePrompt); np != "" {
		q.Set("negative_prompt", np)
	}
	if req.Model != "" {
		q.Set("model", req.Model)
	}
	q.Set("nologo", "true")

	sb.WriteString("?")
	sb.WriteString(q.Encode())
	return sb.String()
}

// normalize はリクエストを検証し、省略されたパラメータに既定値を補います。
// シードは補完しません。
func normalize(req domain.ImageGenerationRequest, d Defaults) (domain.ImageGenerationRequest, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		return req, ErrEmptyPrompt
	}

	if req.Width == 0 {
		req.Width = d.Width
	}
	if req.Height == 0 {
		req.Height = d.Height
	}
	if req.Width < MinDimension || req.Width > MaxDimension || req.Height < MinDimension || req.Height > MaxDimension {
		return req, fmt.Errorf("%w: %dx%d (許容範囲 %d-%d)", ErrInvalidDimensions, req.Width, req.Height, MinDimension, MaxDimension)
	}

	if req.Steps == 0 {
		req.Steps = d.Steps
	}
	if req.Steps < 0 || req.Steps > MaxSteps {
		return req, fmt.Errorf("%w: steps=%d", ErrInvalidParameter, req.Steps)
	}

	if req.Guidance == 0 {
		req.Guidance = d.Guidance
	}
	if req.Guidance < 0 || req.Guidance > MaxGuidance {
		return req, fmt.Errorf("%w: guidance=%g", ErrInvalidParameter, req.Guidance)
	}

	if req.Sampler == "" {
		req.Sampler = d.Sampler
	}
	if req.Model == "" {
		req.Model = d.Model
	}
	return req, nil
}
