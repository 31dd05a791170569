package domain

import "time"

// ImageGenerationRequest は単一の画像生成要求です。
// ゼロ値のパラメータは外部エンドポイントへ送信されません。
type ImageGenerationRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Style          string  `json:"style,omitempty"`
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	Seed           *int64  `json:"seed,omitempty"` // nil でランダム、値指定で固定
	Guidance       float64 `json:"guidance,omitempty"`
	Steps          int     `json:"steps,omitempty"`
	Sampler        string  `json:"sampler,omitempty"`
	Model          string  `json:"model,omitempty"`
}

// ImageResponse は生成された画像データとそのメタデータです。
type ImageResponse struct {
	Data     []byte
	MimeType string
	UsedSeed int64 // 戻り値は情報欠落を防ぐため int64
}

// GeneratedImage は生成に成功した1枚分の履歴レコードです。
// 作成後は変更されず、履歴の切り詰めによってのみ破棄されます。
type GeneratedImage struct {
	ID        string    `json:"id"`
	ImageURL  string    `json:"image_url"`
	Prompt    string    `json:"prompt"`
	Style     string    `json:"style,omitempty"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`

	Model    string   `json:"model,omitempty"`
	Seed     *int64   `json:"seed,omitempty"`
	Guidance *float64 `json:"guidance,omitempty"`
	Steps    *int     `json:"steps,omitempty"`

	// Fallback は外部エンドポイントが時間内に応答せず、ストック画像に差し替えたことを示します。
	Fallback bool `json:"fallback,omitempty"`
}

// Preferences は前回の入力内容を保持します。
type Preferences struct {
	LastPrompt    string `json:"last_prompt"`
	SelectedStyle string `json:"selected_style"`
}
