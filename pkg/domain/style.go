package domain

// Style は画風タグです。タグごとにプロンプトへ付与する接尾辞が決まっています。
type Style string

const (
	StyleRealistic   Style = "realistic"
	StyleAnime       Style = "anime"
	StyleDigitalArt  Style = "digital-art"
	StyleOilPainting Style = "oil-painting"
	StyleWatercolor  Style = "watercolor"
	StyleSketch      Style = "sketch"
	Style3DRender    Style = "3d-render"
	StylePixelArt    Style = "pixel-art"
	StyleCinematic   Style = "cinematic"
	StyleFantasy     Style = "fantasy"
)

var styleSuffixes = map[Style]string{
	StyleRealistic:   "photorealistic, highly detailed, 8k, sharp focus, natural lighting",
	StyleAnime:       "anime style, vibrant colors, clean lineart, studio quality",
	StyleDigitalArt:  "digital art, trending on artstation, highly detailed, concept art",
	StyleOilPainting: "oil painting, thick brush strokes, classical composition, canvas texture",
	StyleWatercolor:  "watercolor painting, soft edges, pastel colors, paper texture",
	StyleSketch:      "pencil sketch, graphite, hand drawn, monochrome, crosshatching",
	Style3DRender:    "3d render, octane render, global illumination, subsurface scattering",
	StylePixelArt:    "pixel art, 16-bit, retro game style, limited palette",
	StyleCinematic:   "cinematic still, dramatic lighting, anamorphic lens, film grain",
	StyleFantasy:     "fantasy art, epic, magical atmosphere, intricate details",
}

// Suffix は画風に対応するプロンプト接尾辞を返します。未知のタグは空文字です。
func (s Style) Suffix() string {
	return styleSuffixes[s]
}

// Valid は既知の画風タグかどうかを返します。
func (s Style) Valid() bool {
	_, ok := styleSuffixes[s]
	return ok
}

// Styles は既知の画風タグを定義順で返します。
func Styles() []Style {
	return []Style{
		StyleRealistic, StyleAnime, StyleDigitalArt, StyleOilPainting, StyleWatercolor,
		StyleSketch, Style3DRender, StylePixelArt, StyleCinematic, StyleFantasy,
	}
}
