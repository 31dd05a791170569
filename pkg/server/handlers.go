package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/enhancer"
	"github.com/shouni/gemini-image-studio/pkg/filter"
	"github.com/shouni/gemini-image-studio/pkg/generator"
	"github.com/shouni/gemini-image-studio/pkg/imgutil"
)

var errEnhancerDisabled = errors.New("Gemini が設定されていないため利用できません")

// generateResponse は履歴レコードに取得済みの画像データを添えたものです。
type generateResponse struct {
	domain.GeneratedImage
	MimeType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req domain.ImageGenerationRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	res, err := s.generator.Generate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, generator.ErrEmptyPrompt),
			errors.Is(err, generator.ErrInvalidDimensions),
			errors.Is(err, generator.ErrInvalidParameter):
			writeError(w, r, http.StatusBadRequest, err)
		case r.Context().Err() != nil:
			writeError(w, r, http.StatusServiceUnavailable, err)
		default:
			writeError(w, r, http.StatusBadGateway, err)
		}
		return
	}

	ctx := r.Context()
	if err := s.history.Add(ctx, res.Record); err != nil {
		// 画像は生成済みのため、履歴の保存失敗は応答を妨げない
		slogWarn(r, "履歴の保存に失敗しました", err)
	}
	if err := s.history.SavePrompt(ctx, req.Prompt); err != nil {
		slogWarn(r, "プロンプトの保存に失敗しました", err)
	}
	if err := s.history.SaveStyle(ctx, req.Style); err != nil {
		slogWarn(r, "スタイルの保存に失敗しました", err)
	}

	out := generateResponse{GeneratedImage: res.Record}
	if res.Image != nil {
		out.MimeType, out.Data = res.Image.MimeType, res.Image.Data
	}
	writeJSON(w, http.StatusOK, out)
}

type promptBody struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	if s.enhancer == nil {
		writeError(w, r, http.StatusServiceUnavailable, errEnhancerDisabled)
		return
	}
	var body promptBody
	if err := s.decodeJSON(w, r, &body); err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	enhanced, err := s.enhancer.EnhancePrompt(r.Context(), body.Prompt)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, enhancer.ErrEmptyPrompt) {
			status = http.StatusBadRequest
		}
		writeError(w, r, status, err)
		return
	}
	writeJSON(w, http.StatusOK, promptBody{Prompt: enhanced})
}

func (s *Server) handleCaption(w http.ResponseWriter, r *http.Request) {
	if s.enhancer == nil {
		writeError(w, r, http.StatusServiceUnavailable, errEnhancerDisabled)
		return
	}
	data, err := s.readBody(w, r)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	caption, err := s.enhancer.Caption(r.Context(), data)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, enhancer.ErrNotImage) {
			status = http.StatusUnsupportedMediaType
		}
		writeError(w, r, status, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"caption": caption})
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(w, r)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	img, _, err := imgutil.Decode(data)
	if err != nil {
		writeError(w, r, decodeStatus(err), err)
		return
	}

	params, effect, opts, err := parseFilterQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	stage, err := filter.EffectStage(effect, opts)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	format := imgutil.NormalizeFormat(r.URL.Query().Get("format"))
	out, err := imgutil.EncodeBytes(filter.NewPipeline(filter.StagesFor(params)...).Then(stage).Run(img), format, 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	w.Header().Set("Content-Type", imgutil.MimeType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// variantResponse は JSON で返すバリエーション1件です。Data は base64 で出力されます。
type variantResponse struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(w, r)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	img, _, err := imgutil.Decode(data)
	if err != nil {
		writeError(w, r, decodeStatus(err), err)
		return
	}

	variants, err := filter.GenerateVariants(r.Context(), img, s.presets, s.concurrency)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	out := make([]variantResponse, 0, len(variants))
	for _, v := range variants {
		encoded, err := imgutil.EncodeBytes(v.Image, imgutil.FormatPNG, 0)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		out = append(out, variantResponse{Name: v.Name, MimeType: imgutil.MimeType(imgutil.FormatPNG), Data: encoded})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.history.List())
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.history.Clear(r.Context()); err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.history.LoadPreferences(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs domain.Preferences
	if err := s.decodeJSON(w, r, &prefs); err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	if prefs.SelectedStyle != "" && !domain.Style(prefs.SelectedStyle).Valid() {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("未知のスタイルです: %q", prefs.SelectedStyle))
		return
	}

	ctx := r.Context()
	if err := s.history.SavePrompt(ctx, prefs.LastPrompt); err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if err := s.history.SaveStyle(ctx, prefs.SelectedStyle); err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUpload))
	if err != nil {
		return nil, fmt.Errorf("リクエスト本文を読み込めませんでした: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("リクエスト本文が空です")
	}
	return data, nil
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxUpload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("JSON の解析に失敗しました: %w", err)
	}
	return nil
}

// parseFilterQuery はクエリパラメータからフィルタ設定とエフェクト指定を読み取ります。
// 省略された項目は無変換の値になります。
func parseFilterQuery(r *http.Request) (domain.FilterParams, string, filter.EffectOptions, error) {
	q := r.URL.Query()
	params := domain.DefaultFilterParams()
	var opts filter.EffectOptions

	floats := map[string]*float64{
		"brightness": &params.Brightness,
		"contrast":   &params.Contrast,
		"saturation": &params.Saturation,
		"hue_rotate": &params.HueRotate,
		"sepia":      &params.Sepia,
		"grayscale":  &params.Grayscale,
		"invert":     &params.Invert,
		"blur":       &params.Blur,
		"strength":   &opts.Strength,
	}
	for key, dst := range floats {
		if v := q.Get(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return params, "", opts, fmt.Errorf("%s が数値ではありません: %q", key, v)
			}
			*dst = f
		}
	}

	ints := map[string]*int{
		"block":  &opts.Block,
		"radius": &opts.Radius,
		"levels": &opts.Levels,
	}
	for key, dst := range ints {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return params, "", opts, fmt.Errorf("%s が整数ではありません: %q", key, v)
			}
			*dst = n
		}
	}

	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return params, "", opts, fmt.Errorf("seed が不正です: %q", v)
		}
		opts.Seed = seed
	}
	return params, q.Get("effect"), opts, nil
}

// decodeStatus は画像デコードエラーに対応する HTTP ステータスを返します。
func decodeStatus(err error) int {
	if errors.Is(err, imgutil.ErrImageTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusUnsupportedMediaType
}

func slogWarn(r *http.Request, msg string, err error) {
	slog.WarnContext(r.Context(), msg, "error", err, "request_id", middleware.GetReqID(r.Context()))
}
