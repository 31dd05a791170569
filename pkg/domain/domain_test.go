package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterParams_Clamp(t *testing.T) {
	got := FilterParams{
		Brightness: 500, Contrast: -10, Saturation: 150,
		HueRotate: 270, Sepia: 120, Grayscale: math.NaN(), Invert: 50, Blur: 99,
	}.Clamp()

	assert.Equal(t, FilterParams{
		Brightness: 200, Contrast: 0, Saturation: 150,
		HueRotate: 180, Sepia: 100, Grayscale: 0, Invert: 50, Blur: 20,
	}, got)
}

func TestFilterParams_IsIdentity(t *testing.T) {
	assert.True(t, DefaultFilterParams().IsIdentity())

	p := DefaultFilterParams()
	p.Blur = 0.5
	assert.False(t, p.IsIdentity())

	assert.False(t, FilterParams{}.IsIdentity(), "ゼロ値は明るさ0%なので恒等ではない")
}

func TestStyle(t *testing.T) {
	for _, s := range Styles() {
		assert.True(t, s.Valid(), s)
		assert.NotEmpty(t, s.Suffix(), s)
	}
	assert.Len(t, Styles(), 10)

	assert.False(t, Style("cubism").Valid())
	assert.Empty(t, Style("cubism").Suffix())
	assert.Empty(t, Style("").Suffix())
}
