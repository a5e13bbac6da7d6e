package main

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRGB565(t *testing.T) {
	require.Equal(t, uint16(0xFFFF), rgb565(255, 255, 255))
	require.Equal(t, uint16(0xF800), rgb565(255, 0, 0))
	require.Equal(t, uint16(0x07E0), rgb565(0, 255, 0))
	require.Equal(t, uint16(0x001F), rgb565(0, 0, 255))
	require.Equal(t, uint16(0), rgb565(7, 3, 7), "low bits are dropped")
}

func redBlue() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{B: 255, A: 255})
	return img
}

func TestBlitRGB565(t *testing.T) {
	dst := make([]byte, 4)
	blitRGB565(dst, 4, redBlue(), false)
	require.Equal(t, []byte{0x00, 0xF8, 0x1F, 0x00}, dst)

	blitRGB565(dst, 4, redBlue(), true)
	require.Equal(t, []byte{0x1F, 0x00, 0x00, 0xF8}, dst, "rotated 180 degrees")
}

func TestBlitBGRA32(t *testing.T) {
	dst := make([]byte, 8)
	blitBGRA32(dst, 8, redBlue(), false)
	require.Equal(t, []byte{0, 0, 255, 255, 255, 0, 0, 255}, dst)
}

func TestToRGBA(t *testing.T) {
	screen := image.NewRGBA(image.Rect(0, 0, SCREEN_WIDTH, SCREEN_HEIGHT))
	require.Same(t, screen, toRGBA(screen))

	converted := toRGBA(redBlue())
	require.Equal(t, screen.Rect, converted.Rect)
	require.Equal(t, uint8(255), converted.Pix[0])
}
