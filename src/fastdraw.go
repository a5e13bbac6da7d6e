package main

import (
	"image"
	"image/draw"
)

// toRGBA returns img as an RGBA bitmap of the screen size, copying only when
// needed.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect == image.Rect(0, 0, SCREEN_WIDTH, SCREEN_HEIGHT) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, SCREEN_WIDTH, SCREEN_HEIGHT))
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}

func rgb565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// blitRGB565 writes src into a little-endian RGB565 framebuffer. rotate turns
// the picture 180 degrees for panels mounted upside down.
func blitRGB565(dst []byte, stride int, src *image.RGBA, rotate bool) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	for y := 0; y < h; y++ {
		srcOff := y * src.Stride
		dy := y
		if rotate {
			dy = h - 1 - y
		}
		for x := 0; x < w; x++ {
			dx := x
			if rotate {
				dx = w - 1 - x
			}
			px := rgb565(src.Pix[srcOff], src.Pix[srcOff+1], src.Pix[srcOff+2])
			off := dy*stride + dx*2
			dst[off] = byte(px)
			dst[off+1] = byte(px >> 8)
			srcOff += 4
		}
	}
}

// blitBGRA32 writes src into a 32bpp BGRA framebuffer.
func blitBGRA32(dst []byte, stride int, src *image.RGBA, rotate bool) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	for y := 0; y < h; y++ {
		srcOff := y * src.Stride
		dy := y
		if rotate {
			dy = h - 1 - y
		}
		for x := 0; x < w; x++ {
			dx := x
			if rotate {
				dx = w - 1 - x
			}
			off := dy*stride + dx*4
			dst[off] = src.Pix[srcOff+2]
			dst[off+1] = src.Pix[srcOff+1]
			dst[off+2] = src.Pix[srcOff]
			dst[off+3] = 0xFF
			srcOff += 4
		}
	}
}
