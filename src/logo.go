package main

import (
	"image"

	"github.com/fogleman/gg"
)

const IDLE_FACE = "(o_o)"

// Splash is shown while the library is scanned at startup.
func (p *Painter) Splash(version string) *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()

	dc := p.canvas()
	p.drawRadio(dc, SCREEN_WIDTH/2, 95)

	dc.SetFontFace(p.statusFace)
	dc.SetHexColor(p.theme.Text)
	dc.DrawStringAnchored(APP_NAME, SCREEN_WIDTH/2, 165, 0.5, 0.5)
	dc.SetFontFace(p.menuFace)
	dc.SetHexColor(p.theme.Icon)
	dc.DrawStringAnchored("v"+version, SCREEN_WIDTH/2, 190, 0.5, 0.5)
	return frameOf(dc)
}

// Idle is the resting screen: the face and the battery.
func (p *Painter) Idle(battery int) *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()

	dc := p.canvas()
	dc.SetFontFace(p.statusFace)
	dc.SetHexColor(p.theme.Face)
	dc.DrawStringAnchored(IDLE_FACE, SCREEN_WIDTH/2, SCREEN_HEIGHT/2, 0.5, 0.5)
	p.drawBatteryIcon(dc, battery)
	return frameOf(dc)
}

// drawRadio draws the radio logo centered at (cx, cy).
func (p *Painter) drawRadio(dc *gg.Context, cx, cy float64) {
	dc.Push()
	defer dc.Pop()
	dc.Translate(cx-40, cy-30)

	// Antenna
	dc.SetHexColor(p.theme.Text)
	dc.SetLineWidth(3)
	dc.DrawLine(20, 12, 56, -12)
	dc.Stroke()

	// Body
	dc.DrawRoundedRectangle(0, 12, 80, 50, 8)
	dc.Fill()

	// Speaker and dial
	dc.SetHexColor(p.theme.BG)
	dc.DrawCircle(24, 37, 14)
	dc.Fill()
	dc.DrawRectangle(48, 24, 22, 8)
	dc.Fill()
	dc.SetHexColor(p.theme.Progress)
	dc.DrawCircle(59, 47, 6)
	dc.Fill()
}
