package main

import (
	"fmt"
	"image"
	"math"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const DEFAULT_FONT_PATH = "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"

// Painter builds full-screen frames. Font faces are not safe for concurrent
// use, so every frame is drawn under mu.
type Painter struct {
	mu         sync.Mutex
	theme      Theme
	statusFace font.Face
	menuFace   font.Face
	images     map[string]*image.RGBA
}

func newPainter(fontPath string) *Painter {
	return &Painter{
		theme:      ThemeLCD,
		statusFace: loadFace(fontPath, FONT_SIZE_STATUS),
		menuFace:   loadFace(fontPath, FONT_SIZE_MENU),
		images:     make(map[string]*image.RGBA),
	}
}

// loadFace falls back to the built-in bitmap font when the TTF is missing.
func loadFace(path string, size float64) font.Face {
	if path != "" {
		face, err := gg.LoadFontFace(path, size)
		if err == nil {
			return face
		}
		logger.Warn().Err(err).Str("font", path).Msg("Font not loaded, using built-in face")
	}
	return basicfont.Face7x13
}

func (p *Painter) canvas() *gg.Context {
	dc := gg.NewContext(SCREEN_WIDTH, SCREEN_HEIGHT)
	dc.SetHexColor(p.theme.BG)
	dc.Clear()
	return dc
}

func frameOf(dc *gg.Context) *image.RGBA {
	return dc.Image().(*image.RGBA)
}

// Track draws the now-playing screen.
func (p *Painter) Track(title string, elapsed, duration float64, volume, battery int) *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()

	dc := p.canvas()
	title = strings.NewReplacer("_", " ", "-", " ").Replace(title)
	p.drawWrapped(dc, []string{title})

	dc.SetFontFace(p.statusFace)
	dc.SetHexColor(p.theme.Text)
	dc.DrawStringAnchored(formatTime(elapsed)+" / "+formatTime(duration), SCREEN_WIDTH/2, STATUS_TIME_Y, 0.5, 1)

	p.drawProgressBar(dc, elapsed, duration)
	p.drawBatteryIcon(dc, battery)
	p.drawVolumeGlyph(dc, volume)
	return frameOf(dc)
}

// Message draws centered, word-wrapped lines, one paragraph per argument.
func (p *Painter) Message(battery int, lines ...string) *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()

	dc := p.canvas()
	p.drawWrapped(dc, lines)
	p.drawBatteryIcon(dc, battery)
	return frameOf(dc)
}

// WithBattery copies base and stamps the battery indicator on it.
func (p *Painter) WithBattery(base image.Image, battery int) *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()

	dc := p.canvas()
	if base != nil {
		dc.DrawImage(base, 0, 0)
	}
	p.drawBatteryIcon(dc, battery)
	return frameOf(dc)
}

// StreamImage loads and scales a stream picture to the screen. Decoded
// images are kept for the process lifetime.
func (p *Painter) StreamImage(path string) (*image.RGBA, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if img, ok := p.images[path]; ok {
		return img, nil
	}

	src, err := gg.LoadImage(path)
	if err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, SCREEN_WIDTH, SCREEN_HEIGHT))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	p.images[path] = dst
	return dst, nil
}

// Menu draws a menu view with the selected row shifted left by scroll pixels.
// It returns how far the selected row overflows the usable width.
func (p *Painter) Menu(view MenuView, scroll int) (*image.RGBA, int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	dc := p.canvas()
	dc.SetFontFace(p.menuFace)
	measure := func(s string) float64 {
		w, _ := dc.MeasureString(s)
		return w
	}
	maxWidth := float64(SCREEN_WIDTH - 2*MENU_LEFT_PAD)

	y := 0.0
	if view.Title != "" {
		dc.SetHexColor(p.theme.MenuTxt)
		dc.DrawStringAnchored(truncateText(view.Title, maxWidth, measure), MENU_LEFT_PAD, y, 0, 1)
		y += MENU_TITLE_HEIGHT
	}

	overflow := 0
	for i, option := range view.Options {
		if y+MENU_ITEM_HEIGHT > SCREEN_HEIGHT {
			break
		}
		if i == view.Selected {
			dc.SetHexColor(p.theme.SelBG)
			dc.DrawRectangle(0, y, SCREEN_WIDTH, MENU_ITEM_HEIGHT)
			dc.Fill()

			overflow = int(math.Ceil(measure(option) - maxWidth))
			x := float64(MENU_LEFT_PAD)
			if overflow > 0 {
				x -= float64(scroll)
			}
			dc.SetHexColor(p.theme.SelTxt)
			dc.DrawStringAnchored(option, x, y+2, 0, 1)
		} else {
			dc.SetHexColor(p.theme.MenuTxt)
			dc.DrawStringAnchored(truncateText(option, maxWidth, measure), MENU_LEFT_PAD, y+2, 0, 1)
		}
		y += MENU_ITEM_HEIGHT
	}
	return frameOf(dc), max(overflow, 0)
}

// drawWrapped lays out paragraphs from STATUS_TITLE_Y down, each word-wrapped
// and centered, at most STATUS_TITLE_LINES lines in total.
func (p *Painter) drawWrapped(dc *gg.Context, paragraphs []string) {
	dc.SetFontFace(p.statusFace)
	dc.SetHexColor(p.theme.Text)
	lineHeight := dc.FontHeight() + 2
	maxWidth := float64(SCREEN_WIDTH - 2*STATUS_MARGIN_X)

	var lines []string
	for _, para := range paragraphs {
		lines = append(lines, dc.WordWrap(para, maxWidth)...)
	}
	if len(lines) > STATUS_TITLE_LINES {
		lines = lines[:STATUS_TITLE_LINES]
	}

	y := float64(STATUS_TITLE_Y)
	for _, line := range lines {
		w, _ := dc.MeasureString(line)
		x := math.Max((SCREEN_WIDTH-w)/2, STATUS_MARGIN_X)
		dc.DrawStringAnchored(line, x, y, 0, 1)
		y += lineHeight
	}
}

func (p *Painter) drawProgressBar(dc *gg.Context, elapsed, duration float64) {
	dc.SetLineWidth(1)
	dc.SetHexColor(p.theme.ProgLine)
	dc.DrawRectangle(PROGRESS_BAR_X, PROGRESS_BAR_Y, PROGRESS_BAR_W, PROGRESS_BAR_H)
	dc.Stroke()

	if duration > 0 {
		progress := math.Min(math.Max(elapsed/duration, 0), 1)
		dc.SetHexColor(p.theme.Progress)
		dc.DrawRectangle(PROGRESS_BAR_X, PROGRESS_BAR_Y, PROGRESS_BAR_W*progress, PROGRESS_BAR_H)
		dc.Fill()
	}
}

// drawBatteryIcon draws the battery frame with a fill proportional to
// level. A negative level (unknown) leaves the frame empty.
func (p *Painter) drawBatteryIcon(dc *gg.Context, level int) {
	const fillMax = BATTERY_W - 6

	dc.SetHexColor(p.theme.BG)
	dc.DrawRectangle(BATTERY_X, BATTERY_Y, BATTERY_W, BATTERY_H)
	dc.Fill()
	dc.SetLineWidth(1)
	dc.SetHexColor(p.theme.Icon)
	dc.DrawRectangle(BATTERY_X, BATTERY_Y, BATTERY_W, BATTERY_H)
	dc.Stroke()

	// Terminal
	dc.DrawRectangle(BATTERY_X+BATTERY_W, BATTERY_Y+BATTERY_H/4, 2, BATTERY_H/2)
	dc.Fill()

	if level <= 0 {
		return
	}
	fill := fillMax * clamp(level, 0, 100) / 100
	if fill > 0 {
		dc.DrawRectangle(BATTERY_X+3, BATTERY_Y+3, float64(fill), BATTERY_H-6)
		dc.Fill()
	}
}

// drawVolumeGlyph draws a speaker with one wave per started 10% of volume.
func (p *Painter) drawVolumeGlyph(dc *gg.Context, volume int) {
	const x, y, w, h = 10.0, 10.0, 8.0, 14.0

	dc.SetHexColor(p.theme.Icon)
	dc.MoveTo(x+w, y)
	dc.LineTo(x+w, y+h)
	dc.LineTo(x, y+h-4)
	dc.LineTo(x, y+4)
	dc.ClosePath()
	dc.Fill()

	dc.SetLineWidth(1)
	for k := 0; k < 10 && volume > k*10; k++ {
		fk := float64(k)
		x0, x1 := x+w+2+fk, x+w+6+2*fk
		y0, y1 := y+2-fk, y+h-2+fk
		dc.DrawEllipticalArc((x0+x1)/2, (y0+y1)/2, (x1-x0)/2, (y1-y0)/2, gg.Radians(-60), gg.Radians(60))
		dc.Stroke()
	}
}

// truncateText shortens text with "..." until it fits maxWidth, using a
// binary search over rune prefixes.
func truncateText(text string, maxWidth float64, measure func(string) float64) string {
	if measure(text) <= maxWidth {
		return text
	}

	runes := []rune(text)
	left, right := 1, len(runes)
	bestFit := 0
	for left <= right {
		mid := (left + right) / 2
		if measure(string(runes[:mid])+"...") <= maxWidth {
			bestFit = mid
			left = mid + 1
		} else {
			right = mid - 1
		}
	}

	if bestFit == 0 {
		return "..."
	}
	return string(runes[:bestFit]) + "..."
}

// formatTime converts seconds to "M:SS" format
func formatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "0:00"
	}
	totalSec := int(seconds)
	return fmt.Sprintf("%d:%02d", totalSec/60, totalSec%60)
}
