package main

import (
	"context"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"os"
	"strings"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DisplaySink is where the controller and its render tasks send frames.
type DisplaySink interface {
	Render(img image.Image) error
	// RenderMenu draws view and keeps animating it until the animation is
	// done or ctx is cancelled.
	RenderMenu(ctx context.Context, view MenuView) error
}

// Panel pushes finished bitmaps to the hardware.
type Panel interface {
	Blit(img *image.RGBA) error
	Close() error
}

// Screen is the DisplaySink for the LCD. Identical consecutive frames are
// dropped.
type Screen struct {
	mu      sync.Mutex
	panel   Panel
	painter *Painter
	lastCRC uint32
	hasLast bool

	frameDelay time.Duration
}

func newScreen(panel Panel, painter *Painter) *Screen {
	return &Screen{panel: panel, painter: painter, frameDelay: SCROLL_FRAME_DELAY}
}

func (s *Screen) Render(img image.Image) error {
	rgba := toRGBA(img)
	sum := crc32.ChecksumIEEE(rgba.Pix)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasLast && sum == s.lastCRC {
		return nil
	}
	if err := s.panel.Blit(rgba); err != nil {
		return err
	}
	s.lastCRC, s.hasLast = sum, true
	return nil
}

// RenderMenu draws the view once, then scrolls an overflowing selected row
// until it reached its end.
func (s *Screen) RenderMenu(ctx context.Context, view MenuView) error {
	start := time.Now()
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, overflow := s.painter.Menu(view, offset)
		if err := s.Render(img); err != nil {
			return err
		}
		if overflow <= 0 {
			return nil
		}

		if err := sleepCtx(ctx, s.frameDelay); err != nil {
			return err
		}
		next, done := scrollOffset(time.Since(start), overflow)
		if done && next == offset {
			return nil
		}
		offset = next
	}
}

// scrollOffset is the pixel offset of a row overflowing by overflow pixels,
// elapsed after it got selected. done reports the offset reached its end.
func scrollOffset(elapsed time.Duration, overflow int) (offset int, done bool) {
	if overflow <= 0 {
		return 0, true
	}
	moving := elapsed - SCROLL_SETTLE
	if moving <= 0 {
		return 0, false
	}
	limit := overflow + SCROLL_END_PAD
	offset = int(moving.Seconds() * SCROLL_SPEED)
	if offset >= limit {
		return limit, true
	}
	return offset, false
}

const (
	FBIOGET_VSCREENINFO = 0x4600
)

// fbVarScreeninfo mirrors struct fb_var_screeninfo; only the leading fields
// are read.
type fbVarScreeninfo struct {
	Xres         uint32
	Yres         uint32
	XresVirtual  uint32
	YresVirtual  uint32
	Xoffset      uint32
	Yoffset      uint32
	BitsPerPixel uint32
	Grayscale    uint32
	_            [32]uint32
}

// fbPanel writes into a memory-mapped Linux framebuffer (fbtft for the HAT).
type fbPanel struct {
	file   *os.File
	mem    []byte
	stride int
	bpp    int
	rotate bool
}

func openFramebuffer(path string, rotate bool) (*fbPanel, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	var info fbVarScreeninfo
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, file.Fd(), FBIOGET_VSCREENINFO, uintptr(unsafe.Pointer(&info))); errno != 0 {
		file.Close()
		return nil, fmt.Errorf("FBIOGET_VSCREENINFO on %s: %w", path, errno)
	}
	if info.Xres < SCREEN_WIDTH || info.Yres < SCREEN_HEIGHT {
		file.Close()
		return nil, fmt.Errorf("framebuffer %s is %dx%d, need %dx%d", path, info.Xres, info.Yres, SCREEN_WIDTH, SCREEN_HEIGHT)
	}
	if info.BitsPerPixel != 16 && info.BitsPerPixel != 32 {
		file.Close()
		return nil, fmt.Errorf("framebuffer %s: unsupported depth %d", path, info.BitsPerPixel)
	}

	bpp := int(info.BitsPerPixel) / 8
	stride := int(info.XresVirtual) * bpp
	mem, err := unix.Mmap(int(file.Fd()), 0, stride*int(info.Yres), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	logger.Info().Str("device", path).Uint32("xres", info.Xres).Uint32("yres", info.Yres).
		Uint32("bpp", info.BitsPerPixel).Msg("Framebuffer opened")
	return &fbPanel{file: file, mem: mem, stride: stride, bpp: bpp, rotate: rotate}, nil
}

func (p *fbPanel) Blit(img *image.RGBA) error {
	if p.bpp == 2 {
		blitRGB565(p.mem, p.stride, img, p.rotate)
	} else {
		blitBGRA32(p.mem, p.stride, img, p.rotate)
	}
	return nil
}

func (p *fbPanel) Close() error {
	if err := unix.Munmap(p.mem); err != nil {
		logger.Warn().Err(err).Msg("munmap framebuffer")
	}
	return p.file.Close()
}

// pngPanel saves every frame to a PNG file, for running off-device.
type pngPanel struct {
	path string
}

func (p *pngPanel) Blit(img *image.RGBA) error {
	f, err := os.Create(p.path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (p *pngPanel) Close() error {
	return nil
}

// openPanel picks the panel for a display target: a .png path or a
// framebuffer device.
func openPanel(target string, rotate bool) (Panel, error) {
	if strings.HasSuffix(strings.ToLower(target), ".png") {
		return &pngPanel{path: target}, nil
	}
	return openFramebuffer(target, rotate)
}
