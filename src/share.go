package main

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/skip2/go-qrcode"
)

const QR_SIZE = 180

// QR draws url as a QR code with a caption below it.
func (p *Painter) QR(url, caption string) (*image.RGBA, error) {
	qr, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	dc := p.canvas()
	dc.DrawImage(qr.Image(QR_SIZE), (SCREEN_WIDTH-QR_SIZE)/2, 10)
	dc.SetFontFace(p.menuFace)
	dc.SetHexColor(p.theme.Text)
	dc.DrawStringAnchored(caption, SCREEN_WIDTH/2, QR_SIZE+30, 0.5, 0.5)
	return frameOf(dc), nil
}

// ShareStream shows the current stream URL as a QR code until any input or
// the menu timeout.
func (c *Controller) ShareStream(ctx context.Context) {
	c.mu.Lock()
	url, err := c.streamURLLocked(c.stream)
	caption := fmt.Sprintf("STREAM %d/%d", c.stream+1, len(c.streams))
	if err != nil {
		logger.Info().Err(err).Msg("Nothing to share")
		c.setNoticeLocked(MESSAGE_HOLD, "NOTHING TO SHARE")
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	frame, err := c.painter.QR(url, caption)
	if err != nil {
		logger.Warn().Err(err).Str("url", url).Msg("Could not encode QR code")
		return
	}
	c.supervisor.Start(ctx, "share", func(ctx context.Context) error {
		return c.display.Render(frame)
	})

	if _, err := c.input.AwaitAction(ctx, MENU_INPUT_TIMEOUT); err != nil && !errors.Is(err, ErrInputTimeout) {
		logger.Debug().Err(err).Msg("Share screen closed")
	}
}
