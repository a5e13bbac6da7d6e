package main

import "context"

// ChangeVolume moves the engine volume by delta, kept within [0, MAX_VOLUME].
func (c *Controller) ChangeVolume(ctx context.Context, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.engine.Volume(ctx)
	if err != nil {
		current = c.volume
	}
	next := clamp(current+delta, 0, MAX_VOLUME)
	if err := c.engine.SetVolume(ctx, next); err != nil {
		logger.Warn().Err(err).Int("volume", next).Msg("Could not set volume")
		return
	}
	c.volume = next
	logger.Debug().Int("volume", next).Msg("Volume")
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
