package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"time"

	"github.com/samber/lo"
)

const (
	SNAKE_CELL = 10
	SNAKE_GRID = SCREEN_WIDTH / SNAKE_CELL
	SNAKE_TICK = 150 * time.Millisecond
)

type cell struct{ X, Y int }

// Menu actions steer the snake. The HAT is mounted rotated, so the joystick
// directions behind these actions match the screen directions.
var snakeDirections = map[Action]cell{
	ActionUp:    {0, -1},
	ActionDown:  {0, 1},
	ActionBack:  {-1, 0},
	ActionExtra: {1, 0},
}

// snakeGame is the state of one snake game on a SNAKE_GRID square board.
type snakeGame struct {
	rng  *rand.Rand
	body []cell // head first
	dir  cell
	food cell
	over bool
}

func newSnakeGame(rng *rand.Rand) *snakeGame {
	g := &snakeGame{rng: rng}
	g.reset()
	return g
}

func (g *snakeGame) reset() {
	g.body = []cell{{5, 5}}
	g.dir = cell{1, 0}
	g.over = false
	g.food = g.spawnFood()
}

func (g *snakeGame) spawnFood() cell {
	for {
		c := cell{g.rng.IntN(SNAKE_GRID), g.rng.IntN(SNAKE_GRID)}
		if !lo.Contains(g.body, c) {
			return c
		}
	}
}

// turn changes direction; turning straight back is ignored.
func (g *snakeGame) turn(d cell) {
	if d == (cell{}) || d == (cell{-g.dir.X, -g.dir.Y}) {
		return
	}
	g.dir = d
}

// step moves the snake one cell. Hitting a wall or the body ends the game.
func (g *snakeGame) step() {
	if g.over {
		return
	}
	head := cell{g.body[0].X + g.dir.X, g.body[0].Y + g.dir.Y}
	if head.X < 0 || head.X >= SNAKE_GRID || head.Y < 0 || head.Y >= SNAKE_GRID || lo.Contains(g.body, head) {
		g.over = true
		return
	}

	g.body = append([]cell{head}, g.body...)
	if head == g.food {
		g.food = g.spawnFood()
		return
	}
	g.body = g.body[:len(g.body)-1]
}

func (g *snakeGame) Over() bool {
	return g.over
}

func (g *snakeGame) Score() int {
	return len(g.body) - 1
}

// Snake draws the board.
func (p *Painter) Snake(g *snakeGame) *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()

	dc := p.canvas()
	fill := func(c cell) {
		dc.DrawRectangle(float64(c.X*SNAKE_CELL), float64(c.Y*SNAKE_CELL), SNAKE_CELL-1, SNAKE_CELL-1)
		dc.Fill()
	}

	dc.SetHexColor(p.theme.Progress)
	for _, c := range g.body {
		fill(c)
	}
	dc.SetHexColor(p.theme.Warning)
	fill(g.food)

	if g.over {
		dc.SetFontFace(p.statusFace)
		dc.SetHexColor(p.theme.Text)
		dc.DrawStringAnchored("GAME OVER", SCREEN_WIDTH/2, SCREEN_HEIGHT/2-12, 0.5, 0.5)
		dc.SetFontFace(p.menuFace)
		dc.DrawStringAnchored(fmt.Sprintf("SCORE %d", g.Score()), SCREEN_WIDTH/2, SCREEN_HEIGHT/2+14, 0.5, 0.5)
	}
	return frameOf(dc)
}

// PlaySnake runs a snake game on the display. A long press leaves it, select
// restarts a lost game.
func (c *Controller) PlaySnake(ctx context.Context) {
	game := newSnakeGame(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
	logger.Info().Msg("Snake started")
	c.playSnake(ctx, game, SNAKE_TICK, MENU_INPUT_TIMEOUT)
	logger.Info().Int("score", game.Score()).Msg("Snake ended")
}

// playSnake steps game every tick. It returns on confirm, when ctx is done, or
// once a lost game saw no restart for idle.
func (c *Controller) playSnake(ctx context.Context, game *snakeGame, tick, idle time.Duration) {
	next := time.Now().Add(tick)
	var overSince time.Time
	dirty := true

	for {
		if dirty {
			frame := c.painter.Snake(game)
			c.supervisor.Start(ctx, "snake", func(ctx context.Context) error {
				return c.display.Render(frame)
			})
			dirty = false
		}

		action, err := c.input.AwaitAction(ctx, max(time.Until(next), 0))
		switch {
		case errors.Is(err, ErrInputTimeout):
		case err != nil:
			return
		case action == ActionConfirm:
			return
		case game.Over() && action == ActionSelect:
			game.reset()
			overSince = time.Time{}
			next = time.Now().Add(tick)
			dirty = true
		default:
			game.turn(snakeDirections[action])
		}

		now := time.Now()
		if !now.Before(next) {
			wasOver := game.Over()
			game.step()
			next = now.Add(tick)
			dirty = dirty || !wasOver
		}
		if game.Over() {
			if overSince.IsZero() {
				overSince = now
			}
			if now.Sub(overSince) >= idle {
				return
			}
		}
	}
}
