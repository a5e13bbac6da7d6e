package main

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSnake() *snakeGame {
	return newSnakeGame(rand.New(rand.NewPCG(1, 2)))
}

func TestSnakeGame_Step(t *testing.T) {
	g := newTestSnake()
	g.food = cell{0, 0}

	g.step()

	assert.Equal(t, []cell{{6, 5}}, g.body)
	assert.False(t, g.Over())
	assert.Equal(t, 0, g.Score())
}

func TestSnakeGame_EatGrows(t *testing.T) {
	g := newTestSnake()
	g.food = cell{6, 5}

	g.step()

	assert.Equal(t, []cell{{6, 5}, {5, 5}}, g.body)
	assert.Equal(t, 1, g.Score())
	assert.NotContains(t, g.body, g.food, "food respawns off the snake")
}

func TestSnakeGame_Turn(t *testing.T) {
	g := newTestSnake()

	g.turn(cell{-1, 0})
	assert.Equal(t, cell{1, 0}, g.dir, "reversing is ignored")

	g.turn(cell{})
	assert.Equal(t, cell{1, 0}, g.dir)

	g.turn(cell{0, -1})
	assert.Equal(t, cell{0, -1}, g.dir)
}

func TestSnakeGame_WallEndsGame(t *testing.T) {
	g := newTestSnake()
	g.body = []cell{{SNAKE_GRID - 1, 5}}
	g.food = cell{0, 0}

	g.step()
	require.True(t, g.Over())
	assert.Equal(t, []cell{{SNAKE_GRID - 1, 5}}, g.body)

	g.step()
	assert.Equal(t, []cell{{SNAKE_GRID - 1, 5}}, g.body, "a lost game no longer moves")
}

func TestSnakeGame_SelfCollisionEndsGame(t *testing.T) {
	g := newTestSnake()
	g.body = []cell{{5, 5}, {6, 5}, {6, 6}, {5, 6}, {4, 6}}
	g.dir = cell{0, 1}
	g.food = cell{0, 0}

	g.step()

	assert.True(t, g.Over())
}

func TestSnakeGame_Reset(t *testing.T) {
	g := newTestSnake()
	g.body = []cell{{1, 1}, {1, 2}}
	g.dir = cell{0, -1}
	g.over = true

	g.reset()

	assert.Equal(t, []cell{{5, 5}}, g.body)
	assert.Equal(t, cell{1, 0}, g.dir)
	assert.False(t, g.Over())
	assert.NotEqual(t, cell{5, 5}, g.food)
}

func TestController_PlaySnakeConfirmLeaves(t *testing.T) {
	r := newTestRig(t, testPlaylists(), nil)
	defer r.c.supervisor.Stop()
	g := newTestSnake()

	r.input.push(ActionUp, ActionConfirm)
	r.c.playSnake(context.Background(), g, time.Hour, time.Hour)

	assert.Equal(t, cell{0, -1}, g.dir)
	assert.Equal(t, []cell{{5, 5}}, g.body, "no tick elapsed")
	assert.Equal(t, "snake", r.c.supervisor.Active())
	requireEventually(t, func() bool { return r.display.Frames() > 0 }, "board drawn")
}

func TestController_PlaySnakeLeavesLostGame(t *testing.T) {
	r := newTestRig(t, testPlaylists(), nil)
	defer r.c.supervisor.Stop()
	g := newTestSnake()

	r.c.playSnake(context.Background(), g, time.Millisecond, 0)

	require.True(t, g.Over())
	assert.Equal(t, cell{SNAKE_GRID - 1, 5}, g.body[0], "ran east into the wall")
}

func TestController_PlaySnakeCancelled(t *testing.T) {
	r := newTestRig(t, testPlaylists(), nil)
	defer r.c.supervisor.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r.c.playSnake(ctx, newTestSnake(), time.Hour, time.Hour)
}

func TestController_SystemMenuPlaySnake(t *testing.T) {
	r := newTestRig(t, testPlaylists(), nil)
	defer r.c.supervisor.Stop()

	r.input.push(repeatAction(ActionDown, 7)...)
	r.input.push(ActionSelect, ActionConfirm)
	r.c.OpenSystemMenu(context.Background())

	last := r.display.Menus()[len(r.display.Menus())-1]
	require.Equal(t, 7, last.Selected)
	require.Equal(t, "Play snake", last.Options[last.Selected])
	assert.Equal(t, "status", r.c.supervisor.Active(), "status returns after the game")
}
