package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	defer recoverPanic()

	installCrashHandler()
	cobra.CheckErr(newRootCmd(viper.New()).Execute())
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:          APP_NAME,
		Short:        "Radio and music player for a 240x240 LCD HAT",
		Long:         fmt.Sprintf("%s plays live streams and local playlists through mpv.\nBy %s.", APP_NAME, APP_AUTHOR),
		Version:      APP_VERSION,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			readOptionsFile(v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAppliance(cmd.Context(), loadOptions(v))
		},
	}

	setDefaults(v)
	bindFlags(root, v)
	root.AddCommand(newScanCmd(v), newVersionCmd())
	return root
}

func newScanCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List the playlists found under the media root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := loadOptions(v)
			playlists, err := scanPlaylists(opts.MediaRoot)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, pl := range playlists {
				fmt.Fprintf(out, "%3d  %s (%d tracks)\n", i+1, pl.Name, len(pl.Tracks))
			}
			return nil
		},
	}
}

// runAppliance runs until SIGINT/SIGTERM or Shutdown from the System menu.
func runAppliance(parent context.Context, opts Options) error {
	if parent == nil {
		parent = context.Background()
	}
	if err := initLogger(opts.LogPath, opts.Debug); err != nil {
		return fmt.Errorf("could not open log file: %w", err)
	}
	defer syncLog()
	logger.Info().Str("version", APP_VERSION).Msg("radiobit started")

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, shutdown := context.WithCancel(ctx)
	defer shutdown()

	painter := newPainter(opts.Font)
	panel, err := openPanel(opts.Framebuffer, opts.Rotate)
	if err != nil {
		return fmt.Errorf("could not open display: %w", err)
	}
	defer panel.Close()
	screen := newScreen(panel, painter)
	if err := screen.Render(painter.Splash(APP_VERSION)); err != nil {
		logger.Warn().Err(err).Msg("Could not draw splash")
	}

	session, err := OpenSessionStore(opts.DBPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", opts.DBPath).Msg("Session will not be saved")
	}

	buttons := &ButtonState{}
	backlight := newBacklight(opts.Backlight, opts.IdleTimeout)
	battery := newBatteryMonitor(opts.BatteryPaths)

	c := newController(ControllerOptions{
		Factory:  newMpvFactory(opts.MpvPath, opts.SocketDir),
		Display:  screen,
		Painter:  painter,
		Input:    newButtonInput(buttons, func() { backlight.Touch() }),
		Configs:  NewConfigStore(opts.ConfigPath),
		Session:  session,
		Wifi:     newNmcli(),
		Battery:  battery.Level,
		Paths:    opts.mediaPaths(),
		Volume:   opts.StartVolume,
		Shutdown: shutdown,
	})
	if err := c.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Startup failed")
	}

	var wg sync.WaitGroup
	spawn := func(name string, fn func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer recoverPanic()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Str("task", name).Msg("Task stopped")
			}
		}()
	}

	spawn("buttons", func(ctx context.Context) error {
		return readButtons(ctx, opts.InputDevice, buttons)
	})
	spawn("backlight", func(ctx context.Context) error {
		backlight.startInactivityMonitor(ctx)
		return nil
	})
	if opts.Watch {
		spawn("watcher", func(ctx context.Context) error {
			return watchMedia(ctx, opts.MediaRoot, WATCH_DEBOUNCE, c.RequestRescan)
		})
	}
	spawn("controller", c.Run)
	spawn("controls", newControls(c, buttons, backlight).Run)

	<-ctx.Done()
	logger.Info().Msg("Shutting down")
	wg.Wait()

	if err := c.Close(); err != nil {
		logger.Warn().Err(err).Msg("Engine did not terminate cleanly")
	}
	if session != nil {
		if err := session.Close(); err != nil {
			logger.Warn().Err(err).Msg("Could not close session database")
		}
	}

	if c.PowerOffRequested() {
		return powerOff(opts.ShutdownCmd)
	}
	logger.Info().Msg("radiobit stopped")
	return nil
}
