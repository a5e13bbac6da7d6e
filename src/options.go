package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	DATA_DIR            = "/home/radiobit/stream/data"
	DEFAULT_CONFIG_PATH = "/home/radiobit/config.json"
	DEFAULT_INPUT       = "/dev/input/event0"
	DEFAULT_FRAMEBUFFER = "/dev/fb1"
	DEFAULT_MPV_PATH    = "mpv"
	ENV_PREFIX          = "RADIOBIT"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// Options are the runtime settings of the appliance: paths, devices and
// tuning. The toggles users change from the menu live in Config instead.
type Options struct {
	MediaRoot   string
	StreamsFile string
	ImagesDir   string
	Watch       bool

	ConfigPath string
	DBPath     string

	MpvPath     string
	SocketDir   string
	StartVolume int

	InputDevice string
	Framebuffer string
	Font        string
	Rotate      bool
	Backlight   string
	IdleTimeout time.Duration

	BatteryPaths []string
	ShutdownCmd  string

	LogPath string
	Debug   bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("media.root", filepath.Join(DATA_DIR, "main-mix"))
	v.SetDefault("media.streams_file", filepath.Join(DATA_DIR, "streams.txt"))
	v.SetDefault("media.images_dir", filepath.Join(DATA_DIR, "stream-images"))
	v.SetDefault("media.watch", false)
	v.SetDefault("state.config_path", DEFAULT_CONFIG_PATH)
	v.SetDefault("state.db_path", DEFAULT_SESSION_DB)
	v.SetDefault("engine.mpv_path", DEFAULT_MPV_PATH)
	v.SetDefault("engine.socket_dir", os.TempDir())
	v.SetDefault("engine.start_volume", DEFAULT_VOLUME)
	v.SetDefault("input.device", DEFAULT_INPUT)
	v.SetDefault("display.framebuffer", DEFAULT_FRAMEBUFFER)
	v.SetDefault("display.font", DEFAULT_FONT_PATH)
	v.SetDefault("display.rotate", false)
	v.SetDefault("display.backlight", DEFAULT_BACKLIGHT)
	v.SetDefault("display.idle_timeout", DEFAULT_IDLE_TIMEOUT)
	v.SetDefault("power.battery_paths", BATTERY_PATHS)
	v.SetDefault("power.shutdown_cmd", DEFAULT_SHUTDOWN_CMD)
	v.SetDefault("log.path", LOG_PATH)
	v.SetDefault("log.debug", false)
}

// bindFlags exposes the most used keys as persistent flags.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.PersistentFlags()
	flags.String("config", defaultOptionsPath(), "Path to the TOML options file")
	flags.String("media", "", "Media root holding the playlists")
	flags.String("streams", "", "Stream list file")
	flags.String("framebuffer", "", "Framebuffer device, or a .png file to render into")
	flags.String("input", "", "evdev device of the buttons")
	flags.String("log-path", "", "Log file")
	flags.Bool("debug", false, "Log at debug level")
	flags.Bool("watch", false, "Rescan when the media root changes")

	_ = v.BindPFlag("config_path", flags.Lookup("config"))
	_ = v.BindPFlag("media.root", flags.Lookup("media"))
	_ = v.BindPFlag("media.streams_file", flags.Lookup("streams"))
	_ = v.BindPFlag("display.framebuffer", flags.Lookup("framebuffer"))
	_ = v.BindPFlag("input.device", flags.Lookup("input"))
	_ = v.BindPFlag("log.path", flags.Lookup("log-path"))
	_ = v.BindPFlag("log.debug", flags.Lookup("debug"))
	_ = v.BindPFlag("media.watch", flags.Lookup("watch"))
}

// readOptionsFile loads the TOML file if present; RADIOBIT_MEDIA_ROOT and
// friends override it.
func readOptionsFile(v *viper.Viper) {
	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	path := v.GetString("config_path")
	if path == "" {
		return
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		logger.Debug().Err(err).Str("path", path).Msg("No options file")
	}
}

func loadOptions(v *viper.Viper) Options {
	return Options{
		MediaRoot:    v.GetString("media.root"),
		StreamsFile:  v.GetString("media.streams_file"),
		ImagesDir:    v.GetString("media.images_dir"),
		Watch:        v.GetBool("media.watch"),
		ConfigPath:   v.GetString("state.config_path"),
		DBPath:       v.GetString("state.db_path"),
		MpvPath:      v.GetString("engine.mpv_path"),
		SocketDir:    v.GetString("engine.socket_dir"),
		StartVolume:  clamp(v.GetInt("engine.start_volume"), 0, MAX_VOLUME),
		InputDevice:  v.GetString("input.device"),
		Framebuffer:  v.GetString("display.framebuffer"),
		Font:         v.GetString("display.font"),
		Rotate:       v.GetBool("display.rotate"),
		Backlight:    v.GetString("display.backlight"),
		IdleTimeout:  v.GetDuration("display.idle_timeout"),
		BatteryPaths: v.GetStringSlice("power.battery_paths"),
		ShutdownCmd:  v.GetString("power.shutdown_cmd"),
		LogPath:      v.GetString("log.path"),
		Debug:        v.GetBool("log.debug"),
	}
}

func defaultOptionsPath() string {
	if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
		return filepath.Join(x, APP_NAME, "config.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", APP_NAME, "config.toml")
}

func (o Options) mediaPaths() MediaPaths {
	return MediaPaths{Root: o.MediaRoot, StreamsFile: o.StreamsFile, ImagesDir: o.ImagesDir}
}
