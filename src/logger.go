package main

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const LOG_PATH = "/tmp/radiobit.log"

var logFile *os.File

var logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// initLogger points the process logger at an append-only file.
func initLogger(path string, debug bool) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	logFile = f

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = "2006-01-02 15:04:05.999"
	logger = zerolog.New(f).Level(level).With().Timestamp().Logger()
	return nil
}

func syncLog() {
	if logFile != nil {
		logFile.Sync()
	}
}

// componentWriter adapts a child process' output to debug log lines.
func componentWriter(component string) io.Writer {
	return &lineWriter{log: logger.With().Str("component", component).Logger()}
}

type lineWriter struct {
	log zerolog.Logger
}

func (w *lineWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(string(p), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			w.log.Debug().Msg(line)
		}
	}
	return len(p), nil
}
