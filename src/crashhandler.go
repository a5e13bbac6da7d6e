package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
)

// installCrashHandler logs fatal signals (SIGSEGV, SIGABRT, SIGBUS) with the
// stacks of all goroutines, then re-raises the signal with the default
// handler to get normal crash behavior.
func installCrashHandler() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGSEGV, syscall.SIGABRT, syscall.SIGBUS)

	go func() {
		sig := <-sigChan

		logger.Error().Str("signal", sig.String()).Str("stack", allStacks()).Msg("Fatal signal")
		if logFile != nil {
			fmt.Fprintf(logFile, "\n\nFATAL CRASH: %v\n", sig)
		}
		syncLog()

		signal.Reset(sig.(syscall.Signal))
		syscall.Kill(syscall.Getpid(), sig.(syscall.Signal))
	}()
}

// recoverPanic logs a panic of the calling goroutine and re-panics.
func recoverPanic() {
	r := recover()
	if r == nil {
		return
	}
	logger.Error().Str("panic", fmt.Sprint(r)).Str("stack", allStacks()).Msg("Application crashed")
	syncLog()
	panic(r)
}

func allStacks() string {
	buf := make([]byte, 16384)
	n := runtime.Stack(buf, true)
	return string(buf[:n])
}
