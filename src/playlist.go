package main

import (
	"bufio"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// parseM3U reads an M3U manifest and returns its entries in order. Relative
// entries are resolved against the manifest's directory and percent-escapes
// are decoded.
func parseM3U(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	baseDir := filepath.Dir(path)
	var entries []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimRight(scanner.Text(), "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !filepath.IsAbs(line) {
			line = filepath.Join(baseDir, line)
		}
		if decoded, err := url.PathUnescape(line); err == nil {
			line = decoded
		}
		entries = append(entries, line)
	}
	return entries, scanner.Err()
}

// locatePosition maps a playlist id and track path back to indices in a
// freshly scanned set of playlists. Anything not found falls back to 0.
func locatePosition(playlists []Playlist, playlistID, trackPath string) (playlist, track int) {
	for i, pl := range playlists {
		if pl.ID != playlistID {
			continue
		}
		if t := trackIndex(pl.Tracks, trackPath); t >= 0 {
			return i, t
		}
		return i, 0
	}
	return 0, 0
}
