package main

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/samber/lo"
)

var AUDIO_EXTENSIONS = []string{".mp3", ".flac", ".ogg", ".wav", ".aac", ".m4a", ".aiff", ".aif"}

func isAudioFile(name string) bool {
	return lo.Contains(AUDIO_EXTENSIONS, strings.ToLower(filepath.Ext(name)))
}

// scanPlaylists visits the directories under root sorted by full path, so
// "a-c" comes before "a/b". A directory holding .m3u manifests yields one
// playlist per manifest in manifest order; any other directory with audio
// files yields one playlist of those files sorted by name.
func scanPlaylists(root string) ([]Playlist, error) {
	start := time.Now()

	var dirs []string
	err := filepath.WalkDir(root, func(dir string, d fs.DirEntry, err error) error {
		if err != nil {
			if dir == root {
				return err
			}
			logger.Warn().Err(err).Str("path", dir).Msg("Skipping unreadable path")
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if dir != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		dirs = append(dirs, dir)
		return nil
	})
	slices.Sort(dirs)

	var playlists []Playlist
	for _, dir := range dirs {
		playlists = append(playlists, scanDir(dir)...)
	}

	logger.Info().Str("root", root).Int("playlists", len(playlists)).
		Dur("took", time.Since(start)).Msg("Media scan finished")
	return playlists, err
}

func scanDir(dir string) []Playlist {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("Skipping unreadable directory")
		return nil
	}

	var manifests, audio []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch {
		case strings.EqualFold(filepath.Ext(e.Name()), ".m3u"):
			manifests = append(manifests, e.Name())
		case isAudioFile(e.Name()):
			audio = append(audio, filepath.Join(dir, e.Name()))
		}
	}

	var playlists []Playlist
	if len(manifests) > 0 {
		for _, name := range manifests {
			path := filepath.Join(dir, name)
			paths, err := parseM3U(path)
			if err != nil {
				logger.Warn().Err(err).Str("playlist", path).Msg("Failed to read playlist")
				continue
			}
			if len(paths) == 0 {
				continue
			}
			playlists = append(playlists, Playlist{
				ID:     path,
				Name:   strings.TrimSuffix(name, filepath.Ext(name)),
				Tracks: lo.Map(paths, func(p string, _ int) Track { return scanTrack(p) }),
			})
		}
		return playlists
	}

	if len(audio) > 0 {
		playlists = append(playlists, Playlist{
			ID:     dir + string(filepath.Separator),
			Name:   filepath.Base(dir),
			Tracks: lo.Map(audio, func(p string, _ int) Track { return scanTrack(p) }),
		})
	}
	return playlists
}

// scanTrack reads the display title from the file's tags, falling back to
// the cleaned file name.
func scanTrack(path string) Track {
	track := Track{Path: path}

	if f, err := os.Open(path); err == nil {
		if m, err := tag.ReadFrom(f); err == nil {
			track.Title = strings.TrimSpace(m.Title())
		}
		f.Close()
	}

	if track.Title == "" {
		track.Title = cleanTitle(path)
	}
	return track
}
