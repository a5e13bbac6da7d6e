package main

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const DEFAULT_STREAM_IMAGE = "default.png"

var identifierPattern = regexp.MustCompile(`^(npub1|nprofile1)[ac-hj-np-z02-9]+$`)

// Resolver turns stream identifiers into playable URLs. Identifiers missing
// from the result are unresolved.
type Resolver interface {
	ResolveMany(ctx context.Context, identifiers []string) (map[string]string, error)
}

func isIdentifier(entry string) bool {
	return identifierPattern.MatchString(entry)
}

// loadStreamEntries reads one entry per non-empty line. A missing file means
// no streams.
func loadStreamEntries(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			entries = append(entries, line)
		}
	}
	return entries, scanner.Err()
}

// resolveStreams maps entries to slot URLs. Identifiers go through the
// resolver; any identifier it cannot resolve becomes an empty (offline) slot.
// The slot count always equals the entry count.
func resolveStreams(ctx context.Context, resolver Resolver, entries []string) []string {
	slots := make([]string, len(entries))
	ids := lo.Uniq(lo.Filter(entries, func(e string, _ int) bool { return isIdentifier(e) }))

	var resolved map[string]string
	if len(ids) > 0 && resolver != nil {
		ctx, cancel := context.WithTimeout(ctx, RESOLVE_TIMEOUT)
		defer cancel()

		var err error
		resolved, err = resolver.ResolveMany(ctx, ids)
		if err != nil {
			logger.Warn().Err(err).Int("identifiers", len(ids)).Msg("Stream resolution failed")
		}
	}

	for i, e := range entries {
		if !isIdentifier(e) {
			slots[i] = e
			continue
		}
		if url := strings.TrimSpace(resolved[e]); url != "" {
			slots[i] = url
			continue
		}
		logger.Warn().Str("identifier", e).Int("slot", i+1).Msg("Stream unresolved, slot offline")
	}
	return slots
}

// loadStreamImages indexes N_*.png/jpg files by their leading integer N,
// which matches the zero-based slot index.
func loadStreamImages(dir string) map[int]string {
	images := make(map[int]string)
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("No stream images")
		return images
	}

	for _, e := range entries {
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if e.IsDir() || (ext != ".png" && ext != ".jpg" && ext != ".jpeg") {
			continue
		}
		prefix, _, _ := strings.Cut(strings.TrimSuffix(name, filepath.Ext(name)), "_")
		n, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}
		images[n] = filepath.Join(dir, name)
	}
	return images
}

// noResolver leaves every identifier unresolved.
type noResolver struct{}

func (noResolver) ResolveMany(context.Context, []string) (map[string]string, error) {
	return nil, nil
}
