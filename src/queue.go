package main

import "github.com/samber/lo"

// Queue is the ordered set of tracks being played plus the position in it.
// Index is always within range while Tracks is non-empty, and 0 otherwise.
type Queue struct {
	Tracks []Track
	Index  int
}

func (q *Queue) Len() int {
	return len(q.Tracks)
}

// Current returns the track at the current position, ErrNoQueue when the
// queue is empty.
func (q *Queue) Current() (Track, error) {
	if q.Index < 0 || q.Index >= len(q.Tracks) {
		return Track{}, ErrNoQueue
	}
	return q.Tracks[q.Index], nil
}

// Load replaces the queue contents wholesale. An out of range index falls
// back to the first track.
func (q *Queue) Load(tracks []Track, index int) {
	q.Tracks = tracks
	q.Index = 0
	if index >= 0 && index < len(tracks) {
		q.Index = index
	}
}

func (q *Queue) Clear() {
	q.Tracks = nil
	q.Index = 0
}

// Select moves to track i. It reports false when i is out of range.
func (q *Queue) Select(i int) bool {
	if i < 0 || i >= len(q.Tracks) {
		return false
	}
	q.Index = i
	return true
}

// Advance moves one track forward, wrapping to the first track at the end.
// It reports whether playback should continue: always, unless the queue
// wrapped and repeat is off.
func (q *Queue) Advance(repeat bool) bool {
	if len(q.Tracks) == 0 {
		return false
	}
	q.Index = wrapIndex(q.Index+1, len(q.Tracks))
	return q.Index != 0 || repeat
}

// Retreat moves one track back, wrapping to the last track.
func (q *Queue) Retreat() {
	if len(q.Tracks) == 0 {
		return
	}
	q.Index = wrapIndex(q.Index-1, len(q.Tracks))
}

// IndexOf finds a track by path, -1 when absent.
func (q *Queue) IndexOf(path string) int {
	return trackIndex(q.Tracks, path)
}

func trackIndex(tracks []Track, path string) int {
	_, i, ok := lo.FindIndexOf(tracks, func(t Track) bool { return t.Path == path })
	if !ok {
		return -1
	}
	return i
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
