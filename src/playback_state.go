package main

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const DEFAULT_SESSION_DB = "/home/radiobit/stream/data/session.db"

var (
	sessionBucket = []byte("session")
	sessionKey    = []byte("last")
)

// Session is where playback was when the appliance last stopped.
type Session struct {
	PlaylistID string    `json:"playlist_id"`
	TrackPath  string    `json:"track_path"`
	Stream     int       `json:"stream"`
	Repeat     bool      `json:"repeat"`
	Volume     int       `json:"volume"`
	SavedAt    time.Time `json:"saved_at"`
}

// SessionStore keeps the last Session in a bbolt database.
type SessionStore struct {
	db *bbolt.DB
}

func OpenSessionStore(path string) (*SessionStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open session database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create session bucket: %w", err)
	}
	return &SessionStore{db: db}, nil
}

func (s *SessionStore) Save(session Session) error {
	session.SavedAt = time.Now()
	value, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("error serializing session: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionBucket).Put(sessionKey, value)
	})
}

// Load returns the saved session; ok is false when nothing was saved yet.
func (s *SessionStore) Load() (session Session, ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket(sessionBucket).Get(sessionKey)
		if value == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(value, &session)
	})
	return session, ok, err
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}

// sessionLocked captures the position to come back to.
func (c *Controller) sessionLocked() Session {
	session := Session{Stream: c.stream, Repeat: c.repeat, Volume: c.volume}
	if c.playlist >= 0 && c.playlist < len(c.playlists) {
		pl := c.playlists[c.playlist]
		session.PlaylistID = pl.ID
		track := c.resume
		if c.mode == ModeTrack {
			track = c.queue.Index
		}
		if track >= 0 && track < len(pl.Tracks) {
			session.TrackPath = pl.Tracks[track].Path
		}
	}
	return session
}

func (c *Controller) saveSessionLocked() {
	if c.session == nil {
		return
	}
	if err := c.session.Save(c.sessionLocked()); err != nil {
		logger.Error().Err(err).Msg("Failed to save session")
	}
}

// restoreSessionLocked maps the saved session onto the freshly loaded library
// and streams. Playback is not started.
func (c *Controller) restoreSessionLocked() {
	if c.session == nil {
		return
	}
	session, ok, err := c.session.Load()
	if err != nil {
		logger.Warn().Err(err).Msg("Could not read saved session")
		return
	}
	if !ok {
		return
	}

	c.playlist, c.resume = locatePosition(c.playlists, session.PlaylistID, session.TrackPath)
	if session.Stream >= 0 && session.Stream < len(c.streams) {
		c.stream = session.Stream
	}
	c.repeat = session.Repeat
	if session.Volume > 0 {
		c.volume = clamp(session.Volume, 0, MAX_VOLUME)
	}
	logger.Info().Str("playlist", session.PlaylistID).Str("track", session.TrackPath).
		Int("stream", c.stream).Msg("Session restored")
}
