package session

// A filesystem-backed transcription cache, scoped per session. Each session
// owns one directory holding the serialized cache, an activity marker and
// the source/derived media of the videos processed within it.

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/mudler/xlog"

	"github.com/mudler/LocalSRS/core/schema"
)

const (
	// CacheFileName holds the serialized map of video name to CacheEntry.
	CacheFileName = "transcript_cache.json"
	// ActivityFileName holds the last activity instant as unix seconds.
	ActivityFileName = "last_activity.txt"

	SourceDirName = "source"
	MediaDirName  = "media"
	DeckDirName   = "decks"
)

// Session is an explicit handle to one session's cache. Every cache
// operation goes through a Session value; there is no ambient session state.
type Session struct {
	id    string
	dir   string
	data  map[string]schema.CacheEntry
	flock *flock.Flock
	sync.Mutex
}

// New creates a Session with a fresh identifier under root.
func New(root string) (*Session, error) {
	s := Open(root, uuid.New().String())
	if err := s.ensureDirs(); err != nil {
		return nil, err
	}
	return s, s.Touch()
}

// Open returns a handle to the session id under root. It does not touch the
// filesystem: directories appear on first write, so opening a swept or
// never-created session is cheap and reads on it simply miss.
func Open(root, id string) *Session {
	dir := filepath.Join(root, id)
	return &Session{
		id:    id,
		dir:   dir,
		data:  make(map[string]schema.CacheEntry),
		flock: flock.New(filepath.Join(dir, CacheFileName+".lock")),
	}
}

func (s *Session) ID() string  { return s.id }
func (s *Session) Dir() string { return s.dir }

func (s *Session) SourceDir() string { return filepath.Join(s.dir, SourceDirName) }
func (s *Session) MediaDir() string  { return filepath.Join(s.dir, MediaDirName) }
func (s *Session) DeckDir() string   { return filepath.Join(s.dir, DeckDirName) }

func (s *Session) cachePath() string    { return filepath.Join(s.dir, CacheFileName) }
func (s *Session) activityPath() string { return filepath.Join(s.dir, ActivityFileName) }

func (s *Session) ensureDirs() error {
	for _, d := range []string{s.dir, s.SourceDir(), s.MediaDir(), s.DeckDir()} {
		if err := os.MkdirAll(d, 0750); err != nil {
			return err
		}
	}
	return nil
}

// SaveTranscript upserts the cache entry for videoName, replacing any prior
// entry wholesale, persists the cache and refreshes the activity marker.
func (s *Session) SaveTranscript(videoName string, words []schema.Word, videoPath, audioPath string) error {
	if err := s.ensureDirs(); err != nil {
		return err
	}
	if err := s.flock.Lock(); err != nil {
		return err
	}
	defer s.flock.Unlock()
	s.Lock()
	defer s.Unlock()

	s.load()
	s.data[videoName] = schema.CacheEntry{
		Words:           words,
		SourceVideoPath: videoPath,
		SourceAudioPath: audioPath,
		LastSavedAt:     time.Now(),
	}
	if err := s.save(); err != nil {
		return err
	}
	return s.touchLocked()
}

// GetTranscript looks up videoName by exact match. A hit refreshes the
// activity marker; a miss does not. A swept or corrupt cache reads as empty.
func (s *Session) GetTranscript(videoName string) (schema.CacheEntry, bool) {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return schema.CacheEntry{}, false
	}
	if err := s.flock.Lock(); err != nil {
		xlog.Warn("session cache lock failed, treating as miss", "session", s.id, "error", err)
		return schema.CacheEntry{}, false
	}
	defer s.flock.Unlock()
	s.Lock()
	defer s.Unlock()

	s.load()
	entry, ok := s.data[videoName]
	if ok {
		if err := s.touchLocked(); err != nil {
			xlog.Warn("session activity refresh failed", "session", s.id, "error", err)
		}
	}
	return entry, ok
}

// Videos lists the cached video names, sorted.
func (s *Session) Videos() []string {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return nil
	}
	if err := s.flock.Lock(); err != nil {
		return nil
	}
	defer s.flock.Unlock()
	s.Lock()
	defer s.Unlock()

	s.load()
	names := make([]string, 0, len(s.data))
	for k := range s.data {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// load reads the cache from disk. Unreadable or corrupt data is a deliberate
// full cache miss: availability over strict consistency, callers re-fetch.
func (s *Session) load() {
	s.data = make(map[string]schema.CacheEntry)
	b, err := os.ReadFile(s.cachePath())
	if err != nil {
		if !os.IsNotExist(err) {
			xlog.Warn("session cache unreadable, starting empty", "session", s.id, "error", err)
		}
		return
	}
	if err := json.Unmarshal(b, &s.data); err != nil {
		xlog.Warn("session cache corrupt, starting empty", "session", s.id, "error", err)
		s.data = make(map[string]schema.CacheEntry)
	}
}

func (s *Session) save() error {
	f, err := os.Create(s.cachePath())
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(s.data)
}

// Touch records now as the session's last activity.
func (s *Session) Touch() error {
	s.Lock()
	defer s.Unlock()
	return s.touchLocked()
}

func (s *Session) touchLocked() error {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return err
	}
	now := float64(time.Now().UnixNano()) / float64(time.Second)
	return os.WriteFile(s.activityPath(), []byte(strconv.FormatFloat(now, 'f', 6, 64)), 0640)
}

// AgeHours returns the wall-clock hours since the last recorded activity,
// or 0 when no activity was ever recorded.
func (s *Session) AgeHours() float64 {
	b, err := os.ReadFile(s.activityPath())
	if err != nil {
		return 0
	}
	ts, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		xlog.Warn("session activity marker unreadable", "session", s.id, "error", err)
		return 0
	}
	last := time.Unix(0, int64(ts*float64(time.Second)))
	return time.Since(last).Hours()
}

// DiskBytes sums the on-disk footprint of the session.
func (s *Session) DiskBytes() int64 {
	var total int64
	filepath.WalkDir(s.dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

// Cleanup irrevocably deletes the session's durable footprint. Deleting an
// already-deleted session is a no-op.
func (s *Session) Cleanup() error {
	s.Lock()
	defer s.Unlock()
	return os.RemoveAll(s.dir)
}

// List enumerates the session ids under root, sorted.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// SweepExpired deletes every session under root older than maxAgeHours and
// returns the swept and kept ids. The sweep is advisory housekeeping:
// per-session failures are logged and the sweep moves on.
func SweepExpired(root string, maxAgeHours float64) (swept, kept []string) {
	ids, err := List(root)
	if err != nil {
		xlog.Error("session sweep could not list sessions", "root", root, "error", err)
		return nil, nil
	}
	for _, id := range ids {
		sess := Open(root, id)
		age := sess.AgeHours()
		if age <= maxAgeHours {
			kept = append(kept, id)
			continue
		}
		if err := sess.Cleanup(); err != nil {
			xlog.Error("session sweep cleanup failed", "session", id, "error", err)
			kept = append(kept, id)
			continue
		}
		xlog.Info("session swept", "session", id, "ageHours", age)
		swept = append(swept, id)
	}
	return swept, kept
}
