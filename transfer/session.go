package transfer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileRecord describes a DBF file loaded in a session
type FileRecord struct {
	Path        string
	Table       string
	Fingerprint string
	Charset     string
	Records     int
	Loaded      time.Time
}

// Session remembers which files have been transferred and with which charset.
// A session is owned by the caller and safe for concurrent use.
type Session struct {
	ID string

	mu     sync.Mutex
	files  map[string]FileRecord // by fingerprint
	tables map[string]FileRecord // by table name
}

func NewSession() *Session {
	return &Session{
		ID:     uuid.NewString(),
		files:  make(map[string]FileRecord),
		tables: make(map[string]FileRecord),
	}
}

// Fingerprint identifies the current state of a file by its absolute path, size and modification time
func Fingerprint(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", abs, info.Size(), info.ModTime().UnixNano())))
	return hex.EncodeToString(sum[:]), nil
}

// Register records a loaded file, replacing an earlier load of the same table
func (s *Session) Register(record FileRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if previous, ok := s.tables[record.Table]; ok {
		delete(s.files, previous.Fingerprint)
	}
	s.files[record.Fingerprint] = record
	s.tables[record.Table] = record
}

// Loaded reports whether a file with the fingerprint has been loaded
func (s *Session) Loaded(fingerprint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[fingerprint]
	return ok
}

// Charset returns the charset name a table was loaded with
func (s *Session) Charset(table string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.tables[table]
	if !ok || len(record.Charset) == 0 {
		return "", false
	}
	return record.Charset, true
}

// Files returns the loaded files ordered by table name
func (s *Session) Files() []FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]FileRecord, 0, len(s.tables))
	for _, record := range s.tables {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Table < records[j].Table
	})
	return records
}
