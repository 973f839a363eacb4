package transcript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrExists is returned when a transcript for the ticket ID was already
// written. Transcripts are write-once.
var ErrExists = errors.New("transcript already exists")

// Store persists one HTML document per closed ticket on the filesystem,
// keyed by ticket ID.
type Store struct {
	dir string
}

// NewStore creates the transcript directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Write stores the document for the ticket and returns its path. An existing
// document is never overwritten.
func (s *Store) Write(ticketID, document string) (string, error) {
	path := s.Path(ticketID)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExists, ticketID)
		}
		return "", fmt.Errorf("create transcript: %w", err)
	}

	if _, err := f.WriteString(document); err != nil {
		f.Close()
		return "", fmt.Errorf("write transcript: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close transcript: %w", err)
	}

	return path, nil
}

// Read returns the stored document for the ticket.
func (s *Store) Read(ticketID string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(ticketID))
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return data, nil
}

// Path returns where the ticket's document lives.
func (s *Store) Path(ticketID string) string {
	return filepath.Join(s.dir, ticketID+".html")
}
