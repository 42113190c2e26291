// Package session implements the single-file session token store shared by
// all six agents, keyed by pane id.
package session

import (
	"encoding/json"
	"os"

	"github.com/kandev/hivemind/internal/common/logger"
	"go.uber.org/zap"
)

const sessionsKey = "sdk_sessions"

// Store is a single JSON file at a fixed path holding pane_id -> session
// token, alongside unrelated top-level keys the core must preserve.
type Store struct {
	path string
	log  *logger.Logger
}

func New(path string, log *logger.Logger) *Store {
	return &Store{path: path, log: log}
}

// Load reads the sdk_sessions map, returning an empty map (and logging a
// warning) if the file is missing or unparsable.
func (s *Store) Load() map[string]string {
	doc, err := s.readDoc()
	if err != nil {
		if s.log != nil {
			s.log.Warn("session store: load failed, starting empty", zap.Error(err))
		}
		return map[string]string{}
	}
	raw, ok := doc[sessionsKey]
	if !ok {
		return map[string]string{}
	}
	var sessions map[string]string
	if err := json.Unmarshal(raw, &sessions); err != nil {
		if s.log != nil {
			s.log.Warn("session store: malformed sdk_sessions, starting empty", zap.Error(err))
		}
		return map[string]string{}
	}
	if sessions == nil {
		sessions = map[string]string{}
	}
	return sessions
}

// Save performs a read-modify-write that preserves unrelated top-level keys.
func (s *Store) Save(sessions map[string]string) error {
	doc, err := s.readDoc()
	if err != nil {
		doc = map[string]json.RawMessage{}
	}
	encoded, err := json.Marshal(sessions)
	if err != nil {
		return err
	}
	doc[sessionsKey] = encoded

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, out, 0644)
}

func (s *Store) readDoc() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
