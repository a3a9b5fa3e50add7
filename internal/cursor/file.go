package cursor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tradewatch/tradewatch/internal/market"
)

// FileStore keeps the cursor map as a flat JSON object on disk. Writes go
// through a temp file and rename so a crash mid-write never leaves a
// truncated state file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) (map[market.ChatID]int64, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[market.ChatID]int64{}, nil
		}
		return nil, fmt.Errorf("read cursor file: %w", err)
	}
	var raw map[string]int64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse cursor file: %w", err)
	}
	out := make(map[market.ChatID]int64, len(raw))
	for k, v := range raw {
		out[market.ChatID(k)] = v
	}
	return out, nil
}

func (s *FileStore) Save(_ context.Context, cursors map[market.ChatID]int64) error {
	raw := make(map[string]int64, len(cursors))
	for k, v := range cursors {
		raw[string(k)] = v
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal cursors: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename cursor file: %w", err)
	}
	return nil
}
