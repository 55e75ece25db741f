package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/mininab/ledger"
	"github.com/robinvdvleuten/mininab/telemetry"
)

// JSONStore keeps the ledger in a single indented JSON file.
type JSONStore struct {
	path string
}

// NewJSON returns a store backed by the JSON file at path.
func NewJSON(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path implements Store.
func (s *JSONStore) Path() string { return s.path }

// Load implements Store. A missing file yields an empty ledger.
func (s *JSONStore) Load(ctx context.Context) (*ledger.Ledger, error) {
	timer := telemetry.StartTimer(ctx, "storage.load")
	defer timer.End()

	log := zerolog.Ctx(ctx)
	log.Info().Str("path", s.path).Msg("loading state")

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", s.path).Msg("no state file found, starting fresh")
		return ledger.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var snap ledger.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return ledger.FromSnapshot(&snap)
}

// Save implements Store. The file is replaced atomically.
func (s *JSONStore) Save(ctx context.Context, l *ledger.Ledger) error {
	timer := telemetry.StartTimer(ctx, "storage.save")
	defer timer.End()

	log := zerolog.Ctx(ctx)
	log.Info().Str("path", s.path).Msg("saving state")

	if err := s.write(l); err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("failed to save state")
		return &SaveError{Path: s.path, Err: err}
	}
	log.Info().Str("path", s.path).Msg("state saved")
	return nil
}

func (s *JSONStore) write(l *ledger.Ledger) error {
	data, err := json.MarshalIndent(l.Snapshot(), "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Close implements Store.
func (s *JSONStore) Close() error { return nil }
