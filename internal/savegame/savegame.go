// Package savegame reads and writes battle save files. Each file carries the
// AI record of every controlled unit and a BLAKE2b checksum of its content.
package savegame

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/fluffyfreak/OpenXcom/internal/ai"
	"github.com/fluffyfreak/OpenXcom/internal/battle"
	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
)

// Version is the save format version written by this package.
const Version = 1

var (
	// ErrChecksum is returned when the content does not match its checksum.
	ErrChecksum = errors.New("save checksum mismatch")
	// ErrVersion is returned for save files of an unsupported version.
	ErrVersion = errors.New("unsupported save version")
)

// UnitState is the saved state of one unit.
type UnitState struct {
	ID int       `yaml:"id"`
	AI ai.Record `yaml:"ai"`
}

// Save is one battle save.
type Save struct {
	Version  int         `yaml:"version"`
	Battle   string      `yaml:"battle"`
	Turn     int         `yaml:"turn"`
	Units    []UnitState `yaml:"units"`
	Checksum string      `yaml:"checksum"`
}

// New creates a save from the AI records of a battle, ordered by unit ID.
func New(battleID string, turn int, records map[battle.UnitID]ai.Record) *Save {
	s := &Save{Version: Version, Battle: battleID, Turn: turn}
	ids := make([]battle.UnitID, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		s.Units = append(s.Units, UnitState{ID: int(id), AI: records[id]})
	}
	return s
}

// Records returns the AI records keyed by unit ID.
func (s *Save) Records() map[battle.UnitID]ai.Record {
	out := make(map[battle.UnitID]ai.Record, len(s.Units))
	for _, u := range s.Units {
		out[battle.UnitID(u.ID)] = u.AI
	}
	return out
}

// sum returns the hex checksum of the save encoded with an empty checksum.
func (s *Save) sum() (string, error) {
	c := *s
	c.Checksum = ""
	data, err := yaml.Marshal(&c)
	if err != nil {
		return "", fmt.Errorf("encoding save: %w", err)
	}
	h := blake2b.Sum256(data)
	return hex.EncodeToString(h[:]), nil
}

// Encode writes the save with a fresh checksum.
func Encode(w io.Writer, s *Save) error {
	sum, err := s.sum()
	if err != nil {
		return err
	}
	s.Checksum = sum

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding save: %w", err)
	}
	return enc.Close()
}

// Decode reads a save and verifies its version and checksum.
func Decode(r io.Reader) (*Save, error) {
	var s Save
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding save: %w", err)
	}
	if s.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, s.Version)
	}
	sum, err := s.sum()
	if err != nil {
		return nil, err
	}
	if sum != s.Checksum {
		return nil, fmt.Errorf("%w: battle %s", ErrChecksum, s.Battle)
	}
	return &s, nil
}

// Write stores the save at path, creating the directory if needed. The file
// is replaced atomically.
func Write(path string, s *Save) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating save dir: %w", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing save %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing save %s: %w", path, err)
	}
	return nil
}

// Read loads and verifies the save at path.
func Read(path string) (*Save, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening save %s: %w", path, err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
