// Package store provides the persistence backends behind the battle
// machine's store interfaces: a JSON file tree for single-node setups,
// and SQLite/Postgres variants for anything bigger. All backends enforce
// optimistic concurrency with a per-record version counter and keep an
// append-only archive of completed battles.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tdmalone/slackemon-sub000/internal/battle"
	"github.com/tdmalone/slackemon-sub000/internal/player"
	"github.com/tdmalone/slackemon-sub000/internal/spawn"
)

// ErrConflict mirrors the battle package's sentinel so callers can match
// either.
var ErrConflict = battle.ErrConflict

// FileStore keeps every record as one JSON file under a root directory:
//
//	players/<id>.json
//	battles/<hash>.json
//	battles/archive.jsonl
//	invites/<hash>.json
//	spawns/<id>.json
//
// Writes go through a temp file and rename, so a crash never leaves a
// half-written record behind.
type FileStore struct {
	root string
	mu   sync.Mutex
}

// NewFileStore initializes the directory layout under root.
func NewFileStore(root string) (*FileStore, error) {
	for _, dir := range []string{"players", "battles", "invites", "spawns"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
		}
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) path(kind, id string) string {
	return filepath.Join(s.root, kind, sanitize(id)+".json")
}

// sanitize keeps record ids from escaping their directory.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, id)
}

func (s *FileStore) read(kind, id string, target interface{}) error {
	raw, err := os.ReadFile(s.path(kind, id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s %s: %w", kind, id, battle.ErrNotFound)
		}
		return err
	}
	return json.Unmarshal(raw, target)
}

func (s *FileStore) write(kind, id string, record interface{}) error {
	raw, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	path := s.path(kind, id)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// checkVersion enforces the optimistic write rule: a record may only be
// written at exactly one version past what is stored.
func (s *FileStore) checkVersion(kind, id string, incoming int, stored func() (int, bool)) error {
	current, exists := stored()
	if !exists {
		return nil // first write wins at any version
	}
	if incoming != current+1 {
		return fmt.Errorf("%s %s at version %d, write carries %d: %w", kind, id, current, incoming, ErrConflict)
	}
	return nil
}

func (s *FileStore) GetPlayer(id string) (*player.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var p player.Player
	if err := s.read("players", id, &p); err != nil {
		return nil, err
	}
	p.Migrate()
	return &p, nil
}

func (s *FileStore) SavePlayer(p *player.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.checkVersion("players", p.ID, p.Version, func() (int, bool) {
		var existing player.Player
		if err := s.read("players", p.ID, &existing); err != nil {
			return 0, false
		}
		return existing.Version, true
	})
	if err != nil {
		return err
	}
	return s.write("players", p.ID, p)
}

// ListPlayers returns every stored player id.
func (s *FileStore) ListPlayers() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listIDs("players")
}

func (s *FileStore) listIDs(kind string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, kind))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

func (s *FileStore) GetBattle(hash string) (*battle.Battle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b battle.Battle
	if err := s.read("battles", hash, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *FileStore) SaveBattle(b *battle.Battle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.checkVersion("battles", b.Hash, b.Version, func() (int, bool) {
		var existing battle.Battle
		if err := s.read("battles", b.Hash, &existing); err != nil {
			return 0, false
		}
		return existing.Version, true
	})
	if err != nil {
		return err
	}
	return s.write("battles", b.Hash, b)
}

func (s *FileStore) ListActiveBattles() ([]*battle.Battle, error) {
	s.mu.Lock()
	ids, err := s.listIDs("battles")
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]*battle.Battle, 0, len(ids))
	for _, id := range ids {
		b, err := s.GetBattle(id)
		if err != nil {
			continue // picked up mid-archive
		}
		out = append(out, b)
	}
	return out, nil
}

// archiveEntry is the JSONL wrapper for one completed battle.
type archiveEntry struct {
	Type       string          `json:"type"`
	ArchivedAt int64           `json:"archived_at"`
	Data       json.RawMessage `json:"data"`
}

// ArchiveBattle appends the battle to the completed-battle log and
// removes it from the active set. A battle that is no longer active
// cannot be archived again, which makes settlement idempotent.
func (s *FileStore) ArchiveBattle(b *battle.Battle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path("battles", b.Hash)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("battle %s: %w", b.Hash, battle.ErrNotFound)
	}

	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	line, err := json.Marshal(archiveEntry{
		Type:       string(battle.EventBattleCompleted),
		ArchivedAt: time.Now().Unix(),
		Data:       raw,
	})
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(s.root, "battles", "archive.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return os.Remove(path)
}

// LoadArchive replays the completed-battle log, oldest first.
func (s *FileStore) LoadArchive() ([]*battle.Battle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(filepath.Join(s.root, "battles", "archive.jsonl"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var out []*battle.Battle
	for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		if line == "" {
			continue
		}
		var entry archiveEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("failed to decode archive entry: %w", err)
		}
		var b battle.Battle
		if err := json.Unmarshal(entry.Data, &b); err != nil {
			return nil, fmt.Errorf("failed to decode archived battle: %w", err)
		}
		out = append(out, &b)
	}
	return out, nil
}

func (s *FileStore) GetInvite(hash string) (*battle.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var i battle.Invite
	if err := s.read("invites", hash, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

func (s *FileStore) SaveInvite(i *battle.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write("invites", i.Hash, i)
}

func (s *FileStore) DeleteInvite(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path("invites", hash))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileStore) ListInvites() ([]*battle.Invite, error) {
	s.mu.Lock()
	ids, err := s.listIDs("invites")
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]*battle.Invite, 0, len(ids))
	for _, id := range ids {
		i, err := s.GetInvite(id)
		if err != nil {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

func (s *FileStore) GetSpawn(id string) (*spawn.Spawn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sp spawn.Spawn
	if err := s.read("spawns", id, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

// SaveSpawn writes a spawn record. On a version conflict the Views maps
// are merged instead of failing the write: two users viewing the same
// spawn for the first time race on the same record, and neither viewing
// may be lost. The in-memory record wins per view key.
func (s *FileStore) SaveSpawn(sp *spawn.Spawn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing spawn.Spawn
	if err := s.read("spawns", sp.ID, &existing); err == nil {
		if sp.Version != existing.Version+1 {
			for id, view := range existing.Views {
				if _, ok := sp.Views[id]; !ok {
					sp.Views[id] = view
				}
			}
			sp.Version = existing.Version + 1
		}
	}
	return s.write("spawns", sp.ID, sp)
}

func (s *FileStore) DeleteSpawn(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path("spawns", id))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ListSpawns returns every live spawn in a region; empty region means all.
func (s *FileStore) ListSpawns(region string) ([]*spawn.Spawn, error) {
	s.mu.Lock()
	ids, err := s.listIDs("spawns")
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]*spawn.Spawn, 0, len(ids))
	for _, id := range ids {
		sp, err := s.GetSpawn(id)
		if err != nil {
			continue
		}
		if region != "" && sp.Region != region {
			continue
		}
		out = append(out, sp)
	}
	return out, nil
}
