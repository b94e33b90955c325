package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tdmalone/slackemon-sub000/internal/battle"
	"github.com/tdmalone/slackemon-sub000/internal/player"
	"github.com/tdmalone/slackemon-sub000/internal/spawn"
)

// SQLiteStore keeps records as JSON blobs in a local SQLite database.
// One writer at a time; the version column carries the optimistic
// concurrency check into the database itself.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies
// migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the schema. Migrations run explicitly at startup, not
// implicitly on first access.
func (s *SQLiteStore) Migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS players (
	id      TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	data    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS battles (
	hash    TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	data    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS battle_archive (
	hash        TEXT NOT NULL,
	archived_at INTEGER NOT NULL,
	data        TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS invites (
	hash TEXT PRIMARY KEY,
	data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS spawns (
	id      TEXT PRIMARY KEY,
	region  TEXT NOT NULL,
	version INTEGER NOT NULL,
	data    TEXT NOT NULL
);`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) getJSON(query, id string, target interface{}) error {
	var raw string
	err := s.db.QueryRow(query, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", id, battle.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), target)
}

// upsertVersioned writes a record under the optimistic rule: insert if
// absent, otherwise update only when the stored version is one behind.
func (s *SQLiteStore) upsertVersioned(table, keyCol, key string, version int, raw []byte, extra ...interface{}) error {
	res, err := s.db.Exec(
		fmt.Sprintf(`UPDATE %s SET version = ?, data = ? WHERE %s = ? AND version = ?`, table, keyCol),
		version, string(raw), key, version-1,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// Not updated: either absent (insert) or a version conflict.
	var stored int
	err = s.db.QueryRow(fmt.Sprintf(`SELECT version FROM %s WHERE %s = ?`, table, keyCol), key).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	default:
		return fmt.Errorf("%s %s at version %d, write carries %d: %w", table, key, stored, version, ErrConflict)
	}

	if table == "spawns" {
		region := extra[0].(string)
		_, err = s.db.Exec(`INSERT INTO spawns (id, region, version, data) VALUES (?, ?, ?, ?)`,
			key, region, version, string(raw))
		return err
	}
	_, err = s.db.Exec(
		fmt.Sprintf(`INSERT INTO %s (%s, version, data) VALUES (?, ?, ?)`, table, keyCol),
		key, version, string(raw),
	)
	return err
}

func (s *SQLiteStore) GetPlayer(id string) (*player.Player, error) {
	var p player.Player
	if err := s.getJSON(`SELECT data FROM players WHERE id = ?`, id, &p); err != nil {
		return nil, err
	}
	p.Migrate()
	return &p, nil
}

func (s *SQLiteStore) SavePlayer(p *player.Player) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.upsertVersioned("players", "id", p.ID, p.Version, raw)
}

func (s *SQLiteStore) GetBattle(hash string) (*battle.Battle, error) {
	var b battle.Battle
	if err := s.getJSON(`SELECT data FROM battles WHERE hash = ?`, hash, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *SQLiteStore) SaveBattle(b *battle.Battle) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.upsertVersioned("battles", "hash", b.Hash, b.Version, raw)
}

func (s *SQLiteStore) ListActiveBattles() ([]*battle.Battle, error) {
	rows, err := s.db.Query(`SELECT data FROM battles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*battle.Battle
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var b battle.Battle
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

// ArchiveBattle moves the record out of the active table inside one
// transaction, so a battle can be archived exactly once.
func (s *SQLiteStore) ArchiveBattle(b *battle.Battle) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM battles WHERE hash = ?`, b.Hash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("battle %s: %w", b.Hash, battle.ErrNotFound)
	}
	if _, err := tx.Exec(`INSERT INTO battle_archive (hash, archived_at, data) VALUES (?, ?, ?)`,
		b.Hash, time.Now().Unix(), string(raw)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetInvite(hash string) (*battle.Invite, error) {
	var i battle.Invite
	if err := s.getJSON(`SELECT data FROM invites WHERE hash = ?`, hash, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

func (s *SQLiteStore) SaveInvite(i *battle.Invite) error {
	raw, err := json.Marshal(i)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO invites (hash, data) VALUES (?, ?)
		ON CONFLICT(hash) DO UPDATE SET data = excluded.data`, i.Hash, string(raw))
	return err
}

func (s *SQLiteStore) DeleteInvite(hash string) error {
	_, err := s.db.Exec(`DELETE FROM invites WHERE hash = ?`, hash)
	return err
}

func (s *SQLiteStore) ListInvites() ([]*battle.Invite, error) {
	rows, err := s.db.Query(`SELECT data FROM invites`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*battle.Invite
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var i battle.Invite
		if err := json.Unmarshal([]byte(raw), &i); err != nil {
			return nil, err
		}
		out = append(out, &i)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetSpawn(id string) (*spawn.Spawn, error) {
	var sp spawn.Spawn
	if err := s.getJSON(`SELECT data FROM spawns WHERE id = ?`, id, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

// SaveSpawn merges Views on a version conflict rather than failing; see
// FileStore.SaveSpawn.
func (s *SQLiteStore) SaveSpawn(sp *spawn.Spawn) error {
	raw, err := json.Marshal(sp)
	if err != nil {
		return err
	}
	err = s.upsertVersioned("spawns", "id", sp.ID, sp.Version, raw, sp.Region)
	if !errors.Is(err, ErrConflict) {
		return err
	}

	existing, err := s.GetSpawn(sp.ID)
	if err != nil {
		return err
	}
	for id, view := range existing.Views {
		if _, ok := sp.Views[id]; !ok {
			sp.Views[id] = view
		}
	}
	sp.Version = existing.Version + 1
	raw, err = json.Marshal(sp)
	if err != nil {
		return err
	}
	return s.upsertVersioned("spawns", "id", sp.ID, sp.Version, raw, sp.Region)
}

func (s *SQLiteStore) DeleteSpawn(id string) error {
	_, err := s.db.Exec(`DELETE FROM spawns WHERE id = ?`, id)
	return err
}

// ListSpawns returns live spawns, optionally filtered by region.
func (s *SQLiteStore) ListSpawns(region string) ([]*spawn.Spawn, error) {
	query, args := `SELECT data FROM spawns`, []interface{}{}
	if region != "" {
		query += ` WHERE region = ?`
		args = append(args, region)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*spawn.Spawn
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var sp spawn.Spawn
		if err := json.Unmarshal([]byte(raw), &sp); err != nil {
			return nil, err
		}
		out = append(out, &sp)
	}
	return out, rows.Err()
}
