package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tdmalone/slackemon-sub000/internal/battle"
	"github.com/tdmalone/slackemon-sub000/internal/player"
	"github.com/tdmalone/slackemon-sub000/internal/spawn"
)

// PostgresStore backs the store interfaces with a shared Postgres
// database, for deployments where several bot processes serve one game.
// Records are JSONB; the version column makes the optimistic write rule
// a single conditional UPDATE.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database at dsn and applies
// migrations.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the schema. Run explicitly at startup.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS players (
	id      TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	data    JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS battles (
	hash    TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	data    JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS battle_archive (
	hash        TEXT NOT NULL,
	archived_at BIGINT NOT NULL,
	data        JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS invites (
	hash TEXT PRIMARY KEY,
	data JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS spawns (
	id      TEXT PRIMARY KEY,
	region  TEXT NOT NULL,
	version INTEGER NOT NULL,
	data    JSONB NOT NULL
);`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close releases the connection pool.
func (s *PostgresStore) Close() { s.pool.Close() }

func (s *PostgresStore) getJSON(query, id string, target interface{}) error {
	var raw []byte
	err := s.pool.QueryRow(context.Background(), query, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", id, battle.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

func (s *PostgresStore) upsertVersioned(table, keyCol, key string, version int, raw []byte, region string) error {
	ctx := context.Background()
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET version = $1, data = $2 WHERE %s = $3 AND version = $4`, table, keyCol),
		version, raw, key, version-1,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var stored int
	err = s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT version FROM %s WHERE %s = $1`, table, keyCol), key).Scan(&stored)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return err
	default:
		return fmt.Errorf("%s %s at version %d, write carries %d: %w", table, key, stored, version, ErrConflict)
	}

	if table == "spawns" {
		_, err = s.pool.Exec(ctx, `INSERT INTO spawns (id, region, version, data) VALUES ($1, $2, $3, $4)`,
			key, region, version, raw)
		return err
	}
	_, err = s.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, version, data) VALUES ($1, $2, $3)`, table, keyCol),
		key, version, raw,
	)
	return err
}

func (s *PostgresStore) GetPlayer(id string) (*player.Player, error) {
	var p player.Player
	if err := s.getJSON(`SELECT data FROM players WHERE id = $1`, id, &p); err != nil {
		return nil, err
	}
	p.Migrate()
	return &p, nil
}

func (s *PostgresStore) SavePlayer(p *player.Player) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.upsertVersioned("players", "id", p.ID, p.Version, raw, "")
}

func (s *PostgresStore) GetBattle(hash string) (*battle.Battle, error) {
	var b battle.Battle
	if err := s.getJSON(`SELECT data FROM battles WHERE hash = $1`, hash, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PostgresStore) SaveBattle(b *battle.Battle) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.upsertVersioned("battles", "hash", b.Hash, b.Version, raw, "")
}

func (s *PostgresStore) ListActiveBattles() ([]*battle.Battle, error) {
	rows, err := s.pool.Query(context.Background(), `SELECT data FROM battles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*battle.Battle
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var b battle.Battle
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ArchiveBattle(b *battle.Battle) error {
	ctx := context.Background()
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM battles WHERE hash = $1`, b.Hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("battle %s: %w", b.Hash, battle.ErrNotFound)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO battle_archive (hash, archived_at, data) VALUES ($1, $2, $3)`,
		b.Hash, time.Now().Unix(), raw); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetInvite(hash string) (*battle.Invite, error) {
	var i battle.Invite
	if err := s.getJSON(`SELECT data FROM invites WHERE hash = $1`, hash, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

func (s *PostgresStore) SaveInvite(i *battle.Invite) error {
	raw, err := json.Marshal(i)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(context.Background(), `INSERT INTO invites (hash, data) VALUES ($1, $2)
		ON CONFLICT (hash) DO UPDATE SET data = EXCLUDED.data`, i.Hash, raw)
	return err
}

func (s *PostgresStore) DeleteInvite(hash string) error {
	_, err := s.pool.Exec(context.Background(), `DELETE FROM invites WHERE hash = $1`, hash)
	return err
}

func (s *PostgresStore) ListInvites() ([]*battle.Invite, error) {
	rows, err := s.pool.Query(context.Background(), `SELECT data FROM invites`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*battle.Invite
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var i battle.Invite
		if err := json.Unmarshal(raw, &i); err != nil {
			return nil, err
		}
		out = append(out, &i)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetSpawn(id string) (*spawn.Spawn, error) {
	var sp spawn.Spawn
	if err := s.getJSON(`SELECT data FROM spawns WHERE id = $1`, id, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *PostgresStore) SaveSpawn(sp *spawn.Spawn) error {
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

func (s *PostgresStore) DeleteSpawn(id string) error {
	_, err := s.pool.Exec(context.Background(), `DELETE FROM spawns WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) ListSpawns(region string) ([]*spawn.Spawn, error) {
	ctx := context.Background()
	var rows pgx.Rows
	var err error
	if region == "" {
		rows, err = s.pool.Query(ctx, `SELECT data FROM spawns`)
	} else {
		rows, err = s.pool.Query(ctx, `SELECT data FROM spawns WHERE region = $1`, region)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*spawn.Spawn
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var sp spawn.Spawn
		if err := json.Unmarshal(raw, &sp); err != nil {
			return nil, err
		}
		out = append(out, &sp)
	}
	return out, rows.Err()
}
