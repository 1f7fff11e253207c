// Package pgstore keeps NPC snapshots in PostgreSQL so a server database can
// serve as the snapshot source of a build.
package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/udisondev/la2dat/internal/npcdata"
	"github.com/udisondev/la2dat/internal/npcdata/pgstore/migrations"
)

// Drop entry kinds stored in npc_drop_entries.kind.
const (
	kindDrop  int16 = 0
	kindSpoil int16 = 1
)

var snapshotColumns = []string{
	"npc_id", "name", "npc_type", "level", "hp", "mp", "exp", "sp",
	"p_atk", "p_def", "m_atk", "m_def", "aggressive", "herbs",
}

var entryColumns = []string{
	"npc_id", "kind", "position", "item_id", "item_name", "min_amount", "max_amount", "chance",
}

// Store reads and writes snapshots.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns a Store.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewFromPool wraps an existing pool.
func NewFromPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Migrate applies the embedded goose migrations.
func (s *Store) Migrate(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(s.pool)
	defer sqlDB.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Save replaces the stored snapshot set with set in one transaction.
func (s *Store) Save(ctx context.Context, set npcdata.Set) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	if _, err := tx.Exec(ctx, `DELETE FROM npc_snapshots`); err != nil {
		return fmt.Errorf("clearing snapshots: %w", err)
	}

	ids := set.IDs()
	snapRows := make([][]any, 0, len(ids))
	var entryRows [][]any
	for _, id := range ids {
		snap := set[id]
		st := snap.Stats
		snapRows = append(snapRows, []any{
			snap.ID, snap.Name, string(snap.Type), st.Level, st.HP, st.MP, st.Exp, st.SP,
			st.PAtk, st.PDef, st.MAtk, st.MDef, st.Aggressive, st.Herbs,
		})
		entryRows = appendEntryRows(entryRows, snap.ID, kindDrop, snap.Drops)
		entryRows = appendEntryRows(entryRows, snap.ID, kindSpoil, snap.Spoils)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"npc_snapshots"}, snapshotColumns, pgx.CopyFromRows(snapRows)); err != nil {
		return fmt.Errorf("copying snapshots: %w", err)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"npc_drop_entries"}, entryColumns, pgx.CopyFromRows(entryRows)); err != nil {
		return fmt.Errorf("copying drop entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing snapshots: %w", err)
	}
	return nil
}

func appendEntryRows(rows [][]any, npcID int32, kind int16, entries []npcdata.DropEntry) [][]any {
	for i, e := range entries {
		rows = append(rows, []any{npcID, kind, int32(i), e.ItemID, e.Name, e.Min, e.Max, e.Chance})
	}
	return rows
}

// Snapshot loads every stored snapshot.
func (s *Store) Snapshot(ctx context.Context) (npcdata.Set, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT npc_id, name, npc_type, level, hp, mp, exp, sp,
		       p_atk, p_def, m_atk, m_def, aggressive, herbs
		FROM npc_snapshots
		ORDER BY npc_id
	`)
	if err != nil {
		return nil, fmt.Errorf("loading npc snapshots: %w", err)
	}
	defer rows.Close()

	set := make(npcdata.Set)
	for rows.Next() {
		var (
			snap    npcdata.Snapshot
			npcType string
			st      = &snap.Stats
		)
		if err := rows.Scan(
			&snap.ID, &snap.Name, &npcType, &st.Level, &st.HP, &st.MP, &st.Exp, &st.SP,
			&st.PAtk, &st.PDef, &st.MAtk, &st.MDef, &st.Aggressive, &st.Herbs,
		); err != nil {
			return nil, fmt.Errorf("scanning npc snapshot row: %w", err)
		}
		snap.Type = npcdata.NpcType(npcType)
		snap.Drops = []npcdata.DropEntry{}
		snap.Spoils = []npcdata.DropEntry{}
		set[snap.ID] = snap
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating npc snapshot rows: %w", err)
	}

	if err := s.loadEntries(ctx, set); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *Store) loadEntries(ctx context.Context, set npcdata.Set) error {
	rows, err := s.pool.Query(ctx, `
		SELECT npc_id, kind, item_id, item_name, min_amount, max_amount, chance
		FROM npc_drop_entries
		ORDER BY npc_id, kind, position
	`)
	if err != nil {
		return fmt.Errorf("loading drop entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			npcID int32
			kind  int16
			e     npcdata.DropEntry
		)
		if err := rows.Scan(&npcID, &kind, &e.ItemID, &e.Name, &e.Min, &e.Max, &e.Chance); err != nil {
			return fmt.Errorf("scanning drop entry row: %w", err)
		}
		snap := set[npcID]
		switch kind {
		case kindDrop:
			snap.Drops = append(snap.Drops, e)
		case kindSpoil:
			snap.Spoils = append(snap.Spoils, e)
		default:
			return fmt.Errorf("npc %d: unknown drop entry kind %d", npcID, kind)
		}
		set[npcID] = snap
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating drop entry rows: %w", err)
	}
	return nil
}
