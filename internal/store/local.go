package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playperu/wildkids/internal/achievement"
	"github.com/playperu/wildkids/internal/progress"
)

// Local is the on-device store. Rows are stored as JSONB documents and
// scoped by owner (see Identity.Owner). The schema is created by the
// migrations package.
type Local struct {
	db *sql.DB
}

func NewLocal(db *sql.DB) *Local {
	return &Local{db: db}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getDoc(ctx context.Context, q querier, query string, dest any, args ...any) (bool, error) {
	var data string
	err := q.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("decoding document: %w", err)
	}
	return true, nil
}

func putProgress(ctx context.Context, q querier, owner string, game progress.GameID, gp progress.GameProgress) error {
	data, err := json.Marshal(gp)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO game_progress (owner, game_id, data, updated_at) VALUES (?, ?, jsonb(?), ?)
		 ON CONFLICT(owner, game_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		owner, string(game), string(data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Get returns the record for game, empty when none is stored.
func (l *Local) Get(ctx context.Context, owner string, game progress.GameID) (progress.GameProgress, error) {
	gp := progress.NewGameProgress()
	_, err := getDoc(ctx, l.db,
		`SELECT json(data) FROM game_progress WHERE owner = ? AND game_id = ?`,
		&gp, owner, string(game),
	)
	if err != nil {
		return progress.GameProgress{}, fmt.Errorf("loading %s progress: %w", game, err)
	}
	gp.Normalize()
	return gp, nil
}

// All returns every stored record of owner keyed by game.
func (l *Local) All(ctx context.Context, owner string) (map[progress.GameID]progress.GameProgress, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT game_id, json(data) FROM game_progress WHERE owner = ? ORDER BY game_id`, owner,
	)
	if err != nil {
		return nil, fmt.Errorf("listing progress: %w", err)
	}
	defer rows.Close()

	games := map[progress.GameID]progress.GameProgress{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		gp := progress.NewGameProgress()
		if err := json.Unmarshal([]byte(data), &gp); err != nil {
			return nil, fmt.Errorf("decoding %s progress: %w", id, err)
		}
		gp.Normalize()
		games[progress.GameID(id)] = gp
	}
	return games, rows.Err()
}

// Put replaces the record for game.
func (l *Local) Put(ctx context.Context, owner string, game progress.GameID, gp progress.GameProgress) error {
	if err := putProgress(ctx, l.db, owner, game, gp); err != nil {
		return fmt.Errorf("saving %s progress: %w", game, err)
	}
	return nil
}

// PutAll replaces the records of every game in games in one transaction.
func (l *Local) PutAll(ctx context.Context, owner string, games map[progress.GameID]progress.GameProgress) error {
	tx, err := l.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for id, gp := range games {
		if err := putProgress(ctx, tx, owner, id, gp); err != nil {
			return fmt.Errorf("saving %s progress: %w", id, err)
		}
	}
	return tx.Commit()
}

// Apply loads the record for c.Game, folds c into it and saves it in a
// single transaction.
func (l *Local) Apply(ctx context.Context, owner string, c progress.Completion, now time.Time) (progress.GameProgress, error) {
	tx, err := l.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return progress.GameProgress{}, err
	}
	defer tx.Rollback()

	gp := progress.NewGameProgress()
	if _, err := getDoc(ctx, tx,
		`SELECT json(data) FROM game_progress WHERE owner = ? AND game_id = ?`,
		&gp, owner, string(c.Game),
	); err != nil {
		return progress.GameProgress{}, fmt.Errorf("loading %s progress: %w", c.Game, err)
	}

	gp.Apply(c, now)

	if err := putProgress(ctx, tx, owner, c.Game, gp); err != nil {
		return progress.GameProgress{}, fmt.Errorf("saving %s progress: %w", c.Game, err)
	}
	if err := tx.Commit(); err != nil {
		return progress.GameProgress{}, err
	}
	return gp, nil
}

// Unlocked returns the stored set of announced achievements.
func (l *Local) Unlocked(ctx context.Context, owner string) (achievement.Set, error) {
	set := achievement.NewSet()
	if _, err := getDoc(ctx, l.db,
		`SELECT json(data) FROM unlocked_achievements WHERE owner = ?`, &set, owner,
	); err != nil {
		return achievement.Set{}, fmt.Errorf("loading achievements: %w", err)
	}
	return set, nil
}

func (l *Local) PutUnlocked(ctx context.Context, owner string, set achievement.Set) error {
	data, err := json.Marshal(set)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO unlocked_achievements (owner, data) VALUES (?, jsonb(?))
		 ON CONFLICT(owner) DO UPDATE SET data = excluded.data`,
		owner, string(data),
	)
	if err != nil {
		return fmt.Errorf("saving achievements: %w", err)
	}
	return nil
}

// Profile returns the cached profile of owner and whether one is stored.
func (l *Local) Profile(ctx context.Context, owner string) (progress.Profile, bool, error) {
	var p progress.Profile
	ok, err := getDoc(ctx, l.db, `SELECT json(data) FROM profiles WHERE owner = ?`, &p, owner)
	if err != nil {
		return progress.Profile{}, false, fmt.Errorf("loading profile: %w", err)
	}
	return p, ok, nil
}

func (l *Local) PutProfile(ctx context.Context, owner string, p progress.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO profiles (owner, data) VALUES (?, jsonb(?))
		 ON CONFLICT(owner) DO UPDATE SET data = excluded.data`,
		owner, string(data),
	)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// Mirror stores a full copy of a remote record as the local cache.
func (l *Local) Mirror(ctx context.Context, owner string, rec progress.Record) error {
	if err := l.PutAll(ctx, owner, rec.Progress.Games); err != nil {
		return err
	}
	if err := l.PutUnlocked(ctx, owner, achievement.NewSet(rec.UnlockedAchievements...)); err != nil {
		return err
	}
	if rec.Profile != nil {
		return l.PutProfile(ctx, owner, *rec.Profile)
	}
	return nil
}
