package repository

import (
	"context"
	"encoding/json"
	"errors"

	"parlor/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RunRepository stores solo-run save slots. Snapshots are opaque JSON;
// only the act/scene summary columns are parsed out for queries.
type RunRepository struct {
	db *pgxpool.Pool
}

func NewRunRepository(db *pgxpool.Pool) *RunRepository {
	return &RunRepository{db: db}
}

// Save upserts the active snapshot for a run id.
func (r *RunRepository) Save(ctx context.Context, runID, username string, state json.RawMessage) error {
	currentAct, currentScene := summarize(state)

	_, err := r.db.Exec(ctx,
		`INSERT INTO runs (run_id, username, status, current_act, current_scene, state_json, updated_at)
		 VALUES ($1, $2, 'active', $3, $4, $5, now())
		 ON CONFLICT (run_id) DO UPDATE
		 SET username = EXCLUDED.username,
		     status = 'active',
		     current_act = EXCLUDED.current_act,
		     current_scene = EXCLUDED.current_scene,
		     state_json = EXCLUDED.state_json,
		     updated_at = now()`,
		runID, username, currentAct, currentScene, state,
	)
	return err
}

// Load returns the active snapshot for a run id.
func (r *RunRepository) Load(ctx context.Context, runID string) (json.RawMessage, error) {
	var state []byte
	err := r.db.QueryRow(ctx,
		`SELECT state_json FROM runs WHERE run_id = $1 AND status = 'active'`,
		runID,
	).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Delete removes a run slot, reporting whether it existed.
func (r *RunRepository) Delete(ctx context.Context, runID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM runs WHERE run_id = $1`, runID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RecentUser returns the username with the most recent save activity,
// falling back to run history.
func (r *RunRepository) RecentUser(ctx context.Context) (string, error) {
	var username string
	err := r.db.QueryRow(ctx,
		`SELECT username FROM runs WHERE username <> '' ORDER BY updated_at DESC LIMIT 1`,
	).Scan(&username)
	if err == nil {
		return username, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	err = r.db.QueryRow(ctx,
		`SELECT username FROM meta_run_history WHERE username <> '' ORDER BY id DESC LIMIT 1`,
	).Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return username, nil
}

// ActiveRunForUser returns the newest active run id and snapshot for a user.
func (r *RunRepository) ActiveRunForUser(ctx context.Context, username string) (string, json.RawMessage, error) {
	var runID string
	var state []byte
	err := r.db.QueryRow(ctx,
		`SELECT run_id, state_json FROM runs
		 WHERE username = $1 AND status = 'active'
		 ORDER BY updated_at DESC LIMIT 1`,
		username,
	).Scan(&runID, &state)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil, domain.ErrNotFound
	}
	if err != nil {
		return "", nil, err
	}
	return runID, state, nil
}

// summarize pulls the act/scene summary out of a snapshot for indexing.
// Snapshots are otherwise opaque to the server.
func summarize(state json.RawMessage) (int, string) {
	var parsed struct {
		RunState struct {
			CurrentAct   int             `json:"currentAct"`
			CurrentScene json.RawMessage `json:"currentScene"`
		} `json:"runState"`
	}
	if err := json.Unmarshal(state, &parsed); err != nil {
		return 1, "0"
	}

	act := parsed.RunState.CurrentAct
	if act == 0 {
		act = 1
	}

	scene := "0"
	if len(parsed.RunState.CurrentScene) > 0 {
		var s string
		if err := json.Unmarshal(parsed.RunState.CurrentScene, &s); err == nil {
			scene = s
		} else {
			scene = string(parsed.RunState.CurrentScene)
		}
	}
	return act, scene
}
