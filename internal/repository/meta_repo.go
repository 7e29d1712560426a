package repository

import (
	"context"
	"errors"

	"parlor/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInsufficientTickets = errors.New("insufficient tickets or already unlocked")

// MetaRepository stores per-user meta progression: tickets, unlock tiers,
// achievements and run history.
type MetaRepository struct {
	db *pgxpool.Pool
}

func NewMetaRepository(db *pgxpool.Pool) *MetaRepository {
	return &MetaRepository{db: db}
}

func (r *MetaRepository) EnsureProfile(ctx context.Context, username string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO meta_profile (username, tickets) VALUES ($1, 0)
		 ON CONFLICT (username) DO NOTHING`,
		username,
	)
	return err
}

func (r *MetaRepository) GetMetaState(ctx context.Context, username string) (*domain.MetaState, error) {
	if err := r.EnsureProfile(ctx, username); err != nil {
		return nil, err
	}

	state := &domain.MetaState{
		Unlocks:      map[string][]int{},
		Achievements: []string{},
		History:      []domain.RunRecord{},
	}

	err := r.db.QueryRow(ctx,
		`SELECT tickets FROM meta_profile WHERE username = $1`, username,
	).Scan(&state.Tickets)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT track_id, tier FROM meta_unlocks WHERE username = $1`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var trackID string
		var tier int
		if err := rows.Scan(&trackID, &tier); err != nil {
			return nil, err
		}
		state.Unlocks[trackID] = append(state.Unlocks[trackID], tier)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	achRows, err := r.db.Query(ctx,
		`SELECT achievement_id FROM meta_achievements WHERE username = $1`, username)
	if err != nil {
		return nil, err
	}
	defer achRows.Close()
	for achRows.Next() {
		var id string
		if err := achRows.Scan(&id); err != nil {
			return nil, err
		}
		state.Achievements = append(state.Achievements, id)
	}
	if err := achRows.Err(); err != nil {
		return nil, err
	}

	histRows, err := r.db.Query(ctx,
		`SELECT id, completed_at, result, acts_completed, bosses_defeated,
		        macguffin_id, difficulty, tickets_earned, final_gold,
		        aldric_basic, pip_basic
		 FROM meta_run_history
		 WHERE username = $1 ORDER BY id DESC LIMIT 50`,
		username)
	if err != nil {
		return nil, err
	}
	defer histRows.Close()
	for histRows.Next() {
		var rec domain.RunRecord
		if err := histRows.Scan(
			&rec.ID, &rec.CompletedAt, &rec.Result, &rec.ActsCompleted,
			&rec.BossesDefeated, &rec.MacguffinID, &rec.Difficulty,
			&rec.TicketsEarned, &rec.FinalGold, &rec.AldricBasic, &rec.PipBasic,
		); err != nil {
			return nil, err
		}
		state.History = append(state.History, rec)
	}
	if err := histRows.Err(); err != nil {
		return nil, err
	}

	return state, nil
}

func (r *MetaRepository) AddTickets(ctx context.Context, username string, amount int) (int, error) {
	if err := r.EnsureProfile(ctx, username); err != nil {
		return 0, err
	}

	var tickets int
	err := r.db.QueryRow(ctx,
		`UPDATE meta_profile SET tickets = tickets + $1 WHERE username = $2
		 RETURNING tickets`,
		amount, username,
	).Scan(&tickets)
	return tickets, err
}

// PurchaseUnlock debits the ticket cost and records the tier in one
// transaction. It fails when the balance is short or the tier is already
// owned.
func (r *MetaRepository) PurchaseUnlock(ctx context.Context, username, trackID string, tier, cost int) error {
	if err := r.EnsureProfile(ctx, username); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var tickets int
	if err := tx.QueryRow(ctx,
		`SELECT tickets FROM meta_profile WHERE username = $1 FOR UPDATE`,
		username,
	).Scan(&tickets); err != nil {
		return err
	}
	if tickets < cost {
		return ErrInsufficientTickets
	}

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM meta_unlocks
		   WHERE username = $1 AND track_id = $2 AND tier = $3)`,
		username, trackID, tier,
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrInsufficientTickets
	}

	if _, err := tx.Exec(ctx,
		`UPDATE meta_profile SET tickets = tickets - $1 WHERE username = $2`,
		cost, username,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO meta_unlocks (username, track_id, tier) VALUES ($1, $2, $3)`,
		username, trackID, tier,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *MetaRepository) RecordAchievement(ctx context.Context, username, achievementID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO meta_achievements (username, achievement_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		username, achievementID,
	)
	return err
}

func (r *MetaRepository) RecordRun(ctx context.Context, username string, run domain.RunResult) error {
	result := run.Result
	if result == "" {
		result = "defeat"
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO meta_run_history
		 (username, result, acts_completed, bosses_defeated, macguffin_id,
		  difficulty, tickets_earned, final_gold, aldric_basic, pip_basic)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		username, result, run.ActsCompleted, run.BossesDefeated, run.MacguffinID,
		run.Difficulty, run.TicketsEarned, run.FinalGold, run.AldricBasic, run.PipBasic,
	)
	return err
}
