package handlers

import (
	"context"
	"encoding/json"

	"parlor/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunStore is the save-slot surface the solo endpoints consume.
// *repository.RunRepository implements it; tests substitute stubs.
type RunStore interface {
	Save(ctx context.Context, runID, username string, state json.RawMessage) error
	Load(ctx context.Context, runID string) (json.RawMessage, error)
	Delete(ctx context.Context, runID string) (bool, error)
	RecentUser(ctx context.Context) (string, error)
	ActiveRunForUser(ctx context.Context, username string) (string, json.RawMessage, error)
}

// Handler carries the shared dependencies of the REST endpoints. DB may be
// nil when the server runs without persistence; routes that need it are not
// registered in that case.
type Handler struct {
	DB       *pgxpool.Pool
	RunRepo  RunStore
	MetaRepo *repository.MetaRepository
}

func NewHandler(db *pgxpool.Pool) *Handler {
	h := &Handler{DB: db}
	if db != nil {
		h.RunRepo = repository.NewRunRepository(db)
		h.MetaRepo = repository.NewMetaRepository(db)
	}
	return h
}
