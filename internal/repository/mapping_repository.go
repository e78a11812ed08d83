package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrMappingNotFound  = errors.New("mapping not found")
	ErrIDExists         = errors.New("id already exists")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// MappingRepository хранилище соответствий id -> long_url
type MappingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Mapping, error)
	Insert(ctx context.Context, mapping *models.Mapping) error
	Ping(ctx context.Context) error
	State() ConnState
}

type mappingRepository struct {
	db *PostgresDB
}

// NewMappingRepository оборачивает подключение к БД. При db == nil репозиторий
// находится в состоянии Disconnected и сразу отвечает ErrStoreUnavailable.
func NewMappingRepository(db *PostgresDB) MappingRepository {
	return &mappingRepository{db: db}
}

func (r *mappingRepository) State() ConnState {
	if r.db == nil {
		return StateDisconnected
	}
	return StateConnected
}

func (r *mappingRepository) FindByID(ctx context.Context, id string) (*models.Mapping, error) {
	if r.db == nil {
		return nil, ErrStoreUnavailable
	}

	query := `SELECT id, long_url, created_at FROM url_mappings WHERE id = $1`

	mapping := &models.Mapping{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&mapping.ID,
		&mapping.LongURL,
		&mapping.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMappingNotFound
		}
		return nil, fmt.Errorf("failed to get mapping: %w", err)
	}

	return mapping, nil
}

func (r *mappingRepository) Insert(ctx context.Context, mapping *models.Mapping) error {
	if r.db == nil {
		return ErrStoreUnavailable
	}

	query := `
		INSERT INTO url_mappings (id, long_url)
		VALUES ($1, $2)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query, mapping.ID, mapping.LongURL).Scan(&mapping.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrIDExists
		}
		return fmt.Errorf("failed to insert mapping: %w", err)
	}

	return nil
}

func (r *mappingRepository) Ping(ctx context.Context) error {
	if r.db == nil {
		return ErrStoreUnavailable
	}
	return r.db.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
