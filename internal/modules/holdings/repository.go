// Package holdings provides the persistent store for portfolio holdings.
package holdings

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/stockfolio/backend/internal/database"
	"github.com/stockfolio/backend/internal/domain"
)

// Schema for the holdings database. Quantities and cost basis are stored as
// TEXT and parsed into decimals, never round-tripped through floats.
const Schema = `
CREATE TABLE IF NOT EXISTS holdings (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    symbol     TEXT NOT NULL,
    quantity   TEXT NOT NULL,
    cost_basis TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE (user_id, symbol)
);
CREATE INDEX IF NOT EXISTS idx_holdings_user ON holdings (user_id);
`

// Repository provides CRUD operations for holdings.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a holdings repository and applies the schema.
func NewRepository(db *database.DB, log zerolog.Logger) (*Repository, error) {
	if err := db.Migrate(Schema); err != nil {
		return nil, fmt.Errorf("failed to migrate holdings schema: %w", err)
	}
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "holdings").Logger(),
	}, nil
}

// GetByUser returns all holdings for a user in insertion order.
func (r *Repository) GetByUser(userID string) ([]domain.Holding, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, symbol, quantity, cost_basis, created_at, updated_at
		FROM holdings
		WHERE user_id = ?
		ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holdings: %w", err)
	}
	return holdings, nil
}

// Get returns one holding by ID, or nil if it does not exist.
func (r *Repository) Get(id string) (*domain.Holding, error) {
	row := r.db.QueryRow(`
		SELECT id, user_id, symbol, quantity, cost_basis, created_at, updated_at
		FROM holdings
		WHERE id = ?`, id)

	h, err := scanHolding(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Add inserts a new holding for the user. One row per (user, symbol); adding
// a symbol the user already holds is an error, use Update instead.
func (r *Repository) Add(userID, symbol string, quantity, costBasis decimal.Decimal) (domain.Holding, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return domain.Holding{}, fmt.Errorf("symbol is required")
	}
	if quantity.IsNegative() || costBasis.IsNegative() {
		return domain.Holding{}, fmt.Errorf("quantity and cost basis must not be negative")
	}

	now := time.Now().UTC()
	h := domain.Holding{
		ID:        uuid.New().String(),
		UserID:    userID,
		Symbol:    symbol,
		Quantity:  quantity,
		CostBasis: costBasis,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.db.Exec(`
		INSERT INTO holdings (id, user_id, symbol, quantity, cost_basis, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.UserID, h.Symbol, h.Quantity.String(), h.CostBasis.String(),
		h.CreatedAt.Unix(), h.UpdatedAt.Unix())
	if err != nil {
		return domain.Holding{}, fmt.Errorf("failed to insert holding: %w", err)
	}

	r.log.Info().Str("user", userID).Str("symbol", symbol).Msg("Added holding")
	return h, nil
}

// Update overwrites quantity and cost basis for an existing holding. The
// write and re-read run in one transaction so a concurrent delete cannot
// make the row vanish between them.
func (r *Repository) Update(id string, quantity, costBasis decimal.Decimal) (domain.Holding, error) {
	if quantity.IsNegative() || costBasis.IsNegative() {
		return domain.Holding{}, fmt.Errorf("quantity and cost basis must not be negative")
	}

	now := time.Now().UTC()
	var h domain.Holding
	err := database.WithTransaction(r.db.Conn(), func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE holdings SET quantity = ?, cost_basis = ?, updated_at = ?
			WHERE id = ?`,
			quantity.String(), costBasis.String(), now.Unix(), id)
		if err != nil {
			return fmt.Errorf("failed to update holding: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("holding %s not found", id)
		}

		row := tx.QueryRow(`
			SELECT id, user_id, symbol, quantity, cost_basis, created_at, updated_at
			FROM holdings
			WHERE id = ?`, id)
		h, err = scanHolding(row)
		if err == sql.ErrNoRows {
			return fmt.Errorf("holding %s not found", id)
		}
		return err
	})
	if err != nil {
		return domain.Holding{}, err
	}
	return h, nil
}

// Delete removes a holding by ID.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM holdings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("holding %s not found", id)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanHolding(s scanner) (domain.Holding, error) {
	var h domain.Holding
	var quantity, costBasis string
	var createdAt, updatedAt int64

	if err := s.Scan(&h.ID, &h.UserID, &h.Symbol, &quantity, &costBasis, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.Holding{}, err
		}
		return domain.Holding{}, fmt.Errorf("failed to scan holding: %w", err)
	}

	var err error
	if h.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return domain.Holding{}, fmt.Errorf("invalid quantity %q for holding %s: %w", quantity, h.ID, err)
	}
	if h.CostBasis, err = decimal.NewFromString(costBasis); err != nil {
		return domain.Holding{}, fmt.Errorf("invalid cost basis %q for holding %s: %w", costBasis, h.ID, err)
	}
	h.CreatedAt = time.Unix(createdAt, 0).UTC()
	h.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return h, nil
}
