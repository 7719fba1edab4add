package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/shared"
)

var _ models.Repository[*models.HistoryEntry] = (*HistoryRepository)(nil)

const historyColumns = `id, sequence, k, payload, created_at, updated_at, deleted_at`

// HistoryRepository implements models.Repository[*models.HistoryEntry] for recommendation history.
//
// The full response is stored as JSON in payload; the seed, method and count columns are summaries for listing.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts a new entry with a generated ID and sequence
func (r *HistoryRepository) Create(entry *models.HistoryEntry) error {
	sequence, err := NextSequence(r.db, "history")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	entry.SetID(id)
	entry.SetSequence(sequence)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	payload, err := shared.MarshalJSON(entry.Response(), false)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	query := `
		INSERT INTO history (id, sequence, seed_id, seed_name, k, method, engine_version, cached, item_count, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		entry.SeedID(),
		entry.SeedName(),
		entry.K(),
		entry.Method(),
		entry.EngineVersion(),
		entry.Cached(),
		entry.ItemCount(),
		string(payload),
		entry.CreatedAt(),
		entry.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	return nil
}

// Get retrieves an entry by ID, excluding soft-deleted entries
func (r *HistoryRepository) Get(id string) (*models.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM history WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// GetBySequence retrieves an entry by its sequence number, excluding soft-deleted entries
func (r *HistoryRepository) GetBySequence(sequence int) (*models.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM history WHERE sequence = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, sequence))
}

// Find resolves a reference typed by a user: "#N" or a bare integer is a sequence number, anything else an ID.
func (r *HistoryRepository) Find(ref string) (*models.HistoryEntry, error) {
	ref = strings.TrimSpace(ref)
	if seq, err := strconv.Atoi(strings.TrimPrefix(ref, "#")); err == nil {
		return r.GetBySequence(seq)
	}
	return r.Get(ref)
}

// Update replaces the stored response and its summary columns
func (r *HistoryRepository) Update(entry *models.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	payload, err := shared.MarshalJSON(entry.Response(), false)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	now := time.Now()
	entry.SetUpdatedAt(now)

	query := `
		UPDATE history
		SET seed_id = ?, seed_name = ?, k = ?, method = ?, engine_version = ?, cached = ?, item_count = ?, payload = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		entry.SeedID(),
		entry.SeedName(),
		entry.K(),
		entry.Method(),
		entry.EngineVersion(),
		entry.Cached(),
		entry.ItemCount(),
		string(payload),
		now,
		entry.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update history entry: %w", err)
	}

	return r.expectOne(result, entry.ID())
}

// Delete soft-deletes an entry by ID
func (r *HistoryRepository) Delete(id string) error {
	query := `UPDATE history SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}

	return r.expectOne(result, id)
}

// List retrieves entries newest first, excluding soft-deleted entries.
//
// Supported criteria: "seed_id" (int64) and "limit" (int).
func (r *HistoryRepository) List(criteria map[string]any) ([]*models.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM history WHERE deleted_at IS NULL`
	args := []any{}

	if seedID, ok := criteria["seed_id"].(int64); ok {
		query += " AND seed_id = ?"
		args = append(args, seedID)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		entry, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scan reads one row selected with historyColumns into a [models.HistoryEntry]
func (r *HistoryRepository) scan(row scanner) (*models.HistoryEntry, error) {
	var (
		id        string
		sequence  int
		k         int
		payload   string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &k, &payload, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrHistoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan history entry: %w", err)
	}

	var resp models.RecommendationResponse
	if err := shared.UnmarshalJSON([]byte(payload), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode payload for %s: %w", id, err)
	}

	entry := models.NewHistoryEntry(sequence, k, resp)
	entry.SetID(id)
	entry.SetCreatedAt(createdAt)
	entry.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		entry.SetDeletedAt(&deletedAt.Time)
	}

	return entry, nil
}

func (r *HistoryRepository) expectOne(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrHistoryNotFound, id)
	}
	return nil
}
