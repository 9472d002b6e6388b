package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fluffyfreak/OpenXcom/internal/ai"
	"github.com/fluffyfreak/OpenXcom/internal/battle"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no AI state is stored for a unit.
var ErrNotFound = errors.New("ai state not found")

// AIStateRepository manages the ai_states table.
type AIStateRepository struct {
	db *pgxpool.Pool
}

// NewAIStateRepository creates a new AIStateRepository.
func NewAIStateRepository(db *pgxpool.Pool) *AIStateRepository {
	return &AIStateRepository{db: db}
}

const upsertAIState = `
	INSERT INTO ai_states (battle_id, unit_id, mode, from_node, to_node, intelligence, aggro_target, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (battle_id, unit_id)
	DO UPDATE SET mode = $3, from_node = $4, to_node = $5, intelligence = $6, aggro_target = $7, updated_at = $8
`

// Save stores the AI record of one unit, replacing any previous one.
func (r *AIStateRepository) Save(ctx context.Context, battleID string, unitID battle.UnitID, rec ai.Record) error {
	_, err := r.db.Exec(ctx, upsertAIState,
		battleID, int(unitID), rec.Mode, rec.FromNode, rec.ToNode, rec.Intelligence, rec.AggroTarget, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("saving ai state of unit %d in %s: %w", unitID, battleID, err)
	}
	return nil
}

// SaveAllTx replaces the AI records of a battle within an existing transaction.
func (r *AIStateRepository) SaveAllTx(ctx context.Context, tx pgx.Tx, battleID string, records map[battle.UnitID]ai.Record) error {
	if _, err := tx.Exec(ctx, `DELETE FROM ai_states WHERE battle_id = $1`, battleID); err != nil {
		return fmt.Errorf("deleting ai states of %s: %w", battleID, err)
	}

	now := time.Now()
	batch := &pgx.Batch{}
	for id, rec := range records {
		batch.Queue(upsertAIState,
			battleID, int(id), rec.Mode, rec.FromNode, rec.ToNode, rec.Intelligence, rec.AggroTarget, now)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting ai states of %s: %w", battleID, err)
	}
	return nil
}

// SaveAll replaces the AI records of a battle in one transaction.
func (r *AIStateRepository) SaveAll(ctx context.Context, battleID string, records map[battle.UnitID]ai.Record) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("ai state rollback failed", "battle", battleID, "error", err)
		}
	}()

	if err := r.SaveAllTx(ctx, tx, battleID, records); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing ai states of %s: %w", battleID, err)
	}
	return nil
}

// Load returns the AI record of one unit.
func (r *AIStateRepository) Load(ctx context.Context, battleID string, unitID battle.UnitID) (ai.Record, error) {
	query := `
		SELECT mode, from_node, to_node, intelligence, aggro_target
		FROM ai_states
		WHERE battle_id = $1 AND unit_id = $2
	`

	var rec ai.Record
	err := r.db.QueryRow(ctx, query, battleID, int(unitID)).
		Scan(&rec.Mode, &rec.FromNode, &rec.ToNode, &rec.Intelligence, &rec.AggroTarget)
	if errors.Is(err, pgx.ErrNoRows) {
		return ai.Record{}, fmt.Errorf("unit %d in %s: %w", unitID, battleID, ErrNotFound)
	}
	if err != nil {
		return ai.Record{}, fmt.Errorf("querying ai state of unit %d in %s: %w", unitID, battleID, err)
	}
	return rec, nil
}

// LoadAll returns every AI record of a battle keyed by unit ID.
func (r *AIStateRepository) LoadAll(ctx context.Context, battleID string) (map[battle.UnitID]ai.Record, error) {
	query := `
		SELECT unit_id, mode, from_node, to_node, intelligence, aggro_target
		FROM ai_states
		WHERE battle_id = $1
		ORDER BY unit_id
	`

	rows, err := r.db.Query(ctx, query, battleID)
	if err != nil {
		return nil, fmt.Errorf("querying ai states of %s: %w", battleID, err)
	}
	defer rows.Close()

	records := make(map[battle.UnitID]ai.Record)
	for rows.Next() {
		var (
			id  int
			rec ai.Record
		)
		if err := rows.Scan(&id, &rec.Mode, &rec.FromNode, &rec.ToNode, &rec.Intelligence, &rec.AggroTarget); err != nil {
			return nil, fmt.Errorf("scanning ai state row: %w", err)
		}
		records[battle.UnitID(id)] = rec
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ai state rows: %w", err)
	}

	return records, nil
}

// Delete removes every AI record of a battle.
func (r *AIStateRepository) Delete(ctx context.Context, battleID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM ai_states WHERE battle_id = $1`, battleID); err != nil {
		return fmt.Errorf("deleting ai states of %s: %w", battleID, err)
	}
	return nil
}
