package rehearsal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed ProgressStore implementation. State is
// stored as a jsonb blob keyed by session id, upserted on every save.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed progress store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, session Session) error {
	if session.ID == "" {
		return fmt.Errorf("session id is required")
	}

	data, err := json.Marshal(session.State)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO rehearsal_progress (session_id, curriculum_id, state, updated_at)
		 VALUES ($1, $2, $3::jsonb, NOW())
		 ON CONFLICT (session_id)
		 DO UPDATE SET curriculum_id = EXCLUDED.curriculum_id,
		               state = EXCLUDED.state,
		               updated_at = NOW()`,
		session.ID,
		session.CurriculumID,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, sessionID string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	session := &Session{ID: sessionID}
	var stateBytes []byte

	err := s.pool.QueryRow(ctx,
		`SELECT curriculum_id, state, updated_at
		 FROM rehearsal_progress
		 WHERE session_id = $1`,
		sessionID,
	).Scan(&session.CurriculumID, &stateBytes, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session not found: %s", sessionID)
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	if err := json.Unmarshal(stateBytes, &session.State); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return session, nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`DELETE FROM rehearsal_progress WHERE session_id = $1`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return nil
}
