package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homesite_sync/models"
)

// PostgresStore mirrors the CMS document model into a single jsonb table.
// It serves as a local target when no CMS project is available.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(type);`)
	return err
}

func (s *PostgresStore) Mutate(ctx context.Context, mutations ...Mutation) error {
	if len(mutations) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, m := range mutations {
		if err := applyMutation(ctx, tx, m); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func applyMutation(ctx context.Context, tx pgx.Tx, m Mutation) error {
	switch {
	case m.CreateOrReplace != nil:
		doc, err := toDocument(m.CreateOrReplace)
		if err != nil {
			return err
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO documents (id, type, data, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (id) DO UPDATE SET
				type = EXCLUDED.type,
				data = EXCLUDED.data,
				updated_at = NOW()`,
			doc.ID(), doc.Type(), data)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", doc.ID(), err)
		}
	case m.Patch != nil:
		set, err := json.Marshal(m.Patch.Set)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE documents SET data = data || $2::jsonb, updated_at = NOW()
			WHERE id = $1`, m.Patch.ID, set)
		if err != nil {
			return fmt.Errorf("patch %s: %w", m.Patch.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("patch %s: %w", m.Patch.ID, ErrNotFound)
		}
	case m.Delete != nil:
		if _, err := tx.Exec(ctx, `DELETE FROM documents WHERE id = $1`, m.Delete.ID); err != nil {
			return fmt.Errorf("delete %s: %w", m.Delete.ID, err)
		}
	default:
		return fmt.Errorf("empty mutation")
	}
	return nil
}

func (s *PostgresStore) Communities(ctx context.Context, filter CommunityFilter) ([]models.CommunitySummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id,
			COALESCE(c.data->>'name', ''),
			COALESCE(c.data->>'pageLink', ''),
			COALESCE(st.data->>'name', ''),
			COALESCE(st.id, ''),
			COALESCE(ar.data->>'name', '')
		FROM documents c
		LEFT JOIN documents st ON st.id = c.data->'stateRef'->>'_ref'
		LEFT JOIN documents ar ON ar.id = c.data->'areaRef'->>'_ref'
		WHERE c.type = 'community'
			AND COALESCE(c.data->>'pageLink', '') <> ''
			AND ($1 = '' OR lower(st.data->>'name') LIKE lower($1) || '%' OR lower(st.id) LIKE lower($1) || '%')
			AND ($2 = '' OR lower(ar.data->>'name') LIKE lower($2) || '%')
			AND ($3 = '' OR lower(c.data->>'name') LIKE '%' || lower($3) || '%')
		ORDER BY c.id`,
		filter.State, filter.Area, filter.Community)
	if err != nil {
		return nil, fmt.Errorf("query communities: %w", err)
	}
	defer rows.Close()

	var out []models.CommunitySummary
	for rows.Next() {
		var c models.CommunitySummary
		if err := rows.Scan(&c.ID, &c.Name, &c.PageLink, &c.StateName, &c.StateID, &c.AreaName); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FloorPlans(ctx context.Context) ([]models.FloorPlanSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, COALESCE(data->>'name', ''), COALESCE(data->'communityRef'->>'_ref', '')
		FROM documents WHERE type = 'floorPlan' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query floor plans: %w", err)
	}
	defer rows.Close()

	var out []models.FloorPlanSummary
	for rows.Next() {
		var p models.FloorPlanSummary
		var communityRef string
		if err := rows.Scan(&p.ID, &p.Name, &communityRef); err != nil {
			return nil, err
		}
		if communityRef != "" {
			p.CommunityRef = models.WeakRef(communityRef)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Houses(ctx context.Context, filter HouseFilter) ([]models.HouseSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id,
			COALESCE(data->>'address', ''),
			COALESCE(data->>'floorPlanName', ''),
			COALESCE(data->'communityRef'->>'_ref', ''),
			COALESCE(data->'floorPlanRef'->>'_ref', '')
		FROM documents
		WHERE type = 'house'
			AND (NOT $1 OR (COALESCE(data->>'floorPlanName', '') <> '' AND data->'floorPlanRef' IS NULL))
		ORDER BY id`, filter.UnlinkedOnly)
	if err != nil {
		return nil, fmt.Errorf("query houses: %w", err)
	}
	defer rows.Close()

	var out []models.HouseSummary
	for rows.Next() {
		var h models.HouseSummary
		var communityRef, floorPlanRef string
		if err := rows.Scan(&h.ID, &h.Address, &h.FloorPlanName, &communityRef, &floorPlanRef); err != nil {
			return nil, err
		}
		if communityRef != "" {
			h.CommunityRef = models.WeakRef(communityRef)
		}
		if floorPlanRef != "" {
			h.FloorPlanRef = models.WeakRef(floorPlanRef)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Documents(ctx context.Context, query DocumentQuery) ([]models.Document, error) {
	types := query.Types
	if types == nil {
		types = []string{}
	}
	rows, err := s.pool.Query(ctx, `
		SELECT data FROM documents
		WHERE (cardinality($1::text[]) = 0 OR type = ANY($1))
			AND (NOT $2 OR id LIKE 'drafts.%')
		ORDER BY id`, types, query.DraftsOnly)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var doc models.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}
