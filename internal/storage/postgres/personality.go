package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sandevgo/personas/internal/core"
	"github.com/sandevgo/personas/pkg/log"
)

const storeName = "postgres"

// PersonalityRepo implements core.CoreRepository on PostgreSQL. Each call
// opens its own connection and closes it before returning.
type PersonalityRepo struct {
	dsn string
}

func NewPersonalityRepo(dsn string) *PersonalityRepo {
	return &PersonalityRepo{dsn: dsn}
}

func (r *PersonalityRepo) connect(ctx context.Context, op string) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, r.dsn)
	if err != nil {
		return nil, core.TransportError(storeName, op, err)
	}
	return conn, nil
}

func (r *PersonalityRepo) FetchCore(ctx context.Context, agentName string) (core.CoreProfile, error) {
	conn, err := r.connect(ctx, "fetch core")
	if err != nil {
		return core.CoreProfile{}, err
	}
	defer conn.Close(ctx)

	query := `
		SELECT agent_name, personality_type, communication_style, authority_level,
		       cultural_background, expertise_summary, management_philosophy,
		       activity_level, updated_at
		FROM agent_personality_overview
		WHERE agent_name = $1`

	var p core.CoreProfile
	err = conn.QueryRow(ctx, query, agentName).Scan(
		&p.AgentName,
		&p.PersonalityType,
		&p.CommunicationStyle,
		&p.AuthorityLevel,
		&p.CulturalBackground,
		&p.ExpertiseSummary,
		&p.ManagementPhilosophy,
		&p.ActivityLevel,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.CoreProfile{}, fmt.Errorf("core personality for %s: %w", agentName, core.ErrNotFound)
		}
		return core.CoreProfile{}, classify("fetch core", err)
	}

	return p, nil
}

func (r *PersonalityRepo) FetchRelationships(ctx context.Context, agentName string) ([]core.Relationship, error) {
	conn, err := r.connect(ctx, "fetch relationships")
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	query := `
		SELECT agent_1, agent_2, relationship_type, strength, notes, updated_at
		FROM agent_relationship_network
		WHERE agent_1 = $1 OR agent_2 = $1
		ORDER BY relationship_id`

	rows, err := conn.Query(ctx, query, agentName)
	if err != nil {
		return nil, core.TransportError(storeName, "fetch relationships", err)
	}
	defer rows.Close()

	rels := make([]core.Relationship, 0)
	for rows.Next() {
		var rel core.Relationship
		if err := rows.Scan(&rel.Agent1, &rel.Agent2, &rel.RelationshipType, &rel.Strength, &rel.Notes, &rel.UpdatedAt); err != nil {
			return nil, classify("fetch relationships", err)
		}
		rels = append(rels, rel)
	}

	if err := rows.Err(); err != nil {
		return nil, core.TransportError(storeName, "fetch relationships", err)
	}

	log.FromCtx(ctx).Debug().Str("agent", agentName).Int("count", len(rels)).Msg("loaded relationships")
	return rels, nil
}

// WriteCore overwrites the mutable core columns. AgentName, ExpertiseSummary
// and UpdatedAt in profile are ignored.
func (r *PersonalityRepo) WriteCore(ctx context.Context, agentName string, profile core.CoreProfile) error {
	return r.inTx(ctx, "write core", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE agent_personalities
			SET personality_type = $1, communication_style = $2, authority_level = $3,
			    cultural_background = $4, management_philosophy = $5, activity_level = $6,
			    updated_at = NOW()
			WHERE agent_id = (SELECT agent_id FROM agents WHERE agent_name = $7)`,
			profile.PersonalityType,
			profile.CommunicationStyle,
			profile.AuthorityLevel,
			profile.CulturalBackground,
			profile.ManagementPhilosophy,
			profile.ActivityLevel,
			agentName,
		)
		if err != nil {
			return core.TransportError(storeName, "write core", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("core personality for %s: %w", agentName, core.ErrNotFound)
		}
		return nil
	})
}

// CreateAgent registers the agent and upserts its core personality row.
func (r *PersonalityRepo) CreateAgent(ctx context.Context, profile core.CoreProfile) error {
	if profile.AgentName == "" {
		return core.MalformedError(storeName, "create agent", errors.New("agent name is required"))
	}

	return r.inTx(ctx, "create agent", func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO agents (agent_name) VALUES ($1)
			ON CONFLICT (agent_name) DO UPDATE SET agent_name = EXCLUDED.agent_name
			RETURNING agent_id`,
			profile.AgentName,
		).Scan(&id)
		if err != nil {
			return core.TransportError(storeName, "create agent", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO agent_personalities (
				agent_id, personality_type, communication_style, authority_level,
				cultural_background, expertise_summary, management_philosophy, activity_level
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (agent_id) DO UPDATE SET
				personality_type = EXCLUDED.personality_type,
				communication_style = EXCLUDED.communication_style,
				authority_level = EXCLUDED.authority_level,
				cultural_background = EXCLUDED.cultural_background,
				expertise_summary = EXCLUDED.expertise_summary,
				management_philosophy = EXCLUDED.management_philosophy,
				activity_level = EXCLUDED.activity_level,
				updated_at = NOW()`,
			id,
			profile.PersonalityType,
			profile.CommunicationStyle,
			profile.AuthorityLevel,
			profile.CulturalBackground,
			profile.ExpertiseSummary,
			profile.ManagementPhilosophy,
			profile.ActivityLevel,
		)
		if err != nil {
			return core.TransportError(storeName, "create agent", err)
		}
		return nil
	})
}

func (r *PersonalityRepo) AddRelationship(ctx context.Context, rel core.Relationship) error {
	relType := rel.RelationshipType
	if relType == "" {
		relType = "peer"
	}

	return r.inTx(ctx, "add relationship", func(tx pgx.Tx) error {
		id1, err := agentID(ctx, tx, rel.Agent1)
		if err != nil {
			return err
		}
		id2, err := agentID(ctx, tx, rel.Agent2)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO agent_relationships (agent_1_id, agent_2_id, relationship_type, strength, notes)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (agent_1_id, agent_2_id, relationship_type) DO UPDATE SET
				strength = EXCLUDED.strength,
				notes = EXCLUDED.notes,
				updated_at = NOW()`,
			id1, id2, relType, rel.Strength, rel.Notes,
		)
		if err != nil {
			return core.TransportError(storeName, "add relationship", err)
		}
		return nil
	})
}

func (r *PersonalityRepo) SaveMemorySummary(ctx context.Context, summary core.MemorySummary) error {
	types, err := json.Marshal(summary.InteractionTypes)
	if err != nil {
		return core.MalformedError(storeName, "save summary", err)
	}
	contexts, err := json.Marshal(summary.KeyContexts)
	if err != nil {
		return core.MalformedError(storeName, "save summary", err)
	}

	return r.inTx(ctx, "save summary", func(tx pgx.Tx) error {
		id, err := agentID(ctx, tx, summary.AgentName)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO agent_memory_summaries
				(agent_id, period_days, total_interactions, current_mood, interaction_types, key_contexts)
			VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb)`,
			id, summary.PeriodDays, summary.TotalInteractions, summary.CurrentMood, string(types), string(contexts),
		)
		if err != nil {
			return core.TransportError(storeName, "save summary", err)
		}
		return nil
	})
}

// inTx runs fn in a transaction on a fresh connection. fn's error is
// returned as is; commit failures count as transport.
func (r *PersonalityRepo) inTx(ctx context.Context, op string, fn func(pgx.Tx) error) error {
	conn, err := r.connect(ctx, op)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return core.TransportError(storeName, op, err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return core.TransportError(storeName, op, err)
	}
	return nil
}

func agentID(ctx context.Context, tx pgx.Tx, agentName string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `SELECT agent_id FROM agents WHERE agent_name = $1`, agentName).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("agent %s: %w", agentName, core.ErrNotFound)
		}
		return 0, core.TransportError(storeName, "resolve agent", err)
	}
	return id, nil
}

func classify(op string, err error) error {
	var scanErr pgx.ScanArgError
	if errors.As(err, &scanErr) {
		return core.MalformedError(storeName, op, err)
	}
	return core.TransportError(storeName, op, err)
}
