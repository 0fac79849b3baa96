package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/personas/internal/core"
	"github.com/sandevgo/personas/pkg/log"
)

const storeName = "sqlite"

// PersonalityRepo implements core.CoreRepository on the embedded database.
// Every call runs in its own transaction.
type PersonalityRepo struct {
	db *sql.DB
}

func NewPersonalityRepo(db *sql.DB) *PersonalityRepo {
	return &PersonalityRepo{db: db}
}

func (r *PersonalityRepo) FetchCore(ctx context.Context, agentName string) (core.CoreProfile, error) {
	query := `
		SELECT agent_name, personality_type, communication_style, authority_level,
		       cultural_background, expertise_summary, management_philosophy,
		       activity_level, updated_at
		FROM agent_personality_overview
		WHERE agent_name = ?`

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return core.CoreProfile{}, core.TransportError(storeName, "fetch core", err)
	}
	defer tx.Rollback()

	var (
		p         core.CoreProfile
		updatedAt any
	)
	err = tx.QueryRowContext(ctx, query, agentName).Scan(
		&p.AgentName,
		&p.PersonalityType,
		&p.CommunicationStyle,
		&p.AuthorityLevel,
		&p.CulturalBackground,
		&p.ExpertiseSummary,
		&p.ManagementPhilosophy,
		&p.ActivityLevel,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.CoreProfile{}, fmt.Errorf("core personality for %s: %w", agentName, core.ErrNotFound)
		}
		return core.CoreProfile{}, classify("fetch core", err)
	}

	ts, err := parseTimestamp(updatedAt)
	if err != nil {
		return core.CoreProfile{}, core.MalformedError(storeName, "fetch core", err)
	}
	p.UpdatedAt = ts

	if err := tx.Commit(); err != nil {
		return core.CoreProfile{}, core.TransportError(storeName, "fetch core", err)
	}
	return p, nil
}

func (r *PersonalityRepo) FetchRelationships(ctx context.Context, agentName string) ([]core.Relationship, error) {
	query := `
		SELECT agent_1, agent_2, relationship_type, strength, notes, updated_at
		FROM agent_relationship_network
		WHERE agent_1 = ? OR agent_2 = ?
		ORDER BY relationship_id`

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, core.TransportError(storeName, "fetch relationships", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query, agentName, agentName)
	if err != nil {
		return nil, core.TransportError(storeName, "fetch relationships", err)
	}
	defer rows.Close()

	rels := make([]core.Relationship, 0)
	for rows.Next() {
		var (
			rel       core.Relationship
			updatedAt any
		)
		if err := rows.Scan(&rel.Agent1, &rel.Agent2, &rel.RelationshipType, &rel.Strength, &rel.Notes, &updatedAt); err != nil {
			return nil, core.MalformedError(storeName, "fetch relationships", err)
		}
		if rel.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
			return nil, core.MalformedError(storeName, "fetch relationships", err)
		}
		rels = append(rels, rel)
	}

	if err := rows.Err(); err != nil {
		return nil, core.TransportError(storeName, "fetch relationships", err)
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return nil, core.TransportError(storeName, "fetch relationships", err)
	}

	log.FromCtx(ctx).Debug().Str("agent", agentName).Int("count", len(rels)).Msg("loaded relationships")
	return rels, nil
}

// WriteCore overwrites the mutable core columns. AgentName, ExpertiseSummary
// and UpdatedAt in profile are ignored.
func (r *PersonalityRepo) WriteCore(ctx context.Context, agentName string, profile core.CoreProfile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.TransportError(storeName, "write core", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE agent_personalities
		SET personality_type = ?, communication_style = ?, authority_level = ?,
		    cultural_background = ?, management_philosophy = ?, activity_level = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE agent_id = (SELECT agent_id FROM agents WHERE agent_name = ?)`

	res, err := tx.ExecContext(ctx, query,
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

	n, err := res.RowsAffected()
	if err != nil {
		return core.TransportError(storeName, "write core", err)
	}
	if n == 0 {
		return fmt.Errorf("core personality for %s: %w", agentName, core.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return core.TransportError(storeName, "write core", err)
	}
	return nil
}

// CreateAgent registers the agent and upserts its core personality row.
func (r *PersonalityRepo) CreateAgent(ctx context.Context, profile core.CoreProfile) error {
	if profile.AgentName == "" {
		return core.MalformedError(storeName, "create agent", errors.New("agent name is required"))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.TransportError(storeName, "create agent", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO agents (agent_name) VALUES (?) ON CONFLICT (agent_name) DO NOTHING`,
		profile.AgentName,
	); err != nil {
		return core.TransportError(storeName, "create agent", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO agent_personalities (
			agent_id, personality_type, communication_style, authority_level,
			cultural_background, expertise_summary, management_philosophy, activity_level
		)
		SELECT agent_id, ?, ?, ?, ?, ?, ?, ? FROM agents WHERE agent_name = ?
		ON CONFLICT (agent_id) DO UPDATE SET
			personality_type = excluded.personality_type,
			communication_style = excluded.communication_style,
			authority_level = excluded.authority_level,
			cultural_background = excluded.cultural_background,
			expertise_summary = excluded.expertise_summary,
			management_philosophy = excluded.management_philosophy,
			activity_level = excluded.activity_level,
			updated_at = CURRENT_TIMESTAMP`,
		profile.PersonalityType,
		profile.CommunicationStyle,
		profile.AuthorityLevel,
		profile.CulturalBackground,
		profile.ExpertiseSummary,
		profile.ManagementPhilosophy,
		profile.ActivityLevel,
		profile.AgentName,
	)
	if err != nil {
		return core.TransportError(storeName, "create agent", err)
	}

	if err := tx.Commit(); err != nil {
		return core.TransportError(storeName, "create agent", err)
	}
	return nil
}

func (r *PersonalityRepo) AddRelationship(ctx context.Context, rel core.Relationship) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.TransportError(storeName, "add relationship", err)
	}
	defer tx.Rollback()

	id1, err := agentID(ctx, tx, rel.Agent1)
	if err != nil {
		return err
	}
	id2, err := agentID(ctx, tx, rel.Agent2)
	if err != nil {
		return err
	}

	relType := rel.RelationshipType
	if relType == "" {
		relType = "peer"
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO agent_relationships (agent_1_id, agent_2_id, relationship_type, strength, notes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (agent_1_id, agent_2_id, relationship_type) DO UPDATE SET
			strength = excluded.strength,
			notes = excluded.notes,
			updated_at = CURRENT_TIMESTAMP`,
		id1, id2, relType, rel.Strength, rel.Notes,
	)
	if err != nil {
		return core.TransportError(storeName, "add relationship", err)
	}

	if err := tx.Commit(); err != nil {
		return core.TransportError(storeName, "add relationship", err)
	}
	return nil
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

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.TransportError(storeName, "save summary", err)
	}
	defer tx.Rollback()

	id, err := agentID(ctx, tx, summary.AgentName)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO agent_memory_summaries
			(agent_id, period_days, total_interactions, current_mood, interaction_types, key_contexts)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, summary.PeriodDays, summary.TotalInteractions, summary.CurrentMood, string(types), string(contexts),
	)
	if err != nil {
		return core.TransportError(storeName, "save summary", err)
	}

	if err := tx.Commit(); err != nil {
		return core.TransportError(storeName, "save summary", err)
	}
	return nil
}

func agentID(ctx context.Context, tx *sql.Tx, agentName string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT agent_id FROM agents WHERE agent_name = ?`, agentName).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("agent %s: %w", agentName, core.ErrNotFound)
		}
		return 0, core.TransportError(storeName, "resolve agent", err)
	}
	return id, nil
}

// classify separates decode failures (database/sql reports them as
// "sql: Scan error ...") from everything else, which counts as transport.
func classify(op string, err error) error {
	if strings.HasPrefix(err.Error(), "sql: Scan error") {
		return core.MalformedError(storeName, op, err)
	}
	return core.TransportError(storeName, op, err)
}

// SQLite hands timestamps back either as time.Time (declared DATETIME
// columns) or as text, depending on how the column reaches the driver.
func parseTimestamp(v any) (*time.Time, error) {
	var s string
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &t, nil
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return nil, fmt.Errorf("unexpected timestamp type %T", v)
	}

	for _, layout := range []string{time.DateTime, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("unparseable timestamp %q", s)
}
