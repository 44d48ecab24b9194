package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dishom/opsboard/internal/domain/audit"
	"github.com/dishom/opsboard/internal/pkg/errors"
	"github.com/dishom/opsboard/internal/pkg/utils"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) audit.Repository {
	return &AuditRepository{db: db}
}

const auditColumns = `id, timestamp, actor_id, action_type, app_label, model_name,
	object_id, ip_address, user_agent, data_before, data_after, metadata`

func (r *AuditRepository) Create(ctx context.Context, e *audit.Entry) (int64, error) {
	return r.create(ctx, r.db, e)
}

func (r *AuditRepository) CreateTx(ctx context.Context, tx *sql.Tx, e *audit.Entry) (int64, error) {
	return r.create(ctx, tx, e)
}

type execQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (r *AuditRepository) create(ctx context.Context, q execQuerier, e *audit.Entry) (int64, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_logs (timestamp, actor_id, action_type, app_label, model_name,
			object_id, ip_address, user_agent, data_before, data_after, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := q.QueryRowContext(ctx, query,
		utils.FormatTimestamp(e.Timestamp), e.ActorID, e.Action, e.Subsystem, e.EntityKind,
		e.EntityID, e.ClientIP, e.ClientAgent,
		nullRaw(e.Before), nullRaw(e.After), nullRaw(e.Metadata),
	).Scan(&e.ID)
	if err != nil {
		return 0, errors.DatabaseError("Failed to create audit log entry", err)
	}

	return e.ID, nil
}

func (r *AuditRepository) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.Entry, int64, error) {
	where := []string{"1=1"}
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Start != nil {
		where = append(where, "timestamp >= "+arg(utils.FormatTimestamp(*filter.Start)))
	}
	if filter.End != nil {
		where = append(where, "timestamp <= "+arg(utils.FormatTimestamp(*filter.End)))
	}
	if filter.ActorID != nil {
		where = append(where, "actor_id = "+arg(*filter.ActorID))
	}
	if filter.Action != "" {
		where = append(where, "action_type = "+arg(filter.Action))
	}
	if filter.Subsystem != "" {
		where = append(where, "app_label = "+arg(filter.Subsystem))
	}
	if filter.EntityKind != "" {
		where = append(where, "model_name = "+arg(filter.EntityKind))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, "(user_agent LIKE "+arg(pattern)+" OR metadata LIKE "+arg(pattern)+")")
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audit_logs WHERE %s", whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count audit log entries", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM audit_logs WHERE %s
		ORDER BY timestamp DESC, id DESC LIMIT %s OFFSET %s
	`, auditColumns, whereClause, arg(limit), arg(offset))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list audit log entries", err)
	}
	defer rows.Close()

	entries, err := scanAuditRows(rows, limit)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *AuditRepository) Timeline(ctx context.Context, subsystem, entityKind, entityID string) ([]*audit.Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM audit_logs
		WHERE app_label = $1 AND model_name = $2 AND object_id = $3
		ORDER BY timestamp ASC, id ASC
	`, auditColumns)

	rows, err := r.db.QueryContext(ctx, query, subsystem, entityKind, entityID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to load entity timeline", err)
	}
	defer rows.Close()

	return scanAuditRows(rows, 50)
}

func (r *AuditRepository) Recent(ctx context.Context, actions []string, subsystem string, limit int) ([]*audit.Entry, error) {
	var args []interface{}
	placeholders := make([]string, len(actions))
	for i, a := range actions {
		args = append(args, a)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}

	where := fmt.Sprintf("action_type IN (%s)", strings.Join(placeholders, ", "))
	if subsystem != "" {
		args = append(args, subsystem)
		where += fmt.Sprintf(" AND app_label = $%d", len(args))
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s FROM audit_logs WHERE %s
		ORDER BY timestamp DESC, id DESC LIMIT $%d
	`, auditColumns, where, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to load recent events", err)
	}
	defer rows.Close()

	return scanAuditRows(rows, limit)
}

func (r *AuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM audit_logs WHERE timestamp < $1", utils.FormatTimestamp(cutoff))
	if err != nil {
		return 0, errors.DatabaseError("Failed to purge audit log entries", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, errors.DatabaseError("Failed to get affected rows", err)
	}
	return deleted, nil
}

func scanAuditRows(rows *sql.Rows, capacity int) ([]*audit.Entry, error) {
	if capacity < 1 {
		capacity = 20
	}
	entries := make([]*audit.Entry, 0, capacity)
	for rows.Next() {
		var e audit.Entry
		var timestamp string
		var before, after, metadata sql.NullString
		err := rows.Scan(&e.ID, &timestamp, &e.ActorID, &e.Action, &e.Subsystem, &e.EntityKind,
			&e.EntityID, &e.ClientIP, &e.ClientAgent, &before, &after, &metadata)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan audit log entry", err)
		}
		e.Timestamp, _ = utils.ParseTimestamp(timestamp)
		e.Before = rawFromNull(before)
		e.After = rawFromNull(after)
		e.Metadata = rawFromNull(metadata)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to read audit log entries", err)
	}
	return entries, nil
}
