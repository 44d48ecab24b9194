package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dishom/opsboard/internal/domain/incident"
	"github.com/dishom/opsboard/internal/pkg/errors"
	"github.com/dishom/opsboard/internal/pkg/utils"
)

type IncidentRepository struct {
	db *sql.DB
}

func NewIncidentRepository(db *sql.DB) incident.Repository {
	return &IncidentRepository{db: db}
}

const incidentColumns = `id, title, status, severity, rule_id, created_by, assigned_to,
	notes, metadata, created_at, updated_at`

func (r *IncidentRepository) Create(ctx context.Context, inc *incident.Incident) (int64, error) {
	now := time.Now().UTC()
	inc.CreatedAt = now
	inc.UpdatedAt = now

	query := `
		INSERT INTO incidents (title, status, severity, rule_id, created_by, assigned_to,
			notes, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		inc.Title, inc.Status, inc.Severity, inc.RuleID, inc.CreatedBy, inc.AssignedTo,
		inc.Notes, nullRaw(inc.Metadata),
		utils.FormatTimestamp(now), utils.FormatTimestamp(now),
	).Scan(&inc.ID)
	if err != nil {
		return 0, errors.DatabaseError("Failed to create incident", err)
	}

	return inc.ID, nil
}

func (r *IncidentRepository) GetByID(ctx context.Context, id int64) (*incident.Incident, error) {
	query := fmt.Sprintf("SELECT %s FROM incidents WHERE id = $1", incidentColumns)

	inc, err := scanIncident(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Incident")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get incident", err)
	}
	return inc, nil
}

func (r *IncidentRepository) Update(ctx context.Context, inc *incident.Incident) error {
	inc.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE incidents SET title = $1, status = $2, severity = $3, assigned_to = $4,
			notes = $5, metadata = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := r.db.ExecContext(ctx, query,
		inc.Title, inc.Status, inc.Severity, inc.AssignedTo,
		inc.Notes, nullRaw(inc.Metadata), utils.FormatTimestamp(inc.UpdatedAt), inc.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update incident", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Incident")
	}

	return nil
}

func (r *IncidentRepository) List(ctx context.Context, filter incident.Filter, limit, offset int) ([]*incident.Incident, int64, error) {
	where := []string{"1=1"}
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Severity != "" {
		args = append(args, filter.Severity)
		where = append(where, fmt.Sprintf("severity = $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM incidents WHERE %s", whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count incidents", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM incidents WHERE %s
		ORDER BY updated_at DESC, id LIMIT $%d OFFSET $%d
	`, incidentColumns, whereClause, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list incidents", err)
	}
	defer rows.Close()

	incidents := make([]*incident.Incident, 0, limit)
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan incident", err)
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to read incidents", err)
	}

	return incidents, total, nil
}

func (r *IncidentRepository) BulkResolve(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]interface{}, 0, len(ids)+2)
	args = append(args, incident.StatusResolved, utils.FormatTimestamp(time.Now().UTC()))
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}

	query := fmt.Sprintf(`
		UPDATE incidents SET status = $1, updated_at = $2
		WHERE id IN (%s) AND status <> $1
	`, strings.Join(placeholders, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.DatabaseError("Failed to bulk resolve incidents", err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return 0, errors.DatabaseError("Failed to get affected rows", err)
	}
	return updated, nil
}

func (r *IncidentRepository) ExistsActiveForRule(ctx context.Context, ruleID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM incidents
		WHERE rule_id = $1 AND status IN ($2, $3)
	`, ruleID, incident.StatusOpen, incident.StatusAcknowledged).Scan(&n)
	if err != nil {
		return false, errors.DatabaseError("Failed to check active incidents", err)
	}
	return n > 0, nil
}

func scanIncident(row rowScanner) (*incident.Incident, error) {
	var inc incident.Incident
	var createdAt, updatedAt string
	var metadata sql.NullString
	err := row.Scan(&inc.ID, &inc.Title, &inc.Status, &inc.Severity, &inc.RuleID,
		&inc.CreatedBy, &inc.AssignedTo, &inc.Notes, &metadata, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	inc.Metadata = rawFromNull(metadata)
	inc.CreatedAt, _ = utils.ParseTimestamp(createdAt)
	inc.UpdatedAt, _ = utils.ParseTimestamp(updatedAt)
	return &inc, nil
}
