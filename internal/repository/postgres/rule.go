package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dishom/opsboard/internal/domain/rule"
	"github.com/dishom/opsboard/internal/pkg/errors"
	"github.com/dishom/opsboard/internal/pkg/utils"
)

type RuleRepository struct {
	db *sql.DB
}

func NewRuleRepository(db *sql.DB) rule.Repository {
	return &RuleRepository{db: db}
}

const ruleColumns = `id, name, metric_name, operator, threshold, window_minutes,
	severity, recipients, active, created_by, created_at, updated_at`

func (r *RuleRepository) Create(ctx context.Context, ar *rule.AlertRule) (int64, error) {
	now := time.Now().UTC()
	ar.CreatedAt = now
	ar.UpdatedAt = now

	query := `
		INSERT INTO alert_rules (name, metric_name, operator, threshold, window_minutes,
			severity, recipients, active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		ar.Name, ar.MetricName, string(ar.Operator), ar.Threshold, ar.WindowMinutes,
		ar.Severity, nullRaw(ar.Recipients), ar.Active, ar.CreatedBy,
		utils.FormatTimestamp(now), utils.FormatTimestamp(now),
	).Scan(&ar.ID)
	if err != nil {
		return 0, errors.DatabaseError("Failed to create alert rule", err)
	}

	return ar.ID, nil
}

func (r *RuleRepository) GetByID(ctx context.Context, id int64) (*rule.AlertRule, error) {
	query := fmt.Sprintf("SELECT %s FROM alert_rules WHERE id = $1", ruleColumns)

	ar, err := scanRule(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Alert rule")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get alert rule", err)
	}
	return ar, nil
}

func (r *RuleRepository) Update(ctx context.Context, ar *rule.AlertRule) error {
	ar.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE alert_rules SET name = $1, metric_name = $2, operator = $3, threshold = $4,
			window_minutes = $5, severity = $6, recipients = $7, active = $8, updated_at = $9
		WHERE id = $10
	`

	result, err := r.db.ExecContext(ctx, query,
		ar.Name, ar.MetricName, string(ar.Operator), ar.Threshold,
		ar.WindowMinutes, ar.Severity, nullRaw(ar.Recipients), ar.Active,
		utils.FormatTimestamp(ar.UpdatedAt), ar.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update alert rule", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Alert rule")
	}

	return nil
}

func (r *RuleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM alert_rules WHERE id = $1", id)
	if err != nil {
		return errors.DatabaseError("Failed to delete alert rule", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Alert rule")
	}

	return nil
}

func (r *RuleRepository) List(ctx context.Context, limit, offset int) ([]*rule.AlertRule, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM alert_rules").Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count alert rules", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM alert_rules ORDER BY updated_at DESC, id LIMIT $1 OFFSET $2
	`, ruleColumns)

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list alert rules", err)
	}
	defer rows.Close()

	rules, err := scanRules(rows, limit)
	if err != nil {
		return nil, 0, err
	}
	return rules, total, nil
}

func (r *RuleRepository) ListActive(ctx context.Context) ([]*rule.AlertRule, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM alert_rules WHERE active = TRUE ORDER BY id
	`, ruleColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list active alert rules", err)
	}
	defer rows.Close()

	return scanRules(rows, 20)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner) (*rule.AlertRule, error) {
	var ar rule.AlertRule
	var op, createdAt, updatedAt string
	var recipients sql.NullString
	err := row.Scan(&ar.ID, &ar.Name, &ar.MetricName, &op, &ar.Threshold, &ar.WindowMinutes,
		&ar.Severity, &recipients, &ar.Active, &ar.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	ar.Operator = rule.Operator(op)
	ar.Recipients = rawFromNull(recipients)
	ar.CreatedAt, _ = utils.ParseTimestamp(createdAt)
	ar.UpdatedAt, _ = utils.ParseTimestamp(updatedAt)
	return &ar, nil
}

func scanRules(rows *sql.Rows, capacity int) ([]*rule.AlertRule, error) {
	if capacity < 1 {
		capacity = 20
	}
	rules := make([]*rule.AlertRule, 0, capacity)
	for rows.Next() {
		ar, err := scanRule(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan alert rule", err)
		}
		rules = append(rules, ar)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to read alert rules", err)
	}
	return rules, nil
}
