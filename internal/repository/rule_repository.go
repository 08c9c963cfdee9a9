package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/deskhive/deskhive/internal/models"
)

const tagRuleColumns = `id, name, keywords, match_subject, match_body, tag_id, active, created_at`
const priorityRuleColumns = `id, name, keywords, match_mode, priority, active, created_at`

// priorityRank orders rules by target severity inside SQL so callers receive
// them already in evaluation order.
const priorityRank = `CASE priority
	WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END`

// SQLRuleRepository is the PostgreSQL-backed RuleRepository.
type SQLRuleRepository struct {
	db *sqlx.DB
}

// NewRuleRepository creates a rule repository on the given database.
func NewRuleRepository(db *sqlx.DB) *SQLRuleRepository {
	return &SQLRuleRepository{db: db}
}

func (r *SQLRuleRepository) ActiveTagRules(ctx context.Context) ([]models.AutoTagRule, error) {
	var ruleSet []models.AutoTagRule
	err := r.db.SelectContext(ctx, &ruleSet,
		`SELECT `+tagRuleColumns+` FROM auto_tag_rules WHERE active ORDER BY id`)
	return ruleSet, err
}

func (r *SQLRuleRepository) ActivePriorityRules(ctx context.Context) ([]models.AutoPriorityRule, error) {
	var ruleSet []models.AutoPriorityRule
	err := r.db.SelectContext(ctx, &ruleSet,
		`SELECT `+priorityRuleColumns+` FROM auto_priority_rules
		 WHERE active ORDER BY `+priorityRank+` DESC, id`)
	return ruleSet, err
}

func (r *SQLRuleRepository) CreateTagRule(ctx context.Context, rule *models.AutoTagRule) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO auto_tag_rules (name, keywords, match_subject, match_body, tag_id, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		rule.Name, rule.Keywords, rule.MatchSubject, rule.MatchBody, rule.TagID, rule.Active,
	).Scan(&rule.ID, &rule.CreatedAt)
}

func (r *SQLRuleRepository) ListTagRules(ctx context.Context) ([]models.AutoTagRule, error) {
	var ruleSet []models.AutoTagRule
	err := r.db.SelectContext(ctx, &ruleSet,
		`SELECT `+tagRuleColumns+` FROM auto_tag_rules ORDER BY id`)
	return ruleSet, err
}

func (r *SQLRuleRepository) UpdateTagRule(ctx context.Context, rule *models.AutoTagRule) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE auto_tag_rules
		SET name = $1, keywords = $2, match_subject = $3, match_body = $4,
		    tag_id = $5, active = $6
		WHERE id = $7`,
		rule.Name, rule.Keywords, rule.MatchSubject, rule.MatchBody,
		rule.TagID, rule.Active, rule.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *SQLRuleRepository) DeleteTagRule(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM auto_tag_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *SQLRuleRepository) CreatePriorityRule(ctx context.Context, rule *models.AutoPriorityRule) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO auto_priority_rules (name, keywords, match_mode, priority, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		rule.Name, rule.Keywords, rule.MatchMode, rule.Priority, rule.Active,
	).Scan(&rule.ID, &rule.CreatedAt)
}

func (r *SQLRuleRepository) ListPriorityRules(ctx context.Context) ([]models.AutoPriorityRule, error) {
	var ruleSet []models.AutoPriorityRule
	err := r.db.SelectContext(ctx, &ruleSet,
		`SELECT `+priorityRuleColumns+` FROM auto_priority_rules
		 ORDER BY `+priorityRank+` DESC, id`)
	return ruleSet, err
}

func (r *SQLRuleRepository) UpdatePriorityRule(ctx context.Context, rule *models.AutoPriorityRule) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE auto_priority_rules
		SET name = $1, keywords = $2, match_mode = $3, priority = $4, active = $5
		WHERE id = $6`,
		rule.Name, rule.Keywords, rule.MatchMode, rule.Priority, rule.Active, rule.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *SQLRuleRepository) DeletePriorityRule(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM auto_priority_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}
