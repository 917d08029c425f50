package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// ProfileCounter answers count queries with plain SQL; the dashboard only
// needs a number, not rows.
type ProfileCounter struct {
	db *sqlx.DB
}

func NewProfileCounter(db *sqlx.DB) *ProfileCounter {
	return &ProfileCounter{db: db}
}

func (c *ProfileCounter) CountByCompany(ctx context.Context, companyID int64) (int64, error) {
	var n int64
	query := c.db.Rebind(`SELECT COUNT(*) FROM profiles WHERE company_id = ?`)
	if err := c.db.GetContext(ctx, &n, query, companyID); err != nil {
		return 0, err
	}
	return n, nil
}
