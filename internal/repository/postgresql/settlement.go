package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Cryptobal/opai-sub012/internal/domain/settlement"
	"github.com/Cryptobal/opai-sub012/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type runRepository struct {
	db *database.DB
}

func NewRunRepository(db *database.DB) settlement.RunRepository {
	return &runRepository{db: db}
}

const runColumns = `
	id, company_id, year, month, snapshot_id, status,
	computed_count, omission_count, paid_at, paid_by, created_at, updated_at
`

func (r *runRepository) CreateRun(ctx context.Context, run settlement.Run) (settlement.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO settlement_runs (company_id, year, month, snapshot_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + runColumns

	row := q.QueryRow(ctx, query, run.CompanyID, run.Year, run.Month, run.SnapshotID, run.Status)

	created, err := scanRun(row)
	if err != nil {
		if strings.Contains(err.Error(), "uk_settlement_run_period") {
			return settlement.Run{}, settlement.ErrRunExists
		}
		return settlement.Run{}, fmt.Errorf("failed to create settlement run: %w", err)
	}
	return created, nil
}

func (r *runRepository) GetRunByID(ctx context.Context, id string, companyID string) (settlement.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + runColumns + `
		FROM settlement_runs
		WHERE id = $1 AND company_id = $2`

	run, err := scanRun(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return settlement.Run{}, settlement.ErrRunNotFound
		}
		return settlement.Run{}, fmt.Errorf("failed to get settlement run: %w", err)
	}
	return run, nil
}

func (r *runRepository) GetOpenRunForPeriod(ctx context.Context, companyID string, year, month int) (settlement.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + runColumns + `
		FROM settlement_runs
		WHERE company_id = $1 AND year = $2 AND month = $3 AND status != 'paid'
		ORDER BY created_at DESC
		LIMIT 1`

	run, err := scanRun(q.QueryRow(ctx, query, companyID, year, month))
	if err != nil {
		if err == pgx.ErrNoRows {
			return settlement.Run{}, settlement.ErrRunNotFound
		}
		return settlement.Run{}, fmt.Errorf("failed to get settlement run for period: %w", err)
	}
	return run, nil
}

func (r *runRepository) ListRuns(ctx context.Context, companyID string, filter settlement.RunFilter) ([]settlement.Run, int64, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"company_id = $1"}
	args := []interface{}{companyID}
	argIdx := 2

	if filter.Year != nil {
		conditions = append(conditions, fmt.Sprintf("year = $%d", argIdx))
		args = append(args, *filter.Year)
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM settlement_runs WHERE ` + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count settlement runs: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := `SELECT ` + runColumns + `
		FROM settlement_runs
		WHERE ` + where + `
		ORDER BY year DESC, month DESC, created_at DESC` +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list settlement runs: %w", err)
	}
	defer rows.Close()

	var runs []settlement.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan settlement run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, total, nil
}

func (r *runRepository) UpdateRunStatus(ctx context.Context, id string, companyID string, status settlement.RunStatus, paidBy *string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE settlement_runs
		SET status = $1,
		    paid_at = CASE WHEN $1 = 'paid' THEN NOW() ELSE paid_at END,
		    paid_by = COALESCE($2, paid_by),
		    updated_at = NOW()
		WHERE id = $3 AND company_id = $4`

	tag, err := q.Exec(ctx, query, status, paidBy, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return settlement.ErrRunNotFound
	}
	return nil
}

func (r *runRepository) UpdateRunCounts(ctx context.Context, id string, companyID string, computed, omissions int) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE settlement_runs
		SET computed_count = $1, omission_count = $2, updated_at = NOW()
		WHERE id = $3 AND company_id = $4`

	tag, err := q.Exec(ctx, query, computed, omissions, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to update run counts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return settlement.ErrRunNotFound
	}
	return nil
}

func (r *runRepository) TryAdvisoryLock(ctx context.Context, companyID string, year, month int) (bool, error) {
	q := GetQuerier(ctx, r.db)

	// Transaction-scoped lock keyed on the period: released automatically on
	// commit or rollback, so a crashed run never wedges the period.
	key := fmt.Sprintf("settlement:%s:%d-%02d", companyID, year, month)

	var acquired bool
	err := q.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock(hashtext($1))`, key).Scan(&acquired)
	if err != nil {
		return false, fmt.Errorf("failed to acquire period lock: %w", err)
	}
	return acquired, nil
}

func scanRun(row pgx.Row) (settlement.Run, error) {
	var r settlement.Run
	err := row.Scan(
		&r.ID, &r.CompanyID, &r.Year, &r.Month, &r.SnapshotID, &r.Status,
		&r.ComputedCount, &r.OmissionCount, &r.PaidAt, &r.PaidBy, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return settlement.Run{}, err
	}
	return r, nil
}

type settlementRepository struct {
	db *database.DB
}

func NewSettlementRepository(db *database.DB) settlement.Repository {
	return &settlementRepository{db: db}
}

const settlementColumns = `
	s.id, s.run_id, s.company_id, s.guard_id, s.year, s.month,
	s.snapshot_id, s.source, s.afp_code, s.health_scheme,
	s.breakdown, s.status, s.version, s.superseded,
	s.paid_at, s.created_at, s.updated_at,
	g.full_name, g.legal_id
`

const settlementJoin = `
	FROM settlements s
	JOIN guards g ON g.id = s.guard_id
`

func (r *settlementRepository) UpsertDraft(ctx context.Context, s settlement.Settlement) (settlement.Settlement, error) {
	q := GetQuerier(ctx, r.db)

	breakdown, err := json.Marshal(s.Breakdown)
	if err != nil {
		return settlement.Settlement{}, fmt.Errorf("failed to marshal breakdown: %w", err)
	}

	// Check the current row first: paid rows are immutable and must never be
	// overwritten by a recompute.
	var existingID string
	var existingStatus settlement.Status
	err = q.QueryRow(ctx, `
		SELECT id, status FROM settlements
		WHERE company_id = $1 AND guard_id = $2 AND year = $3 AND month = $4 AND superseded = FALSE
		FOR UPDATE`,
		s.CompanyID, s.GuardID, s.Year, s.Month,
	).Scan(&existingID, &existingStatus)

	switch {
	case err == pgx.ErrNoRows:
		query := `
			INSERT INTO settlements (
				run_id, company_id, guard_id, year, month,
				snapshot_id, source, afp_code, health_scheme, breakdown, status, version
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)
			RETURNING id`
		var id string
		if err := q.QueryRow(ctx, query,
			s.RunID, s.CompanyID, s.GuardID, s.Year, s.Month,
			s.SnapshotID, s.Source, s.AFPCode, s.HealthScheme, breakdown, settlement.StatusDraft,
		).Scan(&id); err != nil {
			if strings.Contains(err.Error(), "uk_settlement_guard_period") {
				return settlement.Settlement{}, settlement.ErrDuplicateSettlement
			}
			return settlement.Settlement{}, fmt.Errorf("failed to insert settlement: %w", err)
		}
		return r.GetByID(ctx, id, s.CompanyID)

	case err != nil:
		return settlement.Settlement{}, fmt.Errorf("failed to check existing settlement: %w", err)

	case existingStatus == settlement.StatusPaid:
		return settlement.Settlement{}, settlement.ErrSettlementAlreadyPaid

	default:
		query := `
			UPDATE settlements
			SET run_id = $1, snapshot_id = $2, source = $3, afp_code = $4,
			    health_scheme = $5, breakdown = $6, status = $7, updated_at = NOW()
			WHERE id = $8`
		if _, err := q.Exec(ctx, query,
			s.RunID, s.SnapshotID, s.Source, s.AFPCode, s.HealthScheme,
			breakdown, settlement.StatusDraft, existingID,
		); err != nil {
			return settlement.Settlement{}, fmt.Errorf("failed to update settlement draft: %w", err)
		}
		return r.GetByID(ctx, existingID, s.CompanyID)
	}
}

func (r *settlementRepository) GetByID(ctx context.Context, id string, companyID string) (settlement.Settlement, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + settlementColumns + settlementJoin + `
		WHERE s.id = $1 AND s.company_id = $2`

	s, err := scanSettlement(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return settlement.Settlement{}, settlement.ErrSettlementNotFound
		}
		return settlement.Settlement{}, fmt.Errorf("failed to get settlement: %w", err)
	}
	return s, nil
}

func (r *settlementRepository) GetCurrentForGuardPeriod(ctx context.Context, companyID, guardID string, year, month int) (settlement.Settlement, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + settlementColumns + settlementJoin + `
		WHERE s.company_id = $1 AND s.guard_id = $2 AND s.year = $3 AND s.month = $4
		  AND s.superseded = FALSE`

	s, err := scanSettlement(q.QueryRow(ctx, query, companyID, guardID, year, month))
	if err != nil {
		if err == pgx.ErrNoRows {
			return settlement.Settlement{}, settlement.ErrSettlementNotFound
		}
		return settlement.Settlement{}, fmt.Errorf("failed to get settlement for period: %w", err)
	}
	return s, nil
}

func (r *settlementRepository) ListByRun(ctx context.Context, runID string, companyID string) ([]settlement.Settlement, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + settlementColumns + settlementJoin + `
		WHERE s.run_id = $1 AND s.company_id = $2 AND s.superseded = FALSE
		ORDER BY g.legal_id`

	rows, err := q.Query(ctx, query, runID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	return collectSettlements(rows)
}

func (r *settlementRepository) ListByGuard(ctx context.Context, companyID, guardID string, limit int) ([]settlement.Settlement, error) {
	q := GetQuerier(ctx, r.db)

	if limit < 1 {
		limit = 12
	}

	query := `SELECT ` + settlementColumns + settlementJoin + `
		WHERE s.company_id = $1 AND s.guard_id = $2 AND s.superseded = FALSE
		ORDER BY s.year DESC, s.month DESC
		LIMIT $3`

	rows, err := q.Query(ctx, query, companyID, guardID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list guard settlements: %w", err)
	}
	defer rows.Close()

	return collectSettlements(rows)
}

func (r *settlementRepository) MarkRunPaid(ctx context.Context, runID string, companyID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE settlements
		SET status = 'paid', paid_at = NOW(), updated_at = NOW()
		WHERE run_id = $1 AND company_id = $2 AND superseded = FALSE AND status != 'paid'`

	tag, err := q.Exec(ctx, query, runID, companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark settlements paid: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *settlementRepository) MarkRunApproved(ctx context.Context, runID string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE settlements
		SET status = 'approved', updated_at = NOW()
		WHERE run_id = $1 AND company_id = $2 AND superseded = FALSE AND status = 'draft'`

	if _, err := q.Exec(ctx, query, runID, companyID); err != nil {
		return fmt.Errorf("failed to mark settlements approved: %w", err)
	}
	return nil
}

func (r *settlementRepository) Supersede(ctx context.Context, old settlement.Settlement, corrected settlement.Settlement) (settlement.Settlement, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE settlements
		SET superseded = TRUE, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND superseded = FALSE`,
		old.ID, old.CompanyID,
	)
	if err != nil {
		return settlement.Settlement{}, fmt.Errorf("failed to supersede settlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return settlement.Settlement{}, settlement.ErrSettlementNotFound
	}

	breakdown, err := json.Marshal(corrected.Breakdown)
	if err != nil {
		return settlement.Settlement{}, fmt.Errorf("failed to marshal breakdown: %w", err)
	}

	var id string
	err = q.QueryRow(ctx, `
		INSERT INTO settlements (
			run_id, company_id, guard_id, year, month,
			snapshot_id, source, afp_code, health_scheme, breakdown, status, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		corrected.RunID, corrected.CompanyID, corrected.GuardID, corrected.Year, corrected.Month,
		corrected.SnapshotID, corrected.Source, corrected.AFPCode, corrected.HealthScheme,
		breakdown, corrected.Status, old.Version+1,
	).Scan(&id)
	if err != nil {
		return settlement.Settlement{}, fmt.Errorf("failed to insert corrected settlement: %w", err)
	}
	return r.GetByID(ctx, id, corrected.CompanyID)
}

func collectSettlements(rows pgx.Rows) ([]settlement.Settlement, error) {
	var settlements []settlement.Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	return settlements, nil
}

func scanSettlement(row pgx.Row) (settlement.Settlement, error) {
	var s settlement.Settlement
	var breakdown []byte

	err := row.Scan(
		&s.ID, &s.RunID, &s.CompanyID, &s.GuardID, &s.Year, &s.Month,
		&s.SnapshotID, &s.Source, &s.AFPCode, &s.HealthScheme,
		&breakdown, &s.Status, &s.Version, &s.Superseded,
		&s.PaidAt, &s.CreatedAt, &s.UpdatedAt,
		&s.GuardName, &s.GuardLegalID,
	)
	if err != nil {
		return settlement.Settlement{}, err
	}

	if err := json.Unmarshal(breakdown, &s.Breakdown); err != nil {
		return settlement.Settlement{}, fmt.Errorf("failed to unmarshal breakdown: %w", err)
	}
	return s, nil
}
