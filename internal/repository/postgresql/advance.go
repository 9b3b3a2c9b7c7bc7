package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/Cryptobal/opai-sub012/internal/domain/advance"
	"github.com/Cryptobal/opai-sub012/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type advanceRepository struct {
	db *database.DB
}

func NewAdvanceRepository(db *database.DB) advance.Repository {
	return &advanceRepository{db: db}
}

const processColumns = `
	id, company_id, year, month, status, paid_at, created_at, updated_at
`

func (r *advanceRepository) CreateProcess(ctx context.Context, p advance.Process) (advance.Process, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO advance_processes (company_id, year, month, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + processColumns

	created, err := scanProcess(q.QueryRow(ctx, query, p.CompanyID, p.Year, p.Month, p.Status))
	if err != nil {
		if strings.Contains(err.Error(), "uk_advance_process_period") {
			return advance.Process{}, advance.ErrProcessExists
		}
		return advance.Process{}, fmt.Errorf("failed to create advance process: %w", err)
	}
	return created, nil
}

func (r *advanceRepository) GetProcessByID(ctx context.Context, id string, companyID string) (advance.Process, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + processColumns + `
		FROM advance_processes
		WHERE id = $1 AND company_id = $2`

	p, err := scanProcess(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return advance.Process{}, advance.ErrProcessNotFound
		}
		return advance.Process{}, fmt.Errorf("failed to get advance process: %w", err)
	}
	return p, nil
}

func (r *advanceRepository) GetProcessForPeriod(ctx context.Context, companyID string, year, month int) (advance.Process, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + processColumns + `
		FROM advance_processes
		WHERE company_id = $1 AND year = $2 AND month = $3`

	p, err := scanProcess(q.QueryRow(ctx, query, companyID, year, month))
	if err != nil {
		if err == pgx.ErrNoRows {
			return advance.Process{}, advance.ErrProcessNotFound
		}
		return advance.Process{}, fmt.Errorf("failed to get advance process for period: %w", err)
	}
	return p, nil
}

func (r *advanceRepository) ListProcesses(ctx context.Context, companyID string) ([]advance.Process, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + processColumns + `
		FROM advance_processes
		WHERE company_id = $1
		ORDER BY year DESC, month DESC`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list advance processes: %w", err)
	}
	defer rows.Close()

	var processes []advance.Process
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan advance process: %w", err)
		}
		processes = append(processes, p)
	}
	return processes, nil
}

func (r *advanceRepository) UpdateProcessStatus(ctx context.Context, id string, companyID string, status advance.Status) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE advance_processes
		SET status = $1,
		    paid_at = CASE WHEN $1 = 'paid' THEN NOW() ELSE paid_at END,
		    updated_at = NOW()
		WHERE id = $2 AND company_id = $3`

	tag, err := q.Exec(ctx, query, status, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to update advance process status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return advance.ErrProcessNotFound
	}
	return nil
}

const itemColumns = `
	i.id, i.process_id, i.guard_id, i.amount, i.status, i.created_at, i.updated_at,
	g.full_name, g.legal_id
`

func (r *advanceRepository) CreateItem(ctx context.Context, item advance.Item, companyID string) (advance.Item, error) {
	q := GetQuerier(ctx, r.db)

	// The subquery pins the insert to the caller's company so an item can
	// never be attached to another tenant's process.
	query := `
		INSERT INTO advance_items (process_id, guard_id, amount, status)
		SELECT p.id, $2, $3, $4
		FROM advance_processes p
		WHERE p.id = $1 AND p.company_id = $5
		RETURNING id`

	var id string
	err := q.QueryRow(ctx, query, item.ProcessID, item.GuardID, item.Amount, advance.StatusDraft, companyID).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return advance.Item{}, advance.ErrProcessNotFound
		}
		if strings.Contains(err.Error(), "uk_advance_item_guard") {
			return advance.Item{}, advance.ErrDuplicateItem
		}
		return advance.Item{}, fmt.Errorf("failed to create advance item: %w", err)
	}

	return r.getItemByID(ctx, id, companyID)
}

func (r *advanceRepository) ListItems(ctx context.Context, processID string, companyID string) ([]advance.Item, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + itemColumns + `
		FROM advance_items i
		JOIN advance_processes p ON p.id = i.process_id
		JOIN guards g ON g.id = i.guard_id
		WHERE i.process_id = $1 AND p.company_id = $2
		ORDER BY g.legal_id`

	rows, err := q.Query(ctx, query, processID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list advance items: %w", err)
	}
	defer rows.Close()

	var items []advance.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan advance item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *advanceRepository) RemoveItem(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		DELETE FROM advance_items i
		USING advance_processes p
		WHERE i.id = $1 AND p.id = i.process_id AND p.company_id = $2 AND i.status = 'draft'`

	tag, err := q.Exec(ctx, query, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to remove advance item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return advance.ErrItemNotFound
	}
	return nil
}

func (r *advanceRepository) MarkItemsPaid(ctx context.Context, processID string, companyID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE advance_items i
		SET status = 'paid', updated_at = NOW()
		FROM advance_processes p
		WHERE i.process_id = $1 AND p.id = i.process_id AND p.company_id = $2 AND i.status != 'paid'`

	tag, err := q.Exec(ctx, query, processID, companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark advance items paid: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *advanceRepository) getItemByID(ctx context.Context, id string, companyID string) (advance.Item, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + itemColumns + `
		FROM advance_items i
		JOIN advance_processes p ON p.id = i.process_id
		JOIN guards g ON g.id = i.guard_id
		WHERE i.id = $1 AND p.company_id = $2`

	item, err := scanItem(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return advance.Item{}, advance.ErrItemNotFound
		}
		return advance.Item{}, fmt.Errorf("failed to get advance item: %w", err)
	}
	return item, nil
}

func scanProcess(row pgx.Row) (advance.Process, error) {
	var p advance.Process
	err := row.Scan(&p.ID, &p.CompanyID, &p.Year, &p.Month, &p.Status, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return advance.Process{}, err
	}
	return p, nil
}

func scanItem(row pgx.Row) (advance.Item, error) {
	var i advance.Item
	err := row.Scan(
		&i.ID, &i.ProcessID, &i.GuardID, &i.Amount, &i.Status, &i.CreatedAt, &i.UpdatedAt,
		&i.GuardName, &i.GuardLegalID,
	)
	if err != nil {
		return advance.Item{}, err
	}
	return i, nil
}
