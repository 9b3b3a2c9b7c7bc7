package postgresql

import (
	"context"
	"fmt"

	"github.com/Cryptobal/opai-sub012/internal/domain/guard"
	"github.com/Cryptobal/opai-sub012/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type guardRepository struct {
	db *database.DB
}

func NewGuardRepository(db *database.DB) guard.ProfileRepository {
	return &guardRepository{db: db}
}

const guardColumns = `
	id, company_id, legal_id, full_name, installation_id,
	bank_name, bank_code, account_type, account_number, email,
	is_active, hired_at, ended_at, updated_at
`

func (r *guardRepository) GetPayoutProfile(ctx context.Context, companyID, guardID string) (guard.PayoutProfile, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + guardColumns + `
		FROM guards
		WHERE id = $1 AND company_id = $2`

	profile, err := scanPayoutProfile(q.QueryRow(ctx, query, guardID, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return guard.PayoutProfile{}, guard.ErrGuardNotFound
		}
		return guard.PayoutProfile{}, fmt.Errorf("failed to get guard profile: %w", err)
	}
	return profile, nil
}

func (r *guardRepository) ListActive(ctx context.Context, companyID string) ([]guard.PayoutProfile, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + guardColumns + `
		FROM guards
		WHERE company_id = $1 AND is_active = TRUE
		ORDER BY full_name`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active guards: %w", err)
	}
	defer rows.Close()

	var profiles []guard.PayoutProfile
	for rows.Next() {
		profile, err := scanPayoutProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guard profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func scanPayoutProfile(row pgx.Row) (guard.PayoutProfile, error) {
	var p guard.PayoutProfile
	err := row.Scan(
		&p.GuardID, &p.CompanyID, &p.LegalID, &p.FullName, &p.InstallationID,
		&p.BankName, &p.BankCode, &p.AccountType, &p.AccountNumber, &p.Email,
		&p.IsActive, &p.HiredAt, &p.EndedAt, &p.UpdatedAt,
	)
	if err != nil {
		return guard.PayoutProfile{}, err
	}
	return p, nil
}
