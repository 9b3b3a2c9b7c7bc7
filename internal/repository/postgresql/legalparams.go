package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Cryptobal/opai-sub012/internal/domain/legalparams"
	"github.com/Cryptobal/opai-sub012/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type snapshotRepository struct {
	db *database.DB
}

func NewSnapshotRepository(db *database.DB) legalparams.SnapshotRepository {
	return &snapshotRepository{db: db}
}

const snapshotColumns = `
	id, company_id, effective_from, published_at,
	uf_value, utm_value, contribution_cap_uf, afc_cap_uf,
	afp_providers, health_public_rate, afc_rates, tax_brackets,
	gratification_monthly_cap, dependent_allowance,
	accident_insurance_rate, vacation_provision_rate, severance_provision_rate,
	overtime_50_multiplier, overtime_100_multiplier, created_at
`

func (r *snapshotRepository) Create(ctx context.Context, snap legalparams.Snapshot) (legalparams.Snapshot, error) {
	q := GetQuerier(ctx, r.db)

	providers, err := json.Marshal(snap.AFPProviders)
	if err != nil {
		return legalparams.Snapshot{}, fmt.Errorf("failed to marshal afp providers: %w", err)
	}
	afcRates, err := json.Marshal(snap.AFCRates)
	if err != nil {
		return legalparams.Snapshot{}, fmt.Errorf("failed to marshal afc rates: %w", err)
	}
	brackets, err := json.Marshal(snap.TaxBrackets)
	if err != nil {
		return legalparams.Snapshot{}, fmt.Errorf("failed to marshal tax brackets: %w", err)
	}

	query := `
		INSERT INTO legal_parameter_snapshots (
			company_id, effective_from, published_at,
			uf_value, utm_value, contribution_cap_uf, afc_cap_uf,
			afp_providers, health_public_rate, afc_rates, tax_brackets,
			gratification_monthly_cap, dependent_allowance,
			accident_insurance_rate, vacation_provision_rate, severance_provision_rate,
			overtime_50_multiplier, overtime_100_multiplier
		) VALUES ($1, $2, NOW(), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING ` + snapshotColumns

	row := q.QueryRow(ctx, query,
		snap.CompanyID, snap.EffectiveFrom,
		snap.UFValue, snap.UTMValue, snap.ContributionCapUF, snap.AFCCapUF,
		providers, snap.HealthPublicRate, afcRates, brackets,
		snap.GratificationMonthlyCap, snap.DependentAllowance,
		snap.AccidentInsuranceRate, snap.VacationProvisionRate, snap.SeveranceProvisionRate,
		snap.Overtime50Multiplier, snap.Overtime100Multiplier,
	)

	created, err := scanSnapshot(row)
	if err != nil {
		return legalparams.Snapshot{}, fmt.Errorf("failed to create snapshot: %w", err)
	}
	return created, nil
}

func (r *snapshotRepository) GetByID(ctx context.Context, id string, companyID string) (legalparams.Snapshot, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + snapshotColumns + `
		FROM legal_parameter_snapshots
		WHERE id = $1 AND company_id = $2`

	snap, err := scanSnapshot(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return legalparams.Snapshot{}, legalparams.ErrParameterNotFound
		}
		return legalparams.Snapshot{}, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return snap, nil
}

func (r *snapshotRepository) ResolveAsOf(ctx context.Context, companyID string, asOf time.Time) (legalparams.Snapshot, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + snapshotColumns + `
		FROM legal_parameter_snapshots
		WHERE company_id = $1 AND effective_from <= $2
		ORDER BY effective_from DESC, published_at DESC
		LIMIT 1`

	snap, err := scanSnapshot(q.QueryRow(ctx, query, companyID, asOf))
	if err != nil {
		if err == pgx.ErrNoRows {
			return legalparams.Snapshot{}, legalparams.ErrParameterNotFound
		}
		return legalparams.Snapshot{}, fmt.Errorf("failed to resolve snapshot: %w", err)
	}
	return snap, nil
}

func (r *snapshotRepository) List(ctx context.Context, companyID string) ([]legalparams.Snapshot, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + snapshotColumns + `
		FROM legal_parameter_snapshots
		WHERE company_id = $1
		ORDER BY effective_from DESC`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []legalparams.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func scanSnapshot(row pgx.Row) (legalparams.Snapshot, error) {
	var s legalparams.Snapshot
	var providers, afcRates, brackets []byte

	err := row.Scan(
		&s.ID, &s.CompanyID, &s.EffectiveFrom, &s.PublishedAt,
		&s.UFValue, &s.UTMValue, &s.ContributionCapUF, &s.AFCCapUF,
		&providers, &s.HealthPublicRate, &afcRates, &brackets,
		&s.GratificationMonthlyCap, &s.DependentAllowance,
		&s.AccidentInsuranceRate, &s.VacationProvisionRate, &s.SeveranceProvisionRate,
		&s.Overtime50Multiplier, &s.Overtime100Multiplier, &s.CreatedAt,
	)
	if err != nil {
		return legalparams.Snapshot{}, err
	}

	if err := json.Unmarshal(providers, &s.AFPProviders); err != nil {
		return legalparams.Snapshot{}, fmt.Errorf("failed to unmarshal afp providers: %w", err)
	}
	if err := json.Unmarshal(afcRates, &s.AFCRates); err != nil {
		return legalparams.Snapshot{}, fmt.Errorf("failed to unmarshal afc rates: %w", err)
	}
	if err := json.Unmarshal(brackets, &s.TaxBrackets); err != nil {
		return legalparams.Snapshot{}, fmt.Errorf("failed to unmarshal tax brackets: %w", err)
	}
	return s, nil
}
