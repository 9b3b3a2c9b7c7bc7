package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Cryptobal/opai-sub012/internal/domain/salary"
	"github.com/Cryptobal/opai-sub012/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type structureRepository struct {
	db *database.DB
}

func NewStructureRepository(db *database.DB) salary.StructureRepository {
	return &structureRepository{db: db}
}

const structureColumns = `
	id, company_id, guard_id, installation_id,
	base_salary, meal_allowance, transport_allowance,
	gratification_policy, custom_gratification,
	health_scheme, isapre_plan_rate, afp_code, contract_type,
	monthly_hours, family_dependents, advance_max,
	effective_from, end_date, created_at, updated_at
`

func (r *structureRepository) Create(ctx context.Context, s salary.Structure) (salary.Structure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_structures (
			company_id, guard_id, installation_id,
			base_salary, meal_allowance, transport_allowance,
			gratification_policy, custom_gratification,
			health_scheme, isapre_plan_rate, afp_code, contract_type,
			monthly_hours, family_dependents, advance_max,
			effective_from, end_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING ` + structureColumns

	row := q.QueryRow(ctx, query,
		s.CompanyID, s.GuardID, s.InstallationID,
		s.BaseSalary, s.MealAllowance, s.TransportAllowance,
		s.GratificationPolicy, s.CustomGratification,
		s.HealthScheme, s.IsaprePlanRate, s.AFPCode, s.ContractType,
		s.MonthlyHours, s.FamilyDependents, s.AdvanceMax,
		s.EffectiveFrom, s.EndDate,
	)

	created, err := scanStructure(row)
	if err != nil {
		if strings.Contains(err.Error(), "uk_salary_structure_window") {
			return salary.Structure{}, salary.ErrStructureOverlap
		}
		return salary.Structure{}, fmt.Errorf("failed to create salary structure: %w", err)
	}
	return created, nil
}

func (r *structureRepository) GetByID(ctx context.Context, id string, companyID string) (salary.Structure, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + structureColumns + `
		FROM salary_structures
		WHERE id = $1 AND company_id = $2`

	s, err := scanStructure(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return salary.Structure{}, salary.ErrStructureNotFound
		}
		return salary.Structure{}, fmt.Errorf("failed to get salary structure: %w", err)
	}
	return s, nil
}

func (r *structureRepository) GetEffectiveForGuard(ctx context.Context, companyID, guardID string, asOf time.Time) (salary.Structure, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + structureColumns + `
		FROM salary_structures
		WHERE company_id = $1 AND guard_id = $2
		  AND effective_from <= $3
		  AND (end_date IS NULL OR end_date >= $3)
		ORDER BY effective_from DESC
		LIMIT 1`

	s, err := scanStructure(q.QueryRow(ctx, query, companyID, guardID, asOf))
	if err != nil {
		if err == pgx.ErrNoRows {
			return salary.Structure{}, salary.ErrStructureNotFound
		}
		return salary.Structure{}, fmt.Errorf("failed to get effective structure: %w", err)
	}
	return s, nil
}

func (r *structureRepository) GetInstallationDefault(ctx context.Context, companyID, guardID string, asOf time.Time) (salary.Structure, error) {
	q := GetQuerier(ctx, r.db)

	// The guard's installation comes from the platform's guards table.
	query := `SELECT ` + structureColumns + `
		FROM salary_structures ss
		WHERE ss.company_id = $1
		  AND ss.installation_id = (SELECT installation_id FROM guards WHERE id = $2 AND company_id = $1)
		  AND ss.effective_from <= $3
		  AND (ss.end_date IS NULL OR ss.end_date >= $3)
		ORDER BY ss.effective_from DESC
		LIMIT 1`

	s, err := scanStructure(q.QueryRow(ctx, query, companyID, guardID, asOf))
	if err != nil {
		if err == pgx.ErrNoRows {
			return salary.Structure{}, salary.ErrStructureNotFound
		}
		return salary.Structure{}, fmt.Errorf("failed to get installation default structure: %w", err)
	}
	return s, nil
}

func (r *structureRepository) ListByGuard(ctx context.Context, companyID, guardID string) ([]salary.Structure, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + structureColumns + `
		FROM salary_structures
		WHERE company_id = $1 AND guard_id = $2
		ORDER BY effective_from DESC`

	rows, err := q.Query(ctx, query, companyID, guardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary structures: %w", err)
	}
	defer rows.Close()

	var structures []salary.Structure
	for rows.Next() {
		s, err := scanStructure(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary structure: %w", err)
		}
		structures = append(structures, s)
	}
	return structures, nil
}

func (r *structureRepository) Close(ctx context.Context, id string, companyID string, endDate time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_structures
		SET end_date = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING id`

	var closedID string
	if err := q.QueryRow(ctx, query, id, companyID, endDate).Scan(&closedID); err != nil {
		if err == pgx.ErrNoRows {
			return salary.ErrStructureNotFound
		}
		return fmt.Errorf("failed to close salary structure: %w", err)
	}
	return nil
}

func scanStructure(row pgx.Row) (salary.Structure, error) {
	var s salary.Structure
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.GuardID, &s.InstallationID,
		&s.BaseSalary, &s.MealAllowance, &s.TransportAllowance,
		&s.GratificationPolicy, &s.CustomGratification,
		&s.HealthScheme, &s.IsaprePlanRate, &s.AFPCode, &s.ContractType,
		&s.MonthlyHours, &s.FamilyDependents, &s.AdvanceMax,
		&s.EffectiveFrom, &s.EndDate, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// ========== BONUS CATALOG ==========

type bonusRepository struct {
	db *database.DB
}

func NewBonusRepository(db *database.DB) salary.BonusRepository {
	return &bonusRepository{db: db}
}

const bonusColumns = `
	id, company_id, name, kind, amount, percent,
	taxable, tributable, min_days, is_active, description, created_at, updated_at
`

func (r *bonusRepository) CreateDefinition(ctx context.Context, def salary.BonusDefinition) (salary.BonusDefinition, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO bonus_definitions (
			company_id, name, kind, amount, percent,
			taxable, tributable, min_days, is_active, description
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + bonusColumns

	row := q.QueryRow(ctx, query,
		def.CompanyID, def.Name, def.Kind, def.Amount, def.Percent,
		def.Taxable, def.Tributable, def.MinDays, def.IsActive, def.Description,
	)

	created, err := scanBonusDefinition(row)
	if err != nil {
		if strings.Contains(err.Error(), "uk_bonus_definition_name") {
			return salary.BonusDefinition{}, salary.ErrBonusNameExists
		}
		return salary.BonusDefinition{}, fmt.Errorf("failed to create bonus definition: %w", err)
	}
	return created, nil
}

func (r *bonusRepository) GetDefinitionByID(ctx context.Context, id string, companyID string) (salary.BonusDefinition, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + bonusColumns + ` FROM bonus_definitions WHERE id = $1 AND company_id = $2`

	def, err := scanBonusDefinition(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return salary.BonusDefinition{}, salary.ErrBonusNotFound
		}
		return salary.BonusDefinition{}, fmt.Errorf("failed to get bonus definition: %w", err)
	}
	return def, nil
}

func (r *bonusRepository) ListDefinitions(ctx context.Context, companyID string, activeOnly bool) ([]salary.BonusDefinition, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + bonusColumns + ` FROM bonus_definitions WHERE company_id = $1`
	if activeOnly {
		query += " AND is_active = true"
	}
	query += " ORDER BY name"

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonus definitions: %w", err)
	}
	defer rows.Close()

	var defs []salary.BonusDefinition
	for rows.Next() {
		def, err := scanBonusDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bonus definition: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (r *bonusRepository) UpdateDefinition(ctx context.Context, companyID string, req salary.UpdateBonusDefinitionRequest) error {
	q := GetQuerier(ctx, r.db)

	setParts := []string{"updated_at = NOW()"}
	args := []interface{}{req.ID, companyID}
	argIdx := 3

	if req.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *req.Name)
		argIdx++
	}
	if req.Amount != nil {
		setParts = append(setParts, fmt.Sprintf("amount = $%d", argIdx))
		args = append(args, *req.Amount)
		argIdx++
	}
	if req.Percent != nil {
		setParts = append(setParts, fmt.Sprintf("percent = $%d", argIdx))
		args = append(args, *req.Percent)
		argIdx++
	}
	if req.IsActive != nil {
		setParts = append(setParts, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *req.IsActive)
		argIdx++
	}
	if req.Description != nil {
		setParts = append(setParts, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *req.Description)
		argIdx++
	}

	query := fmt.Sprintf(`
		UPDATE bonus_definitions
		SET %s
		WHERE id = $1 AND company_id = $2
		RETURNING id`, strings.Join(setParts, ", "))

	var updatedID string
	if err := q.QueryRow(ctx, query, args...).Scan(&updatedID); err != nil {
		if err == pgx.ErrNoRows {
			return salary.ErrBonusNotFound
		}
		if strings.Contains(err.Error(), "uk_bonus_definition_name") {
			return salary.ErrBonusNameExists
		}
		return fmt.Errorf("failed to update bonus definition: %w", err)
	}
	return nil
}

func (r *bonusRepository) Assign(ctx context.Context, a salary.BonusAssignment, companyID string) (salary.BonusAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO bonus_assignments (guard_id, bonus_id, override_amount, override_percent, effective_from, end_date)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE EXISTS (SELECT 1 FROM bonus_definitions WHERE id = $2 AND company_id = $7)
		RETURNING id, guard_id, bonus_id, override_amount, override_percent, effective_from, end_date, created_at, updated_at`

	var created salary.BonusAssignment
	err := q.QueryRow(ctx, query,
		a.GuardID, a.BonusID, a.OverrideAmount, a.OverridePercent, a.EffectiveFrom, a.EndDate, companyID,
	).Scan(
		&created.ID, &created.GuardID, &created.BonusID,
		&created.OverrideAmount, &created.OverridePercent,
		&created.EffectiveFrom, &created.EndDate, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return salary.BonusAssignment{}, salary.ErrBonusNotFound
		}
		return salary.BonusAssignment{}, fmt.Errorf("failed to assign bonus: %w", err)
	}
	return created, nil
}

func (r *bonusRepository) ListActiveAssignments(ctx context.Context, companyID, guardID string, asOf time.Time) ([]salary.BonusAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ba.id, ba.guard_id, ba.bonus_id, ba.override_amount, ba.override_percent,
		       ba.effective_from, ba.end_date, ba.created_at, ba.updated_at,
		       bd.id, bd.company_id, bd.name, bd.kind, bd.amount, bd.percent,
		       bd.taxable, bd.tributable, bd.min_days, bd.is_active, bd.description,
		       bd.created_at, bd.updated_at
		FROM bonus_assignments ba
		JOIN bonus_definitions bd ON bd.id = ba.bonus_id
		WHERE bd.company_id = $1 AND ba.guard_id = $2 AND bd.is_active = true
		  AND ba.effective_from <= $3
		  AND (ba.end_date IS NULL OR ba.end_date >= $3)
		ORDER BY bd.name`

	rows, err := q.Query(ctx, query, companyID, guardID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonus assignments: %w", err)
	}
	defer rows.Close()

	var assignments []salary.BonusAssignment
	for rows.Next() {
		var a salary.BonusAssignment
		var def salary.BonusDefinition
		if err := rows.Scan(
			&a.ID, &a.GuardID, &a.BonusID, &a.OverrideAmount, &a.OverridePercent,
			&a.EffectiveFrom, &a.EndDate, &a.CreatedAt, &a.UpdatedAt,
			&def.ID, &def.CompanyID, &def.Name, &def.Kind, &def.Amount, &def.Percent,
			&def.Taxable, &def.Tributable, &def.MinDays, &def.IsActive, &def.Description,
			&def.CreatedAt, &def.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bonus assignment: %w", err)
		}
		a.Definition = &def
		assignments = append(assignments, a)
	}
	return assignments, nil
}

func (r *bonusRepository) RemoveAssignment(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		DELETE FROM bonus_assignments ba
		USING bonus_definitions bd
		WHERE ba.id = $1 AND bd.id = ba.bonus_id AND bd.company_id = $2
		RETURNING ba.id`

	var deletedID string
	if err := q.QueryRow(ctx, query, id, companyID).Scan(&deletedID); err != nil {
		if err == pgx.ErrNoRows {
			return salary.ErrAssignmentNotFound
		}
		return fmt.Errorf("failed to remove bonus assignment: %w", err)
	}
	return nil
}

func scanBonusDefinition(row pgx.Row) (salary.BonusDefinition, error) {
	var def salary.BonusDefinition
	err := row.Scan(
		&def.ID, &def.CompanyID, &def.Name, &def.Kind, &def.Amount, &def.Percent,
		&def.Taxable, &def.Tributable, &def.MinDays, &def.IsActive, &def.Description,
		&def.CreatedAt, &def.UpdatedAt,
	)
	return def, err
}
