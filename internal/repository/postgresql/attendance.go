package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Cryptobal/opai-sub012/internal/domain/attendance"
	"github.com/Cryptobal/opai-sub012/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.FactRepository {
	return &attendanceRepository{db: db}
}

const factColumns = `
	id, company_id, guard_id, year, month,
	days_worked, days_absent, medical_days, vacation_days, unpaid_days,
	total_days_month, scheduled_days, sundays_worked, sundays_scheduled,
	normal_hours, overtime_50_hours, overtime_100_hours, holiday_hours, late_hours,
	days, source, created_at, updated_at
`

func (r *attendanceRepository) GetFact(ctx context.Context, companyID, guardID string, year, month int) (attendance.Fact, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + factColumns + `
		FROM attendance_facts
		WHERE company_id = $1 AND guard_id = $2 AND year = $3 AND month = $4`

	fact, err := scanFact(q.QueryRow(ctx, query, companyID, guardID, year, month))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.Fact{}, attendance.ErrNoAttendanceData
		}
		return attendance.Fact{}, fmt.Errorf("failed to get attendance fact: %w", err)
	}
	return fact, nil
}

func (r *attendanceRepository) Upsert(ctx context.Context, fact attendance.Fact) (attendance.Fact, error) {
	q := GetQuerier(ctx, r.db)

	days, err := json.Marshal(fact.Days)
	if err != nil {
		return attendance.Fact{}, fmt.Errorf("failed to marshal day detail: %w", err)
	}

	if fact.ID == "" {
		fact.ID = uuid.New().String()
	}

	query := `
		INSERT INTO attendance_facts (
			id, company_id, guard_id, year, month,
			days_worked, days_absent, medical_days, vacation_days, unpaid_days,
			total_days_month, scheduled_days, sundays_worked, sundays_scheduled,
			normal_hours, overtime_50_hours, overtime_100_hours, holiday_hours, late_hours,
			days, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (company_id, guard_id, year, month) DO UPDATE SET
			days_worked = EXCLUDED.days_worked,
			days_absent = EXCLUDED.days_absent,
			medical_days = EXCLUDED.medical_days,
			vacation_days = EXCLUDED.vacation_days,
			unpaid_days = EXCLUDED.unpaid_days,
			total_days_month = EXCLUDED.total_days_month,
			scheduled_days = EXCLUDED.scheduled_days,
			sundays_worked = EXCLUDED.sundays_worked,
			sundays_scheduled = EXCLUDED.sundays_scheduled,
			normal_hours = EXCLUDED.normal_hours,
			overtime_50_hours = EXCLUDED.overtime_50_hours,
			overtime_100_hours = EXCLUDED.overtime_100_hours,
			holiday_hours = EXCLUDED.holiday_hours,
			late_hours = EXCLUDED.late_hours,
			days = EXCLUDED.days,
			source = EXCLUDED.source,
			updated_at = NOW()
		RETURNING ` + factColumns

	row := q.QueryRow(ctx, query,
		fact.ID, fact.CompanyID, fact.GuardID, fact.Year, fact.Month,
		fact.DaysWorked, fact.DaysAbsent, fact.MedicalDays, fact.VacationDays, fact.UnpaidDays,
		fact.TotalDaysMonth, fact.ScheduledDays, fact.SundaysWorked, fact.SundaysScheduled,
		fact.NormalHours, fact.Overtime50Hours, fact.Overtime100Hours, fact.HolidayHours, fact.LateHours,
		days, fact.Source,
	)

	saved, err := scanFact(row)
	if err != nil {
		return attendance.Fact{}, fmt.Errorf("failed to upsert attendance fact: %w", err)
	}
	return saved, nil
}

func (r *attendanceRepository) ListByPeriod(ctx context.Context, companyID string, year, month int) ([]attendance.Fact, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + factColumns + `
		FROM attendance_facts
		WHERE company_id = $1 AND year = $2 AND month = $3
		ORDER BY guard_id`

	rows, err := q.Query(ctx, query, companyID, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance facts: %w", err)
	}
	defer rows.Close()

	var facts []attendance.Fact
	for rows.Next() {
		fact, err := scanFact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance fact: %w", err)
		}
		facts = append(facts, fact)
	}
	return facts, nil
}

func scanFact(row pgx.Row) (attendance.Fact, error) {
	var f attendance.Fact
	var days []byte

	err := row.Scan(
		&f.ID, &f.CompanyID, &f.GuardID, &f.Year, &f.Month,
		&f.DaysWorked, &f.DaysAbsent, &f.MedicalDays, &f.VacationDays, &f.UnpaidDays,
		&f.TotalDaysMonth, &f.ScheduledDays, &f.SundaysWorked, &f.SundaysScheduled,
		&f.NormalHours, &f.Overtime50Hours, &f.Overtime100Hours, &f.HolidayHours, &f.LateHours,
		&days, &f.Source, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return attendance.Fact{}, err
	}

	if len(days) > 0 {
		if err := json.Unmarshal(days, &f.Days); err != nil {
			return attendance.Fact{}, fmt.Errorf("failed to unmarshal day detail: %w", err)
		}
	}
	return f, nil
}
