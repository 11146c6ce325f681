package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"medicare-adherence/internal/domain/adherence"
	"medicare-adherence/internal/domain/doses"
	"medicare-adherence/internal/domain/medications"
)

type MedicationsRepo struct {
	db *sql.DB
}

func NewMedicationsRepo(db *sql.DB) *MedicationsRepo {
	return &MedicationsRepo{db: db}
}

const medicationColumns = `
	id, elderly_id, caregiver_id,
	name, dosage, unit, instructions,
	frequency, start_date, end_date, status,
	last_taken, next_dose,
	total_doses, taken_doses, adherence_rate,
	version, created_at, updated_at`

func (r *MedicationsRepo) Create(ctx context.Context, m medications.Medication) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medications (`+medicationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`,
		m.ID,
		m.ElderlyID,
		m.CaregiverID,
		m.Name,
		m.Dosage,
		m.Unit,
		m.Instructions,
		string(m.Schedule.Frequency),
		m.Schedule.StartDate,
		toNullTime(m.Schedule.EndDate),
		string(m.Status),
		toNullTime(m.LastTaken),
		toNullTime(m.NextDose),
		m.TotalDoses,
		m.TakenDoses,
		toNullInt(m.AdherenceRate),
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

func (r *MedicationsRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medications.Medication{}, medications.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+medicationColumns+` FROM medications WHERE id = $1`, id)
	m, err := scanMedication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return medications.Medication{}, medications.ErrNotFound
	}
	return m, err
}

func (r *MedicationsRepo) ListByElderly(ctx context.Context, elderlyID string) ([]medications.Medication, error) {
	return r.query(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE elderly_id = $1
		ORDER BY created_at ASC
	`, elderlyID)
}

func (r *MedicationsRepo) ListUpcoming(ctx context.Context, caregiverID string, from, to time.Time) ([]medications.Medication, error) {
	return r.query(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE caregiver_id = $1
		  AND status = $2
		  AND next_dose BETWEEN $3 AND $4
		ORDER BY next_dose ASC
	`, caregiverID, string(medications.StatusActive), from, to)
}

func (r *MedicationsRepo) ListDue(ctx context.Context, before time.Time, limit int) ([]medications.Medication, error) {
	if limit <= 0 {
		limit = 200
	}
	return r.query(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE status = $1
		  AND next_dose IS NOT NULL
		  AND next_dose <= $2
		ORDER BY next_dose ASC
		LIMIT $3
	`, string(medications.StatusActive), before, limit)
}

func (r *MedicationsRepo) Update(ctx context.Context, expectedVersion int64, m medications.Medication) error {
	return r.update(ctx, r.db, expectedVersion, m)
}

// RecordDose: UPDATE condicionado a la versión + INSERT del record, en la misma tx.
func (r *MedicationsRepo) RecordDose(ctx context.Context, expectedVersion int64, updated medications.Medication, rec doses.Record) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.update(ctx, tx, expectedVersion, updated); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO dose_records (`+doseColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		rec.ID,
		rec.MedicationID,
		rec.ElderlyID,
		rec.CaregiverID,
		rec.ScheduledTime,
		toNullTime(rec.TakenTime),
		string(rec.Status),
		rec.DelayMinutes,
		rec.Notes,
		string(rec.Source),
		rec.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dose record: %w", err)
	}

	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *MedicationsRepo) update(ctx context.Context, ex execer, expectedVersion int64, m medications.Medication) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE medications
		SET
			name = $3,
			dosage = $4,
			unit = $5,
			instructions = $6,
			end_date = $7,
			status = $8,
			last_taken = $9,
			next_dose = $10,
			total_doses = $11,
			taken_doses = $12,
			adherence_rate = $13,
			version = $14,
			updated_at = $15
		WHERE id = $1 AND version = $2
	`,
		m.ID,
		expectedVersion,
		m.Name,
		m.Dosage,
		m.Unit,
		m.Instructions,
		toNullTime(m.Schedule.EndDate),
		string(m.Status),
		toNullTime(m.LastTaken),
		toNullTime(m.NextDose),
		m.TotalDoses,
		m.TakenDoses,
		toNullInt(m.AdherenceRate),
		m.Version,
		m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}

	// 0 filas: o no existe o la versión cambió
	var exists bool
	if err := ex.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM medications WHERE id = $1)`, m.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return medications.ErrNotFound
	}
	return medications.ErrConflict
}

func (r *MedicationsRepo) query(ctx context.Context, q string, args ...any) ([]medications.Medication, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medications.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMedication(s scanner) (medications.Medication, error) {
	var m medications.Medication
	var freq, status string
	var end, last, next sql.NullTime
	var rate sql.NullInt64
	if err := s.Scan(
		&m.ID,
		&m.ElderlyID,
		&m.CaregiverID,
		&m.Name,
		&m.Dosage,
		&m.Unit,
		&m.Instructions,
		&freq,
		&m.Schedule.StartDate,
		&end,
		&status,
		&last,
		&next,
		&m.TotalDoses,
		&m.TakenDoses,
		&rate,
		&m.Version,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return medications.Medication{}, err
	}
	m.Schedule.Frequency = adherence.Frequency(freq)
	m.Schedule.EndDate = fromNullTime(end)
	m.Status = medications.Status(status)
	m.LastTaken = fromNullTime(last)
	m.NextDose = fromNullTime(next)
	m.AdherenceRate = fromNullInt(rate)
	return m, nil
}
