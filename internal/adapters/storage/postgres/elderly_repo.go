package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"medicare-adherence/internal/domain/elderly"
)

type ElderlyRepo struct {
	db *sql.DB
}

func NewElderlyRepo(db *sql.DB) *ElderlyRepo {
	return &ElderlyRepo{db: db}
}

const elderlyColumns = `
	id, caregiver_id,
	first_name, last_name, date_of_birth,
	phone, emergency_contact, notes,
	is_active, last_medication_taken,
	created_at, updated_at`

func (r *ElderlyRepo) Create(ctx context.Context, p elderly.Patient) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO elderly (`+elderlyColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		p.ID,
		p.CaregiverID,
		p.FirstName,
		p.LastName,
		toNullTime(p.DateOfBirth),
		p.Phone,
		p.EmergencyContact,
		p.Notes,
		p.IsActive,
		toNullTime(p.LastMedicationTaken),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *ElderlyRepo) Update(ctx context.Context, p elderly.Patient) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE elderly
		SET
			first_name = $2,
			last_name = $3,
			date_of_birth = $4,
			phone = $5,
			emergency_contact = $6,
			notes = $7,
			is_active = $8,
			updated_at = $9
		WHERE id = $1
	`,
		p.ID,
		p.FirstName,
		p.LastName,
		toNullTime(p.DateOfBirth),
		p.Phone,
		p.EmergencyContact,
		p.Notes,
		p.IsActive,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return elderly.ErrNotFound
	}
	return nil
}

func (r *ElderlyRepo) GetByID(ctx context.Context, id string) (elderly.Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return elderly.Patient{}, elderly.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+elderlyColumns+` FROM elderly WHERE id = $1`, id)
	p, err := scanPatient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return elderly.Patient{}, elderly.ErrNotFound
	}
	return p, err
}

func (r *ElderlyRepo) ListByCaregiver(ctx context.Context, caregiverID string) ([]elderly.Patient, error) {
	caregiverID = strings.TrimSpace(caregiverID)
	if caregiverID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+elderlyColumns+`
		FROM elderly
		WHERE caregiver_id = $1
		ORDER BY created_at ASC
	`, caregiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]elderly.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// TouchLastMedication solo avanza el valor guardado.
func (r *ElderlyRepo) TouchLastMedication(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE elderly
		SET last_medication_taken = GREATEST(COALESCE(last_medication_taken, $2), $2)
		WHERE id = $1
	`, id, at)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return elderly.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPatient(s scanner) (elderly.Patient, error) {
	var p elderly.Patient
	var dob, last sql.NullTime
	if err := s.Scan(
		&p.ID,
		&p.CaregiverID,
		&p.FirstName,
		&p.LastName,
		&dob,
		&p.Phone,
		&p.EmergencyContact,
		&p.Notes,
		&p.IsActive,
		&last,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return elderly.Patient{}, err
	}
	// date_of_birth es DATE: pgx lo trae como medianoche UTC
	p.DateOfBirth = fromNullTime(dob)
	p.LastMedicationTaken = fromNullTime(last)
	return p, nil
}
