package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"medicare-adherence/internal/domain/adherence"
	"medicare-adherence/internal/domain/doses"
)

type DosesRepo struct {
	db *sql.DB
}

func NewDosesRepo(db *sql.DB) *DosesRepo {
	return &DosesRepo{db: db}
}

const doseColumns = `
	id, medication_id, elderly_id, caregiver_id,
	scheduled_time, taken_time, status, delay_minutes, notes,
	source, recorded_at`

func (r *DosesRepo) GetByID(ctx context.Context, id string) (doses.Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+doseColumns+` FROM dose_records WHERE id = $1`, id)
	rec, err := scanDose(row)
	if errors.Is(err, sql.ErrNoRows) {
		return doses.Record{}, doses.ErrNotFound
	}
	return rec, err
}

func (r *DosesRepo) List(ctx context.Context, f doses.Filter) ([]doses.Record, error) {
	q, args := buildDoseQuery(f)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]doses.Record, 0)
	for rows.Next() {
		rec, err := scanDose(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func buildDoseQuery(f doses.Filter) (string, []any) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.MedicationID != "" {
		add("medication_id = $%d", f.MedicationID)
	}
	if f.ElderlyID != "" {
		add("elderly_id = $%d", f.ElderlyID)
	}
	if f.From != nil {
		add("scheduled_time >= $%d", *f.From)
	}
	if f.To != nil {
		add("scheduled_time <= $%d", *f.To)
	}
	if len(f.Statuses) > 0 {
		ph := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			args = append(args, string(s))
			ph = append(ph, fmt.Sprintf("$%d", len(args)))
		}
		where = append(where, "status IN ("+strings.Join(ph, ",")+")")
	}

	q := `SELECT ` + doseColumns + ` FROM dose_records`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY scheduled_time DESC, recorded_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return q, args
}

func scanDose(s scanner) (doses.Record, error) {
	var rec doses.Record
	var taken sql.NullTime
	var status, source string
	if err := s.Scan(
		&rec.ID,
		&rec.MedicationID,
		&rec.ElderlyID,
		&rec.CaregiverID,
		&rec.ScheduledTime,
		&taken,
		&status,
		&rec.DelayMinutes,
		&rec.Notes,
		&source,
		&rec.RecordedAt,
	); err != nil {
		return doses.Record{}, err
	}
	rec.TakenTime = fromNullTime(taken)
	rec.Status = adherence.DoseStatus(status)
	rec.Source = doses.Source(source)
	return rec, nil
}
