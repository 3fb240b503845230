// Package postgres implements the record store Source against the portal
// database.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/store"
)

type source struct {
	pool *pgxpool.Pool
}

// NewSource builds a pgx-backed record source.
func NewSource(pool *pgxpool.Pool) store.Source {
	return &source{pool: pool}
}

func (s *source) List(ctx context.Context, kind domain.RecordKind) ([]domain.TrackedRecord, error) {
	switch kind {
	case domain.KindAppointment:
		return s.listAppointments(ctx)
	case domain.KindDocument:
		return s.listDocuments(ctx)
	case domain.KindPayment:
		return s.listPayments(ctx)
	}
	return nil, fmt.Errorf("unknown record kind %q", kind)
}

func (s *source) Insert(ctx context.Context, record *domain.TrackedRecord) error {
	switch record.Kind {
	case domain.KindAppointment:
		const query = `
            INSERT INTO appointments (owner_id, service, scheduled_for, notes, status)
            VALUES ($1,$2,$3,$4,$5)
            RETURNING id, created_at, updated_at`
		d := record.Appointment
		return s.pool.QueryRow(ctx, query,
			record.OwnerID, d.Service, d.ScheduledFor, d.Notes, record.Status,
		).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	case domain.KindDocument:
		const query = `
            INSERT INTO documents (owner_id, title, file_name, category, status)
            VALUES ($1,$2,$3,$4,$5)
            RETURNING id, created_at, updated_at`
		d := record.Document
		return s.pool.QueryRow(ctx, query,
			record.OwnerID, d.Title, d.FileName, d.Category, record.Status,
		).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	case domain.KindPayment:
		const query = `
            INSERT INTO payment_records (owner_id, amount, currency, method, reference, status)
            VALUES ($1,$2,$3,$4,$5,$6)
            RETURNING id, created_at, updated_at`
		d := record.Payment
		return s.pool.QueryRow(ctx, query,
			record.OwnerID, d.Amount, d.Currency, d.Method, d.Reference, record.Status,
		).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	}
	return fmt.Errorf("unknown record kind %q", record.Kind)
}

func (s *source) UpdateStatus(ctx context.Context, kind domain.RecordKind, id string, status domain.RecordStatus) error {
	table, ok := tableFor(kind)
	if !ok {
		return fmt.Errorf("unknown record kind %q", kind)
	}
	query := fmt.Sprintf(`UPDATE %s SET status=$1, updated_at=NOW() WHERE id=$2`, table)
	cmd, err := s.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func tableFor(kind domain.RecordKind) (string, bool) {
	switch kind {
	case domain.KindAppointment:
		return "appointments", true
	case domain.KindDocument:
		return "documents", true
	case domain.KindPayment:
		return "payment_records", true
	}
	return "", false
}

func (s *source) listAppointments(ctx context.Context) ([]domain.TrackedRecord, error) {
	const query = `
        SELECT id, owner_id, service, scheduled_for, notes, status, created_at, updated_at
        FROM appointments ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TrackedRecord
	for rows.Next() {
		record := domain.TrackedRecord{Kind: domain.KindAppointment, Appointment: &domain.AppointmentDetails{}}
		if err := rows.Scan(
			&record.ID,
			&record.OwnerID,
			&record.Appointment.Service,
			&record.Appointment.ScheduledFor,
			&record.Appointment.Notes,
			&record.Status,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

func (s *source) listDocuments(ctx context.Context) ([]domain.TrackedRecord, error) {
	const query = `
        SELECT id, owner_id, title, file_name, category, status, created_at, updated_at
        FROM documents ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TrackedRecord
	for rows.Next() {
		record := domain.TrackedRecord{Kind: domain.KindDocument, Document: &domain.DocumentDetails{}}
		if err := rows.Scan(
			&record.ID,
			&record.OwnerID,
			&record.Document.Title,
			&record.Document.FileName,
			&record.Document.Category,
			&record.Status,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

func (s *source) listPayments(ctx context.Context) ([]domain.TrackedRecord, error) {
	const query = `
        SELECT id, owner_id, amount, currency, method, reference, status, created_at, updated_at
        FROM payment_records ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TrackedRecord
	for rows.Next() {
		record := domain.TrackedRecord{Kind: domain.KindPayment, Payment: &domain.PaymentDetails{}}
		if err := rows.Scan(
			&record.ID,
			&record.OwnerID,
			&record.Payment.Amount,
			&record.Payment.Currency,
			&record.Payment.Method,
			&record.Payment.Reference,
			&record.Status,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
