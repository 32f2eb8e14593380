package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fangji-app/fangji/internal/domain"
)

type PrescriptionStore struct {
	db *sql.DB
}

func NewPrescriptionStore(db *sql.DB) *PrescriptionStore {
	return &PrescriptionStore{db: db}
}

const prescriptionColumns = `id, name, patient_name, description, source, is_ai_generated, confidence_score, created_at, updated_at`

func scanPrescription(row interface{ Scan(...any) error }) (*domain.Prescription, error) {
	p := &domain.Prescription{}
	err := row.Scan(&p.ID, &p.Name, &p.PatientName, &p.Description, &p.Source,
		&p.IsAIGenerated, &p.ConfidenceScore, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create persists a prescription and its children in one transaction: parent
// row first, then herbs, then the usage instruction (only when non-empty),
// then symptoms. Children need the parent id, so the order is fixed; the
// transaction keeps a crash from exposing a half-written record.
func (s *PrescriptionStore) Create(ctx context.Context, d *domain.PrescriptionDetails) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			slog.Error("failed to roll back transaction", "error", err)
		}
	}()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO prescriptions (name, patient_name, description, source, is_ai_generated, confidence_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.Name, d.PatientName, d.Description, d.Source, d.IsAIGenerated, d.ConfidenceScore, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to create prescription: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := insertChildren(ctx, tx, id, d); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}

func insertChildren(ctx context.Context, tx *sql.Tx, id int64, d *domain.PrescriptionDetails) error {
	for _, h := range d.Herbs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO herbs (prescription_id, name, dosage, preparation, sequence) VALUES (?, ?, ?, ?, ?)
		`, id, h.Name, h.Dosage, h.Preparation, h.Sequence)
		if err != nil {
			return fmt.Errorf("failed to insert herb: %w", err)
		}
	}

	if d.Usage != nil && !d.Usage.Empty() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO usage_instructions (prescription_id, decoction_method, frequency, dosage_per_time, precautions)
			VALUES (?, ?, ?, ?, ?)
		`, id, d.Usage.DecoctionMethod, d.Usage.Frequency, d.Usage.DosagePerTime, d.Usage.Precautions)
		if err != nil {
			return fmt.Errorf("failed to insert usage instruction: %w", err)
		}
	}

	for _, sym := range d.Symptoms {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO symptoms (prescription_id, symptom) VALUES (?, ?)
		`, id, sym.Label)
		if err != nil {
			return fmt.Errorf("failed to insert symptom: %w", err)
		}
	}

	return nil
}

// Update replaces the prescription row and all child collections wholesale
// (delete-then-reinsert) in one transaction. The record's identity and
// created_at are immutable.
func (s *PrescriptionStore) Update(ctx context.Context, d *domain.PrescriptionDetails) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			slog.Error("failed to roll back transaction", "error", err)
		}
	}()

	result, err := tx.ExecContext(ctx, `
		UPDATE prescriptions
		SET name = ?, patient_name = ?, description = ?, source = ?, is_ai_generated = ?, confidence_score = ?, updated_at = ?
		WHERE id = ?
	`, d.Name, d.PatientName, d.Description, d.Source, d.IsAIGenerated, d.ConfidenceScore, time.Now().UTC(), d.ID)
	if err != nil {
		return fmt.Errorf("failed to update prescription: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("prescription not found")
	}

	for _, table := range []string{"herbs", "usage_instructions", "symptoms"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE prescription_id = ?", table), d.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := insertChildren(ctx, tx, d.ID, d); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PrescriptionStore) GetByID(ctx context.Context, id int64) (*domain.Prescription, error) {
	p, err := scanPrescription(s.db.QueryRowContext(ctx,
		"SELECT "+prescriptionColumns+" FROM prescriptions WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}
	return p, nil
}

// GetDetails loads a prescription with its herbs (in sequence order), usage
// instruction, and symptom tags. Returns nil when the record does not exist.
func (s *PrescriptionStore) GetDetails(ctx context.Context, id int64) (*domain.PrescriptionDetails, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	return s.loadDetails(ctx, p)
}

func (s *PrescriptionStore) loadDetails(ctx context.Context, p *domain.Prescription) (*domain.PrescriptionDetails, error) {
	d := &domain.PrescriptionDetails{Prescription: *p}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, prescription_id, name, dosage, preparation, sequence
		FROM herbs WHERE prescription_id = ? ORDER BY sequence
	`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list herbs: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var h domain.Herb
		if err := rows.Scan(&h.ID, &h.PrescriptionID, &h.Name, &h.Dosage, &h.Preparation, &h.Sequence); err != nil {
			return nil, fmt.Errorf("failed to scan herb: %w", err)
		}
		d.Herbs = append(d.Herbs, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating herbs: %w", err)
	}

	var u domain.UsageInstruction
	err = s.db.QueryRowContext(ctx, `
		SELECT id, prescription_id, decoction_method, frequency, dosage_per_time, precautions
		FROM usage_instructions WHERE prescription_id = ? LIMIT 1
	`, p.ID).Scan(&u.ID, &u.PrescriptionID, &u.DecoctionMethod, &u.Frequency, &u.DosagePerTime, &u.Precautions)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get usage instruction: %w", err)
	}
	if err == nil {
		d.Usage = &u
	}

	symRows, err := s.db.QueryContext(ctx, `
		SELECT id, prescription_id, symptom FROM symptoms WHERE prescription_id = ?
	`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list symptoms: %w", err)
	}
	defer closeRows(symRows)

	for symRows.Next() {
		var sym domain.Symptom
		if err := symRows.Scan(&sym.ID, &sym.PrescriptionID, &sym.Label); err != nil {
			return nil, fmt.Errorf("failed to scan symptom: %w", err)
		}
		d.Symptoms = append(d.Symptoms, sym)
	}
	if err := symRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symptoms: %w", err)
	}

	return d, nil
}

// List returns all prescriptions, newest first.
func (s *PrescriptionStore) List(ctx context.Context) ([]*domain.Prescription, error) {
	return s.queryPrescriptions(ctx,
		"SELECT "+prescriptionColumns+" FROM prescriptions ORDER BY created_at DESC, id DESC")
}

func (s *PrescriptionStore) ListRecent(ctx context.Context, limit int) ([]*domain.Prescription, error) {
	return s.queryPrescriptions(ctx,
		"SELECT "+prescriptionColumns+" FROM prescriptions ORDER BY created_at DESC, id DESC LIMIT ?", limit)
}

// ListDetails returns up to limit prescriptions with details, newest first.
// A limit <= 0 means no limit.
func (s *PrescriptionStore) ListDetails(ctx context.Context, limit int) ([]*domain.PrescriptionDetails, error) {
	var (
		list []*domain.Prescription
		err  error
	)
	if limit > 0 {
		list, err = s.ListRecent(ctx, limit)
	} else {
		list, err = s.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	return s.withDetails(ctx, list)
}

func (s *PrescriptionStore) withDetails(ctx context.Context, list []*domain.Prescription) ([]*domain.PrescriptionDetails, error) {
	details := make([]*domain.PrescriptionDetails, 0, len(list))
	for _, p := range list {
		d, err := s.loadDetails(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to load details for prescription %d: %w", p.ID, err)
		}
		details = append(details, d)
	}
	return details, nil
}

// Search matches the query case-insensitively against prescription name,
// description and patient name, herb names, and symptom labels. Results are
// distinct, newest first, with details attached.
func (s *PrescriptionStore) Search(ctx context.Context, query string) ([]*domain.PrescriptionDetails, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	list, err := s.queryPrescriptions(ctx, `
		SELECT DISTINCT p.`+strings.ReplaceAll(prescriptionColumns, ", ", ", p.")+`
		FROM prescriptions p
		LEFT JOIN herbs h ON h.prescription_id = p.id
		LEFT JOIN symptoms s ON s.prescription_id = p.id
		WHERE LOWER(p.name) LIKE ?
		   OR LOWER(p.description) LIKE ?
		   OR LOWER(p.patient_name) LIKE ?
		   OR LOWER(h.name) LIKE ?
		   OR LOWER(s.symptom) LIKE ?
		ORDER BY p.created_at DESC, p.id DESC
	`, pattern, pattern, pattern, pattern, pattern)
	if err != nil {
		return nil, err
	}
	return s.withDetails(ctx, list)
}

func (s *PrescriptionStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM prescriptions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete prescription: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("prescription not found")
	}
	return nil
}

func (s *PrescriptionStore) Count(ctx context.Context) (int, error) {
	return s.countRow(ctx, "SELECT COUNT(*) FROM prescriptions")
}

func (s *PrescriptionStore) CountAIGenerated(ctx context.Context) (int, error) {
	return s.countRow(ctx, "SELECT COUNT(*) FROM prescriptions WHERE is_ai_generated = 1")
}

func (s *PrescriptionStore) CountSince(ctx context.Context, since time.Time) (int, error) {
	return s.countRow(ctx, "SELECT COUNT(*) FROM prescriptions WHERE created_at >= ?", since.UTC())
}

func (s *PrescriptionStore) TotalHerbCount(ctx context.Context) (int, error) {
	return s.countRow(ctx, "SELECT COUNT(*) FROM herbs")
}

func (s *PrescriptionStore) UniqueHerbCount(ctx context.Context) (int, error) {
	return s.countRow(ctx, "SELECT COUNT(DISTINCT name) FROM herbs")
}

// TopHerbs returns the most frequently used herb names with usage counts.
func (s *PrescriptionStore) TopHerbs(ctx context.Context, limit int) ([]domain.HerbCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, COUNT(*) AS count FROM herbs
		GROUP BY name ORDER BY count DESC, name ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top herbs: %w", err)
	}
	defer closeRows(rows)

	var counts []domain.HerbCount
	for rows.Next() {
		var hc domain.HerbCount
		if err := rows.Scan(&hc.Name, &hc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan herb count: %w", err)
		}
		counts = append(counts, hc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating herb counts: %w", err)
	}
	return counts, nil
}

func (s *PrescriptionStore) HerbNames(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, "SELECT DISTINCT name FROM herbs ORDER BY name")
}

func (s *PrescriptionStore) SymptomLabels(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, "SELECT DISTINCT symptom FROM symptoms ORDER BY symptom")
}

func (s *PrescriptionStore) queryPrescriptions(ctx context.Context, query string, args ...any) ([]*domain.Prescription, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	defer closeRows(rows)

	var list []*domain.Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prescription: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prescriptions: %w", err)
	}
	return list, nil
}

func (s *PrescriptionStore) queryStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer closeRows(rows)

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating: %w", err)
	}
	return out, nil
}

func (s *PrescriptionStore) countRow(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("failed to close rows", "error", err)
	}
}
