package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adewale-k/compliance-docs/constants"
	"github.com/adewale-k/compliance-docs/internal/common"
	"github.com/adewale-k/compliance-docs/internal/entity"
)

type DecisionRepository interface {
	SaveDecision(ctx context.Context, d entity.ReviewDecision) error
	GetDecision(ctx context.Context, id uuid.UUID) (entity.ReviewDecision, error)
	ListDecisions(ctx context.Context, from, to *time.Time) ([]entity.ReviewDecision, error)
}

type decisionRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewDecisionRepository(db *sql.DB, log *slog.Logger) DecisionRepository {
	if log == nil {
		log = slog.Default()
	}
	return &decisionRepo{db: db, log: log}
}

func (r *decisionRepo) SaveDecision(ctx context.Context, d entity.ReviewDecision) error {
	fields, err := json.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	rawFields, err := json.Marshal(d.RawFields)
	if err != nil {
		return fmt.Errorf("marshal raw fields: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO review_decisions
			(id, job_id, document_type, approved, fields, raw_fields, reject_reason, override_used, decided_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID.String(), d.JobID.String(), string(d.DocumentType), d.Approved,
		string(fields), string(rawFields), d.RejectReason, d.Override,
		d.DecidedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		r.log.Error("decision save failed", "decision_id", d.ID, "err", err)
		return err
	}
	r.log.Info("decision saved", "decision_id", d.ID, "job_id", d.JobID, "approved", d.Approved)
	return nil
}

func (r *decisionRepo) GetDecision(ctx context.Context, id uuid.UUID) (entity.ReviewDecision, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, job_id, document_type, approved, fields, raw_fields, reject_reason, override_used, decided_at
		 FROM review_decisions WHERE id = $1`, id.String())
	d, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.ReviewDecision{}, fmt.Errorf("decision %s: %w", id, common.ErrNotFound)
	}
	return d, err
}

func (r *decisionRepo) ListDecisions(ctx context.Context, from, to *time.Time) ([]entity.ReviewDecision, error) {
	query := `SELECT id, job_id, document_type, approved, fields, raw_fields, reject_reason, override_used, decided_at
		FROM review_decisions WHERE 1=1`
	var args []any
	if from != nil {
		args = append(args, from.UTC().Format(time.RFC3339Nano))
		query += fmt.Sprintf(" AND decided_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, to.UTC().Format(time.RFC3339Nano))
		query += fmt.Sprintf(" AND decided_at <= $%d", len(args))
	}
	query += " ORDER BY decided_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.ReviewDecision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDecision(row rowScanner) (entity.ReviewDecision, error) {
	var (
		d                        entity.ReviewDecision
		idStr, jobIDStr, docType string
		fields, rawFields        sql.NullString
		rejectReason             sql.NullString
		decidedAt                string
	)
	err := row.Scan(&idStr, &jobIDStr, &docType, &d.Approved, &fields, &rawFields, &rejectReason, &d.Override, &decidedAt)
	if err != nil {
		return entity.ReviewDecision{}, err
	}
	if d.ID, err = uuid.Parse(idStr); err != nil {
		return entity.ReviewDecision{}, fmt.Errorf("parse decision id: %w", err)
	}
	if d.JobID, err = uuid.Parse(jobIDStr); err != nil {
		return entity.ReviewDecision{}, fmt.Errorf("parse job id: %w", err)
	}
	d.DocumentType = constants.DocumentType(docType)
	if fields.Valid && fields.String != "" {
		if err := json.Unmarshal([]byte(fields.String), &d.Fields); err != nil {
			return entity.ReviewDecision{}, fmt.Errorf("unmarshal fields: %w", err)
		}
	}
	if rawFields.Valid && rawFields.String != "" {
		if err := json.Unmarshal([]byte(rawFields.String), &d.RawFields); err != nil {
			return entity.ReviewDecision{}, fmt.Errorf("unmarshal raw fields: %w", err)
		}
	}
	if rejectReason.Valid {
		d.RejectReason = rejectReason.String
	}
	if d.DecidedAt, err = time.Parse(time.RFC3339Nano, decidedAt); err != nil {
		return entity.ReviewDecision{}, fmt.Errorf("parse decided_at: %w", err)
	}
	return d, nil
}
