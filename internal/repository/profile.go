package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adewale-k/compliance-docs/internal/common"
	"github.com/adewale-k/compliance-docs/internal/entity"
)

type ProfileRepository interface {
	CreateProfile(ctx context.Context, p entity.Profile) (entity.Profile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (entity.Profile, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type profileRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewProfileRepository(db *sql.DB, log *slog.Logger) ProfileRepository {
	if log == nil {
		log = slog.Default()
	}
	return &profileRepo{db: db, log: log}
}

func (r *profileRepo) CreateProfile(ctx context.Context, p entity.Profile) (entity.Profile, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, legal_name, owner_name, address, cert_number, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID.String(), p.LegalName, p.OwnerName, p.Address, p.CertNumber,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		r.log.Error("profile create failed", "legal_name", p.LegalName, "err", err)
		return entity.Profile{}, err
	}
	r.log.Info("profile created", "profile_id", p.ID, "legal_name", p.LegalName)
	return p, nil
}

func (r *profileRepo) GetProfile(ctx context.Context, id uuid.UUID) (entity.Profile, error) {
	var (
		p                              entity.Profile
		idStr, createdAt, updatedAt    string
		ownerName, address, certNumber sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, legal_name, owner_name, address, cert_number, created_at, updated_at
		 FROM profiles WHERE id = $1`, id.String()).
		Scan(&idStr, &p.LegalName, &ownerName, &address, &certNumber, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Profile{}, fmt.Errorf("profile %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return entity.Profile{}, err
	}
	if p.ID, err = uuid.Parse(idStr); err != nil {
		return entity.Profile{}, fmt.Errorf("parse profile id: %w", err)
	}
	if ownerName.Valid {
		p.OwnerName = &ownerName.String
	}
	if address.Valid {
		p.Address = &address.String
	}
	if certNumber.Valid {
		p.CertNumber = &certNumber.String
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return entity.Profile{}, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return entity.Profile{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return p, nil
}

func (r *profileRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM profiles WHERE id = $1`, id.String()).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
