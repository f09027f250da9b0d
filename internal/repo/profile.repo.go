package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"order-console/internal/domain"
)

type ProfileRepo interface {
	FindById(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	FindByEmail(ctx context.Context, email string) (*domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)
	ListCustomers(ctx context.Context) ([]domain.Profile, error)
	// Create inserts a new profile and fails with domain.ErrConflict when the email is taken.
	Create(ctx context.Context, profile *domain.Profile) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateClientName(ctx context.Context, id uuid.UUID, clientName string) error
	UpdateNickname(ctx context.Context, id uuid.UUID, nickname string) error
	// Upsert inserts the profile or, when the email exists, refreshes its credentials and role.
	Upsert(ctx context.Context, profile *domain.Profile) error
}

type profileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) ProfileRepo {
	return &profileRepo{db: db}
}

const uniqueViolation = "23505"

const profileColumns = `id, email, password_hash, role, nickname, client_name, created_at`

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var (
		p                    domain.Profile
		nickname, clientName sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.Role, &nickname, &clientName, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Nickname = nickname.String
	p.ClientName = clientName.String
	return &p, nil
}

func (r *profileRepo) findOne(ctx context.Context, query string, args ...any) (*domain.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return p, nil
}

func (r *profileRepo) FindById(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	return r.findOne(ctx, "SELECT "+profileColumns+" FROM profiles WHERE id = $1", id)
}

func (r *profileRepo) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.findOne(ctx, "SELECT "+profileColumns+" FROM profiles WHERE lower(email) = lower($1)", email)
}

func (r *profileRepo) List(ctx context.Context) ([]domain.Profile, error) {
	return r.findMany(ctx, "SELECT "+profileColumns+" FROM profiles ORDER BY created_at, email")
}

func (r *profileRepo) ListCustomers(ctx context.Context) ([]domain.Profile, error) {
	return r.findMany(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE role = $1 AND client_name IS NOT NULL ORDER BY client_name",
		domain.RoleCustomer,
	)
}

func (r *profileRepo) findMany(ctx context.Context, query string, args ...any) ([]domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []domain.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (r *profileRepo) Create(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, password_hash, role, nickname, client_name, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)`,
		p.ID, p.Email, p.PasswordHash, p.Role, p.Nickname, p.ClientName, p.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("create profile %s: %w", p.Email, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("create profile %s: %w", p.Email, err)
	}
	return nil
}

func (r *profileRepo) UpdateClientName(ctx context.Context, id uuid.UUID, clientName string) error {
	return r.updateOne(ctx, "UPDATE profiles SET client_name = $1 WHERE id = $2", clientName, id)
}

func (r *profileRepo) UpdateNickname(ctx context.Context, id uuid.UUID, nickname string) error {
	return r.updateOne(ctx, "UPDATE profiles SET nickname = $1 WHERE id = $2", nickname, id)
}

func (r *profileRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.updateOne(ctx, "UPDATE profiles SET password_hash = $1 WHERE id = $2", passwordHash, id)
}

func (r *profileRepo) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *profileRepo) Upsert(ctx context.Context, p *domain.Profile) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO profiles (id, email, password_hash, role, nickname, client_name, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
		ON CONFLICT (email) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
		    role = EXCLUDED.role,
		    nickname = COALESCE(EXCLUDED.nickname, profiles.nickname),
		    client_name = COALESCE(EXCLUDED.client_name, profiles.client_name)
		RETURNING id, created_at`,
		p.ID, p.Email, p.PasswordHash, p.Role, p.Nickname, p.ClientName, p.CreatedAt,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", p.Email, err)
	}
	return nil
}
