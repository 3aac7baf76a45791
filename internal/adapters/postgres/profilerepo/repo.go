package profilerepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/postgres"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/profilerepo"
)

const profileColumns = `
	id,
	owner_subject,
	name,
	photo_path,
	age,
	bar_license_no,
	bar_association,
	years_of_practice,
	specializations,
	mobile_no,
	city,
	preferred_language,
	bio,
	approved,
	created_at,
	updated_at`

// Repo is a Postgres implementation of profilerepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, p profilerepo.Profile) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(p.ID))
	if err != nil {
		return fmt.Errorf("invalid profile id: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO lawyer_profiles (`+profileColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		id,
		string(p.Owner),
		p.Name,
		p.PhotoPath,
		p.Age,
		p.BarLicenseNo,
		p.BarAssociation,
		p.YearsOfPractice,
		specStrings(p.Specializations),
		p.MobileNo,
		p.City,
		string(p.PreferredLanguage),
		p.Bio,
		p.Approved,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "lawyer_profiles_pkey") {
			return profilerepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.ProfileID) (profilerepo.Profile, error) {
	if r.pool == nil {
		return profilerepo.Profile{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return profilerepo.Profile{}, profilerepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM lawyer_profiles WHERE id = $1`, uid)
	return scanProfile(row)
}

func (r *Repo) GetByOwner(ctx context.Context, owner domain.SubjectID) (profilerepo.Profile, error) {
	if r.pool == nil {
		return profilerepo.Profile{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM lawyer_profiles
		WHERE owner_subject = $1
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, string(owner))
	return scanProfile(row)
}

func (r *Repo) ListApproved(ctx context.Context) ([]profilerepo.Profile, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	return r.list(ctx, `
		SELECT `+profileColumns+`
		FROM lawyer_profiles
		WHERE approved
		ORDER BY lower(name) COLLATE "C" ASC, id ASC
	`)
}

func (r *Repo) ListAll(ctx context.Context) ([]profilerepo.Profile, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	return r.list(ctx, `
		SELECT `+profileColumns+`
		FROM lawyer_profiles
		ORDER BY created_at DESC, id ASC
	`)
}

func (r *Repo) SetApproval(ctx context.Context, id domain.ProfileID, approved bool, at time.Time) (profilerepo.Profile, error) {
	if r.pool == nil {
		return profilerepo.Profile{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return profilerepo.Profile{}, profilerepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE lawyer_profiles
		SET approved = $2,
		    updated_at = $3
		WHERE id = $1
		RETURNING `+profileColumns,
		uid,
		approved,
		at.UTC(),
	)
	return scanProfile(row)
}

func (r *Repo) FindClaimable(ctx context.Context, barLicenseNo, mobileNo string) (profilerepo.Profile, error) {
	if r.pool == nil {
		return profilerepo.Profile{}, errors.New("nil postgres pool")
	}
	if barLicenseNo == "" && mobileNo == "" {
		return profilerepo.Profile{}, profilerepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM lawyer_profiles
		WHERE owner_subject = ''
		  AND (($1 <> '' AND bar_license_no = $1)
		    OR ($2 <> '' AND mobile_no = $2))
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, barLicenseNo, mobileNo)
	return scanProfile(row)
}

func (r *Repo) BindOwner(ctx context.Context, id domain.ProfileID, owner domain.SubjectID, at time.Time) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return profilerepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE lawyer_profiles
		SET owner_subject = $2,
		    updated_at = $3
		WHERE id = $1
		  AND owner_subject = ''
	`, uid, string(owner), at.UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return profilerepo.ErrNotFound
	}
	return nil
}

func (r *Repo) list(ctx context.Context, query string) ([]profilerepo.Profile, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []profilerepo.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProfile(row pgx.Row) (profilerepo.Profile, error) {
	var (
		p     profilerepo.Profile
		id    uuid.UUID
		owner string
		specs []string
		lang  string
	)
	err := row.Scan(
		&id,
		&owner,
		&p.Name,
		&p.PhotoPath,
		&p.Age,
		&p.BarLicenseNo,
		&p.BarAssociation,
		&p.YearsOfPractice,
		&specs,
		&p.MobileNo,
		&p.City,
		&lang,
		&p.Bio,
		&p.Approved,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profilerepo.Profile{}, profilerepo.ErrNotFound
		}
		return profilerepo.Profile{}, err
	}
	p.ID = domain.ProfileID(id.String())
	p.Owner = domain.SubjectID(owner)
	p.PreferredLanguage = domain.Language(lang)
	p.Specializations = make([]domain.Specialization, 0, len(specs))
	for _, s := range specs {
		p.Specializations = append(p.Specializations, domain.Specialization(s))
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func specStrings(specs []domain.Specialization) []string {
	out := make([]string, 0, len(specs))
	for _, s := range specs {
		out = append(out, string(s))
	}
	return out
}
