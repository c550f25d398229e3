package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/mindjournal/internal/auth/entity"
)

const principalColumns = `id, username, email, password_hash, is_verified, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(row rowScanner) (entity.Principal, error) {
	var p entity.Principal
	if err := row.Scan(&p.ID, &p.Username, &p.Email, &p.PasswordHash, &p.IsVerified, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return entity.Principal{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

// FindPrincipalByIdentifier looks a principal up by username or email, case-insensitively.
func (s *DB) FindPrincipalByIdentifier(ctx context.Context, identifier string) (_ entity.Principal, err error) {
	ctx, span := s.startSpan(ctx, "FindPrincipalByIdentifier")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		SELECT `+principalColumns+`
		FROM principals
		WHERE LOWER(email) = LOWER($1) OR LOWER(username) = LOWER($1)
		LIMIT 1`, identifier)

	p, err := scanPrincipal(row)
	if err != nil {
		return entity.Principal{}, s.mapError(err)
	}
	return p, nil
}

func (s *DB) GetPrincipalByID(ctx context.Context, id int64) (_ entity.Principal, err error) {
	ctx, span := s.startSpan(ctx, "GetPrincipalByID")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = $1`, id)

	p, err := scanPrincipal(row)
	if err != nil {
		return entity.Principal{}, s.mapError(err)
	}
	return p, nil
}

// RegisterPrincipal creates an unverified principal and its first passcode in
// one transaction. A taken username or email yields goerror.ErrConflict.
func (s *DB) RegisterPrincipal(ctx context.Context, np entity.NewPrincipal, code string, ttl time.Duration) (_ entity.Principal, _ entity.Passcode, err error) {
	ctx, span := s.startSpan(ctx, "RegisterPrincipal")
	defer func() { s.endSpan(span, err) }()

	now := s.now()
	var (
		p  entity.Principal
		pc entity.Passcode
	)

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO principals (id, username, email, password_hash, is_verified, created_at, updated_at)
			VALUES ($1, $2, $3, $4, FALSE, $5, $5)
			RETURNING `+principalColumns,
			np.ID, np.Username, np.Email, np.PasswordHash, now)

		var err error
		if p, err = scanPrincipal(row); err != nil {
			return s.mapError(err)
		}

		pc, err = upsertPasscode(ctx, tx, np.ID, code, now, ttl)
		return s.mapError(err)
	})
	if err != nil {
		return entity.Principal{}, entity.Passcode{}, err
	}

	return p, pc, nil
}

// now is the store clock truncated to the precision PostgreSQL keeps.
func (s *DB) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}
