package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/mindjournal/internal/auth/entity"
)

const passcodeColumns = `principal_id, code, issued_at, expires_at, consumed, consumed_at`

func scanPasscode(row rowScanner) (entity.Passcode, error) {
	var pc entity.Passcode
	if err := row.Scan(&pc.PrincipalID, &pc.Code, &pc.IssuedAt, &pc.ExpiresAt, &pc.Consumed, &pc.ConsumedAt); err != nil {
		return entity.Passcode{}, err
	}
	pc.IssuedAt = pc.IssuedAt.UTC()
	pc.ExpiresAt = pc.ExpiresAt.UTC()
	if pc.ConsumedAt != nil {
		t := pc.ConsumedAt.UTC()
		pc.ConsumedAt = &t
	}
	return pc, nil
}

func upsertPasscode(ctx context.Context, q pgx.Tx, principalID int64, code string, issuedAt time.Time, ttl time.Duration) (entity.Passcode, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO one_time_passcodes (principal_id, code, issued_at, expires_at, consumed, consumed_at)
		VALUES ($1, $2, $3, $4, FALSE, NULL)
		ON CONFLICT (principal_id) DO UPDATE
		SET code = EXCLUDED.code,
		    issued_at = EXCLUDED.issued_at,
		    expires_at = EXCLUDED.expires_at,
		    consumed = FALSE,
		    consumed_at = NULL
		RETURNING `+passcodeColumns,
		principalID, code, issuedAt, issuedAt.Add(ttl))

	return scanPasscode(row)
}

// IssuePasscode stores code as the only passcode of the principal, replacing
// any earlier one, valid for ttl from now.
func (s *DB) IssuePasscode(ctx context.Context, principalID int64, code string, ttl time.Duration) (_ entity.Passcode, err error) {
	ctx, span := s.startSpan(ctx, "IssuePasscode")
	defer func() { s.endSpan(span, err) }()

	var pc entity.Passcode
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		pc, err = upsertPasscode(ctx, tx, principalID, code, s.now(), ttl)
		return s.mapError(err)
	})
	if err != nil {
		return entity.Passcode{}, err
	}

	return pc, nil
}

// FetchPasscode returns the unconsumed passcode of the principal, expired or
// not; callers judge expiry from ExpiresAt. goerror.ErrNotFound when none.
func (s *DB) FetchPasscode(ctx context.Context, principalID int64) (_ entity.Passcode, err error) {
	ctx, span := s.startSpan(ctx, "FetchPasscode")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		SELECT `+passcodeColumns+`
		FROM one_time_passcodes
		WHERE principal_id = $1 AND consumed = FALSE`, principalID)

	pc, err := scanPasscode(row)
	if err != nil {
		return entity.Passcode{}, s.mapError(err)
	}
	return pc, nil
}

// ConsumePasscode accepts code for the principal at most once. The check and
// the consumption are a single conditional UPDATE, so of two concurrent calls
// with the same valid code exactly one gets ConsumeOK. On success the
// principal is marked verified in the same transaction.
//
// NotFound, Expired and Mismatch are returned as outcomes, not errors.
func (s *DB) ConsumePasscode(ctx context.Context, principalID int64, code string, now time.Time) (_ entity.ConsumeResult, err error) {
	ctx, span := s.startSpan(ctx, "ConsumePasscode")
	defer func() { s.endSpan(span, err) }()

	now = now.UTC().Truncate(time.Microsecond)
	var res entity.ConsumeResult

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `
			UPDATE one_time_passcodes
			SET consumed = TRUE, consumed_at = $3
			WHERE principal_id = $1
			  AND code = $2
			  AND consumed = FALSE
			  AND expires_at >= $3
			RETURNING principal_id`, principalID, code, now).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			res.Outcome, err = classifyRejected(ctx, tx, principalID, now)
			return s.mapError(err)
		}
		if err != nil {
			return s.mapError(err)
		}

		row := tx.QueryRow(ctx, `
			UPDATE principals
			SET is_verified = TRUE, updated_at = $2
			WHERE id = $1
			RETURNING `+principalColumns, id, now)

		p, err := scanPrincipal(row)
		if err != nil {
			return s.mapError(err)
		}

		res = entity.ConsumeResult{Outcome: entity.ConsumeOK, Principal: p}
		return nil
	})
	if err != nil {
		return entity.ConsumeResult{}, err
	}

	return res, nil
}

// classifyRejected explains why the conditional update matched nothing.
func classifyRejected(ctx context.Context, tx pgx.Tx, principalID int64, now time.Time) (entity.ConsumeOutcome, error) {
	var (
		expiresAt time.Time
		consumed  bool
	)
	err := tx.QueryRow(ctx, `
		SELECT expires_at, consumed
		FROM one_time_passcodes
		WHERE principal_id = $1`, principalID).Scan(&expiresAt, &consumed)
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.ConsumeNotFound, nil
	}
	if err != nil {
		return entity.ConsumeNotFound, err
	}

	switch {
	case consumed:
		return entity.ConsumeNotFound, nil
	case now.After(expiresAt):
		return entity.ConsumeExpired, nil
	default:
		return entity.ConsumeMismatch, nil
	}
}
