package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/mindjournal/internal/notification/entity"
)

// deliveryLease bounds how long a processing row stays owned by the consumer
// that claimed it. A stale processing row is taken over by the next claim.
const deliveryLease = 2 * time.Minute

const deliveryColumns = `id, principal_id, kind, channel, status, data, COALESCE(error, ''), created_at, updated_at`

func scanDelivery(row pgx.Row) (entity.Delivery, error) {
	var (
		d                     entity.Delivery
		kind, channel, status string
	)
	err := row.Scan(&d.ID, &d.PrincipalID, &kind, &channel, &status, &d.Data, &d.Error, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return entity.Delivery{}, err
	}
	d.Kind = entity.Kind(kind)
	d.Channel = entity.Channel(channel)
	d.Status = entity.DeliveryStatus(status)
	return d, nil
}

// ClaimDelivery hands the delivery for (principal, kind, channel) to the caller
// when claimed is true. A new row is inserted as processing, and an existing
// failed row or a processing row whose lease ran out is taken over by a
// conditional update. Otherwise the existing row is returned with
// claimed=false and nothing is written, so at most one consumer sends at a time.
func (s *DB) ClaimDelivery(ctx context.Context, nd entity.NewDelivery) (_ entity.Delivery, claimed bool, err error) {
	ctx, span := s.startSpan(ctx, "ClaimDelivery")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		INSERT INTO notification_deliveries (id, principal_id, kind, channel, status, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (principal_id, kind, channel) DO NOTHING
		RETURNING `+deliveryColumns,
		nd.ID, nd.PrincipalID, nd.Kind.String(), nd.Channel.String(), entity.DeliveryStatusProcessing.String(), nd.Data)

	d, err := scanDelivery(row)
	if err == nil {
		return d, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return entity.Delivery{}, false, s.mapError(err)
	}

	row = s.conn.QueryRow(ctx, `
		UPDATE notification_deliveries
		SET status = $4, error = NULL, data = $5, updated_at = NOW()
		WHERE principal_id = $1 AND kind = $2 AND channel = $3
		  AND (status = $6 OR (status = $4 AND updated_at < NOW() - make_interval(secs => $7)))
		RETURNING `+deliveryColumns,
		nd.PrincipalID, nd.Kind.String(), nd.Channel.String(), entity.DeliveryStatusProcessing.String(),
		nd.Data, entity.DeliveryStatusFailed.String(), deliveryLease.Seconds())

	d, err = scanDelivery(row)
	if err == nil {
		return d, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return entity.Delivery{}, false, s.mapError(err)
	}

	row = s.conn.QueryRow(ctx, `
		SELECT `+deliveryColumns+`
		FROM notification_deliveries
		WHERE principal_id = $1 AND kind = $2 AND channel = $3`,
		nd.PrincipalID, nd.Kind.String(), nd.Channel.String())

	d, err = scanDelivery(row)
	if err != nil {
		return entity.Delivery{}, false, s.mapError(err)
	}
	return d, false, nil
}

// UpdateDeliveryStatus sets the outcome of a send attempt. errMsg is stored
// only for failures.
func (s *DB) UpdateDeliveryStatus(ctx context.Context, id int64, status entity.DeliveryStatus, errMsg string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateDeliveryStatus")
	defer func() { s.endSpan(span, err) }()

	var errVal *string
	if status == entity.DeliveryStatusFailed && errMsg != "" {
		errVal = &errMsg
	}

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_deliveries
		SET status = $2, error = $3, updated_at = NOW()
		WHERE id = $1`, id, status.String(), errVal)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return s.mapError(pgx.ErrNoRows)
	}
	return nil
}

// ListDeliveries returns the principal's deliveries, newest first.
func (s *DB) ListDeliveries(ctx context.Context, principalID int64) (_ []entity.Delivery, err error) {
	ctx, span := s.startSpan(ctx, "ListDeliveries")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT `+deliveryColumns+`
		FROM notification_deliveries
		WHERE principal_id = $1
		ORDER BY created_at DESC, id DESC`, principalID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var out []entity.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, s.mapError(err)
		}
		out = append(out, d)
	}

	return out, s.mapError(rows.Err())
}
