package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
)

const parcelColumns = `id, user_id, tracking_number, carrier_slug, label, status, tracking_updated_at, weight_kg, is_archived`

func scanParcel(s scanner) (orders.Parcel, error) {
	var p orders.Parcel
	err := s.Scan(&p.ID, &p.UserID, &p.TrackingNumber, &p.Carrier, &p.Label, &p.Status, &p.TrackingUpdatedAt, &p.WeightKg, &p.IsArchived)
	return p, err
}

func (s *Store) ListParcels(ctx context.Context, userID string, opt orders.ListOptions) ([]orders.Parcel, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+parcelColumns+` FROM parcels
		WHERE user_id = $1`+archiveFilter(opt)+`
		ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, mapErr("list parcels", err)
	}
	defer rows.Close()

	var out []orders.Parcel
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, mapErr("scan parcel", err)
		}
		out = append(out, p)
	}
	return out, mapErr("list parcels", rows.Err())
}

func (s *Store) CreateParcel(ctx context.Context, p *orders.Parcel) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = orders.ParcelCreated
	}
	_, err := s.DB.Exec(ctx, `INSERT INTO parcels(`+parcelColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.UserID, p.TrackingNumber, p.Carrier, p.Label, p.Status, p.TrackingUpdatedAt, p.WeightKg, p.IsArchived)
	return mapErr("create parcel", err)
}

func parcelUpdate(p orders.ParcelPatch) *update {
	u := &update{}
	if p.TrackingNumber != nil {
		u.set("tracking_number", *p.TrackingNumber)
	}
	if p.Carrier != nil {
		u.set("carrier_slug", *p.Carrier)
	}
	if p.Label.Set {
		u.set("label", p.Label.Ptr())
	}
	if p.Status != nil {
		u.set("status", *p.Status)
		u.cols = append(u.cols, "tracking_updated_at = now()")
	}
	if p.WeightKg.Set {
		u.set("weight_kg", p.WeightKg.Ptr())
	}
	if p.IsArchived != nil {
		u.set("is_archived", *p.IsArchived)
	}
	return u
}

func (s *Store) UpdateParcel(ctx context.Context, userID, id string, p orders.ParcelPatch) (orders.Parcel, error) {
	u := parcelUpdate(p)
	var row scanner
	if u.empty() {
		row = s.DB.QueryRow(ctx, `SELECT `+parcelColumns+` FROM parcels WHERE id = $1 AND user_id = $2`, id, userID)
	} else {
		q := fmt.Sprintf(`UPDATE parcels SET %s WHERE id = %s AND user_id = %s RETURNING %s`,
			u.assignments(), u.arg(id), u.arg(userID), parcelColumns)
		row = s.DB.QueryRow(ctx, q, u.args...)
	}
	out, err := scanParcel(row)
	return out, mapErr("parcel", err)
}

// DeleteParcel removes the parcel and its split links; legacy item links are cleared.
func (s *Store) DeleteParcel(ctx context.Context, userID, id string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM parcels WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapErr("delete parcel", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delete parcel %s: %w", id, orders.ErrNotFound)
	}
	return nil
}
