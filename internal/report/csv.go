package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"
)

// ItemsCSV renders the catalog as csv, same columns as ItemsXLSX.
func (s *Service) ItemsCSV(ctx context.Context) ([]byte, error) {
	rows, err := s.StockStatus(ctx)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"id", "name", "category", "unit", "stock", "min_stock", "unit_price", "status"}); err != nil {
		return nil, err
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatInt(r.ID, 10),
			r.Name,
			r.Category,
			r.Unit,
			strconv.FormatInt(r.Stock, 10),
			strconv.FormatInt(r.MinStock, 10),
			strconv.FormatFloat(r.UnitPrice, 'f', -1, 64),
			string(r.Status),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RequestsCSV renders the request queue as csv.
func (s *Service) RequestsCSV(ctx context.Context) ([]byte, error) {
	reqs, err := s.store.ListRequests(ctx, "")
	if err != nil {
		return nil, err
	}
	names, err := s.itemNames(ctx)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"id", "requester", "department", "item", "qty", "status", "requested_at", "processed_at", "reject_reason", "note"}); err != nil {
		return nil, err
	}
	for _, r := range reqs {
		processed := ""
		if r.ProcessedAt != nil {
			processed = r.ProcessedAt.Format(time.RFC3339)
		}
		rec := []string{
			strconv.FormatInt(r.ID, 10),
			r.RequesterName,
			r.Department,
			names[r.ItemID],
			strconv.FormatInt(r.Qty, 10),
			string(r.Status),
			r.RequestedAt.Format(time.RFC3339),
			processed,
			r.RejectReason,
			r.Note,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
