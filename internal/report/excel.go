package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/atk-inventory/internal/ledger"
)

// ItemsXLSX renders the catalog with stock status into a workbook.
func (s *Service) ItemsXLSX(ctx context.Context) ([]byte, error) {
	rows, err := s.StockStatus(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{"id", "name", "category", "unit", "stock", "min_stock", "unit_price", "status"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	row := 2
	for _, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		data := []interface{}{r.ID, r.Name, r.Category, r.Unit, r.Stock, r.MinStock, r.UnitPrice, string(r.Status)}
		if err := f.SetSheetRow(sheet, cell, &data); err != nil {
			return nil, err
		}
		row++
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RequestsXLSX renders the request queue, joining in item names.
func (s *Service) RequestsXLSX(ctx context.Context) ([]byte, error) {
	reqs, err := s.store.ListRequests(ctx, "")
	if err != nil {
		return nil, err
	}
	names, err := s.itemNames(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{"id", "requester", "department", "item", "qty", "status", "requested_at", "processed_at", "reject_reason", "note"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	row := 2
	for _, r := range reqs {
		processed := ""
		if r.ProcessedAt != nil {
			processed = r.ProcessedAt.Format(time.RFC3339)
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		data := []interface{}{
			r.ID, r.RequesterName, r.Department, names[r.ItemID], r.Qty,
			string(r.Status), r.RequestedAt.Format(time.RFC3339), processed, r.RejectReason, r.Note,
		}
		if err := f.SetSheetRow(sheet, cell, &data); err != nil {
			return nil, err
		}
		row++
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TransactionsXLSX renders the ledger, optionally filtered by item and
// date range.
func (s *Service) TransactionsXLSX(ctx context.Context, filter ledger.TxFilter) ([]byte, error) {
	txs, err := s.store.ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}
	names, err := s.itemNames(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{"id", "item", "direction", "qty", "reason", "actor_id", "request_id", "supplier", "unit_price", "created_at"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	row := 2
	for _, t := range txs {
		reqRef := ""
		if t.RequestID != nil {
			reqRef = fmt.Sprintf("%d", *t.RequestID)
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		data := []interface{}{
			t.ID, names[t.ItemID], string(t.Direction), t.Qty, t.Reason,
			t.ActorID, reqRef, t.Supplier, t.UnitPrice, t.CreatedAt.Format(time.RFC3339),
		}
		if err := f.SetSheetRow(sheet, cell, &data); err != nil {
			return nil, err
		}
		row++
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Service) itemNames(ctx context.Context) (map[int64]string, error) {
	its, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(its))
	for _, it := range its {
		names[it.ID] = it.Name
	}
	return names, nil
}
