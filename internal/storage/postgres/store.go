// Package postgres implements the ledger store contracts over pgx.
package postgres

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/atk-inventory/internal/domain/inventory"
	"github.com/Spok95/atk-inventory/internal/domain/items"
	"github.com/Spok95/atk-inventory/internal/domain/requests"
	"github.com/Spok95/atk-inventory/internal/domain/users"
	"github.com/Spok95/atk-inventory/internal/ledger"
)

type Store struct{ pool *pgxpool.Pool }

func New(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

// Atomic wraps fn in one database transaction. Row locks taken via the
// FOR UPDATE reads below serialize concurrent units touching the same
// item or request.
func (s *Store) Atomic(ctx context.Context, fn func(tx ledger.Tx) error) error {
	pgtx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = pgtx.Rollback(ctx) }()

	if err := fn(&tx{tx: pgtx}); err != nil {
		return err
	}
	return pgtx.Commit(ctx)
}

const itemCols = `id, name, category, unit, stock, min_stock, unit_price, created_at, updated_at`

func scanItem(row pgx.Row) (*items.Item, error) {
	var it items.Item
	if err := row.Scan(&it.ID, &it.Name, &it.Category, &it.Unit, &it.Stock, &it.MinStock, &it.UnitPrice, &it.CreatedAt, &it.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &it, nil
}

func (s *Store) GetItem(ctx context.Context, id int64) (*items.Item, error) {
	return scanItem(s.pool.QueryRow(ctx, `SELECT `+itemCols+` FROM items WHERE id = $1`, id))
}

func (s *Store) ListItems(ctx context.Context) ([]items.Item, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+itemCols+` FROM items ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []items.Item
	for rows.Next() {
		var it items.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Category, &it.Unit, &it.Stock, &it.MinStock, &it.UnitPrice, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

const requestCols = `id, requester_name, department, item_id, qty, note, status, requested_at, processed_at, processed_by, reject_reason`

func scanRequest(row pgx.Row) (*requests.Request, error) {
	var r requests.Request
	if err := row.Scan(&r.ID, &r.RequesterName, &r.Department, &r.ItemID, &r.Qty, &r.Note, &r.Status, &r.RequestedAt, &r.ProcessedAt, &r.ProcessedBy, &r.RejectReason); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

func (s *Store) GetRequest(ctx context.Context, id int64) (*requests.Request, error) {
	return scanRequest(s.pool.QueryRow(ctx, `SELECT `+requestCols+` FROM requests WHERE id = $1`, id))
}

func (s *Store) ListRequests(ctx context.Context, status requests.Status) ([]requests.Request, error) {
	q := `SELECT ` + requestCols + ` FROM requests`
	args := []any{}
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, string(status))
	}
	q += ` ORDER BY id DESC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []requests.Request
	for rows.Next() {
		var r requests.Request
		if err := rows.Scan(&r.ID, &r.RequesterName, &r.Department, &r.ItemID, &r.Qty, &r.Note, &r.Status, &r.RequestedAt, &r.ProcessedAt, &r.ProcessedBy, &r.RejectReason); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const txCols = `id, item_id, direction, qty, reason, actor_id, request_id, supplier, unit_price, created_at`

func (s *Store) ListTransactions(ctx context.Context, f ledger.TxFilter) ([]inventory.Transaction, error) {
	q := `SELECT ` + txCols + ` FROM stock_transactions WHERE TRUE`
	args := []any{}
	n := 0
	add := func(cond string, v any) {
		n++
		args = append(args, v)
		q += ` AND ` + cond + `$` + strconv.Itoa(n)
	}
	if f.ItemID != 0 {
		add(`item_id = `, f.ItemID)
	}
	if !f.From.IsZero() {
		add(`created_at >= `, f.From)
	}
	if !f.To.IsZero() {
		add(`created_at <= `, f.To)
	}
	q += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []inventory.Transaction
	for rows.Next() {
		var t inventory.Transaction
		if err := rows.Scan(&t.ID, &t.ItemID, &t.Direction, &t.Qty, &t.Reason, &t.ActorID, &t.RequestID, &t.Supplier, &t.UnitPrice, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) SumTransactions(ctx context.Context, itemID int64) (int64, error) {
	var sum int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(qty), 0) FROM stock_transactions WHERE item_id = $1
	`, itemID).Scan(&sum)
	return sum, err
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*users.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, full_name, role, created_at
		FROM admin_users WHERE username = $1
	`, username)
	var u users.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u users.User) (*users.User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO admin_users (username, password_hash, full_name, role)
		VALUES ($1,$2,$3,$4)
		RETURNING id, username, password_hash, full_name, role, created_at
	`, u.Username, u.PasswordHash, u.FullName, string(u.Role))
	var out users.User
	if err := row.Scan(&out.ID, &out.Username, &out.PasswordHash, &out.FullName, &out.Role, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

type tx struct{ tx pgx.Tx }

func (t *tx) GetItemForUpdate(ctx context.Context, id int64) (*items.Item, error) {
	return scanItem(t.tx.QueryRow(ctx, `SELECT `+itemCols+` FROM items WHERE id = $1 FOR UPDATE`, id))
}

func (t *tx) InsertItem(ctx context.Context, it items.Item) (*items.Item, error) {
	return scanItem(t.tx.QueryRow(ctx, `
		INSERT INTO items (name, category, unit, stock, min_stock, unit_price)
		VALUES ($1,$2,$3,0,$4,$5)
		RETURNING `+itemCols, it.Name, it.Category, it.Unit, it.MinStock, it.UnitPrice))
}

func (t *tx) UpdateItemInfo(ctx context.Context, it items.Item) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE items SET name=$2, category=$3, unit=$4, min_stock=$5, unit_price=$6, updated_at=now()
		WHERE id=$1
	`, it.ID, it.Name, it.Category, it.Unit, it.MinStock, it.UnitPrice)
	return err
}

func (t *tx) SetItemStock(ctx context.Context, id int64, stock int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE items SET stock=$2, updated_at=now() WHERE id=$1`, id, stock)
	return err
}

func (t *tx) DeleteItem(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM items WHERE id=$1`, id)
	return err
}

func (t *tx) CountItemRefs(ctx context.Context, itemID int64) (int64, int64, error) {
	var reqs, txs int64
	err := t.tx.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM requests WHERE item_id = $1),
			(SELECT COUNT(*) FROM stock_transactions WHERE item_id = $1)
	`, itemID).Scan(&reqs, &txs)
	return reqs, txs, err
}

func (t *tx) InsertRequest(ctx context.Context, r requests.Request) (*requests.Request, error) {
	return scanRequest(t.tx.QueryRow(ctx, `
		INSERT INTO requests (requester_name, department, item_id, qty, note, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING `+requestCols, r.RequesterName, r.Department, r.ItemID, r.Qty, r.Note, string(r.Status)))
}

func (t *tx) GetRequestForUpdate(ctx context.Context, id int64) (*requests.Request, error) {
	return scanRequest(t.tx.QueryRow(ctx, `SELECT `+requestCols+` FROM requests WHERE id = $1 FOR UPDATE`, id))
}

func (t *tx) UpdateRequestDecision(ctx context.Context, r requests.Request) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE requests SET status=$2, processed_at=$3, processed_by=$4, reject_reason=$5
		WHERE id=$1
	`, r.ID, string(r.Status), r.ProcessedAt, r.ProcessedBy, r.RejectReason)
	return err
}

func (t *tx) InsertTransaction(ctx context.Context, tr inventory.Transaction) (*inventory.Transaction, error) {
	row := t.tx.QueryRow(ctx, `
		INSERT INTO stock_transactions (item_id, direction, qty, reason, actor_id, request_id, supplier, unit_price)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+txCols, tr.ItemID, string(tr.Direction), tr.Qty, tr.Reason, tr.ActorID, tr.RequestID, tr.Supplier, tr.UnitPrice)
	var out inventory.Transaction
	if err := row.Scan(&out.ID, &out.ItemID, &out.Direction, &out.Qty, &out.Reason, &out.ActorID, &out.RequestID, &out.Supplier, &out.UnitPrice, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}
