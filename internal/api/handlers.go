package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Spok95/atk-inventory/internal/auth"
	"github.com/Spok95/atk-inventory/internal/domain/requests"
	"github.com/Spok95/atk-inventory/internal/ledger"
)

func (s *Server) login(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	token, u, err := s.Auth.Login(c.UserContext(), body.Username, body.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"token": token, "user": fiber.Map{
		"id": u.ID, "username": u.Username, "full_name": u.FullName, "role": u.Role,
	}})
}

func (s *Server) register(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	u, err := s.Auth.Register(c.UserContext(), body.Username, body.Password, body.FullName)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": u.ID, "username": u.Username})
}

func (s *Server) listItems(c *fiber.Ctx) error {
	rows, err := s.Reports.StockStatus(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]fiber.Map, 0, len(rows))
	for _, r := range rows {
		out = append(out, fiber.Map{
			"id": r.ID, "name": r.Name, "category": r.Category, "unit": r.Unit,
			"stock": r.Stock, "min_stock": r.MinStock, "unit_price": r.UnitPrice,
			"status": string(r.Status),
		})
	}
	return c.JSON(out)
}

func (s *Server) submitRequest(c *fiber.Ctx) error {
	var body struct {
		RequesterName string `json:"requester_name"`
		Department    string `json:"department"`
		ItemID        int64  `json:"item_id"`
		Qty           int64  `json:"qty"`
		Note          string `json:"note"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	r, err := s.Ledger.SubmitRequest(c.UserContext(), body.RequesterName, body.Department, body.ItemID, body.Qty, body.Note)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(requestJSON(r))
}

func (s *Server) listRequests(c *fiber.Ctx) error {
	status := requests.Status(c.Query("status"))
	list, err := s.Ledger.Store().ListRequests(c.UserContext(), status)
	if err != nil {
		return err
	}
	out := make([]fiber.Map, 0, len(list))
	for i := range list {
		out = append(out, requestJSON(&list[i]))
	}
	return c.JSON(out)
}

func (s *Server) approveRequest(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	r, err := s.Ledger.ApproveRequest(c.UserContext(), id, auth.ActorID(c))
	if err != nil {
		return err
	}
	return c.JSON(requestJSON(r))
}

func (s *Server) rejectRequest(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	r, err := s.Ledger.RejectRequest(c.UserContext(), id, auth.ActorID(c), body.Reason)
	if err != nil {
		return err
	}
	return c.JSON(requestJSON(r))
}

func (s *Server) completeRequest(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	r, err := s.Ledger.CompleteRequest(c.UserContext(), id, auth.ActorID(c))
	if err != nil {
		return err
	}
	return c.JSON(requestJSON(r))
}

func (s *Server) createItem(c *fiber.Ctx) error {
	var body struct {
		Name      string  `json:"name"`
		Category  string  `json:"category"`
		Unit      string  `json:"unit"`
		Stock     int64   `json:"stock"`
		MinStock  int64   `json:"min_stock"`
		UnitPrice float64 `json:"unit_price"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	it, err := s.Ledger.CreateItem(c.UserContext(), body.Name, body.Category, body.Unit, body.Stock, body.MinStock, body.UnitPrice, auth.ActorID(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(it)
}

func (s *Server) updateItem(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var body struct {
		Name      string  `json:"name"`
		Category  string  `json:"category"`
		Unit      string  `json:"unit"`
		MinStock  int64   `json:"min_stock"`
		UnitPrice float64 `json:"unit_price"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	it, err := s.Ledger.UpdateItem(c.UserContext(), id, body.Name, body.Category, body.Unit, body.MinStock, body.UnitPrice)
	if err != nil {
		return err
	}
	return c.JSON(it)
}

func (s *Server) deleteItem(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.Ledger.DeleteItem(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) stockIn(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var body struct {
		Qty       int64   `json:"qty"`
		Reason    string  `json:"reason"`
		Supplier  string  `json:"supplier"`
		UnitPrice float64 `json:"unit_price"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	tr, err := s.Ledger.RecordStockIn(c.UserContext(), id, body.Qty, body.Reason, auth.ActorID(c), ledger.StockInParams{
		Supplier:  body.Supplier,
		UnitPrice: body.UnitPrice,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(tr)
}

func (s *Server) stockOut(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var body struct {
		Qty    int64  `json:"qty"`
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	tr, err := s.Ledger.RecordStockOut(c.UserContext(), id, body.Qty, body.Reason, auth.ActorID(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(tr)
}

func (s *Server) adjustStock(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var body struct {
		NewValue int64  `json:"new_value"`
		Reason   string `json:"reason"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	tr, err := s.Ledger.RecordStockAdjustment(c.UserContext(), id, body.NewValue, body.Reason, auth.ActorID(c))
	if err != nil {
		return err
	}
	if tr == nil {
		// no-change adjustment writes nothing
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusCreated).JSON(tr)
}

func (s *Server) listTransactions(c *fiber.Ctx) error {
	f := ledger.TxFilter{}
	if v := c.Query("item_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid item_id")
		}
		f.ItemID = id
	}
	var err error
	if f.From, f.To, err = dateRange(c); err != nil {
		return err
	}
	txs, err := s.Ledger.Store().ListTransactions(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(txs)
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func dateRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	var from, to time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, "invalid from date, want YYYY-MM-DD")
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, "invalid to date, want YYYY-MM-DD")
		}
		// inclusive end of day
		to = t.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}

func requestJSON(r *requests.Request) fiber.Map {
	m := fiber.Map{
		"id":             r.ID,
		"requester_name": r.RequesterName,
		"department":     r.Department,
		"item_id":        r.ItemID,
		"qty":            r.Qty,
		"note":           r.Note,
		"status":         string(r.Status),
		"requested_at":   r.RequestedAt,
	}
	if r.ProcessedAt != nil {
		m["processed_at"] = r.ProcessedAt
	}
	if r.ProcessedBy != nil {
		m["processed_by"] = *r.ProcessedBy
	}
	if r.RejectReason != "" {
		m["reject_reason"] = r.RejectReason
	}
	return m
}
