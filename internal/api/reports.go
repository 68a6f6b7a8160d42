package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Spok95/atk-inventory/internal/ledger"
)

const (
	xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvMIME  = "text/csv"
)

func (s *Server) summary(c *fiber.Ctx) error {
	sum, err := s.Reports.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(sum)
}

func (s *Server) usageByDepartment(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return err
	}
	out, err := s.Reports.UsageByDepartment(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) usageByPeriod(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return err
	}
	out, err := s.Reports.UsageByPeriod(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) topItems(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return err
	}
	limit := 10
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	out, err := s.Reports.TopRequestedItems(c.UserContext(), from, to, limit)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) exportItemsXLSX(c *fiber.Ctx) error {
	data, err := s.Reports.ItemsXLSX(c.UserContext())
	if err != nil {
		return err
	}
	return sendFile(c, "items.xlsx", xlsxMIME, data)
}

func (s *Server) exportItemsCSV(c *fiber.Ctx) error {
	data, err := s.Reports.ItemsCSV(c.UserContext())
	if err != nil {
		return err
	}
	return sendFile(c, "items.csv", csvMIME, data)
}

func (s *Server) exportRequestsXLSX(c *fiber.Ctx) error {
	data, err := s.Reports.RequestsXLSX(c.UserContext())
	if err != nil {
		return err
	}
	return sendFile(c, "requests.xlsx", xlsxMIME, data)
}

func (s *Server) exportRequestsCSV(c *fiber.Ctx) error {
	data, err := s.Reports.RequestsCSV(c.UserContext())
	if err != nil {
		return err
	}
	return sendFile(c, "requests.csv", csvMIME, data)
}

func (s *Server) exportTransactionsXLSX(c *fiber.Ctx) error {
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
	data, err := s.Reports.TransactionsXLSX(c.UserContext(), f)
	if err != nil {
		return err
	}
	return sendFile(c, "transactions.xlsx", xlsxMIME, data)
}

func sendFile(c *fiber.Ctx, name, mime string, data []byte) error {
	c.Set(fiber.HeaderContentType, mime)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Send(data)
}
