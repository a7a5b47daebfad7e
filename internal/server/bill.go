package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/tallyworks/tally/internal/billing/domain"
	"github.com/tallyworks/tally/internal/providers/pdf"
	"github.com/tallyworks/tally/pkg/money"
)

type createBillRequest struct {
	CustomerName string                   `json:"customer_name"`
	Lines        []billingdomain.CartLine `json:"lines"`
}

func (s *Server) CreateBill(c *gin.Context) {
	var req createBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if len(req.Lines) == 0 {
		AbortWithError(c, newValidationError("lines", "empty_cart", "at least one line is required"))
		return
	}

	resp, err := s.billingSvc.Create(c.Request.Context(), billingdomain.CreateRequest{
		CustomerName: strings.TrimSpace(req.CustomerName),
		Lines:        req.Lines,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if resp == nil {
		c.JSON(http.StatusOK, gin.H{"data": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBills(c *gin.Context) {
	resp, err := s.billingSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBillByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.billingSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type replaceBillItemsRequest struct {
	Lines []billingdomain.CartLine `json:"lines"`
}

func (s *Server) ReplaceBillItems(c *gin.Context) {
	var req replaceBillItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.billingSvc.Edit(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Lines)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteBill(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.billingSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id, "deleted": true}})
}

func (s *Server) GetBillReceipt(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	bill, err := s.billingSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items := make([]pdf.ReceiptItem, 0, len(bill.Items))
	for _, line := range bill.Items {
		unitPrice := ""
		if line.Quantity > 0 {
			unitPrice = money.FormatCents(line.LineTotalCents / int64(line.Quantity))
		}
		items = append(items, pdf.ReceiptItem{
			ProductName: line.ProductName,
			Qty:         line.Quantity,
			UnitPrice:   unitPrice,
			LineTotal:   line.LineTotal,
		})
	}

	doc, err := s.pdfSvc.GenerateReceipt(c.Request.Context(), pdf.ReceiptData{
		StoreName:    s.cfg.AppName,
		BillNumber:   bill.ID,
		BillDate:     bill.BillDate.Format("2006-01-02 15:04"),
		CustomerName: bill.CustomerName,
		Items:        items,
		Total:        bill.Total,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	body, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="receipt-`+bill.ID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", body)
}

func isBillValidationError(err error) bool {
	switch err {
	case billingdomain.ErrInvalidID,
		billingdomain.ErrInvalidQuantity,
		billingdomain.ErrEmptyEdit:
		return true
	default:
		return false
	}
}
