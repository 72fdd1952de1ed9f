package handlers

import (
	"net/http"

	"warehouse-ledger/internal/domain"
	"warehouse-ledger/internal/receiving"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReceiptHandler accepts completed goods receipts and reports purchase order progress
type ReceiptHandler struct {
	processor *receiving.Processor
	tracker   *receiving.PurchaseOrderFulfillmentTracker
	logger    *zap.Logger
}

func NewReceiptHandler(processor *receiving.Processor, tracker *receiving.PurchaseOrderFulfillmentTracker, logger *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{processor: processor, tracker: tracker, logger: logger}
}

func (h *ReceiptHandler) RegisterCommands(rg *gin.RouterGroup) {
	rg.POST("/receipts", h.ProcessReceipt)
	rg.POST("/purchase-orders/:id/recompute", h.RecomputeStatus)
}

func (h *ReceiptHandler) RegisterQueries(rg *gin.RouterGroup) {
	rg.GET("/purchase-orders/:id/fulfillment", h.GetFulfillment)
}

// ProcessReceipt handles POST /receipts. A redelivered receipt answers 200
// with duplicate=true and changes nothing.
// @Summary      Process a goods receipt
// @Description  Applies a completed goods receipt to purchase order lines, stock levels and the ledger in one transaction. Over-receipts follow the configured policy and are listed in overages.
// @Tags         receiving
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.GoodsReceipt  true  "Completed goods receipt"
// @Success      201      {object}  receiving.Result
// @Success      200      {object}  receiving.Result  "Duplicate or empty receipt"
// @Failure      400      {object}  ErrorResponse  "Invalid receipt"
// @Failure      422      {object}  ErrorResponse  "Over-receipt rejected"
// @Router       /receipts [post]
func (h *ReceiptHandler) ProcessReceipt(c *gin.Context) {
	var receipt domain.GoodsReceipt
	if !bind(c, &receipt) {
		return
	}
	receipt.PerformedBy = performer(c, receipt.PerformedBy)

	result, err := h.processor.Process(c.Request.Context(), &receipt)
	if err != nil {
		_ = c.Error(err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate || result.Skipped {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// RecomputeStatus handles POST /purchase-orders/:id/recompute
// @Summary      Recompute purchase order status
// @Tags         receiving
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Purchase order id"
// @Success      200  {object}  map[string]interface{}  "orderId, status and transition"
// @Failure      404  {object}  ErrorResponse  "Purchase order not found"
// @Router       /purchase-orders/{id}/recompute [post]
func (h *ReceiptHandler) RecomputeStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	order, transition, err := h.tracker.Recompute(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orderId":    order.ID,
		"status":     order.Status,
		"transition": transition,
	})
}

// GetFulfillment handles GET /purchase-orders/:id/fulfillment
// @Summary      Purchase order fulfillment
// @Tags         receiving
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Purchase order id"
// @Success      200  {object}  receiving.Fulfillment
// @Failure      404  {object}  ErrorResponse  "Purchase order not found"
// @Router       /purchase-orders/{id}/fulfillment [get]
func (h *ReceiptHandler) GetFulfillment(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	fulfillment, err := h.tracker.Fulfillment(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, fulfillment)
}
