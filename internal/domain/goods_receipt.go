package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GoodsReceipt is the "goods receipt completed" payload emitted by the receiving workflow
type GoodsReceipt struct {
	ID              uuid.UUID          `json:"id" validate:"required"`
	ReceiptNumber   string             `json:"receiptNumber" validate:"required,max=100"`
	WarehouseID     uuid.UUID          `json:"warehouseId" validate:"required"`
	LocationID      *uuid.UUID         `json:"locationId,omitempty"`
	PurchaseOrderID *uuid.UUID         `json:"purchaseOrderId,omitempty"`
	ReceivedDate    time.Time          `json:"receivedDate"`
	PerformedBy     string             `json:"performedBy,omitempty" validate:"max=100"`
	Items           []GoodsReceiptItem `json:"items" validate:"dive"`
}

// GoodsReceiptItem is one received line
type GoodsReceiptItem struct {
	ItemID              uuid.UUID       `json:"itemId" validate:"required"`
	Quantity            int64           `json:"quantity" validate:"gt=0"`
	UnitCost            decimal.Decimal `json:"unitCost"`
	PurchaseOrderItemID *uuid.UUID      `json:"purchaseOrderItemId,omitempty"`
}

var receiptValidator = validator.New()

// Validate checks struct tags and the rules tags cannot express
func (r *GoodsReceipt) Validate() error {
	if err := receiptValidator.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidGoodsReceipt, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidGoodsReceipt, err)
	}
	for i, item := range r.Items {
		if item.UnitCost.IsNegative() {
			return fmt.Errorf("%w: items[%d] unit cost is negative", ErrInvalidGoodsReceipt, i)
		}
	}
	return nil
}

// StockKey returns the key a line is received into
func (r *GoodsReceipt) StockKey(item GoodsReceiptItem) StockKey {
	return StockKey{ItemID: item.ItemID, WarehouseID: r.WarehouseID, LocationID: r.LocationID}
}
