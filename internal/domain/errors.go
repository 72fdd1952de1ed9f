package domain

// Domain errors
var (
	ErrInvalidQuantity            = &DomainError{Code: "InvalidQuantity", Message: "quantity must be positive"}
	ErrInsufficientAvailableStock = &DomainError{Code: "InsufficientStock", Message: "insufficient stock available"}
	ErrStockLevelNotFound         = &DomainError{Code: "StockLevelNotFound", Message: "stock level not found"}
	ErrOverReceipt                = &DomainError{Code: "OverReceipt", Message: "received quantity exceeds ordered quantity"}
	ErrLedgerWrite                = &DomainError{Code: "LedgerWriteFailure", Message: "failed to append ledger entry"}
	ErrReservationNotFound        = &DomainError{Code: "ReservationNotFound", Message: "reservation not found"}
	ErrInvalidReservationState    = &DomainError{Code: "InvalidReservationState", Message: "reservation is not in a valid state for this operation"}
	ErrCountBelowCommitted        = &DomainError{Code: "CountBelowCommitted", Message: "counted quantity is below reserved quantity"}
	ErrPurchaseOrderNotFound      = &DomainError{Code: "PurchaseOrderNotFound", Message: "purchase order not found"}
	ErrPurchaseOrderLineNotFound  = &DomainError{Code: "PurchaseOrderLineNotFound", Message: "purchase order line not found"}
	ErrInvalidGoodsReceipt        = &DomainError{Code: "InvalidGoodsReceipt", Message: "invalid goods receipt"}
	ErrInvalidStockKey            = &DomainError{Code: "InvalidStockKey", Message: "stock key requires item and warehouse"}
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}
