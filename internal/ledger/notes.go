package ledger

import (
	"fmt"

	"warehouse-ledger/internal/domain"
)

// ReceiptNotes is the note on a GOODS_RECEIPT entry
func ReceiptNotes(receiptNumber string) string {
	return fmt.Sprintf("Goods received from receipt %s", receiptNumber)
}

func reservedNotes(e *domain.StockReserved) string {
	return fmt.Sprintf("Reserved %d units (available %d → %d)", e.Quantity, e.AvailableBefore(), e.Snapshot.Available)
}

func allocatedNotes(e *domain.StockAllocated) string {
	after := e.Snapshot.Reserved - e.Snapshot.Allocated
	return fmt.Sprintf("Allocated %d units (unallocated %d → %d)", e.Quantity, e.UnallocatedBefore(), after)
}

func updatedNotes(e *domain.StockUpdated) string {
	switch e.Change {
	case domain.ChangeIncrease:
		return fmt.Sprintf("Stock increased by %d units (on hand %d → %d)", e.Quantity, e.QuantityBefore, e.Snapshot.OnHand)
	case domain.ChangeDecrease:
		return fmt.Sprintf("Stock written down by %d units (on hand %d → %d)", e.Quantity, e.QuantityBefore, e.Snapshot.OnHand)
	case domain.ChangeRelease:
		return fmt.Sprintf("Released reservation of %d units (reserved now %d)", e.Quantity, e.Snapshot.Reserved)
	case domain.ChangeCancel:
		return fmt.Sprintf("Cancelled reservation of %d units (reserved now %d)", e.Quantity, e.Snapshot.Reserved)
	case domain.ChangeExpire:
		return fmt.Sprintf("Reservation of %d units expired (reserved now %d)", e.Quantity, e.Snapshot.Reserved)
	case domain.ChangePickConfirmed:
		return fmt.Sprintf("Picked %d units (on hand %d → %d)", e.Quantity, e.QuantityBefore, e.Snapshot.OnHand)
	}
	return string(e.Change)
}

func countedNotes(e *domain.StockCounted) string {
	return fmt.Sprintf("Cycle count %d units (on hand %d → %d, variance %+d)", e.Counted, e.QuantityBefore, e.Counted, e.Variance)
}
