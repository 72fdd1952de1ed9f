package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"warehouse-ledger/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestFromDomain_Statuses(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{domain.ErrInvalidQuantity, "InvalidQuantity", http.StatusBadRequest},
		{fmt.Errorf("%w: available 4, requested 6", domain.ErrInsufficientAvailableStock), "InsufficientStock", http.StatusConflict},
		{domain.ErrStockLevelNotFound, "StockLevelNotFound", http.StatusNotFound},
		{domain.ErrReservationNotFound, "ReservationNotFound", http.StatusNotFound},
		{domain.ErrOverReceipt, "OverReceipt", http.StatusUnprocessableEntity},
		{domain.ErrInvalidGoodsReceipt, "InvalidGoodsReceipt", http.StatusBadRequest},
		{domain.ErrInvalidReservationState, "InvalidReservationState", http.StatusConflict},
		{stderrors.New("disk on fire"), "InternalError", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			stdErr := FromDomain(tt.err)
			assert.Equal(t, tt.code, stdErr.Code)
			assert.Equal(t, tt.status, stdErr.HTTPStatus())
		})
	}
}

func TestFromDomain_KeepsWrappedDetails(t *testing.T) {
	err := fmt.Errorf("%w: available 4, requested 6", domain.ErrInsufficientAvailableStock)

	stdErr := FromDomain(err)

	assert.Equal(t, "insufficient stock available", stdErr.Message)
	assert.Contains(t, stdErr.Details, "requested 6")
}

func TestFromDomain_PassesStandardErrorThrough(t *testing.T) {
	original := NewInvalidRequest("bad body", "quantity")

	assert.Same(t, original, FromDomain(fmt.Errorf("wrapped: %w", original)))
}
