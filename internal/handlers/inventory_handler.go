package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"warehouse-ledger/internal/domain"
	"warehouse-ledger/internal/inventory"
	"warehouse-ledger/internal/ledger"
	"warehouse-ledger/internal/repository"
	apperrors "warehouse-ledger/pkg/errors"
	"warehouse-ledger/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxLedgerPage = 500

// InventoryHandler serves the picking and counting workflows and the stock reads
type InventoryHandler struct {
	stock        *inventory.StockService
	reservations *inventory.ReservationManager
	store        repository.Store
	reconciler   *ledger.Reconciler
	logger       *zap.Logger
}

func NewInventoryHandler(stock *inventory.StockService, reservations *inventory.ReservationManager, store repository.Store, reconciler *ledger.Reconciler, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		stock:        stock,
		reservations: reservations,
		store:        store,
		reconciler:   reconciler,
		logger:       logger,
	}
}

// RegisterCommands mounts the mutating routes
func (h *InventoryHandler) RegisterCommands(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	{
		stock.POST("/increase", h.IncreaseStock)
		stock.POST("/write-down", h.WriteDown)
		stock.POST("/count", h.RecordCount)
		stock.POST("/relocate", h.Relocate)
		stock.POST("/reserve", h.Reserve)
	}
	reservations := rg.Group("/reservations/:id")
	{
		reservations.POST("/allocate", h.Allocate)
		reservations.POST("/release", h.Release)
		reservations.POST("/cancel", h.Cancel)
		reservations.POST("/pick", h.Pick)
	}
}

// RegisterQueries mounts the read routes
func (h *InventoryHandler) RegisterQueries(rg *gin.RouterGroup) {
	rg.GET("/stock", h.ListStock)
	rg.GET("/reservations/:id", h.GetReservation)
	rg.GET("/ledger", h.ListLedger)
	rg.GET("/reconciliation", h.Reconcile)
}

// IncreaseStock handles POST /stock/increase
// @Summary      Increase stock
// @Description  Adds units at a unit cost, creating the stock level on first receipt. Writes an IN ledger entry.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                false  "Replays the stored response for a repeated key"
// @Param        request          body      IncreaseStockRequest  true   "Stock key, quantity and unit cost"
// @Success      200              {object}  StockLevelResponse
// @Failure      400              {object}  ErrorResponse  "Invalid body or stock key"
// @Failure      401              {object}  ErrorResponse  "Missing or invalid bearer token"
// @Router       /stock/increase [post]
func (h *InventoryHandler) IncreaseStock(c *gin.Context) {
	var req IncreaseStockRequest
	if !bind(c, &req) {
		return
	}
	level, err := h.stock.IncreaseStock(c.Request.Context(), inventory.IncreaseStockCommand{
		Key:         req.StockKey,
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
		Reference:   req.Reference,
		PerformedBy: performer(c, req.PerformedBy),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toStockLevelResponse(level))
}

// WriteDown handles POST /stock/write-down
// @Summary      Write down stock
// @Description  Removes damaged or lost units. Only unreserved units can be written down.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      WriteDownRequest  true  "Stock key and quantity"
// @Success      200      {object}  StockLevelResponse
// @Failure      400      {object}  ErrorResponse  "Invalid body or stock key"
// @Failure      404      {object}  ErrorResponse  "Stock level not found"
// @Failure      409      {object}  ErrorResponse  "Not enough unreserved stock"
// @Router       /stock/write-down [post]
func (h *InventoryHandler) WriteDown(c *gin.Context) {
	var req WriteDownRequest
	if !bind(c, &req) {
		return
	}
	level, err := h.stock.WriteDown(c.Request.Context(), inventory.WriteDownCommand{
		Key:         req.StockKey,
		Quantity:    req.Quantity,
		Reference:   req.Reference,
		PerformedBy: performer(c, req.PerformedBy),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toStockLevelResponse(level))
}

// RecordCount handles POST /stock/count
// @Summary      Record a cycle count
// @Description  Sets on hand to the counted quantity and writes an ADJUSTMENT entry for the difference. A count below reserved units is rejected.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CountRequest  true  "Stock key and counted quantity"
// @Success      200      {object}  StockLevelResponse
// @Failure      400      {object}  ErrorResponse  "Invalid body or stock key"
// @Failure      409      {object}  ErrorResponse  "Count below committed stock"
// @Router       /stock/count [post]
func (h *InventoryHandler) RecordCount(c *gin.Context) {
	var req CountRequest
	if !bind(c, &req) {
		return
	}
	level, err := h.stock.RecordCount(c.Request.Context(), inventory.RecordCountCommand{
		Key:         req.StockKey,
		Counted:     *req.Counted,
		Reference:   req.Reference,
		PerformedBy: performer(c, req.PerformedBy),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toStockLevelResponse(level))
}

// Relocate handles POST /stock/relocate
// @Summary      Relocate a stock level
// @Description  Moves a level to another location, bin, lot or serial. Quantities do not change.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      RelocateRequest  true  "Level id and new assignments"
// @Success      200      {object}  StockLevelResponse
// @Failure      400      {object}  ErrorResponse  "Target key already holds a level"
// @Failure      404      {object}  ErrorResponse  "Stock level not found"
// @Router       /stock/relocate [post]
func (h *InventoryHandler) Relocate(c *gin.Context) {
	var req RelocateRequest
	if !bind(c, &req) {
		return
	}
	level, err := h.stock.Relocate(c.Request.Context(), inventory.RelocateCommand{
		StockLevelID:   req.StockLevelID,
		LocationID:     req.LocationID,
		BinID:          req.BinID,
		LotNumberID:    req.LotNumberID,
		SerialNumberID: req.SerialNumberID,
		PerformedBy:    performer(c, req.PerformedBy),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toStockLevelResponse(level))
}

// Reserve handles POST /stock/reserve
// @Summary      Reserve stock
// @Description  Reserves available units for an order, transfer or production run.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ReserveRequest  true  "Stock key, quantity and reservation type"
// @Success      201      {object}  ReservationResponse
// @Failure      400      {object}  ErrorResponse  "Invalid body or reservation type"
// @Failure      404      {object}  ErrorResponse  "Stock level not found"
// @Failure      409      {object}  ErrorResponse  "Insufficient available stock"
// @Router       /stock/reserve [post]
func (h *InventoryHandler) Reserve(c *gin.Context) {
	var req ReserveRequest
	if !bind(c, &req) {
		return
	}
	typ, err := domain.ParseReservationType(req.Type)
	if err != nil {
		_ = c.Error(apperrors.NewValidationError(err.Error(), "type"))
		return
	}
	var ttl time.Duration
	if req.TTLSeconds != nil {
		ttl = -1
		if *req.TTLSeconds > 0 {
			ttl = time.Duration(*req.TTLSeconds) * time.Second
		}
	}

	reservation, err := h.reservations.Reserve(c.Request.Context(), inventory.ReserveStockCommand{
		Key:        req.StockKey,
		Quantity:   req.Quantity,
		Type:       typ,
		Reference:  req.Reference,
		ReservedBy: performer(c, req.ReservedBy),
		TTL:        ttl,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, toReservationResponse(reservation))
}

type reservationAction func(context.Context, inventory.ReservationCommand) (*domain.Reservation, error)

// Allocate handles POST /reservations/:id/allocate
// @Summary      Allocate a reservation
// @Description  Allocates an active reservation for picking.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true   "Reservation id"
// @Param        request  body      ReservationActionRequest  false  "Optional reason and operator"
// @Success      200      {object}  ReservationResponse
// @Failure      404      {object}  ErrorResponse  "Reservation not found"
// @Failure      409      {object}  ErrorResponse  "Reservation is not in a state that allows this"
// @Router       /reservations/{id}/allocate [post]
func (h *InventoryHandler) Allocate(c *gin.Context) { h.transition(c, h.reservations.Allocate) }

// Release handles POST /reservations/:id/release
// @Summary      Release a reservation
// @Description  Returns the reserved units to available stock.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true   "Reservation id"
// @Param        request  body      ReservationActionRequest  false  "Optional reason and operator"
// @Success      200      {object}  ReservationResponse
// @Failure      404      {object}  ErrorResponse  "Reservation not found"
// @Failure      409      {object}  ErrorResponse  "Reservation is not in a state that allows this"
// @Router       /reservations/{id}/release [post]
func (h *InventoryHandler) Release(c *gin.Context) { h.transition(c, h.reservations.Release) }

// Cancel handles POST /reservations/:id/cancel
// @Summary      Cancel a reservation
// @Description  Cancels an active or allocated reservation.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true   "Reservation id"
// @Param        request  body      ReservationActionRequest  false  "Optional reason and operator"
// @Success      200      {object}  ReservationResponse
// @Failure      404      {object}  ErrorResponse  "Reservation not found"
// @Failure      409      {object}  ErrorResponse  "Reservation is not in a state that allows this"
// @Router       /reservations/{id}/cancel [post]
func (h *InventoryHandler) Cancel(c *gin.Context) { h.transition(c, h.reservations.Cancel) }

// Pick confirms the pick of an allocated reservation and ships its units
// @Summary      Pick a reservation
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true   "Reservation id"
// @Param        request  body      ReservationActionRequest  false  "Optional reason and operator"
// @Success      200      {object}  ReservationResponse
// @Failure      404      {object}  ErrorResponse  "Reservation not found"
// @Failure      409      {object}  ErrorResponse  "Reservation is not allocated"
// @Router       /reservations/{id}/pick [post]
func (h *InventoryHandler) Pick(c *gin.Context) { h.transition(c, h.reservations.Pick) }

func (h *InventoryHandler) transition(c *gin.Context, action reservationAction) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req ReservationActionRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}

	reservation, err := action(c.Request.Context(), inventory.ReservationCommand{
		ReservationID: id,
		Reason:        req.Reason,
		PerformedBy:   performer(c, req.PerformedBy),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(reservation))
}

// GetReservation handles GET /reservations/:id
// @Summary      Get a reservation
// @Tags         reservations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Reservation id"
// @Success      200  {object}  ReservationResponse
// @Failure      404  {object}  ErrorResponse  "Reservation not found"
// @Router       /reservations/{id} [get]
func (h *InventoryHandler) GetReservation(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	reservation, err := h.reservations.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(reservation))
}

// ListStock handles GET /stock?itemId=&warehouseId=
// @Summary      List stock levels
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        itemId       query     string  false  "Item id"
// @Param        warehouseId  query     string  false  "Warehouse id"
// @Success      200          {object}  map[string]interface{}  "stockLevels and count"
// @Failure      400          {object}  ErrorResponse  "Malformed id"
// @Router       /stock [get]
func (h *InventoryHandler) ListStock(c *gin.Context) {
	filter, ok := stockFilter(c)
	if !ok {
		return
	}
	levels, err := h.stock.ListLevels(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response := make([]StockLevelResponse, 0, len(levels))
	for _, level := range levels {
		response = append(response, toStockLevelResponse(level))
	}
	c.JSON(http.StatusOK, gin.H{"stockLevels": response, "count": len(response)})
}

// ListLedger handles GET /ledger?itemId=&warehouseId=&limit=
// @Summary      List ledger entries
// @Description  Entries are ordered by transaction date, then sequence.
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        itemId       query     string  false  "Item id"
// @Param        warehouseId  query     string  false  "Warehouse id"
// @Param        limit        query     int     false  "Page size (max 500)"
// @Success      200          {object}  map[string]interface{}  "entries and count"
// @Failure      400          {object}  ErrorResponse  "Malformed filter"
// @Router       /ledger [get]
func (h *InventoryHandler) ListLedger(c *gin.Context) {
	filter, ok := stockFilter(c)
	if !ok {
		return
	}
	limit := maxLedgerPage
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			_ = c.Error(apperrors.NewValidationError("limit must be a positive integer", "limit"))
			return
		}
		limit = min(n, maxLedgerPage)
	}

	entries, err := h.store.Ledger().List(c.Request.Context(), repository.LedgerFilter{
		ItemID:      filter.ItemID,
		WarehouseID: filter.WarehouseID,
		Limit:       limit,
	})
	if err != nil {
		_ = c.Error(apperrors.NewDatabaseError("list ledger", err))
		return
	}
	response := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		response = append(response, toLedgerEntryResponse(e))
	}
	c.JSON(http.StatusOK, gin.H{"entries": response, "count": len(response)})
}

// Reconcile handles GET /reconciliation
// @Summary      Reconcile ledger against stock levels
// @Description  Replays the ledger per item and warehouse and reports any drift from recorded on hand.
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        itemId       query     string  false  "Item id"
// @Param        warehouseId  query     string  false  "Warehouse id"
// @Success      200          {object}  ledger.Report
// @Router       /reconciliation [get]
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	filter, ok := stockFilter(c)
	if !ok {
		return
	}
	report, err := h.reconciler.Reconcile(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(apperrors.NewDatabaseError("reconcile", err))
		return
	}
	if report.Drifted > 0 {
		h.logger.Warn("On-demand reconciliation found drift",
			zap.Int("drifted", report.Drifted),
			zap.String("requested_by", middleware.Username(c)),
		)
	}
	c.JSON(http.StatusOK, report)
}

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(apperrors.NewInvalidRequest("invalid request body", err.Error()))
		return false
	}
	return true
}

// performer prefers the operator named in the body, then the token subject
func performer(c *gin.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return middleware.Username(c)
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		_ = c.Error(apperrors.NewValidationError("must be a UUID", name))
		return uuid.Nil, false
	}
	return id, true
}

func queryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		_ = c.Error(apperrors.NewValidationError("must be a UUID", name))
		return nil, false
	}
	return &id, true
}

func stockFilter(c *gin.Context) (repository.StockFilter, bool) {
	itemID, ok := queryUUID(c, "itemId")
	if !ok {
		return repository.StockFilter{}, false
	}
	warehouseID, ok := queryUUID(c, "warehouseId")
	if !ok {
		return repository.StockFilter{}, false
	}
	return repository.StockFilter{ItemID: itemID, WarehouseID: warehouseID}, true
}
