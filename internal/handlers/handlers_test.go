package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"warehouse-ledger/internal/auth"
	"warehouse-ledger/internal/domain"
	"warehouse-ledger/internal/events"
	"warehouse-ledger/internal/inventory"
	"warehouse-ledger/internal/ledger"
	"warehouse-ledger/internal/lock"
	"warehouse-ledger/internal/receiving"
	"warehouse-ledger/internal/repository"
	"warehouse-ledger/internal/sequence"
	"warehouse-ledger/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testAPI struct {
	router *gin.Engine
	store  *repository.MemoryStore
	token  string
}

func setupTestRouter(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	store := repository.NewMemoryStore()
	dispatcher := events.NewDispatcher(events.NewInMemoryEventPublisher(logger), logger)
	allocator := sequence.NewMemoryAllocator()
	ledger.NewWriter(store, allocator, logger).Register(dispatcher)
	locker := lock.NewLocalLocker()

	stock := inventory.NewStockService(store, dispatcher, locker, 3, logger)
	reservations := inventory.NewReservationManager(stock, allocator, time.Hour, logger)
	tracker := receiving.NewPurchaseOrderFulfillmentTracker(store, logger)
	processor := receiving.NewProcessor(store, allocator, tracker, dispatcher, locker,
		receiving.ProcessorConfig{Policy: domain.OverReceiptReject, MaxRetries: 3}, logger)

	jwtManager := auth.NewJWTManager("test-secret-key-with-at-least-32-chars", time.Minute, logger)
	token, err := jwtManager.GenerateToken("clerk-9")
	require.NoError(t, err)

	inventoryHandler := NewInventoryHandler(stock, reservations, store, ledger.NewReconciler(store, logger), logger)
	receiptHandler := NewReceiptHandler(processor, tracker, logger)

	router := gin.New()
	router.Use(middleware.ErrorHandler(logger))
	v1 := router.Group("/api/v1")
	NewMonitoringHandler("warehouse-ledger", map[string]Pinger{"store": store}, nil, logger).Register(v1)
	inventoryHandler.RegisterQueries(v1)
	receiptHandler.RegisterQueries(v1)
	commands := v1.Group("")
	commands.Use(middleware.AuthMiddleware(jwtManager, logger))
	inventoryHandler.RegisterCommands(commands)
	receiptHandler.RegisterCommands(commands)

	return &testAPI{router: router, store: store, token: token}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, w, &body)
	return body["error"]
}

func receiptBody(itemID, warehouseID uuid.UUID, qty int64, lineID *uuid.UUID) map[string]interface{} {
	item := map[string]interface{}{"itemId": itemID, "quantity": qty, "unitCost": "2.50"}
	if lineID != nil {
		item["purchaseOrderItemId"] = lineID
	}
	return map[string]interface{}{
		"id":            uuid.New(),
		"receiptNumber": "GR-" + uuid.NewString()[:8],
		"warehouseId":   warehouseID,
		"items":         []interface{}{item},
	}
}

func TestAPI_ReceiveReservePick(t *testing.T) {
	api := setupTestRouter(t)
	itemID, warehouseID := uuid.New(), uuid.New()

	w := api.do(t, http.MethodPost, "/api/v1/receipts", receiptBody(itemID, warehouseID, 50, nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var result receiving.Result
	decode(t, w, &result)
	require.Len(t, result.TransactionNumbers, 1)

	w = api.do(t, http.MethodPost, "/api/v1/stock/reserve", map[string]interface{}{
		"itemId": itemID, "warehouseId": warehouseID, "quantity": 10, "reference": "SO-77",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reservation ReservationResponse
	decode(t, w, &reservation)
	assert.Equal(t, "Active", reservation.Status)
	assert.Equal(t, "clerk-9", reservation.ReservedBy)
	assert.Regexp(t, `^RES-\d{8}-\d{8}$`, reservation.ReservationNumber)

	w = api.do(t, http.MethodPost, "/api/v1/reservations/"+reservation.ID.String()+"/allocate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = api.do(t, http.MethodPost, "/api/v1/reservations/"+reservation.ID.String()+"/pick", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &reservation)
	assert.Equal(t, "Fulfilled", reservation.Status)

	w = api.do(t, http.MethodGet, "/api/v1/stock?itemId="+itemID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		StockLevels []StockLevelResponse `json:"stockLevels"`
	}
	decode(t, w, &list)
	require.Len(t, list.StockLevels, 1)
	assert.Equal(t, int64(40), list.StockLevels[0].QuantityOnHand)
	assert.Zero(t, list.StockLevels[0].QuantityReserved)

	w = api.do(t, http.MethodGet, "/api/v1/ledger?itemId="+itemID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ledgerList struct {
		Entries []LedgerEntryResponse `json:"entries"`
	}
	decode(t, w, &ledgerList)
	require.NotEmpty(t, ledgerList.Entries)
	assert.Equal(t, "GOODS_RECEIPT", ledgerList.Entries[0].Reason)
	assert.True(t, ledgerList.Entries[0].TotalCost.Equal(decimal.NewFromInt(125)))

	w = api.do(t, http.MethodGet, "/api/v1/reconciliation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report ledger.Report
	decode(t, w, &report)
	assert.Zero(t, report.Drifted)
}

func TestAPI_ErrorMapping(t *testing.T) {
	api := setupTestRouter(t)
	itemID, warehouseID := uuid.New(), uuid.New()
	w := api.do(t, http.MethodPost, "/api/v1/stock/increase", map[string]interface{}{
		"itemId": itemID, "warehouseId": warehouseID, "quantity": 5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{
			name:   "insufficient stock",
			path:   "/api/v1/stock/reserve",
			body:   map[string]interface{}{"itemId": itemID, "warehouseId": warehouseID, "quantity": 6},
			status: http.StatusConflict,
			code:   "InsufficientStock",
		},
		{
			name:   "unknown stock level",
			path:   "/api/v1/stock/reserve",
			body:   map[string]interface{}{"itemId": uuid.New(), "warehouseId": warehouseID, "quantity": 1},
			status: http.StatusNotFound,
			code:   "StockLevelNotFound",
		},
		{
			name:   "zero quantity",
			path:   "/api/v1/stock/write-down",
			body:   map[string]interface{}{"itemId": itemID, "warehouseId": warehouseID, "quantity": 0},
			status: http.StatusBadRequest,
			code:   "InvalidQuantity",
		},
		{
			name:   "unknown reservation type",
			path:   "/api/v1/stock/reserve",
			body:   map[string]interface{}{"itemId": itemID, "warehouseId": warehouseID, "quantity": 1, "type": "Gift"},
			status: http.StatusBadRequest,
			code:   "ValidationError",
		},
		{
			name:   "malformed body",
			path:   "/api/v1/stock/count",
			body:   map[string]interface{}{"itemId": "not-a-uuid"},
			status: http.StatusBadRequest,
			code:   "InvalidRequest",
		},
		{
			name:   "unknown reservation",
			path:   "/api/v1/reservations/" + uuid.NewString() + "/cancel",
			status: http.StatusNotFound,
			code:   "ReservationNotFound",
		},
		{
			name:   "invalid receipt",
			path:   "/api/v1/receipts",
			body:   map[string]interface{}{"id": uuid.New(), "warehouseId": warehouseID},
			status: http.StatusBadRequest,
			code:   "InvalidGoodsReceipt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestAPI_CancelTwiceIsRejected(t *testing.T) {
	api := setupTestRouter(t)
	itemID, warehouseID := uuid.New(), uuid.New()
	api.do(t, http.MethodPost, "/api/v1/stock/increase", map[string]interface{}{
		"itemId": itemID, "warehouseId": warehouseID, "quantity": 8,
	})
	w := api.do(t, http.MethodPost, "/api/v1/stock/reserve", map[string]interface{}{
		"itemId": itemID, "warehouseId": warehouseID, "quantity": 3,
	})
	var reservation ReservationResponse
	decode(t, w, &reservation)

	path := "/api/v1/reservations/" + reservation.ID.String() + "/cancel"
	w = api.do(t, http.MethodPost, path, map[string]string{"reason": "customer changed mind"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &reservation)
	assert.Equal(t, "customer changed mind", reservation.ReleaseReason)

	w = api.do(t, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "InvalidReservationState", errorCode(t, w))

	level, err := api.store.StockLevels().GetForUpdate(context.Background(), domain.StockKey{ItemID: itemID, WarehouseID: warehouseID})
	require.NoError(t, err)
	assert.Zero(t, level.QuantityReserved)
}

func TestAPI_ReceiptAgainstPurchaseOrder(t *testing.T) {
	api := setupTestRouter(t)
	itemID, warehouseID := uuid.New(), uuid.New()
	po := domain.NewPurchaseOrder("PO-3001", nil)
	line := po.AddItem(itemID, 10, decimal.NewFromInt(2))
	require.NoError(t, api.store.PurchaseOrders().Save(context.Background(), po))

	over := receiptBody(itemID, warehouseID, 11, &line.ID)
	w := api.do(t, http.MethodPost, "/api/v1/receipts", over)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "OverReceipt", errorCode(t, w))

	exact := receiptBody(itemID, warehouseID, 10, &line.ID)
	w = api.do(t, http.MethodPost, "/api/v1/receipts", exact)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/v1/receipts", exact)
	require.Equal(t, http.StatusOK, w.Code)
	var result receiving.Result
	decode(t, w, &result)
	assert.True(t, result.Duplicate)

	w = api.do(t, http.MethodGet, "/api/v1/purchase-orders/"+po.ID.String()+"/fulfillment", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fulfillment receiving.Fulfillment
	decode(t, w, &fulfillment)
	assert.Equal(t, domain.PurchaseOrderReceived, fulfillment.Status)
	assert.True(t, fulfillment.FullyReceived)

	w = api.do(t, http.MethodPost, "/api/v1/purchase-orders/"+po.ID.String()+"/recompute", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recompute map[string]interface{}
	decode(t, w, &recompute)
	assert.Nil(t, recompute["transition"])
}

func TestAPI_CommandsRequireToken(t *testing.T) {
	api := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stock/count", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", errorCode(t, w))
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewMonitoringHandler("warehouse-ledger", map[string]Pinger{
		"store": repository.NewMemoryStore(),
		"redis": failingPinger{},
	}, nil, zap.NewNop()).Register(router.Group("/api/v1"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	decode(t, w, &body)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "up", body.Dependencies["store"])
	assert.Equal(t, "down", body.Dependencies["redis"])
}
