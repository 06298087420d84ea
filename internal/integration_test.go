package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"portshare-backend/config"
	"portshare-backend/internal/api"
	"portshare-backend/internal/db"
	"portshare-backend/internal/identity"
	"portshare-backend/internal/model"
	"portshare-backend/internal/order"
	"portshare-backend/internal/registry"
	"portshare-backend/internal/store"
)

const integrationSecret = "integration-secret"

// memoryNotifier collects transition notifications instead of pushing
// them, so the test can assert who got told what.
type memoryNotifier struct {
	mu     sync.Mutex
	events []string // "recipient:message"
}

func (n *memoryNotifier) NotifyTransition(orderID, recipientID, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recipientID+":"+message)
}

func (n *memoryNotifier) forRecipient(recipientID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, ev := range n.events {
		if strings.HasPrefix(ev, recipientID+":") {
			count++
		}
	}
	return count
}

type integrationEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	notifier *memoryNotifier
}

func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gormDB))

	for _, op := range []model.Operator{
		{ID: "north-telecom", Name: "North Telecom"},
		{ID: "south-fiber", Name: "South Fiber"},
	} {
		require.NoError(t, gormDB.Create(&op).Error)
	}

	reg := registry.New(gormDB)
	appStore := store.NewGormStore(gormDB)
	notifier := &memoryNotifier{}
	svc := order.NewService(appStore, reg, identity.NewGormResolver(gormDB), notifier)

	cfg := &config.Config{}
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Server.CacheTTLSeconds = 1
	cfg.Auth.JWTSecret = integrationSecret

	return &integrationEnv{
		router:   api.NewRouter(appStore, reg, svc, cfg, nil),
		db:       gormDB,
		notifier: notifier,
	}
}

func (e *integrationEnv) request(t *testing.T, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   actor,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := token.SignedString([]byte(integrationSecret))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+signed)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// The full rental lifecycle over HTTP: the owner publishes a cabinet,
// the renter books a port, both sides walk the order to completion.
func TestRentalLifecycleOverHTTP(t *testing.T) {
	e := newIntegrationEnv(t)

	w := e.request(t, "POST", "/api/cabinets", "north-telecom", gin.H{
		"name": "CTO-Centro-01", "totalPorts": 4,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var cabinet model.Cabinet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cabinet))

	w = e.request(t, "GET", fmt.Sprintf("/api/cabinets/%d/ports", cabinet.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ports []model.Port
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ports))
	require.Len(t, ports, 4)
	portID := ports[0].ID

	w = e.request(t, "PUT", fmt.Sprintf("/api/ports/%d/price", portID), "north-telecom", gin.H{
		"monthlyPrice": 55.0,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.request(t, "POST", "/api/orders", "south-fiber", gin.H{
		"portId": portID, "monthlyPrice": 55.0, "installationFee": 120.0,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var o model.RentalOrder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &o))
	assert.Equal(t, model.OrderPendingApproval, o.Status)

	// Creating the order reserved the port.
	var port model.Port
	require.NoError(t, e.db.First(&port, portID).Error)
	assert.Equal(t, model.PortReserved, port.Status)

	steps := []struct {
		actor  string
		action string
		body   any
		status model.OrderStatus
	}{
		{"north-telecom", "approve", nil, model.OrderContractGenerated},
		{"north-telecom", "sign", nil, model.OrderContractGenerated},
		{"south-fiber", "sign", nil, model.OrderContractSigned},
		{"south-fiber", "schedule", gin.H{"scheduledDate": time.Now().Add(48 * time.Hour).Format(time.RFC3339)}, model.OrderInstallationScheduled},
		{"south-fiber", "start", nil, model.OrderInstallationInProgress},
		{"south-fiber", "complete", nil, model.OrderCompleted},
	}
	for _, step := range steps {
		w = e.request(t, "POST", fmt.Sprintf("/api/orders/%s/%s", o.ID, step.action), step.actor, step.body)
		require.Equal(t, http.StatusOK, w.Code, "%s by %s: %s", step.action, step.actor, w.Body.String())
		var got model.RentalOrder
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, step.status, got.Status, "after %s", step.action)
	}

	// Completion occupies the port for the requester and bumps the
	// cabinet counter.
	require.NoError(t, e.db.First(&port, portID).Error)
	assert.Equal(t, model.PortOccupied, port.Status)
	require.NotNil(t, port.TenantID)
	assert.Equal(t, "south-fiber", *port.TenantID)

	require.NoError(t, e.db.First(&cabinet, cabinet.ID).Error)
	assert.Equal(t, 1, cabinet.OccupiedPorts)

	// Every transition told the counterparty; creation told the owner.
	// The renter hears about the approval and the owner's signature.
	// The owner hears about creation, the renter's signature, the
	// scheduling, the installation start and the completion.
	assert.Equal(t, 2, e.notifier.forRecipient("south-fiber"))
	assert.Equal(t, 5, e.notifier.forRecipient("north-telecom"))

	// The full history is on the order.
	w = e.request(t, "GET", "/api/orders/"+o.ID, "south-fiber", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var final model.RentalOrder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &final))
	assert.Len(t, final.Notes, 7)
	assert.NotNil(t, final.CompletedDate)
}

// Rejecting a pending order frees the reserved port again.
func TestRejectionFreesPortOverHTTP(t *testing.T) {
	e := newIntegrationEnv(t)

	w := e.request(t, "POST", "/api/cabinets", "north-telecom", gin.H{
		"name": "CTO-Norte-02", "totalPorts": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var cabinet model.Cabinet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cabinet))

	var port model.Port
	require.NoError(t, e.db.Where("cabinet_id = ?", cabinet.ID).First(&port).Error)

	w = e.request(t, "POST", "/api/orders", "south-fiber", gin.H{"portId": port.ID, "monthlyPrice": 30.0})
	require.Equal(t, http.StatusCreated, w.Code)
	var o model.RentalOrder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &o))

	w = e.request(t, "POST", "/api/orders/"+o.ID+"/reject", "north-telecom", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, e.db.First(&port, port.ID).Error)
	assert.Equal(t, model.PortAvailable, port.Status)
	require.NoError(t, e.db.First(&cabinet, cabinet.ID).Error)
	assert.Equal(t, 0, cabinet.OccupiedPorts)

	// The port can be booked again right away.
	w = e.request(t, "POST", "/api/orders", "south-fiber", gin.H{"portId": port.ID, "monthlyPrice": 30.0})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

// Registering a push subscription and listing it back, then pruning it.
func TestSubscriptionRoundTrip(t *testing.T) {
	e := newIntegrationEnv(t)

	sub := gin.H{
		"endpoint": "https://push.example/north-1",
		"p256dh":   "key-material",
		"auth":     "auth-material",
	}
	w := e.request(t, "PUT", "/api/subscriptions", "north-telecom", sub)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Upserting the same endpoint twice is fine.
	w = e.request(t, "PUT", "/api/subscriptions", "north-telecom", sub)
	require.Equal(t, http.StatusCreated, w.Code)

	var count int64
	require.NoError(t, e.db.Model(&model.PushSubscription{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	w = e.request(t, "GET", "/api/subscriptions", "north-telecom", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://push.example/north-1")

	w = e.request(t, "DELETE", "/api/subscriptions", "north-telecom", gin.H{
		"endpoint": "https://push.example/north-1",
	})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	require.NoError(t, e.db.Model(&model.PushSubscription{}).Count(&count).Error)
	assert.Zero(t, count)
}
