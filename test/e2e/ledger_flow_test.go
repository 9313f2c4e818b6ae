package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/baki-ledger/internal/app"
	"github.com/nimasrn/baki-ledger/internal/config"
	"github.com/nimasrn/baki-ledger/internal/feed"
	"github.com/nimasrn/baki-ledger/internal/handlers"
	"github.com/nimasrn/baki-ledger/internal/model"
	"github.com/nimasrn/baki-ledger/pkg/db"
	xhttp "github.com/nimasrn/baki-ledger/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type TestEnvironment struct {
	App    *app.App
	Redis  *miniredis.Miniredis
	Client *fasthttp.Client
}

// setupE2EEnvironment serves the full API over an in-memory listener, backed
// by a private SQLite ledger and miniredis.
func setupE2EEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	mr := miniredis.RunT(t)
	a, err := app.Open(context.Background(), &config.Config{
		AppName:                 "baki-e2e",
		DBDriver:                db.DriverSQLite,
		SQLitePath:              db.MemoryPath,
		RedisAddr:               mr.Addr(),
		RedisUniversalKeyPrefix: "e2e:",
		RenamePolicy:            "reject",
		RecentWindowHours:       168,
		IdempotencyTTLSeconds:   60,
		FeedStream:              "ledger:events",
		FeedMaxLen:              100,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	s := xhttp.CreateServer()
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	g := s.Router.Group("/api/v1")
	handlers.RegisterLedgerRoutes(g, handlers.NewLedgerHandler(a.Ledger))
	handlers.RegisterReportRoutes(g, handlers.NewReportHandler(a.Report))
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(a.DB))
	s.DoRouting()

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = s.Server.Serve(ln) }()
	t.Cleanup(func() {
		_ = s.Server.Shutdown()
		_ = ln.Close()
	})

	return &TestEnvironment{
		App:   a,
		Redis: mr,
		Client: &fasthttp.Client{
			Dial: func(string) (net.Conn, error) { return ln.Dial() },
		},
	}
}

type response struct {
	status    int
	body      []byte
	requestID string
}

func (env *TestEnvironment) do(t *testing.T, method, path string, body any, headers map[string]string) response {
	t.Helper()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://ledger" + path)
	req.Header.SetMethod(method)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		req.Header.SetContentType("application/json")
		req.SetBody(b)
	}

	require.NoError(t, env.Client.Do(req, resp))
	return response{
		status:    resp.StatusCode(),
		body:      append([]byte(nil), resp.Body()...),
		requestID: string(resp.Header.Peek(xhttp.HeaderRequestID)),
	}
}

func decode[T any](t *testing.T, r response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(r.body, &v), string(r.body))
	return v
}

func entry(name, item string, price, paid any) map[string]any {
	return map[string]any{
		"customer_name": name,
		"item_name":     item,
		"item_price":    price,
		"amount_paid":   paid,
	}
}

func TestLedgerFlow(t *testing.T) {
	env := setupE2EEnvironment(t)
	ctx := context.Background()

	// a form submitted twice records one transaction
	key := map[string]string{handlers.HeaderIdempotencyKey: "form-1"}
	first := env.do(t, fasthttp.MethodPost, "/api/v1/transactions", entry("Asha", "rice", 100, "40"), key)
	require.Equal(t, fasthttp.StatusCreated, first.status, string(first.body))
	assert.NotEmpty(t, first.requestID)
	rice := decode[model.Transaction](t, first)
	assert.Equal(t, int64(60), rice.Credit)

	replay := env.do(t, fasthttp.MethodPost, "/api/v1/transactions", entry("Asha", "rice", 100, "40"), key)
	require.Equal(t, fasthttp.StatusCreated, replay.status)
	assert.Equal(t, rice.ID, decode[model.Transaction](t, replay).ID)

	// name variants resolve to one customer
	oil := env.do(t, fasthttp.MethodPost, "/api/v1/transactions", entry("  ASHA ", "oil", 50, 50), nil)
	require.Equal(t, fasthttp.StatusCreated, oil.status, string(oil.body))
	assert.Equal(t, rice.CustomerID, decode[model.Transaction](t, oil).CustomerID)

	sugar := env.do(t, fasthttp.MethodPost, "/api/v1/transactions", entry("Ravi", "sugar", 300, 0), nil)
	require.Equal(t, fasthttp.StatusCreated, sugar.status, string(sugar.body))
	raviID := decode[model.Transaction](t, sugar).CustomerID

	bad := env.do(t, fasthttp.MethodPost, "/api/v1/transactions", entry("Ravi", "ink", "12.5", 0), nil)
	assert.Equal(t, fasthttp.StatusBadRequest, bad.status)

	dash := decode[model.DashboardStats](t, env.do(t, fasthttp.MethodGet, "/api/v1/dashboard", nil, nil))
	assert.Equal(t, int64(360), dash.TotalOutstanding)
	require.NotNil(t, dash.TopCustomer)
	assert.Equal(t, raviID, dash.TopCustomer.ID)
	require.NotNil(t, dash.MostFrequentCustomer)

	// renaming onto a taken name is rejected
	conflict := env.do(t, fasthttp.MethodPut, fmt.Sprintf("/api/v1/customers/%d", rice.CustomerID), map[string]string{"name": "ravi"}, nil)
	assert.Equal(t, fasthttp.StatusConflict, conflict.status)

	del := env.do(t, fasthttp.MethodDelete, fmt.Sprintf("/api/v1/transactions/%d", rice.ID), nil, nil)
	assert.Equal(t, fasthttp.StatusNoContent, del.status)

	asha := decode[model.Customer](t, env.do(t, fasthttp.MethodGet, fmt.Sprintf("/api/v1/customers/%d", rice.CustomerID), nil, nil))
	assert.Equal(t, int64(0), asha.TotalCredit)
	assert.Equal(t, "Asha", asha.DisplayName)

	missing := env.do(t, fasthttp.MethodGet, fmt.Sprintf("/api/v1/transactions/%d", rice.ID), nil, nil)
	assert.Equal(t, fasthttp.StatusNotFound, missing.status)

	health := env.do(t, fasthttp.MethodGet, "/api/v1/health", nil, nil)
	assert.Equal(t, fasthttp.StatusOK, health.status)

	drifts, err := env.App.Report.Audit(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)

	events, err := env.App.Feed.Read(ctx, "0", 10)
	require.NoError(t, err)
	types := make([]feed.EventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []feed.EventType{
		feed.TransactionAdded,
		feed.TransactionAdded,
		feed.TransactionAdded,
		feed.TransactionDeleted,
	}, types)
}
