package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/infrastructure/cache"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/infrastructure/locale"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/infrastructure/persistence"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/auth"
)

const testFrontendURL = "https://app.example.com"

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, to, template string, variables map[string]string) error {
	args := m.Called(to, template, variables)
	return args.Error(0)
}

func (m *mockNotifier) SignalLogout(ctx context.Context, userID int64) error {
	args := m.Called(userID)
	return args.Error(0)
}

type mockERP struct {
	mock.Mock
}

func (m *mockERP) CreateLead(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	args := m.Called(payload)
	result, _ := args.Get(0).(map[string]interface{})
	return result, args.Error(1)
}

func (m *mockERP) CreateOrUpdateAddress(ctx context.Context, customerID int64, payload map[string]interface{}) (map[string]interface{}, error) {
	args := m.Called(customerID, payload)
	result, _ := args.Get(0).(map[string]interface{})
	return result, args.Error(1)
}

func (m *mockERP) RefreshCustomer(ctx context.Context, customerID int64) error {
	args := m.Called(customerID)
	return args.Error(0)
}

// failingStore fails writes, and reads too when failReads is set.
type failingStore struct {
	ports.DocumentStore
	err       error
	failReads bool
}

func (s *failingStore) UpsertByKey(ctx context.Context, collection string, key int64, patch ports.Document) error {
	return s.err
}

func (s *failingStore) FindByKey(ctx context.Context, collection string, key int64, projection []string) (ports.Document, error) {
	if s.failReads {
		return nil, s.err
	}
	return s.DocumentStore.FindByKey(ctx, collection, key, projection)
}

type testEnv struct {
	sm       *ServiceManager
	store    *persistence.MemoryStore
	notifier *mockNotifier
	erp      *mockERP
	retry    *cache.MemoryRetryQueue
	reps     *cache.SalesRepCache
}

// fixedNow is 12:00 PM in New York.
var fixedNow = time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithStore(t, nil)
}

// newTestEnvWithStore wraps the memory store when wrap is set.
func newTestEnvWithStore(t *testing.T, wrap func(ports.DocumentStore) ports.DocumentStore) *testEnv {
	t.Helper()

	env := &testEnv{
		store:    persistence.NewMemoryStore(),
		notifier: new(mockNotifier),
		erp:      new(mockERP),
		retry:    cache.NewMemoryRetryQueue(),
	}
	reps, err := cache.NewSalesRepCache(16)
	require.NoError(t, err)
	env.reps = reps

	var store ports.DocumentStore = env.store
	if wrap != nil {
		store = wrap(store)
	}

	sm, err := NewServiceManager(Dependencies{
		Store:         store,
		Notifier:      env.notifier,
		ERP:           env.erp,
		Locale:        locale.NewHelper("America/New_York", "US").WithClock(func() time.Time { return fixedNow }),
		SalesReps:     env.reps,
		Retry:         env.retry,
		Issuer:        auth.NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 24*time.Hour),
		FrontendURL:   testFrontendURL,
		SearchTimeout: 5 * time.Second,
		RetrySchedule: "*/5 * * * *",
	})
	require.NoError(t, err)

	sync := func(f func()) { f() }
	sm.Engine.async = sync
	sm.Auth.async = sync
	env.sm = sm
	return env
}

func leadRequest(t *testing.T, recordType string, fields map[string]interface{}, addressbook, salesteam interface{}) models.SyncRequest {
	t.Helper()
	req := models.SyncRequest{Type: recordType, Fields: models.ExternalRecord(fields)}
	if addressbook != nil {
		raw, err := json.Marshal(addressbook)
		require.NoError(t, err)
		req.Sublists.AddressBook = raw
	}
	if salesteam != nil {
		raw, err := json.Marshal(salesteam)
		require.NoError(t, err)
		req.Sublists.SalesTeam = raw
	}
	return req
}

func storedLead(t *testing.T, env *testEnv, id int64) *models.CustomerLead {
	t.Helper()
	doc, err := env.store.FindByKey(context.Background(), "customerleads", id, nil)
	require.NoError(t, err)
	require.NotNil(t, doc, "customer lead %d should be stored", id)
	lead, err := models.CustomerLeadFromDocument(doc)
	require.NoError(t, err)
	return lead
}

func seedEmployee(t *testing.T, env *testEnv, id int64, doc ports.Document) {
	t.Helper()
	require.NoError(t, env.store.UpsertByKey(context.Background(), "employees", id, doc))
}

func seedLead(t *testing.T, env *testEnv, id int64, doc ports.Document) {
	t.Helper()
	require.NoError(t, env.store.UpsertByKey(context.Background(), "customerleads", id, doc))
}
