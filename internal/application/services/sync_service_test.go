package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/constants"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/errors"
)

func anaFields() map[string]interface{} {
	return map[string]interface{}{
		"id":                                "1001",
		"firstname":                         "Ana",
		"lastname":                          "Pérez",
		"email":                             "ANA@Example.com",
		"mobilephone":                       "(305) 555-0100",
		"entitynumber":                      "C-1001",
		"custentity_hrc_tcoins_disponibles": "12",
		"custentity_kissts01_time_zone":     "1",
	}
}

func anaAddressBook() map[string]interface{} {
	return map[string]interface{}{
		"line 1": map[string]interface{}{
			"id":                 "501",
			"addr1_initialvalue": "1 Main St",
			"city_initialvalue":  "Miami",
			"defaultshipping":    "T",
		},
		"line 2": map[string]interface{}{
			"id":                 "502",
			"addr1_initialvalue": "2 Side St",
			"city_initialvalue":  "Miami",
		},
		"currentline": map[string]interface{}{"id": "999"},
	}
}

func anaSalesTeam() map[string]interface{} {
	return map[string]interface{}{
		"line 1": map[string]interface{}{"employee": "76", "issalesrep": "T"},
		"line 2": map[string]interface{}{"employee": "77", "issalesrep": "T", "isprimary": "T"},
	}
}

func TestSync_CreatesCustomerLead(t *testing.T) {
	env := newTestEnv(t)
	req := leadRequest(t, "lead", anaFields(), anaAddressBook(), anaSalesTeam())

	result, err := env.sm.Sync.Sync(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Created)
	assert.Equal(t, int64(1001), result.ID)

	lead := storedLead(t, env, 1001)
	assert.Equal(t, models.StageLead, lead.Stage)
	assert.Equal(t, "ana@example.com", lead.Email)
	assert.Equal(t, "3055550100", lead.MobilePhone)
	assert.Equal(t, "Ana Pérez", lead.Name)
	assert.Equal(t, "77", lead.SalesRepID)
	assert.False(t, lead.IsFinalClient)
	assert.Nil(t, lead.ParentID)
	assert.Contains(t, lead.SearchKey, "ana perez")
	assert.Equal(t, float64(12), lead.Hrc["tcoins_disponibles"])
	assert.Equal(t, "1", lead.TimeZoneCode())

	require.Len(t, lead.Addresses, 2)
	assert.Equal(t, int64(501), lead.Addresses[0].Key)
	assert.Equal(t, "Ana Pérez", lead.Addresses[0].Addressee)
	assert.True(t, lead.Addresses[0].DefaultShipping)
	assert.Equal(t, int64(502), lead.Addresses[1].Key)

	pending, err := env.retry.Pending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSync_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := leadRequest(t, "LEAD", anaFields(), anaAddressBook(), anaSalesTeam())

	_, err := env.sm.Sync.Sync(ctx, req)
	require.NoError(t, err)
	first, err := env.store.FindByKey(ctx, constants.CollectionCustomerLeads, 1001, nil)
	require.NoError(t, err)

	result, err := env.sm.Sync.Sync(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.Created)

	second, err := env.store.FindByKey(ctx, constants.CollectionCustomerLeads, 1001, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSync_StageComesFromType(t *testing.T) {
	env := newTestEnv(t)
	fields := anaFields()
	fields["stage"] = "LEAD"

	_, err := env.sm.Sync.Sync(context.Background(), leadRequest(t, "customer", fields, nil, nil))
	require.NoError(t, err)

	assert.Equal(t, models.StageCustomer, storedLead(t, env, 1001).Stage)
}

func TestSync_Addresses(t *testing.T) {
	ctx := context.Background()

	t.Run("soft delete carries forward", func(t *testing.T) {
		env := newTestEnv(t)
		req := leadRequest(t, "lead", anaFields(), anaAddressBook(), nil)
		_, err := env.sm.Sync.Sync(ctx, req)
		require.NoError(t, err)

		require.NoError(t, env.sm.Customers.DeleteAddress(ctx, 1001, 502))

		_, err = env.sm.Sync.Sync(ctx, req)
		require.NoError(t, err)

		lead := storedLead(t, env, 1001)
		require.Len(t, lead.Addresses, 2)
		assert.False(t, lead.Addresses[0].IsDeleted)
		assert.True(t, lead.Addresses[1].IsDeleted)
	})

	t.Run("dropped addresses are soft deleted", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.sm.Sync.Sync(ctx, leadRequest(t, "lead", anaFields(), anaAddressBook(), nil))
		require.NoError(t, err)

		only501 := map[string]interface{}{
			"line 1": map[string]interface{}{"id": "501", "addr1_initialvalue": "1 Main St", "defaultshipping": "T"},
		}
		_, err = env.sm.Sync.Sync(ctx, leadRequest(t, "lead", anaFields(), only501, nil))
		require.NoError(t, err)

		lead := storedLead(t, env, 1001)
		require.Len(t, lead.Addresses, 2)
		assert.Equal(t, int64(502), lead.Addresses[1].Key)
		assert.True(t, lead.Addresses[1].IsDeleted)

		active, err := env.sm.Customers.GetAddresses(ctx, 1001)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, int64(501), active[0].Key)
	})

	t.Run("duplicate keys collapse", func(t *testing.T) {
		env := newTestEnv(t)
		dupes := []interface{}{
			map[string]interface{}{"id": "501", "addr1_initialvalue": "first"},
			map[string]interface{}{"id": "501", "addr1_initialvalue": "second"},
		}
		_, err := env.sm.Sync.Sync(ctx, leadRequest(t, "lead", anaFields(), dupes, nil))
		require.NoError(t, err)

		lead := storedLead(t, env, 1001)
		require.Len(t, lead.Addresses, 1)
		assert.Equal(t, "first", lead.Addresses[0].Address)
	})

	t.Run("malformed sublist yields no addresses", func(t *testing.T) {
		env := newTestEnv(t)
		req := leadRequest(t, "lead", anaFields(), nil, nil)
		req.Sublists.AddressBook = []byte(`"not a sublist"`)

		result, err := env.sm.Sync.Sync(ctx, req)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Empty(t, storedLead(t, env, 1001).Addresses)
	})
}

func TestSync_KeepsUnknownHrcFlags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := leadRequest(t, "lead", anaFields(), nil, nil)

	_, err := env.sm.Sync.Sync(ctx, req)
	require.NoError(t, err)
	seedLead(t, env, 1001, ports.Document{"hrc": map[string]interface{}{"tcoins_disponibles": 3, "legacy_flag": true}})

	_, err = env.sm.Sync.Sync(ctx, req)
	require.NoError(t, err)

	lead := storedLead(t, env, 1001)
	assert.Equal(t, float64(12), lead.Hrc["tcoins_disponibles"])
	assert.Equal(t, true, lead.Hrc["legacy_flag"])
}

func TestSync_FinalClient(t *testing.T) {
	tests := []struct {
		name   string
		parent interface{}
		raw    interface{}
		want   bool
	}{
		{"no parent", nil, nil, false},
		{"parent", "900", nil, true},
		{"parent vetoed", "900", "F", false},
		{"parent confirmed", "900", "T", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			fields := anaFields()
			if tt.parent != nil {
				fields["parent"] = tt.parent
			}
			if tt.raw != nil {
				fields["custentity_is_final_client"] = tt.raw
			}

			_, err := env.sm.Sync.Sync(context.Background(), leadRequest(t, "customer", fields, nil, nil))
			require.NoError(t, err)

			assert.Equal(t, tt.want, storedLead(t, env, 1001).IsFinalClient)
		})
	}
}

func TestSync_SalesRepFallsBackToFlatAttribute(t *testing.T) {
	env := newTestEnv(t)
	fields := anaFields()
	fields["salesrep"] = "88"

	_, err := env.sm.Sync.Sync(context.Background(), leadRequest(t, "lead", fields, nil, nil))
	require.NoError(t, err)

	assert.Equal(t, "88", storedLead(t, env, 1001).SalesRepID)
}

func TestSync_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown type", func(t *testing.T) {
		env := newTestEnv(t)
		result, err := env.sm.Sync.Sync(ctx, leadRequest(t, "vendor", anaFields(), nil, nil))
		require.Error(t, err)
		assert.True(t, errors.IsInvalidRecordType(err))
		assert.False(t, result.Success)
		assert.Equal(t, "INVALID_RECORD_TYPE", result.Code)

		count, err := env.store.Count(ctx, constants.CollectionCustomerLeads, nil)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("missing key", func(t *testing.T) {
		env := newTestEnv(t)
		fields := anaFields()
		delete(fields, "id")

		result, err := env.sm.Sync.Sync(ctx, leadRequest(t, "lead", fields, nil, nil))
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
		assert.False(t, result.Success)
	})

	t.Run("path id mismatch", func(t *testing.T) {
		env := newTestEnv(t)
		req := leadRequest(t, "lead", anaFields(), nil, nil)
		req.ID = "2002"

		_, err := env.sm.Sync.Sync(ctx, req)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})
}

func TestSync_PathIDFillsMissingKey(t *testing.T) {
	env := newTestEnv(t)
	fields := anaFields()
	delete(fields, "id")
	req := leadRequest(t, "", fields, nil, nil)
	req.ID = "1001"

	result, err := env.sm.Sync.SyncAs(context.Background(), req, models.StageLead)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(1001), result.ID)
}

func ruizRequest(t *testing.T) models.SyncRequest {
	t.Helper()
	fields := map[string]interface{}{"id": "500", "firstname": "Ana", "lastname": "Ruiz", "email": ""}
	addressbook := map[string]interface{}{
		"currentline": map[string]interface{}{},
		"1":           map[string]interface{}{"addressbookaddress_key": "1", "defaultshipping": "T"},
	}
	salesteam := map[string]interface{}{
		"line 1": map[string]interface{}{"employee": "77", "issalesrep": "T"},
	}
	return leadRequest(t, "CUSTOMER", fields, addressbook, salesteam)
}

func TestSync_CustomerWithoutEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("first sync", func(t *testing.T) {
		env := newTestEnv(t)

		result, err := env.sm.Sync.Sync(ctx, ruizRequest(t))
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.True(t, result.Created)
		assert.Equal(t, int64(500), result.ID)

		doc, err := env.store.FindByKey(ctx, constants.CollectionCustomerLeads, 500, nil)
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.NotContains(t, doc, "email")

		lead := storedLead(t, env, 500)
		assert.Equal(t, int64(500), lead.ID)
		assert.Equal(t, "Ana Ruiz", lead.Name)
		assert.Equal(t, models.StageCustomer, lead.Stage)
		assert.Equal(t, "77", lead.SalesRepID)
		require.Len(t, lead.Addresses, 1)
		assert.Equal(t, int64(1), lead.Addresses[0].Key)
		assert.True(t, lead.Addresses[0].DefaultShipping)
		assert.False(t, lead.Addresses[0].IsDeleted)
	})

	t.Run("stored soft delete survives", func(t *testing.T) {
		env := newTestEnv(t)
		seedLead(t, env, 500, ports.Document{
			"firstname": "Ana",
			"lastname":  "Ruiz",
			"stage":     "CUSTOMER",
			"addresses": []interface{}{
				map[string]interface{}{"key": 1, "defaultshipping": true, "is_deleted": true},
			},
		})

		result, err := env.sm.Sync.Sync(ctx, ruizRequest(t))
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.False(t, result.Created)

		lead := storedLead(t, env, 500)
		require.Len(t, lead.Addresses, 1)
		assert.Equal(t, int64(1), lead.Addresses[0].Key)
		assert.True(t, lead.Addresses[0].IsDeleted)
	})

	t.Run("stored email is kept", func(t *testing.T) {
		env := newTestEnv(t)
		seedLead(t, env, 500, ports.Document{"firstname": "Ana", "email": "ana@example.com", "stage": "CUSTOMER"})

		_, err := env.sm.Sync.Sync(ctx, ruizRequest(t))
		require.NoError(t, err)

		assert.Equal(t, "ana@example.com", storedLead(t, env, 500).Email)
	})
}

func TestSync_StoreFailureIsSoft(t *testing.T) {
	ctx := context.Background()

	t.Run("upsert failure", func(t *testing.T) {
		env := newTestEnvWithStore(t, func(s ports.DocumentStore) ports.DocumentStore {
			return &failingStore{DocumentStore: s, err: fmt.Errorf("connection reset")}
		})

		result, err := env.sm.Sync.Sync(ctx, leadRequest(t, "lead", anaFields(), nil, nil))
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, int64(1001), result.ID)
		assert.Equal(t, "RECONCILIATION_FAILED", result.Code)

		pending, err := env.retry.Pending(ctx)
		require.NoError(t, err)
		assert.Equal(t, []ports.RetryEntry{{Collection: constants.CollectionCustomerLeads, Key: 1001}}, pending)
	})

	t.Run("lookup failure", func(t *testing.T) {
		env := newTestEnvWithStore(t, func(s ports.DocumentStore) ports.DocumentStore {
			return &failingStore{DocumentStore: s, err: fmt.Errorf("timeout"), failReads: true}
		})

		result, err := env.sm.Sync.Sync(ctx, leadRequest(t, "lead", anaFields(), nil, nil))
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "RECONCILIATION_FAILED", result.Code)

		pending, err := env.retry.Pending(ctx)
		require.NoError(t, err)
		assert.Equal(t, []ports.RetryEntry{{Collection: constants.CollectionCustomerLeads, Key: 1001}}, pending)
	})
}

func TestSync_UnreadableStoredRecordIsSoft(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedLead(t, env, 1001, ports.Document{"firstname": "Ana", "addresses": "not a list"})
	before, err := env.store.FindByKey(ctx, constants.CollectionCustomerLeads, 1001, nil)
	require.NoError(t, err)

	result, err := env.sm.Sync.Sync(ctx, leadRequest(t, "lead", anaFields(), anaAddressBook(), nil))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, int64(1001), result.ID)
	assert.Equal(t, "RECONCILIATION_FAILED", result.Code)

	after, err := env.store.FindByKey(ctx, constants.CollectionCustomerLeads, 1001, nil)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	pending, err := env.retry.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ports.RetryEntry{{Collection: constants.CollectionCustomerLeads, Key: 1001}}, pending)
}

func TestSync_FailedEmployeeQueuedAsEmployee(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvWithStore(t, func(s ports.DocumentStore) ports.DocumentStore {
		return &failingStore{DocumentStore: s, err: fmt.Errorf("connection reset")}
	})

	fields := map[string]interface{}{"id": "77", "firstname": "Rosa", "email": "rosa@example.com"}
	result, err := env.sm.Sync.Sync(ctx, leadRequest(t, "employee", fields, nil, nil))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "RECONCILIATION_FAILED", result.Code)

	pending, err := env.retry.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ports.RetryEntry{{Collection: constants.CollectionEmployees, Key: 77}}, pending)

	// The retry pass must not ask the ERP to resend a customer with the employee's id.
	refreshed, err := env.sm.Retry.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, refreshed)
	env.erp.AssertNotCalled(t, "RefreshCustomer", mock.Anything)

	pending, err = env.retry.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestSync_SuccessClearsRetryEntry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	queued := ports.RetryEntry{Collection: constants.CollectionCustomerLeads, Key: 1001}
	other := ports.RetryEntry{Collection: constants.CollectionEmployees, Key: 1001}
	require.NoError(t, env.retry.Add(ctx, queued))
	require.NoError(t, env.retry.Add(ctx, other))

	result, err := env.sm.Sync.Sync(ctx, leadRequest(t, "lead", anaFields(), nil, nil))
	require.NoError(t, err)
	require.True(t, result.Success)

	pending, err := env.retry.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ports.RetryEntry{other}, pending)
}

func TestSync_Employee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fields := map[string]interface{}{
		"id":                "77",
		"firstname":         "Rosa",
		"lastname":          "Díaz",
		"email":             "Rosa@Example.com",
		"entityid":          "Rosa Díaz",
		"emp_status":        "Lider de ventas",
		"custentity_8x8_id": "agent-77",
	}

	env.notifier.On("Send", "rosa@example.com", constants.TemplateCreatePassword, mock.MatchedBy(func(vars map[string]string) bool {
		url := vars["url"]
		return strings.HasPrefix(url, testFrontendURL+"/reset-password/") && strings.HasSuffix(url, "?createPassword=true")
	})).Return(nil).Once()

	result, err := env.sm.Sync.Sync(ctx, leadRequest(t, "employee", fields, nil, nil))
	require.NoError(t, err)
	assert.True(t, result.Created)

	emp, err := env.sm.Employees.Get(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, models.StageEmployee, emp.Stage)
	assert.Equal(t, "agent-77", emp.ID8x8)
	assert.Equal(t, "rosa@example.com", emp.UpdatedEmail)
	assert.Len(t, emp.RecoverPasswordToken, 64)
	token := emp.RecoverPasswordToken

	// A later push must not reissue the token or resend the email.
	result, err = env.sm.Sync.Sync(ctx, leadRequest(t, "employee", fields, nil, nil))
	require.NoError(t, err)
	assert.False(t, result.Created)

	emp, err = env.sm.Employees.Get(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, token, emp.RecoverPasswordToken)

	env.notifier.AssertExpectations(t)
	env.notifier.AssertNumberOfCalls(t, "Send", 1)
}

func TestSync_EmployeeUpdateInvalidatesSalesRepCache(t *testing.T) {
	env := newTestEnv(t)
	env.reps.Put(models.EmployeeRef{ID: 77, FirstName: "Old"})
	seedEmployee(t, env, 77, ports.Document{"firstname": "Old", "stage": "EMPLOYEE"})

	fields := map[string]interface{}{"id": "77", "firstname": "New"}
	_, err := env.sm.Sync.Sync(context.Background(), leadRequest(t, "employee", fields, nil, nil))
	require.NoError(t, err)

	_, ok := env.reps.Get(77)
	assert.False(t, ok)
}
