package netsuite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newERPServer(t *testing.T, wantMethod string, respond interface{}) (*httptest.Server, *map[string]interface{}) {
	t.Helper()
	captured := map[string]interface{}{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, wantMethod, req.Method)
		if values, ok := req.Values.(map[string]interface{}); ok {
			for k, v := range values {
				captured[k] = v
			}
		}
		if respond != nil {
			json.NewEncoder(w).Encode(respond)
		}
	}))
	return server, &captured
}

func TestCreateLead(t *testing.T) {
	server, captured := newERPServer(t, MethodCreateCustomer, map[string]interface{}{"id": 900})
	defer server.Close()

	result, err := NewClient(server.URL, "secret").CreateLead(context.Background(), map[string]interface{}{
		"firstname":                  "Ana",
		"custentity_is_final_client": true,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(900), result["id"])
	assert.Equal(t, true, (*captured)["custentity_is_final_client"])
}

func TestCreateOrUpdateAddress(t *testing.T) {
	server, captured := newERPServer(t, MethodUpsertAddress, map[string]interface{}{"ok": true})
	defer server.Close()

	_, err := NewClient(server.URL, "secret").CreateOrUpdateAddress(context.Background(), 500, map[string]interface{}{"city": "Miami"})
	require.NoError(t, err)
	assert.Equal(t, float64(500), (*captured)["customerId"])
	assert.Equal(t, "Miami", (*captured)["city"])
}

func TestRefreshCustomer(t *testing.T) {
	server, captured := newERPServer(t, MethodRefreshCustomer, nil)
	defer server.Close()

	require.NoError(t, NewClient(server.URL, "secret").RefreshCustomer(context.Background(), 42))
	assert.Equal(t, float64(42), (*captured)["userId"])
}

func TestCall_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	err := NewClient(server.URL, "wrong").RefreshCustomer(context.Background(), 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	err = NewClient("", "x").RefreshCustomer(context.Background(), 1)
	assert.Error(t, err)
}
