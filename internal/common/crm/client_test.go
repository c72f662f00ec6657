// internal/common/crm/client_test.go
package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLead(t *testing.T) {
	var gotAuth string
	var gotPayload map[string][]Lead

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/crm/v2/Leads", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":[{"code":"SUCCESS","details":{"id":"lead-1001"},"message":"record added","status":"success"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/crm/v2", "test-token", 5*time.Second)

	leadID, err := client.CreateLead(context.Background(), &Lead{
		AccountName: "Delta Inc",
		AssetID:     "A-10002",
		Topic:       "Hardware refresh opportunity",
		Value:       27000,
		Source:      "Renewal Negotiation",
	})
	require.NoError(t, err)

	assert.Equal(t, "lead-1001", leadID)
	assert.Equal(t, "Bearer test-token", gotAuth)
	require.Len(t, gotPayload["data"], 1)
	assert.Equal(t, "A-10002", gotPayload["data"][0].AssetID)
}

func TestCreateLead_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-token", 5*time.Second)

	_, err := client.CreateLead(context.Background(), &Lead{AccountName: "ABC Corp", AssetID: "A-10001", Topic: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestCreateLead_RecordRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"code":"DUPLICATE_DATA","details":{},"message":"duplicate record","status":"error"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-token", 5*time.Second)

	_, err := client.CreateLead(context.Background(), &Lead{AccountName: "ABC Corp", AssetID: "A-10001", Topic: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate record")
}

func TestCreateLead_NoDataInResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-token", 5*time.Second)

	_, err := client.CreateLead(context.Background(), &Lead{AccountName: "ABC Corp", AssetID: "A-10001", Topic: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data in response")
}
