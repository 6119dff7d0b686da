package orders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/ord-42", r.URL.Path)
		w.Write([]byte(`{"id":"ord-42","orgId":"org-1","shipFromPostalCode":"75201",
			"shipToPostalCode":"90210","weightOz":16,"length":10,"width":8,"height":4,"itemCount":2}`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	order, err := c.Fetch(context.Background(), "ord-42")
	require.NoError(t, err)
	assert.Equal(t, "org-1", order.OrgID)

	req := order.ShipmentRequest()
	assert.Equal(t, "ord-42", req.OrderID)
	assert.Equal(t, "90210", req.DestinationPostal)
	assert.Equal(t, 454, req.WeightGrams) // 16 oz, rounded
	assert.Equal(t, 2, req.ItemCount)
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"id":"ord-1","shipToPostalCode":"10001"}`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL, Retries: 3})
	require.NoError(t, err)

	order, err := c.Fetch(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", order.ID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchGivesUpAfterBoundedAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL, Retries: 2})
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "ord-1")
	assert.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestParseResourceURL(t *testing.T) {
	id, err := ParseResourceURL("https://platform.example.com/api/orders/12345")
	require.NoError(t, err)
	assert.Equal(t, "12345", id)

	id, err = ParseResourceURL("https://platform.example.com/orders/ord-9/resource")
	require.NoError(t, err)
	assert.Equal(t, "ord-9", id)

	_, err = ParseResourceURL("https://platform.example.com/shipments/5")
	assert.Error(t, err)
}
