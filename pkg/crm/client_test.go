// Skiff - Async conversational agent runtime
// License: MIT
//
// Copyright (c) 2026 Skiff contributors

package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupByPhone(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/v1/customers/by-phone/+15551234":
			json.NewEncoder(w).Encode(Customer{ID: "c1", Name: "Ada", Phone: "+15551234"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", srv.Client())

	customer, err := client.LookupByPhone(context.Background(), "+15551234")
	require.NoError(t, err)
	assert.Equal(t, "Ada", customer.Name)
	assert.Equal(t, "Bearer secret", gotAuth)

	_, err = client.LookupByPhone(context.Background(), "+19990000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ada", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"customers": []Customer{{ID: "c1", Name: "Ada"}, {ID: "c2", Name: "Adam"}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", srv.Client())
	customers, err := client.Search(context.Background(), "ada")
	require.NoError(t, err)
	assert.Len(t, customers, 2)
}

func TestAppendNote(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/customers/c1/notes", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", srv.Client())
	require.NoError(t, client.AppendNote(context.Background(), "c1", "called back"))
	assert.Equal(t, "called back", gotBody["note"])
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", srv.Client())
	_, err := client.Search(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
