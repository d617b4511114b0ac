package main

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu        sync.Mutex
	machines  []Machine
	operators []Operator
	checks    []PreStart
	failAll   bool
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	authorized := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer seed-token" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"seed-token","user":{}}`))
	})
	mux.HandleFunc("POST /api/operators", authorized(func(w http.ResponseWriter, r *http.Request) {
		var o Operator
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&o))
		f.mu.Lock()
		f.operators = append(f.operators, o)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"op1"}`))
	}))
	mux.HandleFunc("POST /api/machines", authorized(func(w http.ResponseWriter, r *http.Request) {
		if f.failAll {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"Insufficient permissions"}`))
			return
		}
		var m Machine
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		f.mu.Lock()
		f.machines = append(f.machines, m)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"m1"}`))
	}))
	mux.HandleFunc("POST /api/prestart", authorized(func(w http.ResponseWriter, r *http.Request) {
		var p PreStart
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		f.mu.Lock()
		f.checks = append(f.checks, p)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"p1","passed":true}`))
	}))
	return mux
}

func TestLogin(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	c := NewClient(srv.URL + "/api/")
	err := c.Login("seed@example.com", "wrong")
	assert.EqualError(t, err, "POST /auth/login failed with status 401: Invalid credentials")

	require.NoError(t, c.Login("seed@example.com", "secret123"))
	assert.Equal(t, "seed-token", c.token)
}

func TestSeed(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	c := NewClient(srv.URL + "/api")
	require.NoError(t, c.Login("seed@example.com", "secret123"))

	n, err := Seed(c, Options{Machines: 4, Operators: 2, FailRate: 0.5, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Len(t, api.operators, 2)
	assert.Len(t, api.machines, 4)
	require.Len(t, api.checks, 4)
	for _, check := range api.checks {
		assert.Equal(t, "m1", check.MachineID)
		assert.Equal(t, "op1", check.OperatorID)
		assert.Len(t, check.Checks, len(checkItems))
	}
	for _, m := range api.machines {
		assert.NotEmpty(t, m.Brand)
		assert.NotEmpty(t, m.Model)
	}
}

func TestSeed_NoMachinesCreated(t *testing.T) {
	api := &fakeAPI{failAll: true}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	c := NewClient(srv.URL + "/api")
	require.NoError(t, c.Login("seed@example.com", "secret123"))

	_, err := Seed(c, Options{Machines: 2, Seed: 1})
	assert.EqualError(t, err, "no machines created")
	assert.Empty(t, api.checks)
}

func TestRandomChecks(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, item := range checkItems {
		assert.True(t, randomChecks(rng, 0)[item])
	}
	for _, v := range randomChecks(rng, 1) {
		assert.False(t, v)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("SEED_TEST_INT", "12")
	assert.Equal(t, 12, envInt("SEED_TEST_INT", 3))
	t.Setenv("SEED_TEST_INT", "nope")
	assert.Equal(t, 3, envInt("SEED_TEST_INT", 3))
	t.Setenv("SEED_TEST_INT", "-1")
	assert.Equal(t, 3, envInt("SEED_TEST_INT", 3))
}
