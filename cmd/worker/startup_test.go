package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRunChecks(t *testing.T) {
	ok := func(context.Context) error { return nil }
	bad := func(context.Context) error { return errors.New("refused") }

	assert.NoError(t, runChecks(context.Background(), []healthCheck{{"a", ok}, {"b", ok}}))

	err := runChecks(context.Background(), []healthCheck{{"a", ok}, {"Cache", bad}})
	assert.ErrorContains(t, err, "Cache failed")
}

func TestHealthRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	healthy := true
	r := healthRouter([]healthCheck{{"Database", func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("down")
	}}})

	get := func(path string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get("/health"))
	assert.Equal(t, http.StatusOK, get("/ready"))

	healthy = false
	assert.Equal(t, http.StatusOK, get("/health"))
	assert.Equal(t, http.StatusServiceUnavailable, get("/ready"))
}
