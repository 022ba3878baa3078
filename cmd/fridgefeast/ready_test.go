package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadyOnceLatchesSuccess(t *testing.T) {
	calls := 0
	fail := true
	ro := &readyOnce{}
	ro.Add(readyFunc(func(context.Context) error {
		calls++
		if fail {
			return errors.New("storage down")
		}
		return nil
	}))

	rr := httptest.NewRecorder()
	ro.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "storage down")

	fail = false
	rr = httptest.NewRecorder()
	ro.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())

	fail = true
	assert.NoError(t, ro.Ready(t.Context()))
	assert.Equal(t, 2, calls, "checks stop running once ready")
}
