package observability

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObservability(t *testing.T) {
	obs := New("field-validation-test")
	assert.NotNil(t, obs.requestCounter)
	assert.NotNil(t, obs.requestDuration)

	assert.NotPanics(t, func() {
		obs.RecordRequest(context.Background(), "/validate-field", http.MethodPost, http.StatusOK, 3*time.Millisecond)
		obs.Shutdown()
	})
}

func TestObservability_NilSafe(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		obs.RecordRequest(context.Background(), "/health", http.MethodGet, http.StatusOK, time.Millisecond)
		obs.Shutdown()
	})
}
