package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sportsuid/internal/platform/config"
)

func TestNew_UsesConfiguredTimeouts(t *testing.T) {
	cfg := config.Default().HTTP
	h := http.NotFoundHandler()

	srv := New(":0", cfg, h)

	assert.Equal(t, ":0", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 15*time.Second, srv.WriteTimeout)
	assert.Equal(t, 60*time.Second, srv.IdleTimeout)
	assert.NotNil(t, srv.Handler)
}
