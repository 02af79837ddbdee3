package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/reecen30/BotConnectorAPI/internal/config"
	"github.com/reecen30/BotConnectorAPI/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestResolveBindAddr(t *testing.T) {
	tests := []struct {
		bind string
		port int
		want string
	}{
		{"loopback", 5157, "127.0.0.1:5157"},
		{"lan", 9999, "0.0.0.0:9999"},
		{"auto", 8080, "0.0.0.0:8080"},
		{"unknown", 5000, "127.0.0.1:5000"},
	}

	for _, tt := range tests {
		t.Run(tt.bind, func(t *testing.T) {
			addr := resolveBindAddr(config.GatewayConfig{Bind: tt.bind, Port: tt.port})
			assert.Equal(t, tt.want, addr)
		})
	}
}

func TestServerStart(t *testing.T) {
	cfg := config.Defaults()
	cfg.Gateway.Bind = "loopback"
	cfg.Gateway.Port = 0 // let OS pick a port

	log := logging.New(nil, "silent")
	srv := New(cfg, log, &fakeRelayer{reply: "ok"})

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	// Give it a moment to start
	time.Sleep(100 * time.Millisecond)

	// Stop it
	cancel()

	err := <-errCh
	assert.NoError(t, err)
}
