package api

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ssargent/avrokit/pkg/metrics"
	"github.com/ssargent/avrokit/pkg/storage"
)

func openTestArchive(t *testing.T) *storage.Archive {
	t.Helper()
	archive, err := storage.Open(filepath.Join(t.TempDir(), "archive"), storage.Options{})
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	t.Cleanup(func() { archive.Close() })
	return archive
}

func TestNewServer(t *testing.T) {
	archive := openTestArchive(t)

	serverConfig := ServerConfig{
		Port:   0,
		APIKey: "test-key",
	}
	server := NewServer(archive, serverConfig, metrics.New(prometheus.NewRegistry()))
	if server == nil {
		t.Fatal("Expected server to be created")
	}

	if server.archive != archive {
		t.Error("Expected server to have the correct archive")
	}

	if server.config.APIKey != "test-key" {
		t.Errorf("Expected API key to be 'test-key', got '%s'", server.config.APIKey)
	}

	if server.logger == nil {
		t.Error("Expected a default logger")
	}
}

func TestStartServer_StopsOnCancel(t *testing.T) {
	archive := openTestArchive(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- StartServer(ctx, archive, ServerConfig{Bind: "127.0.0.1", Port: 0})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not stop after cancel")
	}
}

func TestStartServer_ListenError(t *testing.T) {
	archive := openTestArchive(t)

	err := StartServer(context.Background(), archive, ServerConfig{Bind: "127.0.0.1", Port: -1})
	if err == nil {
		t.Error("Expected an error for an invalid port")
	}
}

func TestServerFactory(t *testing.T) {
	starter := NewServerFactory().CreateServerStarter()
	if _, ok := starter.(*DefaultServerStarter); !ok {
		t.Errorf("Expected *DefaultServerStarter, got %T", starter)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := starter.StartServer(ctx, openTestArchive(t), ServerConfig{Bind: "127.0.0.1"}); err != nil {
		t.Errorf("Expected clean shutdown, got %v", err)
	}
}
