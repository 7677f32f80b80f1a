package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestServiceManagerLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.services.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	if h.services.Attempt() == nil || h.services.Export() == nil || h.services.TrainingEvents() == nil {
		t.Fatal("services not wired")
	}

	// Initialize is idempotent
	attempts := h.services.Attempt()
	if err := h.services.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if h.services.Attempt() != attempts {
		t.Error("second Initialize() replaced the services")
	}

	if err := h.services.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := h.services.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() after shutdown succeeded")
	}
}

func TestServiceManagerHealthBeforeInitialize(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sm := NewServiceManager(nil, nil, logger, nil, nil, nil, DefaultServiceManagerConfig())

	if err := sm.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Initialize succeeded")
	}
}
