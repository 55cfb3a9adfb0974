package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	postgresRepo "github.com/obligent/obligent/internal/adapter/repository/postgres"
	"github.com/obligent/obligent/internal/infrastructure/config"
	"github.com/obligent/obligent/internal/usecase"
	"github.com/obligent/obligent/internal/usecase/mocks"
)

func TestRunReconcilerStopsOnCancel(t *testing.T) {
	intentRepo := mocks.NewMockIntentRepository()
	ledgerRepo := mocks.NewMockLedgerRepository()
	outboxRepo := mocks.NewMockOutboxRepository()

	uc := usecase.NewReconciliationUseCase(intentRepo, ledgerRepo, outboxRepo, nil, zerolog.Nop(), nil)

	cfg := config.ReconcilerConfig{
		Interval:        10 * time.Millisecond,
		Grace:           time.Minute,
		OutboxRetention: time.Hour,
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- runReconciler(ctx, cfg, uc, postgresRepo.NewRetrier(), zerolog.Nop())
	}()

	// Let a few ticks run against the empty repositories.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("reconciler did not stop after cancellation")
	}
}
