package integration

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	adaptershttp "github.com/obligent/obligent/internal/adapter/http"
	"github.com/obligent/obligent/internal/adapter/http/handler"
	postgresrepo "github.com/obligent/obligent/internal/adapter/repository/postgres"
	redisrepo "github.com/obligent/obligent/internal/adapter/repository/redis"
	"github.com/obligent/obligent/internal/infrastructure/attestation"
	"github.com/obligent/obligent/internal/infrastructure/auditrecorder"
	"github.com/obligent/obligent/internal/infrastructure/eventbus"
	"github.com/obligent/obligent/internal/infrastructure/logging"
	"github.com/obligent/obligent/internal/infrastructure/mirrorsync"
	"github.com/obligent/obligent/internal/usecase"
	"github.com/obligent/obligent/tests/testutil"
)

// env wires the full clearing stack against a live PostgreSQL and an
// in-process Redis.
type env struct {
	db           *testutil.TestDB
	router       http.Handler
	outboxRepo   *postgresrepo.OutboxRepository
	auditRepo    *postgresrepo.AuditRepository
	honoringRepo *postgresrepo.HonoringRepository
	mirrorStore  *redisrepo.MirrorStore
	dispatcher   *eventbus.Dispatcher
	idGen        *postgresrepo.ULIDGenerator

	attestorKID string
	attestorKey ed25519.PrivateKey
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := testutil.NewTestDB(t)
	t.Cleanup(db.Cleanup)

	db.TruncateAll(context.Background())

	mr := miniredis.RunT(t)
	redisClient := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate attestor key: %v", err)
	}

	kid := "attestor-test"
	keyring := attestation.Keyring{
		kid: attestation.Key{Attestor: kid, PublicKey: pub},
	}
	verifier := attestation.NewVerifier(keyring, attestation.SinglePolicy{})

	pool := db.Pool
	txManager := postgresrepo.NewTxManager(pool)
	accountRepo := postgresrepo.NewAccountRepository(pool)
	intentRepo := postgresrepo.NewIntentRepository(pool)
	transferRepo := postgresrepo.NewTransferRepository(pool)
	routeRepo := postgresrepo.NewRouteRepository(pool)
	attestationRepo := postgresrepo.NewAttestationRepository(pool)
	outboxRepo := postgresrepo.NewOutboxRepository(pool)
	auditRepo := postgresrepo.NewAuditRepository(pool)
	honoringRepo := postgresrepo.NewHonoringRepository(pool)
	idGen := postgresrepo.NewULIDGenerator()
	cache := redisrepo.NewCache(redisClient)
	mirrorStore := redisrepo.NewMirrorStore(redisClient)

	clearingUC := usecase.NewClearingUseCase(
		txManager, accountRepo, intentRepo, transferRepo, routeRepo,
		attestationRepo, outboxRepo, verifier, idGen, nil,
	)
	gatewayUC := usecase.NewGatewayUseCase(
		txManager, intentRepo, routeRepo, attestationRepo, outboxRepo,
		auditRepo, verifier, clearingUC, cache, idGen, nil,
	)
	accountUC := usecase.NewAccountUseCase(accountRepo, auditRepo, idGen)
	routeUC := usecase.NewRouteUseCase(routeRepo, accountRepo, auditRepo)
	transferUC := usecase.NewTransferUseCase(transferRepo, honoringRepo)
	mirrorUC := usecase.NewMirrorUseCase(mirrorStore, transferRepo, zerolog.Nop())
	auditUC := usecase.NewAuditUseCase(auditRepo)
	honoringUC := usecase.NewHonoringUseCase(honoringRepo, auditRepo, nil)

	slogger := logging.New(logging.ParseLevel("error"), "json")

	dispatcher := eventbus.NewDispatcher(eventbus.Config{
		OutboxRepo: outboxRepo,
		Subscribers: []eventbus.Subscriber{
			auditrecorder.NewRecorder(auditRepo, zerolog.Nop()),
			mirrorsync.NewSyncer(mirrorStore, zerolog.Nop(), nil),
		},
		Logger:    slogger.Logger,
		BatchSize: 100,
		Interval:  10 * time.Millisecond,
	})

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		IntentHandler:   handler.NewIntentHandler(gatewayUC),
		AccountHandler:  handler.NewAccountHandler(accountUC),
		TransferHandler: handler.NewTransferHandler(transferUC),
		RouteHandler:    handler.NewRouteHandler(routeUC),
		MirrorHandler:   handler.NewMirrorHandler(mirrorUC),
		HonoringHandler: handler.NewHonoringHandler(honoringUC),
		AuditHandler:    handler.NewAuditHandler(auditUC),
		HealthHandler:   handler.NewHealthHandler(pool, redisClient),
		Logger:          zerolog.Nop(),
	})

	return &env{
		db:           db,
		router:       router,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
		honoringRepo: honoringRepo,
		mirrorStore:  mirrorStore,
		dispatcher:   dispatcher,
		idGen:        idGen,
		attestorKID:  kid,
		attestorKey:  priv,
	}
}

// attestationToken signs a binding attestation for the given claimant,
// amount and purpose.
func (e *env) attestationToken(t *testing.T, claimant string, amount int64, purpose string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": claimant,
		"amt": amount,
		"pur": purpose,
		"iss": e.attestorKID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = e.attestorKID

	signed, err := token.SignedString(e.attestorKey)
	if err != nil {
		t.Fatalf("failed to sign attestation: %v", err)
	}

	return signed
}

// submitIntent posts an intent and decodes the response body into out.
func (e *env) submitIntent(t *testing.T, payload map[string]any, out any) int {
	t.Helper()

	return e.request(t, http.MethodPost, "/api/v1/intents/", payload, out)
}

func (e *env) request(t *testing.T, method, path string, payload, out any) int {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to encode payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
		}
	}

	return rec.Code
}

// drainOutbox runs the dispatcher until the outbox empties.
func (e *env) drainOutbox(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.dispatcher.Start(ctx)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		events, err := e.outboxRepo.GetUnpublished(context.Background(), 1)
		if err != nil {
			t.Fatalf("failed to read outbox: %v", err)
		}

		if len(events) == 0 {
			cancel()
			<-done
			return
		}

		time.Sleep(20 * time.Millisecond)
	}

	t.Fatalf("outbox did not drain")
}
