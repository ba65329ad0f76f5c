package client_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ciphertexthandler "finwell/internal/ciphertext/handler"
	ciphertextstore "finwell/internal/ciphertext/store"
	"finwell/internal/client"
	jwttoken "finwell/internal/jwt_token"
	"finwell/internal/ledger"
	ledgerstore "finwell/internal/ledger/store"
	"finwell/internal/oracle"
	oraclehandler "finwell/internal/oracle/handler"
	"finwell/internal/protocol"
	protocolhandler "finwell/internal/protocol/handler"
	recordstore "finwell/internal/records/store"
	scorestore "finwell/internal/scores/store"
	httptransport "finwell/internal/transport/http"
	id "finwell/pkg/domain"
	dErrors "finwell/pkg/domain-errors"
)

const signerKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

var owner = id.Identity{0x0c}

// newServer runs the HTTP stack in-process with in-memory stores.
func newServer(t *testing.T) (*httptest.Server, *jwttoken.JWTService) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	params, err := oracle.DefaultParameters()
	require.NoError(t, err)
	signer, err := oracle.NewSigner(signerKey)
	require.NoError(t, err)
	blobs := ciphertextstore.NewInMemory()
	local := oracle.NewLocal(oracle.GenerateKeyMaterial(params), blobs, oracle.NewAtomicSource(0), signer,
		oracle.WithLogger(logger),
		oracle.WithRetry(20, 5*time.Millisecond),
	)
	svc := protocol.New(recordstore.NewInMemory(), scorestore.NewInMemory(), ledger.New(ledgerstore.NewInMemory()), local,
		protocol.WithLogger(logger),
		protocol.WithOwnershipEnforcement(true),
	)
	local.SetCallback(svc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- local.Run(ctx) }()

	tokens := jwttoken.NewJWTService("test-signing-key", jwttoken.Issuer, jwttoken.Audience)
	ph := protocolhandler.New(svc, logger)
	router := httptransport.NewRouter(httptransport.Config{
		Logger:      logger,
		Tokens:      jwttoken.NewJWTServiceAdapter(tokens),
		OracleToken: "relayer",
	}, httptransport.Routes{
		Public:        []httptransport.Mount{oraclehandler.New(local.Keys(), logger).Register},
		Authenticated: []httptransport.Mount{ciphertexthandler.New(blobs, local.Keys(), logger).Register, ph.Register},
		Callbacks:     []httptransport.Mount{ph.RegisterCallbacks},
	})
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return srv, tokens
}

func TestSubmitAndReveal(t *testing.T) {
	if testing.Short() {
		t.Skip("BGV key generation is slow")
	}
	ctx := context.Background()
	srv, tokens := newServer(t)
	token, err := tokens.GenerateAccessToken(owner, false, time.Hour)
	require.NoError(t, err)
	c := client.New(srv.URL, token, client.WithHTTPClient(srv.Client()))

	key, err := c.PublicKey(ctx)
	require.NoError(t, err)
	handles, err := c.EncryptAndUpload(ctx, key, 100, 50, 20)
	require.NoError(t, err)
	require.Len(t, handles, 3)

	recordID, err := c.Submit(ctx, handles[0], handles[1], handles[2])
	require.NoError(t, err)
	assert.Equal(t, id.RecordID(1), recordID)

	requestID, err := c.RequestDecryption(ctx, recordID)
	require.NoError(t, err)
	assert.Equal(t, id.RequestID(1), requestID)

	require.Eventually(t, func() bool {
		view, err := c.Revealed(ctx, recordID)
		return err == nil && view.Revealed
	}, 5*time.Second, 10*time.Millisecond)

	view, err := c.Revealed(ctx, recordID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), view.Income)
	assert.Equal(t, int64(50), view.Expenses)
	assert.Equal(t, int64(20), view.Savings)

	_, err = c.RequestDecryption(ctx, recordID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestErrorBodyIsDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","error_description":"record not found"}`))
	}))
	defer srv.Close()

	_, err := client.New(srv.URL, "").Revealed(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Equal(t, "record not found", dErrors.MessageOf(err))
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := client.New(url, "").RequestDecryption(context.Background(), 1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}
