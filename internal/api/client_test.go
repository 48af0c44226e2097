package api_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aura-bank/aurabank/internal/api"
	"github.com/aura-bank/aurabank/internal/ledgertest"
)

func newTestClient(ledger *ledgertest.Server) *api.Client {
	return api.NewClient("http://ledger.test", time.Second, api.WithHTTPClient(ledger.Client()))
}

func TestLoginSuccess(t *testing.T) {
	ledger := ledgertest.New()
	wantID := ledger.Seed(ledgertest.SeedUser{
		Name: "Alice", Username: "alice", Email: "alice@example.com",
		Password: "Abc$efgh", AccountNumber: "AC001",
	})

	res, err := newTestClient(ledger).Login(context.Background(), "alice", "Abc$efgh")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.UserID != wantID {
		t.Fatalf("expected user id %q, got %q", wantID, res.UserID)
	}
}

func TestLoginFailureIsBusinessError(t *testing.T) {
	ledger := ledgertest.New()
	ledger.Seed(ledgertest.SeedUser{
		Name: "Alice", Username: "alice", Email: "alice@example.com",
		Password: "Abc$efgh", AccountNumber: "AC001",
	})

	_, err := newTestClient(ledger).Login(context.Background(), "alice", "wrong")
	var bizErr *api.BusinessError
	if !errors.As(err, &bizErr) {
		t.Fatalf("expected business error, got %v", err)
	}
	if bizErr.Message != "Invalid username or password." {
		t.Fatalf("unexpected message %q", bizErr.Message)
	}
}

type errorTransport struct{}

func (errorTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, fmt.Errorf("connection refused")
}

func TestTransportErrorIsNotBusiness(t *testing.T) {
	client := api.NewClient("http://ledger.test", time.Second,
		api.WithHTTPClient(&http.Client{Transport: errorTransport{}}))

	_, err := client.Login(context.Background(), "alice", "pw")
	if err == nil {
		t.Fatalf("expected transport error")
	}
	var bizErr *api.BusinessError
	if errors.As(err, &bizErr) {
		t.Fatalf("transport failure must not decode as a business error")
	}
}

type staticTransport struct {
	status int
	body   string
}

func (s staticTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: s.status,
		Status:     fmt.Sprintf("%d %s", s.status, http.StatusText(s.status)),
		Body:       io.NopCloser(strings.NewReader(s.body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func TestMalformedResponseIsTransportError(t *testing.T) {
	client := api.NewClient("http://ledger.test", time.Second,
		api.WithHTTPClient(&http.Client{Transport: staticTransport{status: 200, body: "<html>gateway</html>"}}))

	_, err := client.Login(context.Background(), "alice", "pw")
	if err == nil {
		t.Fatalf("expected error for undecodable body")
	}
	var bizErr *api.BusinessError
	if errors.As(err, &bizErr) {
		t.Fatalf("malformed body must not decode as a business error")
	}
}

func TestDeclaredFailureOnErrorStatus(t *testing.T) {
	client := api.NewClient("http://ledger.test", time.Second,
		api.WithHTTPClient(&http.Client{Transport: staticTransport{
			status: 400,
			body:   `{"status":"failed","message":"Insufficient funds."}`,
		}}))

	_, err := client.Transfer(context.Background(), "u1", "key", api.TransferInput{
		RecipientAccountNumber: "AC123", Amount: 10, AuthType: api.AuthTypePassword, AuthToken: "pw",
	})
	var bizErr *api.BusinessError
	if !errors.As(err, &bizErr) {
		t.Fatalf("expected business error, got %v", err)
	}
	if bizErr.Message != "Insufficient funds." {
		t.Fatalf("unexpected message %q", bizErr.Message)
	}
}

func TestTransferIdempotencyReplay(t *testing.T) {
	ledger := ledgertest.New()
	aliceID := ledger.Seed(ledgertest.SeedUser{
		Name: "Alice", Username: "alice", Email: "alice@example.com",
		Password: "Abc$efgh", AccountNumber: "AC001", Balance: 1000,
	})
	ledger.Seed(ledgertest.SeedUser{
		Name: "Bob", Username: "bob", Email: "bob@example.com",
		Password: "Abc$efgh", AccountNumber: "AC123",
	})

	client := newTestClient(ledger)
	in := api.TransferInput{
		RecipientAccountNumber: "AC123", Amount: 100,
		AuthType: api.AuthTypePassword, AuthToken: "Abc$efgh",
	}

	first, err := client.Transfer(context.Background(), aliceID, "attempt-1", in)
	if err != nil {
		t.Fatalf("first transfer: %v", err)
	}
	second, err := client.Transfer(context.Background(), aliceID, "attempt-1", in)
	if err != nil {
		t.Fatalf("replayed transfer: %v", err)
	}

	if first.NewBalance != second.NewBalance {
		t.Fatalf("expected identical replayed response, got %v vs %v", first.NewBalance, second.NewBalance)
	}
	if got := ledger.Balance(aliceID); got != 900 {
		t.Fatalf("expected funds moved exactly once, balance %v", got)
	}
}

func TestGetUserAndTransactions(t *testing.T) {
	ledger := ledgertest.New()
	aliceID := ledger.Seed(ledgertest.SeedUser{
		Name: "Alice", Username: "alice", Email: "alice@example.com",
		Password: "Abc$efgh", AccountNumber: "AC001", Balance: 1000,
	})
	ledger.Seed(ledgertest.SeedUser{
		Name: "Bob", Username: "bob", Email: "bob@example.com",
		Password: "Abc$efgh", AccountNumber: "AC123",
	})

	client := newTestClient(ledger)
	ctx := context.Background()

	if _, err := client.Transfer(ctx, aliceID, "k1", api.TransferInput{
		RecipientAccountNumber: "AC123", Amount: 250,
		AuthType: api.AuthTypePassword, AuthToken: "Abc$efgh",
	}); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	user, err := client.GetUser(ctx, aliceID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Balance != 750 {
		t.Fatalf("expected balance 750, got %v", user.Balance)
	}
	if user.AccountNumber != "AC001" {
		t.Fatalf("unexpected account number %q", user.AccountNumber)
	}

	txs, err := client.GetTransactions(ctx, aliceID)
	if err != nil {
		t.Fatalf("get transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected one transaction, got %d", len(txs))
	}
	if txs[0].Type != "sent" || txs[0].OtherPartyName != "Bob" || txs[0].Amount != 250 {
		t.Fatalf("unexpected transaction %+v", txs[0])
	}
	if txs[0].Timestamp.IsZero() {
		t.Fatalf("expected a timestamp")
	}
}
