package ledgertest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aura-bank/aurabank/internal/api"
	"github.com/aura-bank/aurabank/internal/ledgertest"
)

func newClient(ledger *ledgertest.Server) *api.Client {
	return api.NewClient("http://ledger.test", time.Second, api.WithHTTPClient(ledger.Client()))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	ledger := ledgertest.New()
	client := newClient(ledger)
	ctx := context.Background()

	in := api.RegisterInput{
		Name: "Alice", Username: "alice", Email: "alice@example.com",
		Password: "Abc$efgh", PhoneNumber: "+1000000001", AccountNumber: "AC001",
	}
	if _, err := client.Register(ctx, in); err != nil {
		t.Fatalf("register: %v", err)
	}

	in.Email = "other@example.com"
	_, err := client.Register(ctx, in)
	var bizErr *api.BusinessError
	if !errors.As(err, &bizErr) {
		t.Fatalf("expected business error, got %v", err)
	}
	if bizErr.Message != "Username or account number already exists." {
		t.Fatalf("unexpected message %q", bizErr.Message)
	}
}

func TestEnrollThenFaceLogin(t *testing.T) {
	ledger := ledgertest.New()
	client := newClient(ledger)
	ctx := context.Background()

	res, err := client.Register(ctx, api.RegisterInput{
		Name: "Alice", Username: "alice", Email: "alice@example.com",
		Password: "Abc$efgh", AccountNumber: "AC001",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	descriptor := []float64{0.9, -0.1, 0.3}

	// Unauthenticated enrollment is refused.
	if _, err := client.EnrollFace(ctx, "bogus-session", descriptor); err == nil {
		t.Fatalf("expected enrollment to require a session")
	}

	if _, err := client.EnrollFace(ctx, res.UserID, descriptor); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	login, err := client.LoginFace(ctx, "alice", descriptor)
	if err != nil {
		t.Fatalf("face login: %v", err)
	}
	if login.UserID != res.UserID {
		t.Fatalf("expected user id %q, got %q", res.UserID, login.UserID)
	}

	// A clearly different face is rejected.
	far := []float64{10, 10, 10}
	if _, err := client.LoginFace(ctx, "alice", far); err == nil {
		t.Fatalf("expected mismatched descriptor rejected")
	}
}

func TestTransferBusinessRules(t *testing.T) {
	ledger := ledgertest.New()
	client := newClient(ledger)
	ctx := context.Background()

	aliceID := ledger.Seed(ledgertest.SeedUser{
		Name: "Alice", Username: "alice", Email: "alice@example.com",
		Password: "Abc$efgh", AccountNumber: "AC001", Balance: 100,
	})
	ledger.Seed(ledgertest.SeedUser{
		Name: "Bob", Username: "bob", Email: "bob@example.com",
		Password: "Abc$efgh", AccountNumber: "AC123",
	})

	cases := []struct {
		name    string
		in      api.TransferInput
		message string
	}{
		{
			name: "insufficient funds",
			in: api.TransferInput{
				RecipientAccountNumber: "AC123", Amount: 500,
				AuthType: api.AuthTypePassword, AuthToken: "Abc$efgh",
			},
			message: "Insufficient funds.",
		},
		{
			name: "unknown recipient",
			in: api.TransferInput{
				RecipientAccountNumber: "AC999", Amount: 10,
				AuthType: api.AuthTypePassword, AuthToken: "Abc$efgh",
			},
			message: "Recipient account not found.",
		},
		{
			name: "self transfer",
			in: api.TransferInput{
				RecipientAccountNumber: "AC001", Amount: 10,
				AuthType: api.AuthTypePassword, AuthToken: "Abc$efgh",
			},
			message: "Cannot transfer to your own account.",
		},
		{
			name: "face without enrollment",
			in: api.TransferInput{
				RecipientAccountNumber: "AC123", Amount: 10,
				AuthType: api.AuthTypeFace, AuthToken: []float64{1, 2, 3},
			},
			message: "Face not recognized.",
		},
	}

	for _, tc := range cases {
		_, err := client.Transfer(ctx, aliceID, "", tc.in)
		var bizErr *api.BusinessError
		if !errors.As(err, &bizErr) {
			t.Fatalf("%s: expected business error, got %v", tc.name, err)
		}
		if bizErr.Message != tc.message {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.message, bizErr.Message)
		}
	}

	if got := ledger.Balance(aliceID); got != 100 {
		t.Fatalf("expected balance untouched by failed transfers, got %v", got)
	}
}
