// Package ledgertest is an in-process fake of the remote AuraBank
// ledger/auth service, implementing the same request/response contract the
// real client consumes. Tests point an api.Client at it through Client().
package ledgertest

import (
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// matchThreshold is the Euclidean distance below which two descriptors are
// considered the same face. The real verifier owns this policy; the value
// here only makes the fake behave like one.
const matchThreshold = 0.6

type userRecord struct {
	ID            string
	Name          string
	Username      string
	Email         string
	PhoneNumber   string
	AccountNumber string
	PasswordHash  []byte
	Descriptor    []float64
	Balance       float64
}

type transactionRecord struct {
	OtherPartyName string    `json:"other_party_name"`
	Amount         float64   `json:"amount"`
	Type           string    `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
}

type storedResponse struct {
	Status int
	Body   []byte
}

// Server holds the fake ledger's in-memory state.
type Server struct {
	app *fiber.App

	mu           sync.Mutex
	usersByID    map[string]*userRecord
	transactions map[string][]transactionRecord
	idempotency  map[string]storedResponse
	now          func() time.Time
}

// New creates a fake ledger with no accounts.
func New() *Server {
	s := &Server{
		usersByID:    make(map[string]*userRecord),
		transactions: make(map[string][]transactionRecord),
		idempotency:  make(map[string]storedResponse),
		now:          func() time.Time { return time.Now().UTC() },
	}

	app := fiber.New()
	app.Post("/api/register", s.register)
	app.Post("/api/login", s.login)
	app.Post("/api/login_face", s.loginFace)
	app.Post("/api/user/enroll_face", s.enrollFace)
	app.Get("/api/user/:id", s.getUser)
	app.Get("/api/user/:id/transactions", s.getTransactions)
	app.Post("/api/transfer", s.transfer)
	s.app = app

	return s
}

type roundTripper struct {
	app *fiber.App
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt.app.Test(req, -1)
}

// Client returns an HTTP client that routes requests straight into the fake
// without opening sockets. Pair it with any base URL.
func (s *Server) Client() *http.Client {
	return &http.Client{Transport: roundTripper{app: s.app}}
}

func (s *Server) register(c *fiber.Ctx) error {
	var req struct {
		Name          string `json:"name"`
		Username      string `json:"username"`
		Email         string `json:"email"`
		Password      string `json:"password"`
		PhoneNumber   string `json:"phone_number"`
		AccountNumber string `json:"account_number"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}
	if req.Name == "" || req.Username == "" || req.Email == "" || req.Password == "" || req.AccountNumber == "" {
		return fail(c, http.StatusBadRequest, "All fields are required.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.usersByID {
		if u.Username == req.Username || u.AccountNumber == req.AccountNumber {
			return fail(c, http.StatusConflict, "Username or account number already exists.")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Registration failed.")
	}

	user := &userRecord{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Username:      req.Username,
		Email:         req.Email,
		PhoneNumber:   req.PhoneNumber,
		AccountNumber: req.AccountNumber,
		PasswordHash:  hash,
	}
	s.usersByID[user.ID] = user

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "Registration successful.",
		"user_id": user.ID,
	})
}

func (s *Server) login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.findByUsername(req.Username)
	if user == nil || bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)) != nil {
		return fail(c, http.StatusUnauthorized, "Invalid username or password.")
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Login successful.",
		"user_id": user.ID,
	})
}

func (s *Server) loginFace(c *fiber.Ctx) error {
	var req struct {
		Username       string    `json:"username"`
		FaceDescriptor []float64 `json:"face_descriptor"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.findByUsername(req.Username)
	if user == nil {
		return fail(c, http.StatusUnauthorized, "Invalid username.")
	}
	if len(user.Descriptor) == 0 {
		return fail(c, http.StatusUnauthorized, "No face enrolled for this user.")
	}
	if !matches(user.Descriptor, req.FaceDescriptor) {
		return fail(c, http.StatusUnauthorized, "Face not recognized.")
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Face login successful.",
		"user_id": user.ID,
	})
}

func (s *Server) enrollFace(c *fiber.Ctx) error {
	var req struct {
		FaceDescriptor []float64 `json:"face_descriptor"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}
	if len(req.FaceDescriptor) == 0 {
		return fail(c, http.StatusBadRequest, "Face descriptor is required.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.authenticated(c)
	if user == nil {
		return fail(c, http.StatusUnauthorized, "Authentication required.")
	}

	user.Descriptor = append([]float64(nil), req.FaceDescriptor...)

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Face enrolled successfully.",
	})
}

func (s *Server) getUser(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByID[c.Params("id")]
	if !ok {
		return fail(c, http.StatusNotFound, "User not found.")
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"user": fiber.Map{
			"name":           user.Name,
			"username":       user.Username,
			"account_number": user.AccountNumber,
			"balance":        user.Balance,
		},
	})
}

func (s *Server) getTransactions(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByID[c.Params("id")]
	if !ok {
		return fail(c, http.StatusNotFound, "User not found.")
	}

	txs := s.transactions[user.ID]
	if txs == nil {
		txs = []transactionRecord{}
	}
	return c.JSON(fiber.Map{
		"status":       "success",
		"transactions": txs,
	})
}

func (s *Server) transfer(c *fiber.Ctx) error {
	var req struct {
		RecipientAccountNumber string          `json:"recipient_account_number"`
		Amount                 float64         `json:"amount"`
		AuthType               string          `json:"auth_type"`
		AuthToken              json.RawMessage `json:"auth_token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := c.Get("Idempotency-Key")
	if key != "" {
		if stored, ok := s.idempotency[key]; ok {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(stored.Status).Send(stored.Body)
		}
	}

	status, body := s.executeTransfer(c, req.RecipientAccountNumber, req.Amount, req.AuthType, req.AuthToken)
	if key != "" {
		s.idempotency[key] = storedResponse{Status: status, Body: body}
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(status).Send(body)
}

// executeTransfer runs the business checks and moves funds. Callers hold
// the lock.
func (s *Server) executeTransfer(c *fiber.Ctx, recipientAccount string, amount float64, authType string, authToken json.RawMessage) (int, []byte) {
	sender := s.authenticated(c)
	if sender == nil {
		return http.StatusUnauthorized, mustJSON(fiber.Map{"status": "failed", "message": "Authentication required."})
	}

	switch authType {
	case "password":
		var password string
		if err := json.Unmarshal(authToken, &password); err != nil ||
			bcrypt.CompareHashAndPassword(sender.PasswordHash, []byte(password)) != nil {
			return http.StatusUnauthorized, mustJSON(fiber.Map{"status": "failed", "message": "Invalid password"})
		}
	case "face":
		var descriptor []float64
		if err := json.Unmarshal(authToken, &descriptor); err != nil ||
			len(sender.Descriptor) == 0 || !matches(sender.Descriptor, descriptor) {
			return http.StatusUnauthorized, mustJSON(fiber.Map{"status": "failed", "message": "Face not recognized."})
		}
	default:
		return http.StatusBadRequest, mustJSON(fiber.Map{"status": "failed", "message": "Unknown authorization type."})
	}

	if amount <= 0 {
		return http.StatusBadRequest, mustJSON(fiber.Map{"status": "failed", "message": "Invalid amount."})
	}

	recipient := s.findByAccount(recipientAccount)
	if recipient == nil {
		return http.StatusNotFound, mustJSON(fiber.Map{"status": "failed", "message": "Recipient account not found."})
	}
	if recipient.ID == sender.ID {
		return http.StatusBadRequest, mustJSON(fiber.Map{"status": "failed", "message": "Cannot transfer to your own account."})
	}
	if sender.Balance < amount {
		return http.StatusBadRequest, mustJSON(fiber.Map{"status": "failed", "message": "Insufficient funds."})
	}

	sender.Balance -= amount
	recipient.Balance += amount

	now := s.now()
	s.transactions[sender.ID] = append([]transactionRecord{{
		OtherPartyName: recipient.Name,
		Amount:         amount,
		Type:           "sent",
		Timestamp:      now,
	}}, s.transactions[sender.ID]...)
	s.transactions[recipient.ID] = append([]transactionRecord{{
		OtherPartyName: sender.Name,
		Amount:         amount,
		Type:           "received",
		Timestamp:      now,
	}}, s.transactions[recipient.ID]...)

	return http.StatusOK, mustJSON(fiber.Map{
		"status":      "success",
		"message":     "Transfer successful.",
		"new_balance": sender.Balance,
	})
}

// authenticated resolves the bearer session to a user. Callers hold the lock.
func (s *Server) authenticated(c *fiber.Ctx) *userRecord {
	authz := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return nil
	}
	return s.usersByID[strings.TrimSpace(authz[len("Bearer "):])]
}

func (s *Server) findByUsername(username string) *userRecord {
	for _, u := range s.usersByID {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func (s *Server) findByAccount(account string) *userRecord {
	for _, u := range s.usersByID {
		if u.AccountNumber == account {
			return u
		}
	}
	return nil
}

func matches(enrolled, probe []float64) bool {
	if len(enrolled) == 0 || len(enrolled) != len(probe) {
		return false
	}
	var sum float64
	for i := range enrolled {
		d := enrolled[i] - probe[i]
		sum += d * d
	}
	return math.Sqrt(sum) <= matchThreshold
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "failed",
		"message": message,
	})
}

func mustJSON(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
