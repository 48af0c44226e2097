package api

import "time"

// Authorization method discriminators accepted by the transfer endpoint.
const (
	AuthTypePassword = "password"
	AuthTypeFace     = "face"
)

const statusSuccess = "success"

// BusinessError carries a declared failure from the ledger service. The
// message is the server's own wording and is shown to the user verbatim.
type BusinessError struct {
	Message string
}

func (e *BusinessError) Error() string {
	return e.Message
}

// envelope is the discriminator every ledger response carries.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RegisterInput is the payload for account registration.
type RegisterInput struct {
	Name          string `json:"name"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	PhoneNumber   string `json:"phone_number"`
	AccountNumber string `json:"account_number"`
}

// AuthResult is the outcome of register, login and face-login calls.
type AuthResult struct {
	UserID  string
	Message string
}

// User is the profile the dashboard renders.
type User struct {
	Name          string  `json:"name"`
	Username      string  `json:"username"`
	AccountNumber string  `json:"account_number"`
	Balance       float64 `json:"balance"`
}

// Transaction is a single ledger history entry. Records render in the
// order the server returns them.
type Transaction struct {
	OtherPartyName string    `json:"other_party_name"`
	Amount         float64   `json:"amount"`
	Type           string    `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
}

// TransferInput describes one transfer authorization request. AuthToken is
// the password string or the face descriptor, matching AuthType.
type TransferInput struct {
	RecipientAccountNumber string  `json:"recipient_account_number"`
	Amount                 float64 `json:"amount"`
	AuthType               string  `json:"auth_type"`
	AuthToken              any     `json:"auth_token"`
}

// TransferResult is a successful transfer response.
type TransferResult struct {
	Message    string
	NewBalance float64
}
