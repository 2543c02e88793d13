package token

import "time"

// Maker is the contract for anything that can create and verify tokens.
// Lets the token implementation change without touching the handlers.
type Maker interface {
	CreateToken(email, role string, duration time.Duration) (string, error)

	VerifyToken(token string) (*Payload, error)
}
