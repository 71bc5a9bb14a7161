package entity

// Account is the identity collaborator's view of a phone-bound account.
type Account struct {
	ID          string
	PhoneNumber string
	Confirmed   bool
}

// Session is the opaque credential returned by the identity collaborator
// after a successful handshake. The engine never inspects the token.
type Session struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
}
