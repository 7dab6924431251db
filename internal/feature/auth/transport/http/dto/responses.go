package dto

// SessionTokenRes carries a session token, or the "waiting" placeholder after signup.
type SessionTokenRes struct {
	SessionToken string `json:"sessionToken"`
}

// ResultRes is the logout acknowledgement.
type ResultRes struct {
	Result string `json:"result"`
}

// ErrorRes is the body of every failed request.
type ErrorRes struct {
	Error string `json:"error"`
}

// UserRes is the public view of a user. The password hash is never exposed.
type UserRes struct {
	Email        string `json:"email"`
	SessionToken string `json:"sessionToken"`
}
