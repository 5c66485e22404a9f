package access

const (
	RoleAnonymous = "anonymous"
	RoleUser      = "user"
	RoleAdmin     = "admin"
)

// Principal is the caller identity resolved once per request by the auth
// middleware and passed explicitly into access and settlement code. The zero
// value is the anonymous principal.
type Principal struct {
	UserID string
	Email  string
	Role   string
}

func Anonymous() Principal {
	return Principal{Role: RoleAnonymous}
}

func (p Principal) Authenticated() bool {
	return p.UserID != "" && p.Role != RoleAnonymous && p.Role != ""
}

func (p Principal) IsAdmin() bool {
	return p.Authenticated() && p.Role == RoleAdmin
}
