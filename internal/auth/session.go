package auth

// SessionState - результат разбора cookie сессии.
type SessionState int

const (
	// Unauthenticated: refresh-токена нет или он недействителен.
	Unauthenticated SessionState = iota
	// Refreshed: refresh-токен действителен, access отсутствует или устарел;
	// вызывающий обязан переписать обе cookie из Session.Tokens.
	Refreshed
	// Valid: оба токена действительны.
	Valid
)

func (s SessionState) String() string {
	switch s {
	case Refreshed:
		return "refreshed"
	case Valid:
		return "valid"
	default:
		return "unauthenticated"
	}
}

// Session - итог ResolveSession. Tokens заполнен только для Refreshed.
type Session struct {
	State    SessionState
	Username string
	Email    string
	Tokens   *TokenPair
	Err      error
}

// ResolveSession определяет состояние сессии по значениям двух cookie.
// Функция не делает ввода-вывода: запись cookie и кэша - забота вызывающего.
// Действительность refresh-токена проверяется только подписью и сроком.
func ResolveSession(tokens *TokenService, access, refresh string) Session {
	if refresh == "" {
		return Session{State: Unauthenticated}
	}
	rc, err := tokens.ParseRefresh(refresh)
	if err != nil {
		return Session{State: Unauthenticated, Err: err}
	}

	if access != "" {
		ac, err := tokens.ParseAccess(access)
		if err == nil && ac.Username == rc.Username {
			return Session{State: Valid, Username: ac.Username, Email: ac.Email}
		}
	}

	pair, err := tokens.Reissue(rc)
	if err != nil {
		return Session{State: Unauthenticated, Err: err}
	}
	return Session{State: Refreshed, Username: rc.Username, Email: rc.Email, Tokens: &pair}
}
