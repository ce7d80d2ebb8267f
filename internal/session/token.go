package session

import "net/url"

// fallbackToken is used when the page location carries no session token.
const fallbackToken = "default-session"

// Token extracts the chat session token from the page location. The
// token correlates this tab with the relay and partitions persisted
// state; absence degrades to a shared literal fallback.
func Token(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return fallbackToken
	}
	if tok := u.Query().Get("sessionToken"); tok != "" {
		return tok
	}
	return fallbackToken
}
