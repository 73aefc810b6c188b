package auth

import (
	"fmt"
	"strings"
)

// Logger accepts a message followed by alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity holds the attributes of an authenticated account
type Identity interface {
	ID() string
	Email() string
	DisplayName() string
	Role() string
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenExpiration() int
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
}

// SimpleConfig is a plain-struct Config for callers that do not bring
// their own configuration layer.
type SimpleConfig struct {
	SigningKey      string
	SigningMethod   string
	ContextKey      string
	TokenExpiration int
	TokenLookup     string
	AuthScheme      string
	Issuer          string
	Audience        []string
}

func (c SimpleConfig) GetSigningKey() string    { return c.SigningKey }
func (c SimpleConfig) GetContextKey() string    { return valueOr(c.ContextKey, "user") }
func (c SimpleConfig) GetAuthScheme() string    { return valueOr(c.AuthScheme, "Bearer") }
func (c SimpleConfig) GetIssuer() string        { return c.Issuer }
func (c SimpleConfig) GetAudience() []string    { return c.Audience }
func (c SimpleConfig) GetSigningMethod() string { return valueOr(c.SigningMethod, "HS256") }

func (c SimpleConfig) GetTokenLookup() string {
	return valueOr(c.TokenLookup, "header:Authorization")
}

// GetTokenExpiration returns the token lifetime in hours; the default
// is 7 days.
func (c SimpleConfig) GetTokenExpiration() int {
	if c.TokenExpiration > 0 {
		return c.TokenExpiration
	}
	return DefaultTokenExpiration
}

// DefaultTokenExpiration is the token lifetime in hours (7 days).
const DefaultTokenExpiration = 24 * 7

func valueOr(val, def string) string {
	if val != "" {
		return val
	}
	return def
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Println("[ERR] AUTH " + logLine(msg, args))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Println("[WRN] AUTH " + logLine(msg, args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Println("[INF] AUTH " + logLine(msg, args))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Println("[DBG] AUTH " + logLine(msg, args))
}

// logLine renders the trailing args as key=value pairs after the
// message. An odd trailing arg is appended as-is.
func logLine(msg string, args []any) string {
	var b strings.Builder
	b.WriteString(msg)
	i := 0
	for ; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	if i < len(args) {
		fmt.Fprintf(&b, " %v", args[i])
	}
	return b.String()
}
