// Package jwtware is the token-verification gate: it locates a candidate
// token on the request, verifies it, and attaches the decoded claims to the
// request context. It is a pure gate with no side effects beyond context
// attachment.
package jwtware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	"github.com/chonburidev/records-api/auth"
)

const defaultTokenLookup = "header:" + fiber.HeaderAuthorization + ",cookie:jwt"

type Config struct {
	// Filter skips the middleware when it returns true.
	Filter func(*fiber.Ctx) bool
	// SuccessHandler runs after the claims have been attached. Defaults to
	// c.Next().
	SuccessHandler fiber.Handler
	// ErrorHandler maps extraction and verification failures to a response.
	ErrorHandler func(*fiber.Ctx, error) error
	// TokenValidator verifies the raw token. Required.
	TokenValidator auth.TokenValidator
	// ContextKey is the locals key the claims are stored under.
	ContextKey string
	// TokenLookup lists token sources in priority order, e.g.
	// "header:Authorization,cookie:jwt".
	TokenLookup string
	// AuthScheme is the expected header scheme. Defaults to "Bearer".
	AuthScheme string
	// ContextEnricher propagates claims to the standard Go context so
	// non-HTTP layers can read them. Defaults to auth.WithClaims.
	ContextEnricher func(context.Context, *auth.SessionClaims) context.Context
}

// New builds the verification gate. A request with no token at any lookup
// source fails with ErrUnauthenticated; a present but unverifiable token
// fails with the validator's error (expired or malformed).
func New(config ...Config) fiber.Handler {
	cfg := configDefaults(config...)
	extractors := cfg.getExtractors()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := ExtractRawToken(c, extractors)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)
		c.SetUserContext(cfg.ContextEnricher(c.UserContext(), claims))

		return cfg.SuccessHandler(c)
	}
}

// ClaimsFromLocals returns the claims a successful gate pass stored on the
// request.
func ClaimsFromLocals(c *fiber.Ctx, key string) (*auth.SessionClaims, bool) {
	if key == "" {
		key = "user"
	}
	claims, ok := c.Locals(key).(*auth.SessionClaims)
	return claims, ok
}

func configDefaults(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.TokenValidator == nil {
		panic("jwtware: TokenValidator is required")
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.ContextEnricher == nil {
		cfg.ContextEnricher = auth.WithClaims
	}

	return cfg
}

func defaultErrorHandler(c *fiber.Ctx, err error) error {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		rich = auth.ErrTokenMalformed
	}

	status := rich.Code
	if status < fiber.StatusBadRequest {
		status = fiber.StatusUnauthorized
	}
	return c.Status(status).JSON(fiber.Map{"error": rich.Message})
}

// ExtractRawToken tries each extractor in order and returns the first token
// found. No token at any source is an ErrUnauthenticated failure.
func ExtractRawToken(c *fiber.Ctx, extractors []Extractor) (string, error) {
	for _, extractor := range extractors {
		if raw := extractor(c); raw != "" {
			return raw, nil
		}
	}
	return "", auth.ErrUnauthenticated
}

// Extractor pulls a candidate token from a request, returning "" when the
// source is absent.
type Extractor func(c *fiber.Ctx) string

func (cfg *Config) getExtractors() []Extractor {
	return Extractors(cfg.TokenLookup, cfg.AuthScheme)
}

// Extractors parses a lookup string such as
// "header:Authorization,cookie:jwt,query:auth_token" into extractor funcs.
func Extractors(tokenLookup, authScheme string) []Extractor {
	extractors := make([]Extractor, 0)

	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}
		source, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

		switch source {
		case "header":
			extractors = append(extractors, fromHeader(name, authScheme))
		case "cookie":
			extractors = append(extractors, fromCookie(name))
		case "query":
			extractors = append(extractors, fromQuery(name))
		}
	}

	return extractors
}

func fromHeader(header, authScheme string) Extractor {
	return func(c *fiber.Ctx) string {
		a := c.Get(header)
		l := len(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:])
		}
		return ""
	}
}

func fromCookie(name string) Extractor {
	return func(c *fiber.Ctx) string {
		return c.Cookies(name)
	}
}

func fromQuery(param string) Extractor {
	return func(c *fiber.Ctx) string {
		return c.Query(param)
	}
}
