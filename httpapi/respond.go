package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// respondError maps an error onto the HTTP taxonomy. Categorized errors keep
// their message; anything else becomes a generic 500 and the underlying
// fault is only logged.
func (a *API) respondError(c *fiber.Ctx, err error) error {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		rich = errors.Wrap(err, errors.CategoryInternal, "unexpected server error").
			WithCode(errors.CodeInternal)
	}

	status := rich.Code
	if status < fiber.StatusBadRequest {
		status = fiber.StatusInternalServerError
	}

	if status >= fiber.StatusInternalServerError {
		a.logger.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
		return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
	}

	if len(rich.Metadata) > 0 {
		a.logger.Debug("request rejected",
			"path", c.Path(),
			"details", print.MaybePrettyJSON(rich.Metadata),
		)
	}

	return c.Status(status).JSON(fiber.Map{"error": rich.Message})
}

// sessionCookie builds the cookie carrying a freshly minted token. Its
// max-age matches the token TTL so cookie and token expire together.
func (a *API) sessionCookie(token string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     a.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.cfg.TokenTTL.Seconds()),
		Expires:  time.Now().Add(a.cfg.TokenTTL),
		HTTPOnly: true,
		Secure:   a.cfg.Production,
		SameSite: a.cfg.CookieSameSite(),
	}
}

// expiredCookie clears the session cookie client-side. Tokens already issued
// stay valid until their natural expiry; there is no server-side revocation.
func (a *API) expiredCookie() *fiber.Cookie {
	return &fiber.Cookie{
		Name:     a.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   a.cfg.Production,
		SameSite: a.cfg.CookieSameSite(),
	}
}
