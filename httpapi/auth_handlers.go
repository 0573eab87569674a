package httpapi

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	"github.com/chonburidev/records-api/auth"
	"github.com/chonburidev/records-api/middleware/jwtware"
)

type registerPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Validate requires all five fields; validation runs before any store access.
func (p registerPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required),
		validation.Field(&p.Password, validation.Required),
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.Email, validation.Required),
		validation.Field(&p.Role, validation.Required),
	)
}

// RegisterUser creates a new user record. No token is issued here;
// registration and login are decoupled.
func (a *API) RegisterUser(c *fiber.Ctx) error {
	payload := &registerPayload{}
	if err := c.BodyParser(payload); err != nil {
		return a.respondError(c, auth.ErrInvalidInput)
	}

	if err := payload.Validate(); err != nil {
		return a.respondError(c, invalidInput(err))
	}

	created, err := a.svc.Register(c.UserContext(), auth.RegisterInput{
		Username: payload.Username,
		Password: payload.Password,
		Name:     payload.Name,
		Email:    payload.Email,
		Role:     payload.Role,
	})
	if err != nil {
		return a.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (p loginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required),
		validation.Field(&p.Password, validation.Required),
	)
}

// Login verifies credentials and hands the minted token to the client via
// cookie, body, or both, depending on configuration.
func (a *API) Login(c *fiber.Ctx) error {
	payload := &loginPayload{}
	if err := c.BodyParser(payload); err != nil {
		return a.respondError(c, auth.ErrInvalidInput)
	}

	if err := payload.Validate(); err != nil {
		return a.respondError(c, invalidInput(err))
	}

	result, err := a.svc.Login(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return a.respondError(c, err)
	}

	if a.cfg.DeliverCookie() {
		c.Cookie(a.sessionCookie(result.Token))
	}

	body := fiber.Map{
		"message": "login successful",
		"user":    result.User,
	}
	if a.cfg.DeliverBody() {
		body["token"] = result.Token
	}

	return c.JSON(body)
}

// Logout expires the session cookie. Purely client-visible: stateless tokens
// already in the wild stay valid until natural expiry.
func (a *API) Logout(c *fiber.Ctx) error {
	c.Cookie(a.expiredCookie())
	return c.JSON(fiber.Map{"message": "logout successful"})
}

// PrivateData is the example protected route: it echoes the verified claims
// the gate attached to the request.
func (a *API) PrivateData(c *fiber.Ctx) error {
	claims, ok := jwtware.ClaimsFromLocals(c, claimsLocalKey)
	if !ok {
		return a.respondError(c, auth.ErrUnauthenticated)
	}

	return c.JSON(fiber.Map{
		"message": "private data",
		"user":    claims,
	})
}

// invalidInput folds a payload validation failure into the InvalidInput
// error, keeping the per-field details for logs only.
func invalidInput(err error) error {
	return errors.Wrap(err, auth.ErrInvalidInput.Category, auth.ErrInvalidInput.Message).
		WithTextCode(auth.ErrInvalidInput.TextCode).
		WithCode(auth.ErrInvalidInput.Code).
		WithMetadata(map[string]any{"validation": err.Error()})
}
