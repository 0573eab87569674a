// Package httpapi wires the auth service and record collections onto Fiber
// routes, and owns the HTTP error and session-cookie boundaries.
package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chonburidev/records-api/auth"
	"github.com/chonburidev/records-api/config"
	"github.com/chonburidev/records-api/middleware/jwtware"
	"github.com/chonburidev/records-api/store"
)

// API exposes the HTTP surface of the service.
type API struct {
	cfg    *config.Config
	svc    *auth.Service
	tokens auth.TokenValidator
	kv     store.KV
	logger auth.Logger
}

// New creates the HTTP API from its collaborators.
func New(cfg *config.Config, svc *auth.Service, tokens auth.TokenValidator, kv store.KV, logger auth.Logger) *API {
	if logger == nil {
		logger = noopLogger{}
	}
	return &API{
		cfg:    cfg,
		svc:    svc,
		tokens: tokens,
		kv:     kv,
		logger: logger,
	}
}

// Register mounts every route on the app. The verification gate guards the
// user listing and the private-data example route; everything else is open,
// matching the public CRUD surface.
func (a *API) Register(app *fiber.App) {
	protected := jwtware.New(jwtware.Config{
		TokenValidator: a.tokens,
		ContextKey:     claimsLocalKey,
		TokenLookup:    "header:" + fiber.HeaderAuthorization + ",cookie:" + a.cfg.CookieName,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return a.respondError(c, err)
		},
	})

	app.Get("/", a.Health)

	app.Post("/register", a.RegisterUser)
	app.Post("/login", a.Login)
	app.Post("/logout", a.Logout)

	app.Get("/users", protected, a.ListUsers)
	app.Get("/users/:userid", a.GetUser)
	app.Put("/users/:userid", a.UpdateUser)
	app.Delete("/users/:userid", a.DeleteUser)

	app.Get("/private-data", protected, a.PrivateData)

	app.Get("/items", a.ListRecords(store.CollectionItems))
	app.Post("/items", a.CreateNamedRecord(store.CollectionItems))
	app.Get("/books", a.ListRecords(store.CollectionBooks))
	app.Post("/books", a.CreateNamedRecord(store.CollectionBooks))
}

const claimsLocalKey = "user"

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Health is the backend-OK probe.
func (a *API) Health(c *fiber.Ctx) error {
	return c.SendString("backend OK")
}
