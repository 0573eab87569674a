package httpapi

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"github.com/chonburidev/records-api/auth"
)

type namedRecordPayload struct {
	Name string `json:"name"`
}

func (p namedRecordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
	)
}

// ListRecords returns the raw key to document mapping of a collection.
func (a *API) ListRecords(collection string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snapshot, err := a.kv.Snapshot(c.UserContext(), collection)
		if err != nil {
			return a.respondError(c, auth.WrapStoreError(err, "failed to read collection"))
		}
		return c.JSON(snapshot)
	}
}

// CreateNamedRecord pushes a {name} document into a collection and returns
// the store-generated key.
func (a *API) CreateNamedRecord(collection string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := &namedRecordPayload{}
		if err := c.BodyParser(payload); err != nil {
			return a.respondError(c, auth.ErrInvalidInput)
		}

		if err := payload.Validate(); err != nil {
			return a.respondError(c, invalidInput(err))
		}

		key, err := a.kv.Push(c.UserContext(), collection, payload)
		if err != nil {
			return a.respondError(c, auth.WrapStoreError(err, "failed to push record"))
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":   key,
			"name": payload.Name,
		})
	}
}
