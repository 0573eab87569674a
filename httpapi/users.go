package httpapi

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/chonburidev/records-api/auth"
)

// ListUsers returns the full storageKey to record mapping, password hashes
// stripped.
func (a *API) ListUsers(c *fiber.Ctx) error {
	users, err := a.svc.ListUsers(c.UserContext())
	if err != nil {
		return a.respondError(c, err)
	}

	out := make(map[string]auth.UserSummary, len(users))
	for key, user := range users {
		out[key] = user.Summary()
	}
	return c.JSON(out)
}

// GetUser looks a user up by its numeric id.
func (a *API) GetUser(c *fiber.Ctx) error {
	id, err := userIDParam(c)
	if err != nil {
		return a.respondError(c, err)
	}

	_, user, err := a.svc.GetUser(c.UserContext(), id)
	if err != nil {
		return a.respondError(c, err)
	}

	return c.JSON(user.Summary())
}

// UpdateUser merges name/email/role changes into an existing record. An
// empty update is rejected before any store access.
func (a *API) UpdateUser(c *fiber.Ctx) error {
	id, err := userIDParam(c)
	if err != nil {
		return a.respondError(c, err)
	}

	patch := auth.UserPatch{}
	if err := c.BodyParser(&patch); err != nil {
		return a.respondError(c, auth.ErrInvalidInput)
	}

	if err := a.svc.UpdateUser(c.UserContext(), id, patch); err != nil {
		return a.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "update successful",
		"updates": patch.Fields(),
	})
}

// DeleteUser removes a record by its numeric id.
func (a *API) DeleteUser(c *fiber.Ctx) error {
	id, err := userIDParam(c)
	if err != nil {
		return a.respondError(c, err)
	}

	if err := a.svc.DeleteUser(c.UserContext(), id); err != nil {
		return a.respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "delete successful"})
}

// userIDParam parses the numeric id from the route. A non-numeric id can
// never match a record, so it reads as not found.
func userIDParam(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("userid"))
	if err != nil {
		return 0, auth.ErrUserNotFound
	}
	return id, nil
}
