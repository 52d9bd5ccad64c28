package goal

import (
	"context"
	"errors"

	"backend-hikinghelper/internal/auth"
	"backend-hikinghelper/internal/trail"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const defaultSuggestions = 3

// TierSource classifies the catalog for a user.
type TierSource interface {
	TiersFor(ctx context.Context, userID, query string) (trail.Tiers, trail.Preferences, error)
}

func RegisterRoutes(r fiber.Router, svc *Service, source TierSource, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Get("/", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		goals, err := svc.List(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		completed, pending := Partition(goals)
		return c.JSON(fiber.Map{
			"goals":     goals,
			"completed": completed,
			"pending":   pending,
			"progress":  Summarize(goals),
		})
	})

	r.Post("/", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		var req CreateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		g, err := svc.Create(c.Context(), userID, req)
		if errors.Is(err, ErrTitleMissing) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(g)
	})

	r.Get("/progress", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		p, err := svc.Progress(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(p)
	})

	r.Post("/suggest", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		limit := c.QueryInt("limit", defaultSuggestions)
		tiers, prefs, err := source.TiersFor(c.Context(), userID, "")
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		created, err := svc.AddSuggestions(c.Context(), userID, SuggestFromTiers(tiers, prefs, 0), limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		userID, id, err := goalRef(c)
		if err != nil {
			return err
		}
		g, err := svc.Get(c.Context(), userID, id)
		return respond(c, g, err)
	})

	r.Patch("/:id/toggle", func(c *fiber.Ctx) error {
		userID, id, err := goalRef(c)
		if err != nil {
			return err
		}
		g, err := svc.Toggle(c.Context(), userID, id)
		return respond(c, g, err)
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		userID, id, err := goalRef(c)
		if err != nil {
			return err
		}
		err = svc.Delete(c.Context(), userID, id)
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// goalRef reads the caller and the goal id. Ids that are not UUIDs cannot
// exist, so they are reported as not found without a query.
func goalRef(c *fiber.Ctx) (string, string, error) {
	userID, err := auth.RequireUser(c)
	if err != nil {
		return "", "", err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return "", "", fiber.NewError(fiber.StatusNotFound, ErrNotFound.Error())
	}
	return userID, id.String(), nil
}

func respond(c *fiber.Ctx, g Goal, err error) error {
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(g)
}
