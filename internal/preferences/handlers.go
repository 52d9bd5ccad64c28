package preferences

import (
	"errors"

	"backend-hikinghelper/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, store *Store, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Get("/", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		rec, err := store.Get(c.Context(), userID)
		return respond(c, rec, err)
	})

	r.Patch("/", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		var patch Patch
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		rec, err := store.Update(c.Context(), userID, patch)
		return respond(c, rec, err)
	})

	r.Put("/regions", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		var body struct {
			Regions []string `json:"regions"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		rec, err := store.SetRegions(c.Context(), userID, body.Regions)
		return respond(c, rec, err)
	})

	r.Delete("/regions", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		rec, err := store.ClearRegions(c.Context(), userID)
		return respond(c, rec, err)
	})

	r.Post("/completed/:trailID", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		trailID, err := c.ParamsInt("trailID")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid trail id")
		}
		rec, err := store.MarkCompleted(c.Context(), userID, trailID)
		return respond(c, rec, err)
	})

	r.Delete("/completed/:trailID", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		trailID, err := c.ParamsInt("trailID")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid trail id")
		}
		rec, err := store.UnmarkCompleted(c.Context(), userID, trailID)
		return respond(c, rec, err)
	})

	r.Delete("/completed", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		rec, err := store.ClearCompleted(c.Context(), userID)
		return respond(c, rec, err)
	})

	r.Post("/onboarding", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		var answers Onboarding
		if err := c.BodyParser(&answers); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		rec, err := store.CompleteOnboarding(c.Context(), userID, answers)
		return respond(c, rec, err)
	})
}

func respond(c *fiber.Ctx, rec Record, err error) error {
	if errors.Is(err, ErrInvalidPreferences) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save preferences")
	}
	return c.JSON(rec)
}
