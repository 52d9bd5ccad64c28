package chat

import (
	"errors"

	"backend-hikinghelper/internal/auth"

	"github.com/gofiber/fiber/v2"
)

type askRequest struct {
	Message string    `json:"message"`
	History []Message `json:"history"`
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		var req askRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		reply, err := svc.Ask(c.Context(), userID, req.Message, req.History)
		switch {
		case errors.Is(err, ErrChatUnavailable):
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		case errors.Is(err, ErrEmptyMessage):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, ErrRateLimited):
			return fiber.NewError(fiber.StatusTooManyRequests, err.Error())
		case err != nil:
			return fiber.NewError(fiber.StatusBadGateway, "assistant failed to respond")
		}
		return c.JSON(reply)
	})
}
