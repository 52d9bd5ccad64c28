package tiers

import (
	"errors"
	"strconv"

	"backend-hikinghelper/internal/auth"
	"backend-hikinghelper/internal/catalog"
	"backend-hikinghelper/internal/metrics"
	"backend-hikinghelper/internal/trail"

	"github.com/gofiber/fiber/v2"
)

const defaultRadiusKm = 50.0

type regionInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func RegisterRoutes(r fiber.Router, svc *Service, provider *catalog.Provider, authMiddleware fiber.Handler) {
	r.Get("/regions", func(c *fiber.Ctx) error {
		codes, err := provider.Regions()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		out := make([]regionInfo, 0, len(codes))
		for _, code := range codes {
			out = append(out, regionInfo{Code: code, Name: trail.RegionName(code)})
		}
		return c.JSON(out)
	})

	r.Get("/tiers", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		resp, err := svc.View(c.Context(), userID, c.Query("q"))
		if err != nil {
			metrics.TierRequests.WithLabelValues(metrics.OutcomeError).Inc()
		}
		if errors.Is(err, catalog.ErrLoadFailed) {
			return fiber.NewError(fiber.StatusServiceUnavailable, catalog.ErrLoadFailed.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		metrics.TierRequests.WithLabelValues(metrics.OutcomeSuccess).Inc()
		return c.JSON(resp)
	})

	r.Get("/nearby", func(c *fiber.Ctx) error {
		lat, latErr := queryFloat(c, "lat")
		lng, lngErr := queryFloat(c, "lng")
		if latErr != nil || lngErr != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng required")
		}
		radius := c.QueryFloat("radius_km", defaultRadiusKm)
		if radius <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "radius_km must be positive")
		}
		snap, err := provider.Ensure(c.Context(), nil)
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, catalog.ErrLoadFailed.Error())
		}
		return c.JSON(catalog.Nearby(snap.Trails, lat, lng, radius))
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid trail id")
		}
		t, err := provider.Find(c.Context(), id)
		if errors.Is(err, catalog.ErrTrailNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, catalog.ErrLoadFailed.Error())
		}
		return c.JSON(t)
	})
}

func queryFloat(c *fiber.Ctx, key string) (float64, error) {
	return strconv.ParseFloat(c.Query(key), 64)
}
