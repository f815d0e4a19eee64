package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) registerAdminRoutes(api, admin *echo.Group) {
	if s.svc.Advertisements != nil {
		api.GET("/advertisements", s.handleAdvertisements)
	}
	if s.svc.Admin != nil {
		admin.GET("/stats", s.handleDashboardStats)
	}
}

func (s *Server) handleAdvertisements(c echo.Context) error {
	ads, err := s.svc.Advertisements.ActiveAdvertisements(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]advertisementResponse, 0, len(ads))
	for _, a := range ads {
		out = append(out, advertisementResponse{
			ID: a.ID, BrandName: a.BrandName, FlyerURL: a.FlyerURL, BrandURL: a.BrandURL, Priority: a.Priority,
		})
	}
	return sendJSON(c, http.StatusOK, out)
}

func (s *Server) handleDashboardStats(c echo.Context) error {
	stats, err := s.svc.Admin.DashboardStats(c.Request().Context())
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, stats)
}
