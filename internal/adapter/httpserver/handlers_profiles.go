package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kennedy-ak/mooibanana-project/internal/app"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"github.com/labstack/echo/v4"
)

type profileRequest struct {
	Bio        string            `json:"bio"`
	BirthDate  string            `json:"birth_date"`
	StudyField domain.StudyField `json:"study_field"`
	StudyYear  *int              `json:"study_year"`
	Interests  []string          `json:"interests"`
	PictureURL string            `json:"picture_url"`
	Location   string            `json:"location"`
	City       string            `json:"city"`
	School     string            `json:"school"`
	Latitude   *float64          `json:"latitude"`
	Longitude  *float64          `json:"longitude"`
}

func (r profileRequest) input() (app.ProfileInput, error) {
	in := app.ProfileInput{
		Bio:        r.Bio,
		StudyField: r.StudyField,
		StudyYear:  r.StudyYear,
		Interests:  strings.Join(r.Interests, ","),
		PictureURL: r.PictureURL,
		Location:   r.Location,
		City:       r.City,
		School:     r.School,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
	}
	if r.BirthDate != "" {
		birth, err := time.Parse(dateLayout, r.BirthDate)
		if err != nil {
			return in, domain.Invalid("birth_date", "must be formatted as YYYY-MM-DD")
		}
		in.BirthDate = &birth
	}
	return in, nil
}

func (s *Server) registerProfileRoutes(authed *echo.Group) {
	if s.svc.Profiles != nil {
		authed.GET("/profile", s.handleMyProfile)
		authed.PUT("/profile", s.handleUpdateProfile)
		authed.GET("/profiles/:id", s.handleGetProfile)
	}
	if s.svc.Discovery != nil {
		authed.GET("/discover", s.handleDiscover)
	}
}

func (s *Server) handleMyProfile(c echo.Context) error {
	view, err := s.svc.Profiles.GetMyProfile(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, toProfileViewResponse(view))
}

func (s *Server) handleUpdateProfile(c echo.Context) error {
	var req profileRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}

	view, err := s.svc.Profiles.UpdateProfile(c.Request().Context(), currentUserID(c), in)
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, toProfileViewResponse(view))
}

func (s *Server) handleGetProfile(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	view, err := s.svc.Profiles.GetProfile(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, toProfileViewResponse(view))
}

func (s *Server) handleDiscover(c echo.Context) error {
	f, err := discoveryFilter(c)
	if err != nil {
		return err
	}

	page, err := s.svc.Discovery.Discover(c.Request().Context(), currentUserID(c), f, pageParam(c), c.QueryParam("seed"))
	if err != nil {
		return err
	}
	return sendJSON(c, http.StatusOK, toDiscoveryResponse(page))
}

func discoveryFilter(c echo.Context) (domain.DiscoveryFilter, error) {
	f := domain.DiscoveryFilter{
		StudyField: domain.StudyField(c.QueryParam("study_field")),
		City:       c.QueryParam("city"),
		School:     c.QueryParam("school"),
		Interest:   c.QueryParam("interest"),
	}

	var err error
	if f.StudyYear, err = optionalInt(c, "study_year"); err != nil {
		return f, err
	}
	if f.MinAge, err = optionalInt(c, "min_age"); err != nil {
		return f, err
	}
	if f.MaxAge, err = optionalInt(c, "max_age"); err != nil {
		return f, err
	}
	if raw := c.QueryParam("max_distance"); raw != "" {
		km, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, domain.Invalid("max_distance", "must be a number")
		}
		f.MaxDistanceKm = &km
	}
	return f, nil
}

func optionalInt(c echo.Context, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.Invalid(name, "must be a whole number")
	}
	return &v, nil
}
