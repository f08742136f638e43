package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"tuition/internal/model"
	"tuition/internal/service"
	"tuition/internal/tuition"
)

// CourseHandler handles the per-regime course catalog and tuition quotes.
type CourseHandler struct {
	catalog service.CatalogService
	quotes  service.QuoteService
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(catalog service.CatalogService, quotes service.QuoteService) *CourseHandler {
	return &CourseHandler{catalog: catalog, quotes: quotes}
}

// CourseRequest is the payload for creating or replacing a course.
type CourseRequest struct {
	Name        string           `json:"name" validate:"required"`
	CreditPrice *decimal.Decimal `json:"credit_price" validate:"required"`
}

// QuoteRequest is the simulator form. Empty fields take their defaults.
type QuoteRequest struct {
	CourseID     string           `json:"course_id"`
	Credits      *decimal.Decimal `json:"credits" swaggertype:"number"`
	Installments int              `json:"installments"`
	Discount     *decimal.Decimal `json:"discount" swaggertype:"number"`
}

// ListCourses godoc
// @Summary List courses of a regime
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param regime path string true "seriado or aberto"
// @Success 200 {array} model.Course
// @Failure 404 {object} errors.ErrorResponse
// @Router /regimes/{regime}/courses [get]
func (h *CourseHandler) ListCourses(c echo.Context) error {
	courses, err := h.catalog.List(c.Request().Context(), regimeParam(c))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, courses)
}

// GetCourse godoc
// @Summary Get a course
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param regime path string true "seriado or aberto"
// @Param id path string true "Course ID"
// @Success 200 {object} model.Course
// @Failure 404 {object} errors.ErrorResponse
// @Router /regimes/{regime}/courses/{id} [get]
func (h *CourseHandler) GetCourse(c echo.Context) error {
	course, err := h.catalog.Get(c.Request().Context(), regimeParam(c), c.Param("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, course)
}

// CreateCourse godoc
// @Summary Add a course
// @Description The name is stored upper-cased. Admin only.
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param regime path string true "seriado or aberto"
// @Param request body CourseRequest true "Course"
// @Success 201 {object} model.Course
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /regimes/{regime}/courses [post]
func (h *CourseHandler) CreateCourse(c echo.Context) error {
	var req CourseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	course, err := h.catalog.Add(c.Request().Context(), regimeParam(c), req.input())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, course)
}

// UpdateCourse godoc
// @Summary Replace a course's name and price
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param regime path string true "seriado or aberto"
// @Param id path string true "Course ID"
// @Param request body CourseRequest true "Course"
// @Success 200 {object} model.Course
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /regimes/{regime}/courses/{id} [put]
func (h *CourseHandler) UpdateCourse(c echo.Context) error {
	var req CourseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	course, err := h.catalog.Update(c.Request().Context(), regimeParam(c), c.Param("id"), req.input())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, course)
}

// DeleteCourse godoc
// @Summary Remove a course
// @Tags courses
// @Security BearerAuth
// @Param regime path string true "seriado or aberto"
// @Param id path string true "Course ID"
// @Success 204
// @Router /regimes/{regime}/courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(c echo.Context) error {
	if err := h.catalog.Delete(c.Request().Context(), regimeParam(c), c.Param("id")); err != nil {
		return respondError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Quote godoc
// @Summary Compute tuition for a course
// @Description Every field is validated before anything is computed.
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param regime path string true "seriado or aberto"
// @Param request body QuoteRequest true "Simulation"
// @Success 200 {object} tuition.Quote
// @Failure 400 {object} errors.ErrorResponse
// @Router /regimes/{regime}/quote [post]
func (h *CourseHandler) Quote(c echo.Context) error {
	var req QuoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	quote, err := h.quotes.Quote(c.Request().Context(), regimeParam(c), tuition.Input{
		CourseID:          req.CourseID,
		CreditCount:       req.Credits,
		InstallmentMonths: req.Installments,
		DiscountPercent:   req.Discount,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, quote)
}

func (r CourseRequest) input() service.CourseInput {
	return service.CourseInput{Name: r.Name, CreditPrice: *r.CreditPrice}
}

func regimeParam(c echo.Context) model.Regime {
	return model.Regime(c.Param("regime"))
}
