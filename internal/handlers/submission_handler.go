package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mintsurvey/survey-service/internal/models"
	"github.com/mintsurvey/survey-service/internal/repositories"
	"github.com/mintsurvey/survey-service/internal/services"
	"github.com/mintsurvey/survey-service/internal/utils"
)

type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
	exportService     services.ExportService
}

func NewSubmissionHandler(
	submissionService services.SubmissionService,
	exportService services.ExportService,
	logger utils.Logger,
) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
		exportService:     exportService,
	}
}

// Submit stores one survey response.
// @Summary Submit survey
// @Tags submissions
// @Accept json
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /submit [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req models.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid payload", err, err.Error())
		return
	}

	resp, err := h.submissionService.Submit(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Survey submitted", "response_id", resp.ID)
	c.JSON(http.StatusOK, SuccessResponse{Success: true, ID: resp.ID})
}

// List returns stored responses as a JSON array. The total before paging is
// sent in X-Total-Count.
// @Summary List survey responses
// @Tags submissions
// @Produce json
// @Param purchase_type query string false "Purchase type"
// @Param city query string false "City"
// @Param brand query string false "Brand"
// @Param date_from query string false "YYYY-MM-DD or RFC 3339"
// @Param date_to query string false "YYYY-MM-DD or RFC 3339"
// @Success 200 {array} models.SurveyResponse
// @Router /submit [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	filters, err := parseResponseFilters(c)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request", err, err.Error())
		return
	}

	responses, total, err := h.submissionService.List(c.Request.Context(), filters)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch survey responses", err, err.Error())
		return
	}
	if responses == nil {
		responses = []*models.SurveyResponse{}
	}

	c.Header("X-Total-Count", strconv.FormatInt(total, 10))
	c.JSON(http.StatusOK, responses)
}

// Get returns one stored response.
// @Router /submit/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	resp, err := h.submissionService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stats returns aggregate figures over all responses.
// @Router /submit/stats [get]
func (h *SubmissionHandler) Stats(c *gin.Context) {
	stats, err := h.submissionService.Stats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Export sends every matching response as a spreadsheet attachment.
// @Param format query string false "xlsx (default) or csv"
// @Router /submit/export [get]
func (h *SubmissionHandler) Export(c *gin.Context) {
	filters, err := parseResponseFilters(c)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request", err, err.Error())
		return
	}

	format := services.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(services.ExportXLSX))))
	file, err := h.exportService.ExportResponses(c.Request.Context(), format, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Responses exported", "format", format, "bytes", len(file.Data))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func parseResponseFilters(c *gin.Context) (repositories.SurveyResponseFilters, error) {
	filters := repositories.SurveyResponseFilters{
		PurchaseType: c.Query("purchase_type"),
		City:         c.Query("city"),
		Brand:        c.Query("brand"),
		SortBy:       c.Query("sort_by"),
		SortOrder:    c.Query("sort_order"),
	}

	var err error
	if filters.Limit, err = parseIntQuery(c, "limit"); err != nil {
		return filters, err
	}
	if filters.Offset, err = parseIntQuery(c, "offset"); err != nil {
		return filters, err
	}
	if filters.DateFrom, err = parseTimeQuery(c, "date_from"); err != nil {
		return filters, err
	}
	if filters.DateTo, err = parseTimeQuery(c, "date_to"); err != nil {
		return filters, err
	}
	return filters, nil
}

func parseIntQuery(c *gin.Context, param string) (int, error) {
	raw := c.Query(param)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", param)
	}
	return v, nil
}

func parseTimeQuery(c *gin.Context, param string) (*time.Time, error) {
	raw := c.Query(param)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s must be YYYY-MM-DD or RFC 3339", param)
}
