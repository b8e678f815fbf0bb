package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mintsurvey/survey-service/internal/services"
	"github.com/mintsurvey/survey-service/internal/survey"
	"github.com/mintsurvey/survey-service/internal/utils"
)

// SessionHandler exposes the hosted questionnaire. Validation problems are
// part of the returned view and still answer 200.
type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

type ConsentRequest struct {
	Agree *bool `json:"agree" binding:"required"`
}

type AnswerRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

type ToggleRequest struct {
	Value string `json:"value" binding:"required"`
}

type SubmitSessionRequest struct {
	RecaptchaToken string `json:"recaptchaToken"`
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	res, err := h.sessionService.Create(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.LogRequest(c, "Session created", "session_id", res.View.SessionID)
	c.JSON(http.StatusCreated, res)
}

// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	h.respond(c)(h.sessionService.Get(c.Request.Context(), id))
}

// @Router /sessions/{id}/consent [post]
func (h *SessionHandler) Consent(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	var req ConsentRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c)(h.sessionService.Consent(c.Request.Context(), id, *req.Agree))
}

// @Router /sessions/{id}/answers [put]
func (h *SessionHandler) SetAnswer(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	var req AnswerRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c)(h.sessionService.SetField(c.Request.Context(), id, survey.Field(req.Field), req.Value))
}

// @Router /sessions/{id}/purchase-types [post]
func (h *SessionHandler) TogglePurchaseType(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	var req ToggleRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c)(h.sessionService.TogglePurchaseType(c.Request.Context(), id, req.Value))
}

// @Router /sessions/{id}/reasons [post]
func (h *SessionHandler) ToggleReason(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	var req ToggleRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c)(h.sessionService.ToggleReason(c.Request.Context(), id, req.Value))
}

// @Router /sessions/{id}/next [post]
func (h *SessionHandler) Next(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	h.respond(c)(h.sessionService.Next(c.Request.Context(), id))
}

// Submit delivers the session's answers. A failed delivery is reported in
// the view's form error.
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) Submit(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	var req SubmitSessionRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}
	h.respond(c)(h.sessionService.Submit(c.Request.Context(), id, req.RecaptchaToken, c.ClientIP()))
}

func (h *SessionHandler) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request", err, err.Error())
		return false
	}
	return true
}

func (h *SessionHandler) respond(c *gin.Context) func(*services.SessionResult, error) {
	return func(res *services.SessionResult, err error) {
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
