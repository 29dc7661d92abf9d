package handler

import (
	"errors"
	"strings"

	"github.com/fadilmartias/teambuilder/internal/interview"
	"github.com/fadilmartias/teambuilder/internal/repository"
	"github.com/fadilmartias/teambuilder/internal/usecase"
	"github.com/fadilmartias/teambuilder/internal/util"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// errorResponse maps domain errors onto the HTTP envelope.
func errorResponse(c *fiber.Ctx, err error) error {
	var oracleErr *interview.OracleUnavailableError
	switch {
	case errors.As(err, &oracleErr):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusServiceUnavailable,
			Message: "interviewer is unavailable, please retry",
			Details: fiber.Map{"retryable": oracleErr.Retryable()},
		}, err)
	case errors.Is(err, interview.ErrInvalidTurnState):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusUnprocessableEntity,
			Message: "invalid interview state",
		}, err)
	case errors.Is(err, interview.ErrInterviewCompleted):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusConflict,
			Message: "interview already completed",
		}, err)
	case errors.Is(err, interview.ErrMemberNotFound):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "member not found",
		}, err)
	case errors.Is(err, interview.ErrNotMember):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusForbidden,
			Message: "not allowed to access this interview",
		}, err)
	case errors.Is(err, repository.ErrProjectNotFound):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "project not found",
		}, err)
	case errors.Is(err, usecase.ErrDuplicateSkill):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: err.Error(),
		}, err)
	default:
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "internal server error",
		}, err)
	}
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[strings.ToLower(fe.Field())] = fe.Tag()
		}
		formErr := util.NewFormError(message, fields)
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: message,
			Details: formErr.Errors,
		}, formErr)
	}
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    fiber.StatusBadRequest,
		Message: message,
	}, err)
}
