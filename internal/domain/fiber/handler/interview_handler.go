package handler

import (
	"context"
	"time"

	"github.com/fadilmartias/teambuilder/internal/dto"
	"github.com/fadilmartias/teambuilder/internal/interview"
	"github.com/fadilmartias/teambuilder/internal/middleware"
	"github.com/fadilmartias/teambuilder/internal/response"
	"github.com/fadilmartias/teambuilder/internal/usecase"
	"github.com/fadilmartias/teambuilder/internal/util"
	"github.com/gofiber/fiber/v2"
)

type InterviewService interface {
	Turn(ctx context.Context, req usecase.TurnRequest) (*usecase.TurnResult, error)
	State(ctx context.Context, memberID, callerID string) (*usecase.InterviewState, error)
}

type InterviewHandler struct {
	uc InterviewService
	// turnTimeout bounds one turn including the oracle call.
	turnTimeout time.Duration
}

func NewInterviewHandler(uc InterviewService, turnTimeout time.Duration) *InterviewHandler {
	return &InterviewHandler{uc: uc, turnTimeout: turnTimeout}
}

func (h *InterviewHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/members/:memberId/interview", middleware.RateLimiter(10, 1*time.Minute), h.Turn)
	router.Get("/members/:memberId/interview", h.State)
}

func (h *InterviewHandler) Turn(c *fiber.Ctx) error {
	var req dto.InterviewTurnRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, "invalid interview turn", err)
	}

	ctx := c.UserContext()
	if h.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.turnTimeout)
		defer cancel()
	}

	result, err := h.uc.Turn(ctx, usecase.TurnRequest{
		MemberID:       c.Params("memberId"),
		CallerID:       middleware.UserID(c),
		UserInput:      req.Message,
		RequiredSkills: req.RequiredSkills,
	})
	if err != nil {
		return errorResponse(c, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success process interview turn",
		Data: dto.InterviewTurnResponse{
			AssistantMessage: result.AssistantMessage,
			Profile:          result.Profile,
			IsComplete:       result.IsComplete,
			Action:           result.Action,
			Status:           result.Status,
		},
	})
}

func (h *InterviewHandler) State(c *fiber.Ctx) error {
	state, err := h.uc.State(c.UserContext(), c.Params("memberId"), middleware.UserID(c))
	if err != nil {
		return errorResponse(c, err)
	}

	history, pagination := paginateHistory(state.History, c.QueryInt("page", 1), c.QueryInt("page_size", 50))

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:       fiber.StatusOK,
		Message:    "Success get interview",
		Pagination: pagination,
		Data: dto.InterviewStateResponse{
			MemberID:       state.MemberID,
			RequiredSkills: state.RequiredSkills,
			Profile:        state.Profile,
			Status:         state.Status,
			History:        history,
		},
	})
}

func paginateHistory(turns []interview.ConversationTurn, page, pageSize int) ([]interview.ConversationTurn, *response.Pagination) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	total := len(turns)
	from := (page - 1) * pageSize
	if from > total {
		from = total
	}
	to := from + pageSize
	if to > total {
		to = total
	}
	pages := (total + pageSize - 1) / pageSize
	first := from + 1
	if to == from {
		first = 0
	}

	window := append([]interview.ConversationTurn{}, turns[from:to]...)
	return window, &response.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int64(pages),
		TotalItems: int64(total),
		HasMore:    to < total,
		From:       first,
		To:         to,
	}
}
