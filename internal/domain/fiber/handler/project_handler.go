package handler

import (
	"github.com/fadilmartias/teambuilder/internal/dto"
	"github.com/fadilmartias/teambuilder/internal/middleware"
	"github.com/fadilmartias/teambuilder/internal/model"
	"github.com/fadilmartias/teambuilder/internal/util"
	"github.com/gofiber/fiber/v2"
)

type ProjectService interface {
	Create(ownerID, name, description string, skills []string) (*model.Project, *model.ProjectMember, error)
	Get(id string) (*model.Project, error)
	Join(projectID, userID string) (*model.ProjectMember, error)
}

type ProjectHandler struct {
	uc ProjectService
}

func NewProjectHandler(uc ProjectService) *ProjectHandler {
	return &ProjectHandler{uc: uc}
}

func (h *ProjectHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/projects", h.Create)
	router.Get("/projects/:id", h.Get)
	router.Post("/projects/:id/join", h.Join)
}

func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, "invalid project", err)
	}

	project, owner, err := h.uc.Create(middleware.UserID(c), req.Name, req.Description, req.RequiredSkills)
	if err != nil {
		return errorResponse(c, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Success create project",
		Data: fiber.Map{
			"project": dto.NewProjectDTO(project),
			"member":  dto.NewMemberDTO(owner),
		},
	})
}

func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	project, err := h.uc.Get(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success get project",
		Data:    dto.NewProjectDTO(project),
	})
}

func (h *ProjectHandler) Join(c *fiber.Ctx) error {
	member, err := h.uc.Join(c.Params("id"), middleware.UserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success join project",
		Data:    dto.NewMemberDTO(member),
	})
}
