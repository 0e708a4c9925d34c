package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/api/dto"
	"github.com/deskflow/helpdesk/internal/service"
	"github.com/deskflow/helpdesk/pkg/util/validation"
)

// CatalogHandler serves departments, categories and solutions. Writes are
// restricted to admins at the router.
type CatalogHandler struct {
	catalog    *service.CatalogService
	assignment *service.AssignmentService
	validate   *validation.Validator
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService, assignment *service.AssignmentService, v *validation.Validator) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, assignment: assignment, validate: v}
}

// ListDepartments GET /api/departments.
func (h *CatalogHandler) ListDepartments(c *fiber.Ctx) error {
	depts, err := h.catalog.ListDepartments(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		items = append(items, dto.NewDepartmentResponse(&depts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetDepartment GET /api/departments/:id.
func (h *CatalogHandler) GetDepartment(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	dept, err := h.catalog.GetDepartment(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentResponse(dept)})
}

// CreateDepartment POST /api/departments.
func (h *CatalogHandler) CreateDepartment(c *fiber.Ctx) error {
	var req dto.DepartmentRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	dept, err := h.catalog.CreateDepartment(c.UserContext(), service.DepartmentInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewDepartmentResponse(dept)})
}

// UpdateDepartment PUT /api/departments/:id.
func (h *CatalogHandler) UpdateDepartment(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	dept, err := h.catalog.UpdateDepartment(c.UserContext(), id, service.DepartmentInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentResponse(dept)})
}

// DeleteDepartment DELETE /api/departments/:id.
func (h *CatalogHandler) DeleteDepartment(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteDepartment(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DepartmentAgents GET /api/departments/:id/agents.
func (h *CatalogHandler) DepartmentAgents(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.catalog.GetDepartment(c.UserContext(), id); err != nil {
		return err
	}
	agents, err := h.assignment.ListAgents(c.UserContext(), id)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(agents))
	for i := range agents {
		items = append(items, dto.NewUserResponse(&agents[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DepartmentCategories GET /api/departments/:id/categories.
func (h *CatalogHandler) DepartmentCategories(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cats, err := h.catalog.ListCategoriesByDepartment(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryList(cats)})
}

// ListCategories GET /api/categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	cats, err := h.catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryList(cats)})
}

// GetCategory GET /api/categories/:id.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cat, err := h.catalog.GetCategory(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCategoryResponse(cat)})
}

// CreateCategory POST /api/categories.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	cat, err := h.catalog.CreateCategory(c.UserContext(), categoryInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCategoryResponse(cat)})
}

// UpdateCategory PUT /api/categories/:id.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.CategoryRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	cat, err := h.catalog.UpdateCategory(c.UserContext(), id, categoryInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCategoryResponse(cat)})
}

// DeleteCategory DELETE /api/categories/:id.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteCategory(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CategorySolutions GET /api/categories/:id/solutions.
func (h *CatalogHandler) CategorySolutions(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	sols, err := h.catalog.ListSolutions(c.UserContext(), id)
	if err != nil {
		return err
	}
	items := make([]dto.SolutionResponse, 0, len(sols))
	for i := range sols {
		items = append(items, dto.NewSolutionResponse(&sols[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetSolution GET /api/solutions/:id.
func (h *CatalogHandler) GetSolution(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	sol, err := h.catalog.GetSolution(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSolutionResponse(sol)})
}

// CreateSolution POST /api/solutions.
func (h *CatalogHandler) CreateSolution(c *fiber.Ctx) error {
	var req dto.SolutionRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	sol, err := h.catalog.CreateSolution(c.UserContext(), solutionInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewSolutionResponse(sol)})
}

// UpdateSolution PUT /api/solutions/:id.
func (h *CatalogHandler) UpdateSolution(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.SolutionRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	sol, err := h.catalog.UpdateSolution(c.UserContext(), id, solutionInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSolutionResponse(sol)})
}

// DeleteSolution DELETE /api/solutions/:id.
func (h *CatalogHandler) DeleteSolution(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteSolution(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func categoryInput(req dto.CategoryRequest) service.CategoryInput {
	return service.CategoryInput{
		Name:            req.Name,
		DepartmentID:    req.DepartmentID,
		Description:     req.Description,
		Keywords:        req.Keywords,
		DefaultResponse: req.DefaultResponse,
	}
}

func solutionInput(req dto.SolutionRequest) service.SolutionInput {
	return service.SolutionInput{
		Title:            req.Title,
		Content:          req.Content,
		Keywords:         req.Keywords,
		CategoryID:       req.CategoryID,
		IsFallback:       req.IsFallback,
		FallbackPriority: req.FallbackPriority,
	}
}
