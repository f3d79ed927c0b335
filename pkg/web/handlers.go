// Package web exposes the campaign store over HTTP.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/dukex/cadence/pkg/models"
	"github.com/dukex/cadence/pkg/registry"
	"github.com/dukex/cadence/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// SessionHeader names the editing session that issued a write.
const SessionHeader = "X-Session-ID"

type APIHandlers struct {
	sequenceService *services.Sequence
	workflowService *services.Workflow
	validator       *validator.Validate
	registry        *registry.Registry
}

func NewAPIHandlers(
	sequenceService *services.Sequence,
	workflowService *services.Workflow,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		sequenceService: sequenceService,
		workflowService: workflowService,
		validator:       validator,
		registry:        registry,
	}
}

// Register mounts every endpoint on r.
func (h *APIHandlers) Register(r fiber.Router) {
	c := r.Group("/campaigns/:campaignId/sequences")
	c.Get("/", h.GetSequences)
	c.Post("/", h.CreateSequence)
	c.Put("/:sequenceId", h.UpdateSequence)
	c.Delete("/:sequenceId", h.DeleteSequence)
	c.Post("/:sequenceId/steps/:stepId/approve", h.ApproveEmail)

	w := r.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Put("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)

	reg := r.Group("/registry")
	reg.Get("/nodes", h.GetNodeComponents)
	reg.Get("/nodes/:type", h.GetNodeComponent)
	reg.Get("/steps", h.GetStepComponents)

	r.Get("/health", h.HealthCheck)
}

// requestContext carries the caller's session id into the service layer.
func requestContext(c fiber.Ctx) context.Context {
	return services.WithSession(c.Context(), c.Get(SessionHeader))
}

func (h *APIHandlers) GetSequences(c fiber.Ctx) error {
	sequences, err := h.sequenceService.FetchSequences(c.Context(), c.Params("campaignId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(sequences)
}

func (h *APIHandlers) CreateSequence(c fiber.Ctx) error {
	var req CreateSequenceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.sequenceService.CreateSequence(requestContext(c), &models.Sequence{
		CampaignID:  c.Params("campaignId"),
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateSequence(c fiber.Ctx) error {
	var req UpdateSequenceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.sequenceService.UpdateSequence(requestContext(c),
		c.Params("campaignId"), c.Params("sequenceId"), req.toModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteSequence(c fiber.Ctx) error {
	err := h.sequenceService.DeleteSequence(requestContext(c), c.Params("campaignId"), c.Params("sequenceId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ApproveEmail(c fiber.Ctx) error {
	err := h.sequenceService.ApproveEmail(requestContext(c),
		c.Params("campaignId"), c.Params("sequenceId"), c.Params("stepId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.Workflows(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflowService.FetchWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req WorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.workflowService.CreateWorkflow(requestContext(c), req.toModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var req WorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.workflowService.UpdateWorkflow(requestContext(c), c.Params("id"), req.toModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	err := h.workflowService.DeleteWorkflow(requestContext(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetNodeComponents lists node types in palette order with their fields and schema.
func (h *APIHandlers) GetNodeComponents(c fiber.Ctx) error {
	return c.JSON(h.registry.Nodes())
}

func (h *APIHandlers) GetNodeComponent(c fiber.Ctx) error {
	nodeType := c.Params("type")

	component, ok := h.registry.Node(models.NodeType(nodeType))
	if !ok {
		return notFound(c, "node_type_not_found", "node type "+nodeType+" is not registered")
	}

	return c.JSON(component)
}

func (h *APIHandlers) GetStepComponents(c fiber.Ctx) error {
	return c.JSON(h.registry.Steps())
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.sequenceService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Cadence API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Cadence API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
