package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"vidstream_backend/internal/service"
	"vidstream_backend/pkg/seed"
)

type PlanController struct {
	Plans *service.PlanService
	DB    *gorm.DB
}

func NewPlanController(plans *service.PlanService, db *gorm.DB) *PlanController {
	return &PlanController{Plans: plans, DB: db}
}

// ListPlans aktif planları fiyat sırasıyla döner (public).
func (pc *PlanController) ListPlans(c *fiber.Ctx) error {
	plans, err := pc.Plans.ListActive()
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"results": len(plans),
		"plans":   plans,
	})
}

func (pc *PlanController) GetPlan(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan id",
		})
	}

	plan, err := pc.Plans.Get(uint(id))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(plan)
}

func (pc *PlanController) CreatePlan(c *fiber.Ctx) error {
	input := new(service.PlanInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}
	if input.Name == "" || input.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Plan name and a positive amount are required",
		})
	}

	plan, err := pc.Plans.Create(*input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(plan)
}

func (pc *PlanController) UpdatePlan(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan id",
		})
	}

	input := new(service.PlanInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	plan, err := pc.Plans.Update(uint(id), *input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(plan)
}

// DeactivatePlan soft delete: plan satışa kapanır ama mevcut abonelikler
// etkilenmez.
func (pc *PlanController) DeactivatePlan(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan id",
		})
	}

	if _, err := pc.Plans.Deactivate(uint(id)); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Subscription plan deactivated successfully",
	})
}

func (pc *PlanController) ReactivatePlan(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan id",
		})
	}

	plan, err := pc.Plans.Reactivate(uint(id))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Subscription plan activated successfully",
		"plan":    plan,
	})
}

func (pc *PlanController) ListAllPlans(c *fiber.Ctx) error {
	plans, err := pc.Plans.ListAll()
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"results": len(plans),
		"plans":   plans,
	})
}

func (pc *PlanController) SeedPlans(c *fiber.Ctx) error {
	created, err := seed.SeedSubscriptionPlans(pc.DB)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Default plans seeded successfully",
		"created": created,
	})
}
