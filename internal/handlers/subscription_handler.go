package handlers

import (
	"github.com/gin-gonic/gin"

	"jobbridge_backend/internal/services"
	"jobbridge_backend/internal/services/dto"
)

type SubscriptionHandler struct {
	subscriptionService services.SubscriptionService
	entitlementService  services.EntitlementService
	actors              *ActorResolver
}

func NewSubscriptionHandler(
	subscriptionService services.SubscriptionService,
	entitlementService services.EntitlementService,
	actors *ActorResolver,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		entitlementService:  entitlementService,
		actors:              actors,
	}
}

func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	plans, err := h.subscriptionService.ListPlans()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, plans)
}

func (h *SubscriptionHandler) Purchase(c *gin.Context) {
	studentID, err := h.actors.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req dto.PurchaseSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.Purchase(studentID, req.PlanID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, sub)
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	studentID, err := h.actors.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.subscriptionService.Cancel(studentID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "Subscription cancelled"})
}

func (h *SubscriptionHandler) Renew(c *gin.Context) {
	studentID, err := h.actors.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	sub, err := h.subscriptionService.Renew(studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sub)
}

func (h *SubscriptionHandler) Current(c *gin.Context) {
	studentID, err := h.actors.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	sub, err := h.subscriptionService.Current(studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sub)
}

// Entitlement exposes the computed subscription state and quota.
func (h *SubscriptionHandler) Entitlement(c *gin.Context) {
	studentID, err := h.actors.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	entitlement, err := h.entitlementService.Resolve(studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, entitlement)
}

// CreatePlan is admin-only.
func (h *SubscriptionHandler) CreatePlan(c *gin.Context) {
	var req dto.CreatePlanRequest
	if !bindJSON(c, &req) {
		return
	}

	plan, err := h.subscriptionService.CreatePlan(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, plan)
}
