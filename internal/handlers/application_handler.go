package handlers

import (
	"github.com/gin-gonic/gin"

	"jobbridge_backend/internal/services"
	"jobbridge_backend/internal/services/dto"
)

type ApplicationHandler struct {
	applicationService services.ApplicationService
	admissionService   services.AdmissionService
	actors             *ActorResolver
}

func NewApplicationHandler(
	applicationService services.ApplicationService,
	admissionService services.AdmissionService,
	actors *ActorResolver,
) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
		admissionService:   admissionService,
		actors:             actors,
	}
}

// --- student actions ---

func (h *ApplicationHandler) Apply(c *gin.Context) {
	studentID, err := h.actors.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req dto.ApplyRequest
	if !bindJSON(c, &req) {
		return
	}

	app, err := h.applicationService.Apply(studentID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, app)
}

func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	studentID, err := h.actors.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	app, err := h.applicationService.WithdrawByStudent(studentID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, app)
}

func (h *ApplicationHandler) ListOwn(c *gin.Context) {
	studentID, err := h.actors.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	apps, err := h.applicationService.ListByStudent(studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, apps)
}

// CanApply exposes the advisory admission decision so the UI can show
// quota state before the student submits anything.
func (h *ApplicationHandler) CanApply(c *gin.Context) {
	studentID, err := h.actors.StudentID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	decision, err := h.admissionService.CanApply(studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, decision)
}

// --- admin actions ---

func (h *ApplicationHandler) Review(c *gin.Context) {
	app, err := h.applicationService.ReviewByAdmin(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, app)
}

func (h *ApplicationHandler) AdminReject(c *gin.Context) {
	var req dto.RejectApplicationRequest
	if !bindJSON(c, &req) {
		return
	}

	app, err := h.applicationService.RejectByAdmin(c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, app)
}

// --- company actions ---

func (h *ApplicationHandler) Hire(c *gin.Context) {
	companyID, err := h.actors.CompanyID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	app, err := h.applicationService.HireByCompany(companyID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, app)
}

func (h *ApplicationHandler) CompanyReject(c *gin.Context) {
	companyID, err := h.actors.CompanyID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req dto.RejectApplicationRequest
	if !bindJSON(c, &req) {
		return
	}

	app, err := h.applicationService.RejectByCompany(companyID, c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, app)
}

func (h *ApplicationHandler) ListForJob(c *gin.Context) {
	companyID, err := h.actors.CompanyID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	apps, err := h.applicationService.ListForCompany(companyID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, apps)
}
