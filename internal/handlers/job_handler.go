package handlers

import (
	"github.com/gin-gonic/gin"

	"jobbridge_backend/internal/services"
	"jobbridge_backend/internal/services/dto"
)

type JobHandler struct {
	jobService services.JobService
	actors     *ActorResolver
}

func NewJobHandler(jobService services.JobService, actors *ActorResolver) *JobHandler {
	return &JobHandler{jobService: jobService, actors: actors}
}

// --- company actions ---

func (h *JobHandler) CreateDraft(c *gin.Context) {
	companyID, err := h.actors.CompanyID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req dto.DraftJobRequest
	if !bindJSON(c, &req) {
		return
	}

	job, err := h.jobService.CreateDraft(companyID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, job)
}

func (h *JobHandler) UpdateDraft(c *gin.Context) {
	companyID, err := h.actors.CompanyID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req dto.DraftJobRequest
	if !bindJSON(c, &req) {
		return
	}

	job, err := h.jobService.UpdateDraft(companyID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, job)
}

func (h *JobHandler) Submit(c *gin.Context) {
	companyID, err := h.actors.CompanyID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	job, err := h.jobService.Submit(companyID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, job)
}

func (h *JobHandler) Unpublish(c *gin.Context) {
	companyID, err := h.actors.CompanyID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	job, err := h.jobService.Unpublish(companyID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, job)
}

func (h *JobHandler) Republish(c *gin.Context) {
	companyID, err := h.actors.CompanyID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	job, err := h.jobService.Republish(companyID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, job)
}

func (h *JobHandler) Close(c *gin.Context) {
	companyID, err := h.actors.CompanyID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	job, err := h.jobService.Close(companyID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, job)
}

func (h *JobHandler) ListOwn(c *gin.Context) {
	companyID, err := h.actors.CompanyID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	jobs, err := h.jobService.ListByCompany(companyID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, jobs)
}

// --- admin actions ---

func (h *JobHandler) Approve(c *gin.Context) {
	job, err := h.jobService.Approve(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, job)
}

func (h *JobHandler) Reject(c *gin.Context) {
	var req dto.RejectJobRequest
	if !bindJSON(c, &req) {
		return
	}

	job, err := h.jobService.Reject(c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, job)
}

// AdminClose closes any job regardless of ownership.
func (h *JobHandler) AdminClose(c *gin.Context) {
	job, err := h.jobService.Close("", c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, job)
}

func (h *JobHandler) ListPendingReview(c *gin.Context) {
	jobs, err := h.jobService.ListPendingReview()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, jobs)
}

// --- public ---

func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.jobService.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, job)
}
