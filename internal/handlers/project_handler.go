package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"duobudget/internal/models"
	"duobudget/internal/services"
)

// ProjectHandler handles savings projects and their contributions.
type ProjectHandler struct {
	projectService services.ProjectServicer
	auditService   services.AuditServicer
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService services.ProjectServicer, auditService services.AuditServicer) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, auditService: auditService}
}

// CreateProjectRequest represents a new savings project.
type CreateProjectRequest struct {
	Name         string           `json:"name" binding:"required,min=1,max=100"`
	Description  string           `json:"description" binding:"max=1000"`
	TargetAmount *decimal.Decimal `json:"target_amount" binding:"required"`
	Deadline     *string          `json:"deadline"`
}

// UpdateProjectRequest represents a partial project update.
type UpdateProjectRequest struct {
	Name         *string          `json:"name" binding:"omitempty,min=1,max=100"`
	Description  *string          `json:"description" binding:"omitempty,max=1000"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	Deadline     *string          `json:"deadline"`
	IsCompleted  *bool            `json:"is_completed"`
}

// ContributionRequest puts money toward a project.
type ContributionRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
	Note   string           `json:"note" binding:"max=500"`
}

// ProjectResponse adds the computed progress to a project.
type ProjectResponse struct {
	ID                 uint            `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	TargetAmount       decimal.Decimal `json:"target_amount"`
	CurrentAmount      decimal.Decimal `json:"current_amount"`
	ProgressPercentage float64         `json:"progress_percentage"`
	Deadline           *string         `json:"deadline"`
	IsCompleted        bool            `json:"is_completed"`
}

// ListProjects lists savings projects.
// @Summary     List projects
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       include_completed query bool false "Include completed projects"
// @Success     200 {array} ProjectResponse "Projects"
// @Router      /projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.projectService.ListProjects(c.Query("include_completed") == "true")
	if err != nil {
		respondWithError(c, err)
		return
	}

	out := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, projectJSON(&projects[i]))
	}
	c.JSON(http.StatusOK, gin.H{"projects": out})
}

// GetProject returns one project with its progress.
// @Summary     Get a project
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Project ID"
// @Success     200 {object} ProjectResponse "Project"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /projects/{id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.projectService.GetProject(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": projectJSON(project)})
}

// CreateProject starts a savings project.
// @Summary     Create a project
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateProjectRequest true "Project"
// @Success     201 {object} ProjectResponse "Project created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	deadline, err := parseOptionalDateField(req.Deadline, "deadline")
	if err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.projectService.CreateProject(services.ProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		TargetAmount: *req.TargetAmount,
		Deadline:     deadline,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_PROJECT", "project", project.ID, c.ClientIP(),
		map[string]interface{}{"name": project.Name, "target_amount": project.TargetAmount.String()})

	c.JSON(http.StatusCreated, gin.H{"project": projectJSON(project)})
}

// UpdateProject changes a project.
// @Summary     Update a project
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Project ID"
// @Param       request body UpdateProjectRequest true "Fields to change"
// @Success     200 {object} ProjectResponse "Updated project"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /projects/{id} [patch]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	deadline, err := parseOptionalDateField(req.Deadline, "deadline")
	if err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.projectService.UpdateProject(id, services.ProjectUpdate{
		Name:         req.Name,
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		Deadline:     deadline,
		IsCompleted:  req.IsCompleted,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PROJECT", "project", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"project": projectJSON(project)})
}

// DeleteProject archives a project.
// @Summary     Delete a project
// @Tags        projects
// @Security    BearerAuth
// @Param       id path int true "Project ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.projectService.DeleteProject(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_PROJECT", "project", id, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// ListContributions lists the money put toward a project.
// @Summary     List contributions
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Project ID"
// @Success     200 {array} models.ProjectContribution "Contributions"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /projects/{id}/contributions [get]
func (h *ProjectHandler) ListContributions(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	contributions, err := h.projectService.ListContributions(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contributions": contributions})
}

// AddContribution puts money toward a project on behalf of the caller.
// @Summary     Add a contribution
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Project ID"
// @Param       request body ContributionRequest true "Contribution"
// @Success     201 {object} models.ProjectContribution "Contribution added"
// @Failure     400 {object} ErrorResponse "Invalid amount"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /projects/{id}/contributions [post]
func (h *ProjectHandler) AddContribution(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	contribution, err := h.projectService.AddContribution(id, userID, *req.Amount, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ADD_CONTRIBUTION", "project", id, c.ClientIP(),
		map[string]interface{}{"amount": contribution.Amount.String()})

	c.JSON(http.StatusCreated, gin.H{"contribution": contribution})
}

// RemoveContribution takes a contribution back out of a project.
// @Summary     Remove a contribution
// @Tags        projects
// @Security    BearerAuth
// @Param       id              path int true "Project ID"
// @Param       contribution_id path int true "Contribution ID"
// @Success     204 "Removed"
// @Failure     404 {object} ErrorResponse "Contribution not found"
// @Router      /projects/{id}/contributions/{contribution_id} [delete]
func (h *ProjectHandler) RemoveContribution(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	contributionID, err := parsePathID(c, "contribution_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.projectService.RemoveContribution(id, contributionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "REMOVE_CONTRIBUTION", "project", id, c.ClientIP(),
		map[string]interface{}{"contribution_id": contributionID})

	c.Status(http.StatusNoContent)
}

func projectJSON(p *models.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		TargetAmount:       p.TargetAmount,
		CurrentAmount:      p.CurrentAmount,
		ProgressPercentage: p.ProgressPercentage(),
		IsCompleted:        p.IsCompleted,
	}
	if p.Deadline != nil {
		d := p.Deadline.Format(dateLayout)
		resp.Deadline = &d
	}
	return resp
}
