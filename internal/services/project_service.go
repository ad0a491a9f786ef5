package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "duobudget/internal/errors"
	"duobudget/internal/models"
)

// projectService handles savings projects and their contributions.
type projectService struct {
	db *gorm.DB
}

// NewProjectService creates a new ProjectServicer.
func NewProjectService(db *gorm.DB) ProjectServicer {
	return &projectService{db: db}
}

// ListProjects returns active projects, optionally including completed ones.
func (s *projectService) ListProjects(includeCompleted bool) ([]models.Project, error) {
	q := s.db.Where("is_active = ?", true)
	if !includeCompleted {
		q = q.Where("is_completed = ?", false)
	}

	var projects []models.Project
	if err := q.Order("created_at DESC, id DESC").Find(&projects).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return projects, nil
}

// GetProject retrieves an active project by ID.
func (s *projectService) GetProject(id uint) (*models.Project, error) {
	return s.getProject(s.db, id)
}

func (s *projectService) getProject(tx *gorm.DB, id uint) (*models.Project, error) {
	var project models.Project
	if err := tx.Where("id = ? AND is_active = ?", id, true).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &project, nil
}

// CreateProject starts a new savings project.
func (s *projectService) CreateProject(in ProjectInput) (*models.Project, error) {
	if in.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if !in.TargetAmount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be positive")
	}

	project := &models.Project{
		Name:          in.Name,
		Description:   in.Description,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: decimal.Zero,
		Deadline:      in.Deadline,
		IsActive:      true,
	}
	if err := s.db.Create(project).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return project, nil
}

// UpdateProject applies a partial change. Raising the target above the
// saved amount reopens a completed project.
func (s *projectService) UpdateProject(id uint, upd ProjectUpdate) (*models.Project, error) {
	project, err := s.GetProject(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
		}
		updates["name"] = *upd.Name
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.Deadline != nil {
		updates["deadline"] = *upd.Deadline
	}
	if upd.TargetAmount != nil {
		if !upd.TargetAmount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be positive")
		}
		updates["target_amount"] = *upd.TargetAmount
		updates["is_completed"] = project.CurrentAmount.GreaterThanOrEqual(*upd.TargetAmount)
	}
	if upd.IsCompleted != nil {
		updates["is_completed"] = *upd.IsCompleted
	}

	if len(updates) > 0 {
		if err := s.db.Model(project).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetProject(id)
}

// DeleteProject deactivates a project.
func (s *projectService) DeleteProject(id uint) error {
	project, err := s.GetProject(id)
	if err != nil {
		return err
	}
	if err := s.db.Model(project).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// AddContribution records money put toward a project and raises its saved
// amount. Reaching the target marks the project completed.
func (s *projectService) AddContribution(projectID, userID uint, amount decimal.Decimal, note string) (*models.ProjectContribution, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
	}

	var contribution *models.ProjectContribution
	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := s.getProject(tx, projectID)
		if err != nil {
			return err
		}

		contribution = &models.ProjectContribution{
			ProjectID: projectID,
			UserID:    userID,
			Amount:    amount,
			Note:      note,
		}
		if err := tx.Create(contribution).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		current := project.CurrentAmount.Add(amount)
		return s.setCurrent(tx, project, current)
	})
	if err != nil {
		return nil, err
	}
	return contribution, nil
}

// ListContributions returns a project's contributions, newest first.
func (s *projectService) ListContributions(projectID uint) ([]models.ProjectContribution, error) {
	if _, err := s.GetProject(projectID); err != nil {
		return nil, err
	}

	var contributions []models.ProjectContribution
	if err := s.db.Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		Find(&contributions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return contributions, nil
}

// RemoveContribution deletes a contribution and lowers the saved amount,
// never below zero.
func (s *projectService) RemoveContribution(projectID, contributionID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		project, err := s.getProject(tx, projectID)
		if err != nil {
			return err
		}

		var contribution models.ProjectContribution
		if err := tx.Where("id = ? AND project_id = ?", contributionID, projectID).
			First(&contribution).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrContributionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&contribution).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		current := decimal.Max(decimal.Zero, project.CurrentAmount.Sub(contribution.Amount))
		return s.setCurrent(tx, project, current)
	})
}

func (s *projectService) setCurrent(tx *gorm.DB, project *models.Project, current decimal.Decimal) error {
	if err := tx.Model(project).Updates(map[string]interface{}{
		"current_amount": current,
		"is_completed":   current.GreaterThanOrEqual(project.TargetAmount),
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
