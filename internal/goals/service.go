package goals

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gookit/validate"

	"sud/internal/models"
	"sud/internal/providers"
	"sud/internal/structures"
)

type ServiceInterface interface {
	Refresh(ctx context.Context) error
	List() []models.LearningGoal
	Get(id int64) (*models.LearningGoal, error)
	Count() int
	LastSynced() time.Time
	Create(ctx context.Context, goal *models.NewGoal) (*models.LearningGoal, error)
	Update(ctx context.Context, id int64, patch *models.GoalPatch) (*models.LearningGoal, error)
	Toggle(ctx context.Context, id int64, now time.Time) (*models.LearningGoal, error)
	Delete(ctx context.Context, id int64) error
}

// Service keeps a local copy of the remote goal list. Reads are served
// from the copy, every successful mutation is followed by a wholesale
// re-fetch so the copy never drifts from the server for long. There is
// no splicing of individual results into the list, the re-fetch is the
// only way the copy changes.
type Service struct {
	conf   *structures.Config
	client ClientInterface
	logger providers.Logger

	mu         sync.RWMutex
	cached     []models.LearningGoal
	lastSynced time.Time
}

func NewService(conf *structures.Config, client ClientInterface, logger providers.Logger) ServiceInterface {
	return &Service{
		conf:   conf,
		client: client,
		logger: logger,
	}
}

// Refresh replaces the cached list with the server's current one.
func (s *Service) Refresh(ctx context.Context) error {
	list, err := s.client.FetchAll(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cached = list
	s.lastSynced = time.Now()
	s.mu.Unlock()
	s.logger.Debugf(providers.TypeGoals, "Goal list refreshed, %d goal(s)", len(list))
	return nil
}

func (s *Service) List() []models.LearningGoal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.LearningGoal, len(s.cached))
	copy(out, s.cached)
	return out
}

func (s *Service) Get(id int64) (*models.LearningGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.cached {
		if s.cached[i].ID == id {
			goal := s.cached[i]
			return &goal, nil
		}
	}
	return nil, &NotFoundError{ID: id}
}

func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cached)
}

func (s *Service) LastSynced() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSynced
}

func (s *Service) Create(ctx context.Context, goal *models.NewGoal) (*models.LearningGoal, error) {
	goal.ApplyDefaults()
	v := validate.Struct(goal)
	if !v.Validate() {
		return nil, validationError(v.Errors)
	}

	created, err := s.client.Create(ctx, goal)
	if err != nil {
		return nil, err
	}
	s.refreshAfterMutation(ctx)
	return created, nil
}

// Update applies a partial change. Depending on configuration it goes
// out as PATCH with just the changed fields or as PUT with the merged
// goal, both conditional on the goal's last known modification time.
func (s *Service) Update(ctx context.Context, id int64, patch *models.GoalPatch) (*models.LearningGoal, error) {
	current, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return current, nil
	}
	if fields := patchProblems(patch); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	var updated *models.LearningGoal
	if s.conf.Goals.FullReplaceUpdates {
		merged := patch.Apply(*current)
		updated, err = s.client.Replace(ctx, id, &merged, current.UpdatedAt)
	} else {
		updated, err = s.client.Update(ctx, id, patch.Fields(), current.UpdatedAt)
	}
	if err != nil {
		return nil, err
	}
	s.refreshAfterMutation(ctx)
	return updated, nil
}

// Toggle flips the completion flag. Completing stamps completed_at with
// the given time, un-completing clears it.
func (s *Service) Toggle(ctx context.Context, id int64, now time.Time) (*models.LearningGoal, error) {
	current, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	completed := !current.IsCompleted
	patch := &models.GoalPatch{IsCompleted: &completed}
	if completed {
		at := now.UTC()
		patch.CompletedAt = &at
	} else {
		patch.ClearCompletedAt = true
	}
	return s.Update(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.client.Delete(ctx, id); err != nil {
		return err
	}
	s.refreshAfterMutation(ctx)
	return nil
}

// refreshAfterMutation re-fetches the list. The mutation already
// succeeded at this point, a failed re-fetch leaves the copy stale
// until the next one but must not fail the operation.
func (s *Service) refreshAfterMutation(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warnf(providers.TypeGoals, "Goal list refresh after mutation failed: %s", err)
	}
}

func validationError(errs validate.Errors) *ValidationError {
	fields := make(map[string]string)
	for field, rules := range errs.All() {
		for _, msg := range rules {
			fields[field] = msg
			break
		}
	}
	return &ValidationError{Fields: fields}
}

func patchProblems(patch *models.GoalPatch) map[string]string {
	fields := make(map[string]string)
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		fields["title"] = "title cannot be blank"
	}
	if patch.TargetValue != nil && strings.TrimSpace(*patch.TargetValue) == "" {
		fields["target_value"] = "target value cannot be blank"
	}
	if patch.GoalType != nil && !models.ValidGoalType(*patch.GoalType) {
		fields["goal_type"] = "goal type must be one of completion, score, time, streak, custom"
	}
	if patch.Priority != nil && !models.ValidPriority(*patch.Priority) {
		fields["priority"] = "priority must be one of low, medium, high"
	}
	if patch.Difficulty != nil && !models.ValidDifficulty(*patch.Difficulty) {
		fields["difficulty"] = "difficulty must be one of easy, moderate, hard"
	}
	if patch.Deadline != nil {
		if _, err := time.Parse("2006-01-02", *patch.Deadline); err != nil {
			fields["deadline"] = "deadline must be a YYYY-MM-DD date"
		}
	}
	return fields
}
