package models

import "time"

// Goal enumerations as the remote progress API defines them.
const (
	GoalTypeCompletion = "completion"
	GoalTypeScore      = "score"
	GoalTypeTime       = "time"
	GoalTypeStreak     = "streak"
	GoalTypeCustom     = "custom"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const (
	DifficultyEasy     = "easy"
	DifficultyModerate = "moderate"
	DifficultyHard     = "hard"
)

// LearningGoal mirrors one goal object of the remote progress API.
// Field names follow its snake_case JSON.
type LearningGoal struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	GoalType     string     `json:"goal_type"`
	TargetValue  string     `json:"target_value"`
	CurrentValue string     `json:"current_value"`
	Deadline     string     `json:"deadline"`
	Priority     string     `json:"priority"`
	Difficulty   string     `json:"difficulty"`
	IsCompleted  bool       `json:"is_completed"`
	CompletedAt  *time.Time `json:"completed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewGoal is the payload for creating a goal. Title, target value and
// deadline are mandatory before anything goes over the wire.
type NewGoal struct {
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description,omitempty"`
	GoalType     string `json:"goal_type,omitempty"`
	TargetValue  string `json:"target_value" validate:"required"`
	CurrentValue string `json:"current_value,omitempty"`
	Deadline     string `json:"deadline" validate:"required|date"`
	Priority     string `json:"priority,omitempty"`
	Difficulty   string `json:"difficulty,omitempty"`
}

// ApplyDefaults fills the optional enum fields, replacing unknown values.
func (n *NewGoal) ApplyDefaults() {
	if !ValidGoalType(n.GoalType) {
		n.GoalType = GoalTypeCustom
	}
	if !ValidPriority(n.Priority) {
		n.Priority = PriorityMedium
	}
	if !ValidDifficulty(n.Difficulty) {
		n.Difficulty = DifficultyModerate
	}
	if n.CurrentValue == "" {
		n.CurrentValue = "0"
	}
}

func ValidGoalType(s string) bool {
	switch s {
	case GoalTypeCompletion, GoalTypeScore, GoalTypeTime, GoalTypeStreak, GoalTypeCustom:
		return true
	}
	return false
}

func ValidPriority(s string) bool {
	switch s {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func ValidDifficulty(s string) bool {
	switch s {
	case DifficultyEasy, DifficultyModerate, DifficultyHard:
		return true
	}
	return false
}

// GoalPatch is a partial goal update. Nil pointers mean "leave as is";
// ClearCompletedAt forces completed_at to null, which a nil pointer
// cannot express.
type GoalPatch struct {
	Title            *string    `json:"title,omitempty"`
	Description      *string    `json:"description,omitempty"`
	GoalType         *string    `json:"goal_type,omitempty"`
	TargetValue      *string    `json:"target_value,omitempty"`
	CurrentValue     *string    `json:"current_value,omitempty"`
	Deadline         *string    `json:"deadline,omitempty"`
	Priority         *string    `json:"priority,omitempty"`
	Difficulty       *string    `json:"difficulty,omitempty"`
	IsCompleted      *bool      `json:"is_completed,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ClearCompletedAt bool       `json:"-"`
}

// Fields renders the patch as a JSON-ready field map for a partial
// update request.
func (p *GoalPatch) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.GoalType != nil {
		fields["goal_type"] = *p.GoalType
	}
	if p.TargetValue != nil {
		fields["target_value"] = *p.TargetValue
	}
	if p.CurrentValue != nil {
		fields["current_value"] = *p.CurrentValue
	}
	if p.Deadline != nil {
		fields["deadline"] = *p.Deadline
	}
	if p.Priority != nil {
		fields["priority"] = *p.Priority
	}
	if p.Difficulty != nil {
		fields["difficulty"] = *p.Difficulty
	}
	if p.IsCompleted != nil {
		fields["is_completed"] = *p.IsCompleted
	}
	if p.ClearCompletedAt {
		fields["completed_at"] = nil
	} else if p.CompletedAt != nil {
		fields["completed_at"] = p.CompletedAt.UTC().Format(time.RFC3339)
	}
	return fields
}

// IsEmpty reports whether the patch changes nothing.
func (p *GoalPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Apply merges the patch onto a goal copy, for full-replace updates.
func (p *GoalPatch) Apply(goal LearningGoal) LearningGoal {
	if p.Title != nil {
		goal.Title = *p.Title
	}
	if p.Description != nil {
		goal.Description = *p.Description
	}
	if p.GoalType != nil {
		goal.GoalType = *p.GoalType
	}
	if p.TargetValue != nil {
		goal.TargetValue = *p.TargetValue
	}
	if p.CurrentValue != nil {
		goal.CurrentValue = *p.CurrentValue
	}
	if p.Deadline != nil {
		goal.Deadline = *p.Deadline
	}
	if p.Priority != nil {
		goal.Priority = *p.Priority
	}
	if p.Difficulty != nil {
		goal.Difficulty = *p.Difficulty
	}
	if p.IsCompleted != nil {
		goal.IsCompleted = *p.IsCompleted
	}
	if p.ClearCompletedAt {
		goal.CompletedAt = nil
	} else if p.CompletedAt != nil {
		at := *p.CompletedAt
		goal.CompletedAt = &at
	}
	return goal
}
