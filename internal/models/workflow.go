package models

// Workflow is an optional ordered sequence of steps attached to requests.
// Steps are display and reporting data only; no engine gates transitions
// through them.
type Workflow struct {
	ID    uint           `gorm:"primaryKey" json:"id"`
	Name  string         `gorm:"size:128" json:"name"`
	Steps []WorkflowStep `json:"steps,omitempty"`
}

// WorkflowStep is a single role-tagged stage of a workflow.
type WorkflowStep struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	WorkflowID   uint   `gorm:"index" json:"workflowId"`
	StepOrder    int    `json:"stepOrder"`
	RequiredRole string `gorm:"size:64" json:"requiredRole"`
	StatusID     uint   `json:"statusId"`
}
