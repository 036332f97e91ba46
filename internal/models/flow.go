package models

// FlowModel is the automation a webhook config can point at. The
// gateway only reads IsActive; the automation subsystem owns the rest.
type FlowModel struct {
	Base
	UserID   string `json:"user_id" gorm:"index;not null"`
	Name     string `json:"name"    gorm:"not null"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
}

func (FlowModel) TableName() string { return "flows" }

// TriggerTypeWebhook is the only trigger type the gateway emits.
const TriggerTypeWebhook = "webhook"

// FlowExecutionModel is the initial record of an automation run. The
// gateway inserts it with status queued; workers take it from there.
type FlowExecutionModel struct {
	Base
	ExecutionID string                 `json:"execution_id" gorm:"uniqueIndex;not null"`
	FlowID      string                 `json:"flow_id"      gorm:"index;not null"`
	TriggerType string                 `json:"trigger_type" gorm:"not null"`
	TriggerData map[string]interface{} `json:"trigger_data" gorm:"serializer:json"`
	Status      string                 `json:"status"       gorm:"index;default:queued"`
}

func (FlowExecutionModel) TableName() string { return "flow_executions" }
