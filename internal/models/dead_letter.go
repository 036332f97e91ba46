package models

// Dead letter reason tags, machine readable for aggregation.
const (
	DeadLetterDispatchFailed  = "worker_dispatch_failed"
	DeadLetterDispatchTimeout = "worker_dispatch_timeout"
)

// DeadLetterModel records an accepted event that failed to reach the
// downstream worker. Write-once; replay happens through the admin API.
type DeadLetterModel struct {
	Base
	EventID  string `json:"event_id"  gorm:"index;not null"`
	ConfigID string `json:"config_id" gorm:"index;not null"`
	FlowID   string `json:"flow_id"   gorm:"index"`

	Reason  string                 `json:"reason" gorm:"index;not null"`
	Detail  string                 `json:"detail" gorm:"type:longtext"`
	Payload map[string]interface{} `json:"payload" gorm:"serializer:json"`
	Headers map[string]interface{} `json:"headers" gorm:"serializer:json"`
}

func (DeadLetterModel) TableName() string { return "dead_letters" }
