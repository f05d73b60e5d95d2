package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskReconcileAudit = "crm.reconcile.audit"

// AuditPayload describes who asked for an audit pass.
type AuditPayload struct {
	Trigger     string    `json:"trigger"`
	RequestedAt time.Time `json:"requestedAt"`
}

func NewAuditTask(payload AuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcileAudit, data), nil
}

func ParseAuditPayload(task *asynq.Task) (AuditPayload, error) {
	var payload AuditPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AuditPayload{}, err
	}
	return payload, nil
}
