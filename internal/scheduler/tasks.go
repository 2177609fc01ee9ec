package scheduler

import (
	"encoding/json"
	"time"

	"lead_intel_backend/internal/leads/domain"

	"github.com/hibiken/asynq"
)

const TaskIngestLead = "leads.ingest"

const TaskRescoreLeads = "leads.rescore"

type IngestLeadPayload struct {
	Lead       domain.RawLead `json:"lead"`
	ReceivedAt time.Time      `json:"receivedAt"`
}

type RescoreLeadsPayload struct {
	BatchSize int  `json:"batchSize"`
	DryRun    bool `json:"dryRun"`
}

func NewIngestLeadTask(payload IngestLeadPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIngestLead, data), nil
}

func ParseIngestLeadPayload(task *asynq.Task) (IngestLeadPayload, error) {
	var payload IngestLeadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return IngestLeadPayload{}, err
	}
	return payload, nil
}

func NewRescoreLeadsTask(payload RescoreLeadsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRescoreLeads, data), nil
}

func ParseRescoreLeadsPayload(task *asynq.Task) (RescoreLeadsPayload, error) {
	var payload RescoreLeadsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RescoreLeadsPayload{}, err
	}
	return payload, nil
}
