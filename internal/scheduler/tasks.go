package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskMediaSync = "media.sync"

type MediaSyncPayload struct {
	RecordID string `json:"recordId"`
}

func NewMediaSyncTask(payload MediaSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMediaSync, data), nil
}

func ParseMediaSyncPayload(task *asynq.Task) (MediaSyncPayload, error) {
	var payload MediaSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return MediaSyncPayload{}, err
	}
	return payload, nil
}
