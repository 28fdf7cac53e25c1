// Package tasks defines the background task types exchanged between
// the API process and the worker through asynq.
package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TypeUserCleanup = "user:cleanup"

type UserCleanupPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

func NewUserCleanupTask(userID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(UserCleanupPayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeUserCleanup, payload), nil
}

func ParseUserCleanupPayload(task *asynq.Task) (UserCleanupPayload, error) {
	var p UserCleanupPayload
	err := json.Unmarshal(task.Payload(), &p)
	return p, err
}
