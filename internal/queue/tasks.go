package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task types
const (
	TypeCollectCycle   = "catalog:collect_cycle"
	TypeCollectChannel = "catalog:collect_channel"
	TypeSendDigest     = "catalog:send_digest"
)

// Queue names
const (
	QueueCollector = "collector"
	QueueDigest    = "digest"
)

// CollectChannelPayload is the payload for single-channel refresh tasks
type CollectChannelPayload struct {
	ChannelID int64 `json:"channel_id"`
}

// NewCollectCycleTask creates a collection cycle task
func NewCollectCycleTask() *asynq.Task {
	return asynq.NewTask(TypeCollectCycle, nil)
}

// NewCollectChannelTask creates a refresh task for one channel
func NewCollectChannelTask(channelID int64) (*asynq.Task, error) {
	if channelID <= 0 {
		return nil, errors.New("channel ID is required")
	}

	payload, err := json.Marshal(CollectChannelPayload{ChannelID: channelID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeCollectChannel, payload), nil
}

// UnmarshalCollectChannelPayload deserializes JSON to payload
func UnmarshalCollectChannelPayload(data []byte) (*CollectChannelPayload, error) {
	var payload CollectChannelPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.ChannelID <= 0 {
		return nil, errors.New("payload missing channel ID")
	}
	return &payload, nil
}

// NewSendDigestTask creates a digest task
func NewSendDigestTask() *asynq.Task {
	return asynq.NewTask(TypeSendDigest, nil)
}
