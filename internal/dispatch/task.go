// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package dispatch

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/geoimport/internal/models"
)

// DefaultTopic is the topic tasks are published to.
const DefaultTopic = "geoimport.tasks"

// Metadata keys set on every task message.
const (
	MetadataExecutionID = "execution_id"
	MetadataStep        = "step"
	MetadataAttempt     = "attempt"
)

// Handler runs one task. A returned error asks for redelivery.
type Handler interface {
	HandleTask(ctx context.Context, task models.Task) error
}

// DropHandler is implemented by handlers that need to know when a task is
// given up on after its retries.
type DropHandler interface {
	TaskDropped(ctx context.Context, task models.Task, err error)
}

func reportDropped(ctx context.Context, h Handler, task models.Task, err error) {
	if d, ok := h.(DropHandler); ok {
		d.TaskDropped(ctx, task, err)
	}
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, task models.Task) error

// HandleTask implements Handler.
func (f HandlerFunc) HandleTask(ctx context.Context, task models.Task) error {
	return f(ctx, task)
}

// EncodeTask converts task to a message whose UUID is the task key.
func EncodeTask(task models.Task) (*message.Message, error) {
	if task.ExecutionID == "" || task.Step == "" {
		return nil, fmt.Errorf("task needs execution id and step, got %q/%q", task.ExecutionID, task.Step)
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("marshal task: %w", err)
	}
	msg := message.NewMessage(task.Key(), payload)
	msg.Metadata.Set(MetadataExecutionID, task.ExecutionID)
	msg.Metadata.Set(MetadataStep, task.Step)
	msg.Metadata.Set(MetadataAttempt, strconv.Itoa(task.Attempt))
	return msg, nil
}

// DecodeTask reads the task carried by msg.
func DecodeTask(msg *message.Message) (models.Task, error) {
	var task models.Task
	if err := json.Unmarshal(msg.Payload, &task); err != nil {
		return models.Task{}, fmt.Errorf("unmarshal task %s: %w", msg.UUID, err)
	}
	if task.ExecutionID == "" || task.Step == "" {
		return models.Task{}, fmt.Errorf("task %s is missing execution id or step", msg.UUID)
	}
	return task, nil
}
