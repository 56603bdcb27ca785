// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"context"
	"log/slog"
	"time"
)

// Observer records timing of engine operations as structured log records
type Observer struct {
	logger *slog.Logger
	level  slog.Level
}

// NewObserver creates an observer writing to logger at debug level.
// A nil logger disables observation.
func NewObserver(logger *slog.Logger) *Observer {
	return &Observer{logger: logger, level: slog.LevelDebug}
}

// Enabled reports whether timing records would be emitted
func (o *Observer) Enabled() bool {
	return o != nil && o.logger != nil && o.logger.Enabled(context.Background(), o.level)
}

// StartTiming returns a function to complete timing
func (o *Observer) StartTiming(component, operation, filePath string) func(success bool, metadata map[string]any) {
	if !o.Enabled() {
		return func(bool, map[string]any) {}
	}
	start := time.Now()

	return func(success bool, metadata map[string]any) {
		o.LogOperation(OperationData{
			Component:  component,
			Operation:  operation,
			FilePath:   filePath,
			DurationMs: time.Since(start).Milliseconds(),
			Success:    success,
			Metadata:   metadata,
		})
	}
}

// LogOperation emits one operation record
func (o *Observer) LogOperation(data OperationData) {
	if !o.Enabled() {
		return
	}

	attrs := []slog.Attr{
		slog.String("component", data.Component),
		slog.String("operation", data.Operation),
		slog.Bool("success", data.Success),
		slog.Int64("duration_ms", data.DurationMs),
	}
	if data.FilePath != "" {
		attrs = append(attrs, slog.String("path", data.FilePath))
	}
	if data.Error != "" {
		attrs = append(attrs, slog.String("error", data.Error))
	}
	if len(data.Metadata) > 0 {
		meta := make([]any, 0, len(data.Metadata)*2)
		for k, v := range data.Metadata {
			meta = append(meta, k, v)
		}
		attrs = append(attrs, slog.Group("metadata", meta...))
	}

	o.logger.LogAttrs(context.Background(), o.level, "operation", attrs...)
}

// OperationData describes one timed operation
type OperationData struct {
	Component  string
	Operation  string
	FilePath   string
	DurationMs int64
	Success    bool
	Error      string
	Metadata   map[string]any
}
