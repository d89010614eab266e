// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package services

import "context"

// RunFunc is a blocking loop that exits when its context is cancelled. Both
// alert.Batcher.Run and alert.Worker.Run have this shape.
type RunFunc func(ctx context.Context) error

// PipelineService adapts a run loop to suture.Service.
type PipelineService struct {
	name string
	run  RunFunc
}

// NewPipelineService wraps run as a supervised service named name.
func NewPipelineService(name string, run RunFunc) *PipelineService {
	return &PipelineService{name: name, run: run}
}

// Serve implements suture.Service.
func (p *PipelineService) Serve(ctx context.Context) error {
	return p.run(ctx)
}

// String identifies the service in supervisor logs.
func (p *PipelineService) String() string {
	return p.name
}
