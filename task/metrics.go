/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package task

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_tasks_created_total",
			Help: "Total number of tasks created",
		},
		[]string{"type"},
	)

	tasksFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_tasks_finished_total",
			Help: "Total number of tasks that reached a terminal state",
		},
		[]string{"type", "state"},
	)

	tasksRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "arena_tasks_running",
			Help: "Number of tasks currently running",
		},
		[]string{"type"},
	)
)
