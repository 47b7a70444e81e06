// Copyright 2026 The pgfleet Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package cluster

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pgfleet",
		Subsystem: "cluster",
		Name:      "connections_opened_total",
		Help:      "Exclusive worker connections opened.",
	})
	connectionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pgfleet",
		Subsystem: "cluster",
		Name:      "connection_failures_total",
		Help:      "Failed attempts to connect to a worker.",
	})
	remoteCommands = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pgfleet",
		Subsystem: "cluster",
		Name:      "remote_commands_total",
		Help:      "Commands executed on worker nodes.",
	})
	remoteCommandFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pgfleet",
		Subsystem: "cluster",
		Name:      "remote_command_failures_total",
		Help:      "Commands that failed on a worker node.",
	})
)
