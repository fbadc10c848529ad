// Copyright 2017 DigitalOcean.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes Prometheus counters for cmd/collector and
// cmd/checker, optionally served over a background /metrics HTTP
// listener. No teacher or pack file does exactly this; the counter
// registration and promhttp wiring idiom is grounded on etalazz-vsa's
// internal/ratelimiter/telemetry/churn package.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PostcardsCaptured counts every postcard decoded successfully by
	// the collector (spec.md §4.9).
	PostcardsCaptured = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "postcards_captured_total",
		Help: "Total number of well-formed postcards decoded by the collector.",
	})

	// PostcardsRejected counts postcards dropped during decode (wrong
	// magic prefix, bad outport, bad checksum).
	PostcardsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "postcards_rejected_total",
		Help: "Total number of captured frames rejected during postcard decode.",
	})

	// ConstraintsVerified counts every SingleConstraint the checker
	// marks Verified after a run (spec.md §4.10).
	ConstraintsVerified = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "constraints_verified_total",
		Help: "Total number of constraints marked verified across checker runs.",
	})

	// ConstraintsUnsatisfied counts constraints a checker run finds
	// unsatisfied (the same count cmd/checker reports as its exit
	// summary, spec.md §4.7).
	ConstraintsUnsatisfied = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "constraints_unsatisfied_total",
		Help: "Total number of constraints found unsatisfied across checker runs.",
	})

	// SwitchSessionsFailed counts OpenFlow dial/session failures hit by
	// probe.Hook or probe.Send.
	SwitchSessionsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "switch_sessions_failed_total",
		Help: "Total number of OpenFlow switch sessions that failed to dial or respond.",
	})
)

func init() {
	prometheus.MustRegister(
		PostcardsCaptured,
		PostcardsRejected,
		ConstraintsVerified,
		ConstraintsUnsatisfied,
		SwitchSessionsFailed,
	)
}

// Serve starts a background HTTP server exposing /metrics on addr. It
// returns immediately; callers that want a clean shutdown path should
// wire the returned *http.Server's Shutdown/Close themselves. A failure
// to bind is neither returned nor logged: the ListenAndServe error is
// discarded, matching the "metrics is a side channel, never fatal"
// stance from SPEC_FULL.md.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
