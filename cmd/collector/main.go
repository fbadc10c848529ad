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

// Command collector captures tee'd postcards off an interface for a
// fixed duration and prints the decoded trace as JSON. Grounded on
// original_source/src/collector.py's __main__ OptionParser surface
// (spec.md §6).
package main

import (
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ofverify/netreach/metrics"
	"github.com/ofverify/netreach/postcard"
)

func main() {
	var (
		iface      = flag.String("i", "eth0", "interface to capture on")
		timeout    = flag.Int("t", 5, "collection timeout in seconds")
		metricAddr = flag.String("metrics", "", "optional address to serve Prometheus /metrics on, e.g. :9090")
	)
	flag.Parse()

	ll := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if *metricAddr != "" {
		metrics.Serve(*metricAddr)
	}

	c, err := postcard.Open(*iface, ll)
	if err != nil {
		ll.Fatal().Err(err).Msg("collector: open capture")
	}
	defer c.Close()

	trace := c.Collect(time.Duration(*timeout) * time.Second)
	metrics.PostcardsCaptured.Add(float64(len(trace)))

	if trace == nil {
		trace = []postcard.Postcard{}
	}
	if err := json.NewEncoder(os.Stdout).Encode(trace); err != nil {
		ll.Fatal().Err(err).Msg("collector: encode trace")
	}
}
