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

// Command generator hooks switch flow tables for tee instrumentation and
// injects probe packets for every group condition in a rules file.
// Grounded on original_source/src/generator.py's __main__ OptionParser
// surface (spec.md §6).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ofverify/netreach/ofsession"
	"github.com/ofverify/netreach/probe"
	"github.com/ofverify/netreach/rules"
	"github.com/ofverify/netreach/topology"
)

func main() {
	var (
		collectorID = flag.Int("c", 0, "collector node id")
		rulesFile   = flag.String("r", "", "constraints file")
		topoFile    = flag.String("t", "", "topology file")
		mappingFile = flag.String("m", "", "static mapping file")
		noHook      = flag.Bool("k", false, "disable flow table modifications")
		outCon      = flag.Bool("o", false, "make switches send packets to the controller")
		samples     = flag.Int("s", 0, "samples per test packet, default=1")
	)
	flag.Parse()

	if *rulesFile == "" || *topoFile == "" || *mappingFile == "" {
		fmt.Fprintln(os.Stderr, "Missing argument. All of -r, -t, -m must be provided, see -h for help")
		os.Exit(1)
	}

	runID := uuid.New().String()
	ll := zerolog.New(os.Stderr).With().Timestamp().Str("run_id", runID).Logger()

	reqs, err := rules.NewParser(rules.Logger(ll)).Parse(*rulesFile)
	if err != nil {
		ll.Fatal().Err(err).Msg("generator: parse rules")
	}
	topo, err := topology.Parse(*topoFile)
	if err != nil {
		ll.Fatal().Err(err).Msg("generator: parse topology")
	}
	mapping, err := topology.ParseMapping(*mappingFile)
	if err != nil {
		ll.Fatal().Err(err).Msg("generator: parse mapping")
	}

	dial := func(addr string) (*ofsession.Session, error) {
		return ofsession.Dial(addr)
	}

	if !*noHook {
		if err := probe.Hook(topo, mapping, topology.Node(*collectorID), dial, ll); err != nil {
			ll.Fatal().Err(err).Msg("generator: hook switches")
		}
	}

	pkts, err := probe.GeneratePackets(reqs, mapping, probe.GenerateOptions{SamplesOverride: *samples})
	if err != nil {
		ll.Fatal().Err(err).Msg("generator: generate packets")
	}

	sendOpts := probe.SendOptions{OutController: *outCon}
	if err := probe.Send(topo, mapping, pkts, sendOpts, dial, ll); err != nil {
		ll.Fatal().Err(err).Msg("generator: send packets")
	}

	fmt.Printf("Generated and sent %d probe packets.\n", len(pkts))
}
