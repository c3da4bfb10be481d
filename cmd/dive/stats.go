// Copyright (C) 2019 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/elviscapiaq/dive/dive/capture"
	"github.com/elviscapiaq/dive/dive/hierarchy"
	"github.com/elviscapiaq/dive/dive/pm4"
)

type streamStats struct {
	path    string
	nodes   uint64
	ibs     int
	packets int
	events  int
	regs    int
}

func collectStats(path string) (streamStats, error) {
	stats := streamStats{path: path}
	dwords, err := loadDwords(path)
	if err != nil {
		return stats, err
	}
	h, err := hierarchy.CreateTreesFromBuffer(dwords, capture.EngineUniversal, capture.QueueUniversal, pm4.Builtin(), nil)
	if err != nil {
		return stats, err
	}
	stats.nodes = h.NumNodes()
	for node := uint64(0); node < h.NumNodes(); node++ {
		switch h.NodeType(node) {
		case hierarchy.NodeIb:
			stats.ibs++
		case hierarchy.NodePacket:
			stats.packets++
		case hierarchy.NodeDrawDispatchDma, hierarchy.NodeSync:
			stats.events++
		case hierarchy.NodeReg:
			stats.regs++
		}
	}
	return stats, nil
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats file...",
		Short: "Summarize raw PM4 streams",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]streamStats, len(args))
			var g errgroup.Group
			for i, path := range args {
				i, path := i, path
				g.Go(func() error {
					stats, err := collectStats(path)
					if err != nil {
						return err
					}
					results[i] = stats
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			for _, s := range results {
				fmt.Printf("%s: nodes=%d ibs=%d packets=%d events=%d regs=%d\n",
					s.path, s.nodes, s.ibs, s.packets, s.events, s.regs)
			}
			return nil
		},
	}
}
