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
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/elviscapiaq/dive/dive/capture"
	"github.com/elviscapiaq/dive/dive/hierarchy"
	"github.com/elviscapiaq/dive/dive/pm4"
)

// loadStream reads a file of raw little-endian dwords.
func loadStream(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read command stream")
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, errors.Errorf("%s: length %d is not a whole number of dwords", path, len(data))
	}
	return data, nil
}

// loadDwords reads a stream file as a dword slice.
func loadDwords(path string) ([]uint32, error) {
	data, err := loadStream(path)
	if err != nil {
		return nil, err
	}
	dwords := make([]uint32, len(data)/4)
	for i := range dwords {
		dwords[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return dwords, nil
}

// buildCapture wraps each stream file as one submit of a capture, with
// its dwords recorded at the base of that submit's address space.
func buildCapture(paths []string, engine capture.EngineType, queue capture.QueueType) (*capture.Capture, error) {
	mem := capture.NewMemoryManager()
	submits := make([]capture.SubmitInfo, 0, len(paths))
	for i, path := range paths {
		data, err := loadStream(path)
		if err != nil {
			return nil, err
		}
		if err := mem.AddBlock(uint32(i), 0, data); err != nil {
			return nil, errors.Wrapf(err, "%s", path)
		}
		ibs := []capture.IndirectBufferInfo{{
			VAAddr:       0,
			SizeInDwords: uint32(len(data) / 4),
		}}
		submits = append(submits, capture.NewSubmitInfo(engine, queue, 0, false, ibs))
	}
	return capture.New(submits, nil, mem, 0), nil
}

func parseEngine(s string) (capture.EngineType, error) {
	switch strings.ToLower(s) {
	case "universal", "gfx":
		return capture.EngineUniversal, nil
	case "compute":
		return capture.EngineCompute, nil
	case "dma":
		return capture.EngineDma, nil
	}
	return 0, errors.Errorf("unknown engine type %q", s)
}

func parseQueue(s string) (capture.QueueType, error) {
	switch strings.ToLower(s) {
	case "universal", "gfx":
		return capture.QueueUniversal, nil
	case "compute":
		return capture.QueueCompute, nil
	case "dma":
		return capture.QueueDma, nil
	}
	return 0, errors.Errorf("unknown queue type %q", s)
}

func selectTopology(h *hierarchy.CommandHierarchy, view string) (*hierarchy.Topology, error) {
	switch strings.ToLower(view) {
	case "engine":
		return h.EngineHierarchyTopology(), nil
	case "submit":
		return h.SubmitHierarchyTopology(), nil
	case "events":
		return h.AllEventHierarchyTopology(), nil
	case "rgp":
		return h.RgpHierarchyTopology(), nil
	case "calls":
		return h.VulkanCallHierarchyTopology(), nil
	case "gpu-events":
		return h.VulkanEventHierarchyTopology(), nil
	}
	return nil, errors.Errorf("unknown view %q", view)
}

func newDumpCmd() *cobra.Command {
	var (
		view          string
		engine        string
		queue         string
		flattenChains bool
	)
	cmd := &cobra.Command{
		Use:   "dump [flags] file...",
		Short: "Build and print a hierarchy view of raw PM4 streams",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			engineType, err := parseEngine(engine)
			if err != nil {
				return err
			}
			queueType, err := parseQueue(queue)
			if err != nil {
				return err
			}

			capt, err := buildCapture(args, engineType, queueType)
			if err != nil {
				return err
			}
			h, err := hierarchy.CreateTrees(capt, pm4.Builtin(), flattenChains, logger)
			if err != nil {
				return err
			}
			t, err := selectTopology(h, view)
			if err != nil {
				return err
			}
			printSubtree(h, t, hierarchy.RootNodeIndex, 0)
			return nil
		},
	}
	cmd.Flags().StringVar(&view, "view", "submit", "view to print: engine, submit, events, rgp, calls, gpu-events")
	cmd.Flags().StringVar(&engine, "engine", "universal", "engine type of the streams")
	cmd.Flags().StringVar(&queue, "queue", "universal", "queue type of the streams")
	cmd.Flags().BoolVar(&flattenChains, "flatten-chains", false, "hang chain IBs off the nearest non-chain ancestor IB")
	return cmd
}

// printSubtree prints the primary tree with two-space indentation.
// Shared children print with a leading '*' and do not recurse further,
// since they are owned elsewhere in the view.
func printSubtree(h *hierarchy.CommandHierarchy, t *hierarchy.Topology, node uint64, depth int) {
	indent := strings.Repeat("  ", depth)
	if node != hierarchy.RootNodeIndex {
		fmt.Printf("%s%s\n", indent, h.Desc(node))
	}
	for i := uint64(0); i < t.NumSharedChildren(node); i++ {
		shared := t.SharedChildNodeIndex(node, i)
		fmt.Printf("%s  *%s\n", indent, h.Desc(shared))
	}
	for i := uint64(0); i < t.NumChildren(node); i++ {
		printSubtree(h, t, t.ChildNodeIndex(node, i), depth+1)
	}
}
