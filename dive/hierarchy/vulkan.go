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

package hierarchy

// NopPayloadSignature marks a CP_NOP packet whose payload carries Dive
// Vulkan metadata ("DIVE" in ASCII).
const NopPayloadSignature = uint32(0x44495645)

// VkCmdID identifies the Vulkan call a metadata marker describes. The
// numbering matches the capture layer's metadata tables.
type VkCmdID uint32

const (
	VkCmdDraw VkCmdID = iota + 1
	VkCmdDrawIndexed
	VkCmdDrawIndirect
	VkCmdDrawIndexedIndirect
	VkCmdDispatch
	VkCmdDispatchIndirect
	VkCmdCopyBuffer
	VkCmdCopyImage
	VkCmdCopyBufferToImage
	VkCmdCopyImageToBuffer
	VkCmdFillBuffer
	VkCmdClearColorImage
	VkCmdClearDepthStencilImage
	VkCmdClearAttachments
	VkCmdPipelineBarrier
	VkCmdBeginRenderPass
	VkCmdEndRenderPass
	VkCmdBindPipeline
	VkCmdBindDescriptorSets
	VkCmdBindVertexBuffers
	VkCmdBindIndexBuffer
	VkCmdSetViewport
	VkCmdSetScissor
	VkCmdDebugMarkerBegin
	VkCmdDebugMarkerEnd
	VkCmdExecuteCommands
	VkCmdResetQueryPool
	VkCmdCopyQueryPoolResults
	VkBeginCommandBuffer
	VkEndCommandBuffer
	VkQueueSubmit
)

var vkCmdNames = map[VkCmdID]string{
	VkCmdDraw:                   "vkCmdDraw",
	VkCmdDrawIndexed:            "vkCmdDrawIndexed",
	VkCmdDrawIndirect:           "vkCmdDrawIndirect",
	VkCmdDrawIndexedIndirect:    "vkCmdDrawIndexedIndirect",
	VkCmdDispatch:               "vkCmdDispatch",
	VkCmdDispatchIndirect:       "vkCmdDispatchIndirect",
	VkCmdCopyBuffer:             "vkCmdCopyBuffer",
	VkCmdCopyImage:              "vkCmdCopyImage",
	VkCmdCopyBufferToImage:      "vkCmdCopyBufferToImage",
	VkCmdCopyImageToBuffer:      "vkCmdCopyImageToBuffer",
	VkCmdFillBuffer:             "vkCmdFillBuffer",
	VkCmdClearColorImage:        "vkCmdClearColorImage",
	VkCmdClearDepthStencilImage: "vkCmdClearDepthStencilImage",
	VkCmdClearAttachments:       "vkCmdClearAttachments",
	VkCmdPipelineBarrier:        "vkCmdPipelineBarrier",
	VkCmdBeginRenderPass:        "vkCmdBeginRenderPass",
	VkCmdEndRenderPass:          "vkCmdEndRenderPass",
	VkCmdBindPipeline:           "vkCmdBindPipeline",
	VkCmdBindDescriptorSets:     "vkCmdBindDescriptorSets",
	VkCmdBindVertexBuffers:      "vkCmdBindVertexBuffers",
	VkCmdBindIndexBuffer:        "vkCmdBindIndexBuffer",
	VkCmdSetViewport:            "vkCmdSetViewport",
	VkCmdSetScissor:             "vkCmdSetScissor",
	VkCmdDebugMarkerBegin:       "vkCmdDebugMarkerBeginEXT",
	VkCmdDebugMarkerEnd:         "vkCmdDebugMarkerEndEXT",
	VkCmdExecuteCommands:        "vkCmdExecuteCommands",
	VkCmdResetQueryPool:         "vkCmdResetQueryPool",
	VkCmdCopyQueryPoolResults:   "vkCmdCopyQueryPoolResults",
	VkBeginCommandBuffer:        "vkBeginCommandBuffer",
	VkEndCommandBuffer:          "vkEndCommandBuffer",
	VkQueueSubmit:               "vkQueueSubmit",
}

// String returns the Vulkan entry point name.
func (id VkCmdID) String() string {
	if name, ok := vkCmdNames[id]; ok {
		return name
	}
	return "vkUnknownCommand"
}

// isVulkanEventCmd reports whether the call maps to GPU work (a draw,
// dispatch, transfer, clear, barrier or render pass edge) rather than
// state binding.
func isVulkanEventCmd(id VkCmdID) bool {
	switch id {
	case VkCmdDraw,
		VkCmdDrawIndexed,
		VkCmdDrawIndirect,
		VkCmdDrawIndexedIndirect,
		VkCmdDispatch,
		VkCmdDispatchIndirect,
		VkCmdPipelineBarrier,
		VkCmdBeginRenderPass,
		VkCmdEndRenderPass,
		VkCmdClearAttachments,
		VkCmdClearColorImage,
		VkCmdClearDepthStencilImage,
		VkCmdFillBuffer,
		VkCmdCopyImage,
		VkCmdCopyBufferToImage,
		VkCmdCopyBuffer,
		VkCmdCopyImageToBuffer,
		VkCmdResetQueryPool,
		VkCmdCopyQueryPoolResults,
		VkCmdExecuteCommands,
		VkQueueSubmit:
		return true
	}
	return false
}
