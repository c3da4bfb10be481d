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

package capture

import "fmt"

// The subset of VkFormat / VkColorSpaceKHR values that presentable
// surfaces use on this platform.
var vkFormatStrings = map[uint32]string{
	37: "VK_FORMAT_R8G8B8A8_UNORM",
	43: "VK_FORMAT_R8G8B8A8_SRGB",
	44: "VK_FORMAT_B8G8R8A8_UNORM",
	50: "VK_FORMAT_B8G8R8A8_SRGB",
	64: "VK_FORMAT_A2B10G10R10_UNORM_PACK32",
}

var vkColorSpaceStrings = map[uint32]string{
	0: "VK_COLOR_SPACE_SRGB_NONLINEAR_KHR",
}

// VkFormatString returns the name of the given VkFormat value.
func VkFormatString(format uint32) string {
	if s, ok := vkFormatStrings[format]; ok {
		return s
	}
	return fmt.Sprintf("VK_FORMAT_%d", format)
}

// VkColorSpaceString returns the name of the given VkColorSpaceKHR value.
func VkColorSpaceString(colorSpace uint32) string {
	if s, ok := vkColorSpaceStrings[colorSpace]; ok {
		return s
	}
	return fmt.Sprintf("VK_COLOR_SPACE_%d", colorSpace)
}
