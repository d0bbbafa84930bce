/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package normalizer turns raw device CLI text into cleaned text or structured
// records. Every function here is total: malformed input degrades to the
// trimmed text instead of an error.
package normalizer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/carverauto/devicejobs/pkg/models"
)

// rule is one entry of the command dispatch table.
type rule struct {
	name  string
	match func(command string) bool
	apply func(text string) models.CommandOutput
}

//nolint:gochecknoglobals // immutable dispatch table
var rules = []rule{
	{
		name:  "interface-brief",
		match: isInterfaceBrief,
		apply: normalizeInterfaceBrief,
	},
	{
		name:  "version",
		match: func(c string) bool { return strings.HasPrefix(c, models.CommandShowVersion) },
		apply: normalizeVersion,
	},
}

// Normalize shapes text according to command. Commands without a dedicated
// rule, and rules that fail, yield the trimmed text.
func Normalize(command, text string) models.CommandOutput {
	c := strings.ToLower(strings.TrimSpace(command))

	for _, r := range rules {
		if !r.match(c) {
			continue
		}

		if out, ok := safeApply(r, text); ok {
			return out
		}

		break
	}

	return models.TextOutput(strings.TrimSpace(text))
}

func safeApply(r rule, text string) (out models.CommandOutput, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	return r.apply(text), true
}

func isInterfaceBrief(c string) bool {
	return strings.Contains(c, models.CommandShowInterfaceBrief) || strings.Contains(c, "show ip int brief")
}

//nolint:gochecknoglobals // compiled once
var (
	successRateRe = regexp.MustCompile(`Success rate is (\d+) percent`)
	packetLossRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)% packet loss`)
)

// PingSuccessRate extracts the success percentage from IOS or Unix ping
// output. ok is false when neither summary line is present.
func PingSuccessRate(text string) (rate int, ok bool) {
	if m := successRateRe.FindStringSubmatch(text); m != nil {
		rate, err := strconv.Atoi(m[1])
		return rate, err == nil
	}

	if m := packetLossRe.FindStringSubmatch(text); m != nil {
		loss, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}

		return 100 - int(loss), true
	}

	return 0, false
}
