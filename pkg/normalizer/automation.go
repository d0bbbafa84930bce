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

package normalizer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const taskSeparator = "\n---\n"

// DecodeAutomationOutput extracts the device output from an automation run's
// stdout. It decodes the first JSON object and collects stdout, stdout_lines
// and msg from every task result. Without usable JSON it captures the block
// that follows an "ok:" or "TASK [" marker up to the next blank line. If both
// yield nothing the trimmed input is returned.
func DecodeAutomationOutput(stdout string) string {
	s := strings.TrimSpace(stdout)
	if s == "" {
		return ""
	}

	if out := decodeJSONCallback(s); out != "" {
		return out
	}

	if out := scrapeMarkedBlock(s); out != "" {
		return out
	}

	return s
}

func decodeJSONCallback(s string) string {
	brace := strings.IndexByte(s, '{')
	if brace < 0 {
		return ""
	}

	var doc map[string]interface{}
	if err := json.NewDecoder(strings.NewReader(s[brace:])).Decode(&doc); err != nil {
		return ""
	}

	var outputs []string

	for _, play := range asSlice(doc["plays"]) {
		for _, task := range asSlice(asMap(play)["tasks"]) {
			hosts := asMap(asMap(task)["hosts"])

			names := make([]string, 0, len(hosts))
			for name := range hosts {
				names = append(names, name)
			}

			sort.Strings(names)

			for _, name := range names {
				outputs = append(outputs, hostOutputs(asMap(hosts[name]))...)
			}
		}
	}

	return strings.Join(outputs, taskSeparator)
}

func hostOutputs(result map[string]interface{}) []string {
	var out []string

	if v, ok := result["stdout"]; ok && !isBlank(v) {
		out = append(out, joinLines(v, false))
	}

	if v, ok := result["stdout_lines"]; ok && !isBlank(v) {
		out = append(out, joinLines(v, true))
	}

	if v, ok := result["msg"]; ok && !isBlank(v) {
		out = append(out, fmt.Sprint(v))
	}

	return out
}

// joinLines renders a string or list of strings; with flatten set, nested
// lists are expanded too.
func joinLines(v interface{}, flatten bool) string {
	items, ok := v.([]interface{})
	if !ok {
		return fmt.Sprint(v)
	}

	lines := make([]string, 0, len(items))

	for _, item := range items {
		if nested, isList := item.([]interface{}); isList && flatten {
			for _, n := range nested {
				lines = append(lines, fmt.Sprint(n))
			}

			continue
		}

		lines = append(lines, fmt.Sprint(item))
	}

	return strings.Join(lines, "\n")
}

func isBlank(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	case bool:
		return !t
	default:
		return false
	}
}

func scrapeMarkedBlock(s string) string {
	var (
		captured []string
		capture  bool
	)

	for _, line := range strings.Split(s, "\n") {
		t := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(t, "ok:") || strings.HasPrefix(t, "TASK ["):
			capture = true
			captured = captured[:0]
		case capture:
			if t == "" {
				return strings.TrimSpace(strings.Join(captured, "\n"))
			}

			captured = append(captured, strings.TrimRight(line, "\r"))
		}
	}

	return strings.TrimSpace(strings.Join(captured, "\n"))
}

func asSlice(v interface{}) []interface{} {
	s, _ := v.([]interface{})
	return s
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}
