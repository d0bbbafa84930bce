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
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/carverauto/devicejobs/pkg/models"
)

const (
	adminDown      = "administratively down"
	adminDownToken = "administratively_down"
)

// CropInterfaceBrief keeps the table starting at the "Interface" header and
// drops everything from the next prompt-looking line on.
func CropInterfaceBrief(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	start := -1

	for i, ln := range lines {
		if strings.HasPrefix(strings.TrimSpace(ln), "Interface") {
			start = i
			break
		}
	}

	if start < 0 {
		for i, ln := range lines {
			if strings.Contains(ln, "Interface") && strings.Contains(ln, "IP-Address") {
				start = i
				break
			}
		}
	}

	if start < 0 {
		return strings.TrimSpace(text)
	}

	kept := make([]string, 0, len(lines)-start)

	for _, ln := range lines[start:] {
		if isPrompt(ln) {
			break
		}

		kept = append(kept, strings.TrimRight(ln, " \t"))
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isPrompt(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasSuffix(t, "#") || strings.HasSuffix(t, ">")
}

// ParseInterfaceBrief parses the rows of a cropped or raw interface table.
// Status and protocol come from the last two fields, "administratively down"
// counts as one field and the first row for a name wins.
func ParseInterfaceBrief(text string) []models.InterfaceRow {
	cropped := CropInterfaceBrief(text)
	rows := make([]models.InterfaceRow, 0)
	seen := make(map[string]struct{})

	for _, ln := range strings.Split(cropped, "\n") {
		t := strings.TrimSpace(ln)
		if t == "" || strings.HasPrefix(t, "Interface") {
			continue
		}

		fields := strings.Fields(strings.ReplaceAll(t, adminDown, adminDownToken))
		if len(fields) < 4 {
			continue
		}

		name := fields[0]
		if _, dup := seen[name]; dup {
			continue
		}

		seen[name] = struct{}{}

		rows = append(rows, models.InterfaceRow{
			Name:      name,
			IPAddress: fields[1],
			Status:    strings.ReplaceAll(fields[len(fields)-2], adminDownToken, adminDown),
			Proto:     fields[len(fields)-1],
		})
	}

	return rows
}

func normalizeInterfaceBrief(text string) models.CommandOutput {
	rows := ParseInterfaceBrief(text)
	if len(rows) == 0 {
		return models.TextOutput(CropInterfaceBrief(text))
	}

	records := make([]models.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.Record())
	}

	return models.RecordsOutput(records)
}

// RenderInterfaceTable writes normalized interface output back as a CLI
// table. Text output is returned unchanged.
func RenderInterfaceTable(out models.CommandOutput) string {
	if !out.Structured() {
		return out.Text
	}

	var sb strings.Builder

	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Interface\tIP-Address\tOK?\tMethod\tStatus\tProtocol")

	for _, rec := range out.Records {
		fmt.Fprintf(tw, "%s\t%s\tYES\tmanual\t%s\t%s\n",
			field(rec, "name"), field(rec, "ip_address"), field(rec, "status"), field(rec, "proto"))
	}

	_ = tw.Flush()

	return sb.String()
}

func field(rec models.Record, key string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}

	return ""
}
