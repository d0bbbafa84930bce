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

package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/carverauto/devicejobs/pkg/models"
)

// Dracula theme colors.
const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaComment    = "#6272A4"
)

func newOutputStyles() outputStyles {
	return outputStyles{
		heading: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaCyan)).
			Bold(true),
		success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)),
		failure: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
	}
}

func newTable(headers ...string) *table.Table {
	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(draculaPurple)).
		Bold(true).
		Padding(0, 1)
	cellStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(draculaForeground)).
		Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(draculaComment))).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})
}

// renderDeviceGroups prints one table per device group. Passwords are never
// shown.
func renderDeviceGroups(groups models.DeviceGroups) string {
	styles := newOutputStyles()

	var b strings.Builder

	sections := []struct {
		title   string
		devices []models.DeviceCredentials
	}{
		{"Routers", groups.Routers},
		{"Switches", groups.Switches},
		{"Others", groups.Others},
	}

	for _, s := range sections {
		b.WriteString(styles.heading.Render(fmt.Sprintf("%s (%d)", s.title, len(s.devices))))
		b.WriteString("\n")

		if len(s.devices) == 0 {
			b.WriteString(styles.muted.Render("  none"))
			b.WriteString("\n")

			continue
		}

		t := newTable("IP", "USERNAME", "PLATFORM")
		for i := range s.devices {
			d := &s.devices[i]
			t.Row(d.IP, d.Username, d.Platform())
		}

		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	return b.String()
}

// renderResult prints the header fields of a result followed by its output.
func renderResult(res *models.CommandResult) string {
	styles := newOutputStyles()

	status := styles.success.Render("success")
	if !res.Success {
		status = styles.failure.Render("failed")
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", styles.heading.Render(res.Command), status)
	fmt.Fprintf(&b, "%s %s\n", styles.muted.Render("device: "), res.DeviceIP)
	fmt.Fprintf(&b, "%s %s\n", styles.muted.Render("issued: "), res.IssuedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "%s %s\n", styles.muted.Render("attempt:"), res.AttemptID)

	if res.Error != nil {
		fmt.Fprintf(&b, "%s %s\n", styles.muted.Render("error:  "), styles.failure.Render(*res.Error))
	}

	if res.Output.Structured() {
		b.WriteString(renderRecords(res.Output.Records))
		b.WriteString("\n")

		return b.String()
	}

	if res.Output.Text != "" {
		b.WriteString(res.Output.Text)
		b.WriteString("\n")
	}

	return b.String()
}

// renderRecords tabulates records using the union of their keys as columns.
func renderRecords(records []models.Record) string {
	if len(records) == 0 {
		return newOutputStyles().muted.Render("(no rows)")
	}

	seen := make(map[string]struct{})

	var columns []string

	for _, rec := range records {
		for k := range rec {
			if _, ok := seen[k]; ok {
				continue
			}

			seen[k] = struct{}{}
			columns = append(columns, k)
		}
	}

	sort.Strings(columns)

	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = strings.ToUpper(c)
	}

	t := newTable(headers...)

	for _, rec := range records {
		row := make([]string, len(columns))

		for i, c := range columns {
			if v, ok := rec[c]; ok && v != nil {
				row[i] = fmt.Sprint(v)
			}
		}

		t.Row(row...)
	}

	return t.Render()
}

func renderInterfaces(ip string, records []models.InterfaceRecord) string {
	styles := newOutputStyles()

	var b strings.Builder

	b.WriteString(styles.heading.Render(fmt.Sprintf("Interfaces on %s (%d)", ip, len(records))))
	b.WriteString("\n")

	if len(records) == 0 {
		b.WriteString(styles.muted.Render("  no interface data"))
		b.WriteString("\n")

		return b.String()
	}

	t := newTable("NAME", "IP ADDRESS", "STATUS", "VRF", "ENABLED")

	for _, r := range records {
		enabled := "no"
		if r.Enabled {
			enabled = "yes"
		}

		t.Row(r.Name, r.IPAddress, r.Status, r.VRF, enabled)
	}

	b.WriteString(t.Render())
	b.WriteString("\n")

	return b.String()
}
