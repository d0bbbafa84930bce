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
	"regexp"
	"strings"

	"github.com/carverauto/devicejobs/pkg/models"
)

type versionRule struct {
	re    *regexp.Regexp
	apply func(v *models.VersionRecord, m []string)
}

//nolint:gochecknoglobals // compiled once
var (
	versionRules = []versionRule{
		{
			re: regexp.MustCompile(`^(\S+)\s+uptime is\s+(.+)$`),
			apply: func(v *models.VersionRecord, m []string) {
				setOnce(&v.Hostname, m[1])
				setOnce(&v.Uptime, m[2])
			},
		},
		{
			re: regexp.MustCompile(`Software\s+\(([^)]+)\)`),
			apply: func(v *models.VersionRecord, m []string) {
				setOnce(&v.SoftwareImage, m[1])
			},
		},
		{
			re: regexp.MustCompile(`Software.*?Version\s+([^,\s]+)`),
			apply: func(v *models.VersionRecord, m []string) {
				setOnce(&v.SoftwareVersion, m[1])
			},
		},
		{
			re: regexp.MustCompile(`RELEASE SOFTWARE\s+\(([^)]+)\)`),
			apply: func(v *models.VersionRecord, m []string) {
				setOnce(&v.ReleaseTrain, m[1])
			},
		},
		{
			re: regexp.MustCompile(`^ROM:\s+(.+)$`),
			apply: func(v *models.VersionRecord, m []string) {
				setOnce(&v.Rommon, m[1])
			},
		},
		{
			re: regexp.MustCompile(`^System image file is "(?:[^":]*:)?/?([^"]+)"`),
			apply: func(v *models.VersionRecord, m []string) {
				setOnce(&v.RunningImage, m[1])
			},
		},
		{
			re: regexp.MustCompile(`^(?:Last reload reason:|System returned to ROM by)\s+(.+)$`),
			apply: func(v *models.VersionRecord, m []string) {
				setOnce(&v.ReloadReason, m[1])
			},
		},
		{
			re: regexp.MustCompile(`^Configuration register is (\S+)`),
			apply: func(v *models.VersionRecord, m []string) {
				setOnce(&v.ConfigRegister, m[1])
			},
		},
		{
			re: regexp.MustCompile(`^[Cc]isco\s+(\S+)\s+\(.+\)\s+(?:processor|with)`),
			apply: func(v *models.VersionRecord, m []string) {
				v.Hardware = appendUnique(v.Hardware, m[1])
			},
		},
		{
			re: regexp.MustCompile(`^Model [Nn]umber\s*:\s*(\S+)`),
			apply: func(v *models.VersionRecord, m []string) {
				v.Hardware = appendUnique(v.Hardware, m[1])
			},
		},
		{
			re: regexp.MustCompile(`^(?:Processor board ID|System [Ss]erial [Nn]umber\s*:)\s*(\S+)`),
			apply: func(v *models.VersionRecord, m []string) {
				v.Serial = appendUnique(v.Serial, m[1])
			},
		},
		{
			re: regexp.MustCompile(`^Base [Ee]thernet MAC [Aa]ddress\s*:\s*(\S+)`),
			apply: func(v *models.VersionRecord, m []string) {
				v.MACAddress = appendUnique(v.MACAddress, m[1])
			},
		},
	}

	// Tried in order against the uptime text; the first match sets the fields.
	uptimeRules = []versionRule{
		{
			re: regexp.MustCompile(`^(\d+) years?, (\d+) weeks?, (\d+) days?, (\d+) hours?, (\d+) minutes?`),
			apply: func(v *models.VersionRecord, m []string) {
				v.UptimeYears, v.UptimeWeeks, v.UptimeDays, v.UptimeHours, v.UptimeMinutes = m[1], m[2], m[3], m[4], m[5]
			},
		},
		{
			re: regexp.MustCompile(`^(\d+) hours?, (\d+) minutes?`),
			apply: func(v *models.VersionRecord, m []string) {
				v.UptimeHours, v.UptimeMinutes = m[1], m[2]
			},
		},
		{
			re: regexp.MustCompile(`(?:(\d+) years?,?\s*)?(?:(\d+) weeks?,?\s*)?(?:(\d+) days?,?\s*)?(?:(\d+) hours?,?\s*)?(?:(\d+) minutes?)?`),
			apply: func(v *models.VersionRecord, m []string) {
				v.UptimeYears, v.UptimeWeeks, v.UptimeDays, v.UptimeHours, v.UptimeMinutes = m[1], m[2], m[3], m[4], m[5]
			},
		},
	}
)

// ParseVersion extracts a VersionRecord from "show version" text. Scalar
// fields keep their first match; list fields collect unique values in order.
func ParseVersion(text string) models.VersionRecord {
	v := models.NewVersionRecord()

	for _, ln := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(ln)
		if line == "" {
			continue
		}

		for _, r := range versionRules {
			if m := r.re.FindStringSubmatch(line); m != nil {
				r.apply(&v, m)
			}
		}
	}

	if v.Uptime != "" {
		for _, r := range uptimeRules {
			if m := r.re.FindStringSubmatch(v.Uptime); m != nil {
				r.apply(&v, m)
				break
			}
		}
	}

	return v
}

func normalizeVersion(text string) models.CommandOutput {
	v := ParseVersion(text)
	if v.Hostname == "" && v.SoftwareVersion == "" {
		return models.TextOutput(strings.TrimSpace(text))
	}

	return models.RecordsOutput([]models.Record{v.Record()})
}

func setOnce(dst *string, value string) {
	if *dst == "" {
		*dst = strings.TrimSpace(value)
	}
}

func appendUnique(values []string, value string) []string {
	for _, existing := range values {
		if existing == value {
			return values
		}
	}

	return append(values, value)
}
