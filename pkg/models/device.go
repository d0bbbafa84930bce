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

package models

import "strings"

const (
	DefaultDeviceType = "cisco_ios"

	DeviceKindRouter = "router"
	DeviceKindSwitch = "switch"
)

// DeviceCredentials is the capability bundle handed to an executor.
type DeviceCredentials struct {
	IP         string `json:"ip"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	DeviceType string `json:"device_type"`
}

// Platform returns the device type, falling back to cisco_ios.
func (c *DeviceCredentials) Platform() string {
	if c.DeviceType == "" {
		return DefaultDeviceType
	}

	return c.DeviceType
}

// String never includes the password.
func (c DeviceCredentials) String() string {
	return c.Username + "@" + c.IP + " (" + c.Platform() + ")"
}

// DeviceGroups buckets the inventory the way operators browse it.
type DeviceGroups struct {
	Routers  []DeviceCredentials `json:"routers"`
	Switches []DeviceCredentials `json:"switches"`
	Others   []DeviceCredentials `json:"others"`
}

// GroupDevices splits devices by their device type.
func GroupDevices(devices []DeviceCredentials) DeviceGroups {
	groups := DeviceGroups{
		Routers:  []DeviceCredentials{},
		Switches: []DeviceCredentials{},
		Others:   []DeviceCredentials{},
	}

	for _, d := range devices {
		switch strings.ToLower(d.DeviceType) {
		case DeviceKindRouter:
			groups.Routers = append(groups.Routers, d)
		case DeviceKindSwitch:
			groups.Switches = append(groups.Switches, d)
		default:
			groups.Others = append(groups.Others, d)
		}
	}

	return groups
}

// InterfaceRow is one parsed row of "show ip interface brief".
type InterfaceRow struct {
	Name      string `json:"name"`
	IPAddress string `json:"ip_address"`
	Status    string `json:"status"`
	Proto     string `json:"proto"`
}

// Record converts the row into a generic output record.
func (r InterfaceRow) Record() Record {
	return Record{
		"name":       r.Name,
		"ip_address": r.IPAddress,
		"status":     r.Status,
		"proto":      r.Proto,
	}
}

// InterfaceRecord is the read-side view of an interface.
type InterfaceRecord struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	IPAddress string `json:"ip_address"`
	VRF       string `json:"vrf"`
	Enabled   bool   `json:"enabled"`
}

// InterfaceRecordsFromOutput maps stored interface rows onto the read-side view.
// Text output yields no records.
func InterfaceRecordsFromOutput(out CommandOutput) []InterfaceRecord {
	records := make([]InterfaceRecord, 0, len(out.Records))

	for _, rec := range out.Records {
		status := recordString(rec, "status")

		records = append(records, InterfaceRecord{
			Name:      recordString(rec, "name"),
			Status:    status,
			IPAddress: recordString(rec, "ip_address"),
			VRF:       recordString(rec, "vrf"),
			Enabled:   strings.ToLower(status) == "up",
		})
	}

	return records
}

func recordString(rec Record, key string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}

	return ""
}

// VersionRecord is the structured form of "show version".
type VersionRecord struct {
	Hostname        string   `json:"hostname"`
	SoftwareVersion string   `json:"software_version"`
	ReleaseTrain    string   `json:"release_train"`
	SoftwareImage   string   `json:"software_image"`
	Uptime          string   `json:"uptime"`
	UptimeYears     string   `json:"uptime_years"`
	UptimeWeeks     string   `json:"uptime_weeks"`
	UptimeDays      string   `json:"uptime_days"`
	UptimeHours     string   `json:"uptime_hours"`
	UptimeMinutes   string   `json:"uptime_minutes"`
	Hardware        []string `json:"hardware"`
	Serial          []string `json:"serial"`
	MACAddress      []string `json:"mac_address"`
	ConfigRegister  string   `json:"config_register"`
	ReloadReason    string   `json:"reload_reason"`
	RunningImage    string   `json:"running_image"`
	Rommon          string   `json:"rommon"`
}

// NewVersionRecord returns a record with every list initialized.
func NewVersionRecord() VersionRecord {
	return VersionRecord{
		Hardware:   []string{},
		Serial:     []string{},
		MACAddress: []string{},
	}
}

// Record converts the version record into a generic output record.
func (v VersionRecord) Record() Record {
	return Record{
		"hostname":         v.Hostname,
		"software_version": v.SoftwareVersion,
		"release_train":    v.ReleaseTrain,
		"software_image":   v.SoftwareImage,
		"uptime":           v.Uptime,
		"uptime_years":     v.UptimeYears,
		"uptime_weeks":     v.UptimeWeeks,
		"uptime_days":      v.UptimeDays,
		"uptime_hours":     v.UptimeHours,
		"uptime_minutes":   v.UptimeMinutes,
		"hardware":         nonNil(v.Hardware),
		"serial":           nonNil(v.Serial),
		"mac_address":      nonNil(v.MACAddress),
		"config_register":  v.ConfigRegister,
		"reload_reason":    v.ReloadReason,
		"running_image":    v.RunningImage,
		"rommon":           v.Rommon,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}

	return values
}
