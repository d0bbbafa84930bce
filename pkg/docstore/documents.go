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

package docstore

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/carverauto/devicejobs/pkg/models"
)

var errUnsupportedTime = errors.New("unsupported time value")

// isoLayouts are the string forms earlier tooling wrote into "time". Values
// without a zone are taken as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// documentTime is written as a BSON date and read from either a BSON date or
// an ISO-8601 string.
type documentTime time.Time

func (t documentTime) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(time.Time(t).UTC())
}

func (t *documentTime) UnmarshalBSONValue(typ bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: typ, Value: data}

	switch typ {
	case bson.TypeDateTime:
		*t = documentTime(raw.Time().UTC())
		return nil
	case bson.TypeString:
		parsed, err := parseISOTime(raw.StringValue())
		if err != nil {
			return err
		}

		*t = documentTime(parsed)

		return nil
	case bson.TypeNull, bson.TypeUndefined:
		*t = documentTime{}
		return nil
	default:
		return fmt.Errorf("%w: bson type %s", errUnsupportedTime, typ)
	}
}

func parseISOTime(value string) (time.Time, error) {
	for _, layout := range isoLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", errUnsupportedTime, value)
}

// resultDocument is one entry of the outputs collection. Output holds either
// a string or an array of sub-documents, as written by earlier tooling. Time
// is stored as a BSON date; entries from earlier tooling carry an ISO string.
type resultDocument struct {
	AttemptID string       `bson:"attempt_id"`
	IPAddress string       `bson:"ip_address"`
	Command   string       `bson:"command"`
	Time      documentTime `bson:"time"`
	RawOutput string       `bson:"raw_output"`
	Output    interface{}  `bson:"output"`
	Success   bool         `bson:"success"`
	Error     *string      `bson:"error"`
}

type deviceDocument struct {
	IP         string `bson:"ip"`
	Username   string `bson:"username"`
	Password   string `bson:"password"`
	DeviceType string `bson:"device_type"`
}

func newResultDocument(res *models.CommandResult) resultDocument {
	return resultDocument{
		AttemptID: res.AttemptID,
		IPAddress: res.DeviceIP,
		Command:   res.Command,
		Time:      documentTime(res.IssuedAt.UTC()),
		RawOutput: res.RawOutput,
		Output:    outputToBSON(res.Output),
		Success:   res.Success,
		Error:     res.Error,
	}
}

func (d *resultDocument) commandResult() *models.CommandResult {
	return &models.CommandResult{
		AttemptID: d.AttemptID,
		DeviceIP:  d.IPAddress,
		Command:   d.Command,
		IssuedAt:  time.Time(d.Time).UTC(),
		RawOutput: d.RawOutput,
		Output:    outputFromBSON(d.Output),
		Success:   d.Success,
		Error:     d.Error,
	}
}

func outputToBSON(out models.CommandOutput) interface{} {
	if !out.Structured() {
		return out.Text
	}

	docs := make(bson.A, 0, len(out.Records))
	for _, rec := range out.Records {
		docs = append(docs, bson.M(rec))
	}

	return docs
}

// outputFromBSON accepts whatever the driver decoded into interface{}: a
// string, or an array of documents in D or M form.
func outputFromBSON(v interface{}) models.CommandOutput {
	switch value := v.(type) {
	case nil:
		return models.TextOutput("")
	case string:
		return models.TextOutput(value)
	case primitive.A:
		records := make([]models.Record, 0, len(value))

		for _, item := range value {
			if rec, ok := plainValue(item).(map[string]interface{}); ok {
				records = append(records, models.Record(rec))
			}
		}

		return models.RecordsOutput(records)
	default:
		return models.TextOutput("")
	}
}

func plainValue(v interface{}) interface{} {
	switch value := v.(type) {
	case primitive.D:
		m := make(map[string]interface{}, len(value))
		for _, e := range value {
			m[e.Key] = plainValue(e.Value)
		}

		return m
	case primitive.M:
		return plainMap(value)
	case map[string]interface{}:
		return plainMap(value)
	case primitive.A:
		out := make([]interface{}, 0, len(value))
		for _, item := range value {
			out = append(out, plainValue(item))
		}

		return out
	default:
		return v
	}
}

func plainMap(in map[string]interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(in))
	for k, v := range in {
		m[k] = plainValue(v)
	}

	return m
}

func newDeviceDocument(creds *models.DeviceCredentials) deviceDocument {
	return deviceDocument{
		IP:         creds.IP,
		Username:   creds.Username,
		Password:   creds.Password,
		DeviceType: creds.Platform(),
	}
}

func (d *deviceDocument) credentials() models.DeviceCredentials {
	return models.DeviceCredentials{
		IP:         d.IP,
		Username:   d.Username,
		Password:   d.Password,
		DeviceType: d.DeviceType,
	}
}
