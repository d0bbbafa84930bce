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

package config

import (
	"encoding/json"
	"reflect"
	"strings"
)

const redactedValue = "[redacted]"

// Redact marshals cfg to a generic map with every field tagged
// `sensitive:"true"` replaced by a placeholder. Use it before logging a
// loaded configuration.
func Redact(cfg interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	out := make(map[string]interface{})
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	redactValue(reflect.ValueOf(cfg), out)

	return out, nil
}

func redactValue(v reflect.Value, out map[string]interface{}) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return
		}

		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			continue
		}

		if _, present := out[name]; !present {
			continue
		}

		if f.Tag.Get("sensitive") == "true" {
			out[name] = redactedValue
			continue
		}

		if nested, ok := out[name].(map[string]interface{}); ok {
			redactValue(v.Field(i), nested)
		}
	}
}
