// Copyright 2025 The Konfi Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package konfi

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Bind decodes the object's values into the target struct. Struct fields are
// matched by the "konfi" tag or, failing that, their name. Nested objects
// map to nested structs, enum members decode to their value.
func Bind(obj *Object, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "konfi",
		Squash:           true,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			enumMemberHook(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToURLHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("bind %s: %w", obj.template.name, err)
	}

	if err := dec.Decode(obj.Map()); err != nil {
		return fmt.Errorf("bind %s: %w", obj.template.name, err)
	}
	return nil
}

var enumMemberType = reflect.TypeOf(EnumMember{})

// enumMemberHook unwraps enum members so they decode like their plain value.
func enumMemberHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from != enumMemberType || to == enumMemberType {
			return data, nil
		}
		return data.(EnumMember).Value, nil
	}
}
