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

// TestSource returns a source that loads the given values. Intended for
// tests that need a deterministic in-memory source.
func TestSource(values map[string]any) Source {
	return SourceFunc(func(obj *Object, _ *Template) error {
		return LoadFields(obj, values)
	})
}

// TestSourceWithError returns a source that always fails with err. Intended
// for testing error handling of source consumers.
func TestSourceWithError(err error) Source {
	return SourceFunc(func(*Object, *Template) error {
		return err
	})
}
