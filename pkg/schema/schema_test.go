// Copyright 2025 Kadir Pekel
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

package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAnalyzersIsIdempotent(t *testing.T) {
	require.NoError(t, RegisterAnalyzers())
	require.NoError(t, RegisterAnalyzers())
}

func TestBuildMappingSucceeds(t *testing.T) {
	im, err := BuildMapping()
	require.NoError(t, err)
	require.NotNil(t, im)
	require.Equal(t, AnalyzerName, im.DefaultAnalyzer)
}

func TestBuildMappingIsStableAcrossCalls(t *testing.T) {
	a, err := BuildMapping()
	require.NoError(t, err)
	b, err := BuildMapping()
	require.NoError(t, err)
	require.Equal(t, a.DefaultAnalyzer, b.DefaultAnalyzer)
}
