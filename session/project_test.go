// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package session_test

import (
	"testing"

	"github.com/AdamIH1/spark"
	"github.com/AdamIH1/spark/catalog"
	"github.com/AdamIH1/spark/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectNamespaceCollapsing(t *testing.T) {
	tests := []struct {
		name     string
		input    catalog.TableDescriptor
		expected session.Row
	}{
		{
			"single segment",
			catalog.NewTableDescriptor(catalog.Identifier{"db1"}, "users", false),
			session.Row{Namespace: "db1", TableName: "users", IsTemporary: false},
		},
		{
			"zero segments",
			catalog.NewTableDescriptor(nil, "tmp1", true),
			session.Row{Namespace: "", TableName: "tmp1", IsTemporary: true},
		},
		{
			"two segments collapse to empty",
			catalog.NewTableDescriptor(catalog.Identifier{"a", "b"}, "t", false),
			session.Row{Namespace: "", TableName: "t", IsTemporary: false},
		},
		{
			"three segments collapse to empty",
			catalog.NewTableDescriptor(catalog.Identifier{"a", "b", "c"}, "t", false),
			session.Row{Namespace: "", TableName: "t", IsTemporary: false},
		},
		{
			"null name",
			catalog.TableDescriptor{
				Namespace: []spark.Optional[string]{spark.Some("db1")},
			},
			session.Row{Namespace: "db1", TableName: "", IsTemporary: false},
		},
		{
			"null sole namespace segment",
			catalog.TableDescriptor{
				Namespace: []spark.Optional[string]{{}},
				Name:      spark.Some("t"),
			},
			session.Row{Namespace: "", TableName: "t", IsTemporary: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := session.Project([]catalog.TableDescriptor{tt.input})
			require.Len(t, rows, 1)
			assert.Equal(t, tt.expected, rows[0])
		})
	}
}

func TestProjectEmptyInput(t *testing.T) {
	assert.Equal(t, []session.Row{}, session.Project(nil))
	assert.Equal(t, []session.Row{}, session.Project([]catalog.TableDescriptor{}))
}

func TestProjectPreservesLengthAndOrder(t *testing.T) {
	input := []catalog.TableDescriptor{
		catalog.NewTableDescriptor(catalog.Identifier{"db1"}, "c", false),
		catalog.NewTableDescriptor(nil, "a", true),
		catalog.NewTableDescriptor(catalog.Identifier{"x", "y"}, "b", false),
		catalog.NewTableDescriptor(catalog.Identifier{"db2"}, "a", false),
	}

	rows := session.Project(input)
	require.Len(t, rows, len(input))

	assert.Equal(t, []session.Row{
		{Namespace: "db1", TableName: "c", IsTemporary: false},
		{Namespace: "", TableName: "a", IsTemporary: true},
		{Namespace: "", TableName: "b", IsTemporary: false},
		{Namespace: "db2", TableName: "a", IsTemporary: false},
	}, rows)
}

func TestProjectDeterministic(t *testing.T) {
	input := []catalog.TableDescriptor{
		catalog.NewTableDescriptor(catalog.Identifier{"db1"}, "users", false),
		catalog.NewTableDescriptor(catalog.Identifier{"a", "b"}, "t", true),
	}

	assert.Equal(t, session.Project(input), session.Project(input))
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	input := []catalog.TableDescriptor{
		catalog.NewTableDescriptor(catalog.Identifier{"db1"}, "users", false),
	}
	orig := catalog.NewTableDescriptor(catalog.Identifier{"db1"}, "users", false)

	session.Project(input)
	assert.Equal(t, orig, input[0])
}
