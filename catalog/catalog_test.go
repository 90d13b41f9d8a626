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

package catalog_test

import (
	"testing"

	"github.com/AdamIH1/spark"
	"github.com/AdamIH1/spark/catalog"
	"github.com/stretchr/testify/assert"
)

func TestToIdentifier(t *testing.T) {
	assert.Equal(t, catalog.Identifier{}, catalog.ToIdentifier(""))
	assert.Equal(t, catalog.Identifier{"tbl"}, catalog.ToIdentifier("tbl"))
	assert.Equal(t, catalog.Identifier{"db", "tbl"}, catalog.ToIdentifier("db.tbl"))
	assert.Equal(t, catalog.Identifier{"a", "b", "tbl"}, catalog.ToIdentifier("a.b.tbl"))
}

func TestNamespaceFromIdent(t *testing.T) {
	assert.Equal(t, catalog.Identifier{}, catalog.NamespaceFromIdent(nil))
	assert.Equal(t, catalog.Identifier{}, catalog.NamespaceFromIdent(catalog.Identifier{"tbl"}))
	assert.Equal(t, catalog.Identifier{"db"}, catalog.NamespaceFromIdent(catalog.Identifier{"db", "tbl"}))
	assert.Equal(t, catalog.Identifier{"a", "b"}, catalog.NamespaceFromIdent(catalog.Identifier{"a", "b", "tbl"}))
}

func TestTableNameFromIdent(t *testing.T) {
	assert.Equal(t, "", catalog.TableNameFromIdent(nil))
	assert.Equal(t, "tbl", catalog.TableNameFromIdent(catalog.Identifier{"tbl"}))
	assert.Equal(t, "tbl", catalog.TableNameFromIdent(catalog.Identifier{"db", "tbl"}))
}

func TestNewTableDescriptor(t *testing.T) {
	desc := catalog.NewTableDescriptor(catalog.Identifier{"db"}, "tbl", true)

	assert.Equal(t, []spark.Optional[string]{spark.Some("db")}, desc.Namespace)
	assert.Equal(t, spark.Some("tbl"), desc.Name)
	assert.True(t, desc.IsTemporary)

	empty := catalog.NewTableDescriptor(nil, "view", true)
	assert.Empty(t, empty.Namespace)
	assert.Equal(t, spark.Some("view"), empty.Name)
}
