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

package mem_test

import (
	"context"
	"testing"

	"github.com/AdamIH1/spark/catalog"
	"github.com/AdamIH1/spark/catalog/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectTables(t *testing.T, cat catalog.Catalog, database string) []catalog.TableDescriptor {
	t.Helper()

	var out []catalog.TableDescriptor
	for tbl, err := range cat.ListTables(context.Background(), database) {
		require.NoError(t, err)
		out = append(out, tbl)
	}

	return out
}

func TestMemCatalogDatabases(t *testing.T) {
	ctx := context.Background()
	cat := mem.NewCatalog("test")

	assert.Equal(t, "test", cat.Name())
	assert.Equal(t, catalog.InMemory, cat.CatalogType())
	assert.Equal(t, mem.DefaultDatabase, cat.CurrentDatabase())

	require.NoError(t, cat.CreateDatabase(ctx, "sales", nil))
	assert.ErrorIs(t, cat.CreateDatabase(ctx, "sales", nil), catalog.ErrDatabaseAlreadyExists)

	dbs, err := cat.ListDatabases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "sales"}, dbs)

	require.NoError(t, cat.SetCurrentDatabase(ctx, "sales"))
	assert.Equal(t, "sales", cat.CurrentDatabase())
	assert.ErrorIs(t, cat.SetCurrentDatabase(ctx, "nope"), catalog.ErrNoSuchDatabase)

	require.NoError(t, cat.DropDatabase(ctx, "default"))
	assert.ErrorIs(t, cat.DropDatabase(ctx, "default"), catalog.ErrNoSuchDatabase)
}

func TestMemCatalogDropNonEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	cat := mem.NewCatalog("test")

	_, err := cat.CreateTable(ctx, catalog.Identifier{"default", "users"}, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, cat.DropDatabase(ctx, "default"), catalog.ErrDatabaseNotEmpty)

	require.NoError(t, cat.DropTable(ctx, catalog.Identifier{"default", "users"}))
	assert.NoError(t, cat.DropDatabase(ctx, "default"))
}

func TestMemCatalogTables(t *testing.T) {
	ctx := context.Background()
	cat := mem.NewCatalog("test")

	// single-segment identifiers resolve against the current database
	desc, err := cat.CreateTable(ctx, catalog.Identifier{"users"}, nil)
	require.NoError(t, err)
	assert.Equal(t, catalog.NewTableDescriptor(catalog.Identifier{"default"}, "users", false), desc)

	_, err = cat.CreateTable(ctx, catalog.Identifier{"default", "users"}, nil)
	assert.ErrorIs(t, err, catalog.ErrTableAlreadyExists)

	_, err = cat.CreateTable(ctx, catalog.Identifier{"nope", "users"}, nil)
	assert.ErrorIs(t, err, catalog.ErrNoSuchDatabase)

	exists, err := cat.CheckTableExists(ctx, catalog.Identifier{"default", "users"})
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = cat.CheckTableExists(ctx, catalog.Identifier{"default", "ghost"})
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemCatalogListTablesOrder(t *testing.T) {
	ctx := context.Background()
	cat := mem.NewCatalog("test")

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := cat.CreateTable(ctx, catalog.Identifier{"default", name}, nil)
		require.NoError(t, err)
	}

	tbls := collectTables(t, cat, "default")
	require.Len(t, tbls, 3)

	// creation order, not sorted
	assert.Equal(t, "zeta", tbls[0].Name.Val)
	assert.Equal(t, "alpha", tbls[1].Name.Val)
	assert.Equal(t, "mid", tbls[2].Name.Val)

	for _, tbl := range tbls {
		require.Len(t, tbl.Namespace, 1)
		assert.Equal(t, "default", tbl.Namespace[0].Val)
		assert.False(t, tbl.IsTemporary)
	}
}

func TestMemCatalogListTablesUnknownDatabase(t *testing.T) {
	cat := mem.NewCatalog("test")

	for _, err := range cat.ListTables(context.Background(), "nope") {
		assert.ErrorIs(t, err, catalog.ErrNoSuchDatabase)
	}
}

func TestMemCatalogDropTable(t *testing.T) {
	ctx := context.Background()
	cat := mem.NewCatalog("test")

	_, err := cat.CreateTable(ctx, catalog.Identifier{"default", "users"}, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, cat.DropTable(ctx, catalog.Identifier{"default", "ghost"}), catalog.ErrNoSuchTable)
	require.NoError(t, cat.DropTable(ctx, catalog.Identifier{"default", "users"}))
	assert.Empty(t, collectTables(t, cat, "default"))
}

func TestMemCatalogInvalidIdentifier(t *testing.T) {
	ctx := context.Background()
	cat := mem.NewCatalog("test")

	_, err := cat.CreateTable(ctx, catalog.Identifier{"a", "b", "c"}, nil)
	assert.Error(t, err)

	_, err = cat.CreateTable(ctx, nil, nil)
	assert.Error(t, err)
}
