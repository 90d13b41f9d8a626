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
	"context"
	"testing"

	"github.com/AdamIH1/spark/catalog"
	"github.com/AdamIH1/spark/catalog/mem"
	"github.com/AdamIH1/spark/config"
	"github.com/AdamIH1/spark/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*session.Session, *mem.Catalog) {
	t.Helper()

	ctx := context.Background()
	cat := mem.NewCatalog("test")

	_, err := cat.CreateTable(ctx, catalog.Identifier{"default", "users"}, nil)
	require.NoError(t, err)
	_, err = cat.CreateTable(ctx, catalog.Identifier{"default", "orders"}, nil)
	require.NoError(t, err)

	require.NoError(t, cat.CreateDatabase(ctx, "sales", nil))
	_, err = cat.CreateTable(ctx, catalog.Identifier{"sales", "invoices"}, nil)
	require.NoError(t, err)

	return session.New(cat), cat
}

func TestSessionTables(t *testing.T) {
	sess, _ := newTestSession(t)

	rows, err := sess.Tables(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []session.Row{
		{Namespace: "default", TableName: "users"},
		{Namespace: "default", TableName: "orders"},
	}, rows)
}

func TestSessionTablesIn(t *testing.T) {
	sess, _ := newTestSession(t)

	rows, err := sess.TablesIn(context.Background(), "sales")
	require.NoError(t, err)

	assert.Equal(t, []session.Row{
		{Namespace: "sales", TableName: "invoices"},
	}, rows)
}

func TestSessionTablesUnknownDatabase(t *testing.T) {
	sess, _ := newTestSession(t)

	_, err := sess.TablesIn(context.Background(), "nope")
	assert.ErrorIs(t, err, catalog.ErrNoSuchDatabase)
}

func TestSessionTempViewsListedWithEmptyNamespace(t *testing.T) {
	sess, _ := newTestSession(t)
	sess.CreateTempView("scratch")
	sess.CreateTempView("audit")

	rows, err := sess.Tables(context.Background())
	require.NoError(t, err)

	// catalog tables first, then temp views in sorted name order
	assert.Equal(t, []session.Row{
		{Namespace: "default", TableName: "users"},
		{Namespace: "default", TableName: "orders"},
		{Namespace: "", TableName: "audit", IsTemporary: true},
		{Namespace: "", TableName: "scratch", IsTemporary: true},
	}, rows)

	// temp views show up in every database listing
	rows, err = sess.TablesIn(context.Background(), "sales")
	require.NoError(t, err)
	assert.Equal(t, []session.Row{
		{Namespace: "sales", TableName: "invoices"},
		{Namespace: "", TableName: "audit", IsTemporary: true},
		{Namespace: "", TableName: "scratch", IsTemporary: true},
	}, rows)
}

func TestSessionDropTempView(t *testing.T) {
	sess, _ := newTestSession(t)
	sess.CreateTempView("scratch")

	assert.True(t, sess.DropTempView("scratch"))
	assert.False(t, sess.DropTempView("scratch"))

	rows, err := sess.Tables(context.Background())
	require.NoError(t, err)
	for _, r := range rows {
		assert.False(t, r.IsTemporary)
	}
}

func TestSessionTableNames(t *testing.T) {
	sess, _ := newTestSession(t)
	sess.CreateTempView("scratch")

	names, err := sess.TableNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "orders", "scratch"}, names)

	names, err = sess.TableNamesIn(context.Background(), "sales")
	require.NoError(t, err)
	assert.Equal(t, []string{"invoices", "scratch"}, names)
}

func TestSessionAllTables(t *testing.T) {
	sess, _ := newTestSession(t)
	sess.CreateTempView("scratch")

	rows, err := sess.AllTables(context.Background())
	require.NoError(t, err)

	// databases in ListDatabases order (sorted for the mem catalog)
	assert.Equal(t, []session.Row{
		{Namespace: "default", TableName: "users"},
		{Namespace: "default", TableName: "orders"},
		{Namespace: "sales", TableName: "invoices"},
		{Namespace: "", TableName: "scratch", IsTemporary: true},
	}, rows)
}

func TestSessionAllTablesZeroMaxWorkers(t *testing.T) {
	defer func(n int) { config.EnvConfig.MaxWorkers = n }(config.EnvConfig.MaxWorkers)
	config.EnvConfig.MaxWorkers = 0

	sess, _ := newTestSession(t)

	// must not deadlock when the configured worker bound is unusable
	rows, err := sess.AllTables(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestSessionCaching(t *testing.T) {
	ctx := context.Background()
	sess, _ := newTestSession(t)

	assert.False(t, sess.IsCached("users"))

	require.NoError(t, sess.CacheTable(ctx, "users"))
	assert.True(t, sess.IsCached("users"))

	require.NoError(t, sess.UncacheTable(ctx, "users"))
	assert.False(t, sess.IsCached("users"))

	// uncaching a never-cached table is a no-op, but it must exist
	require.NoError(t, sess.UncacheTable(ctx, "orders"))
	assert.ErrorIs(t, sess.CacheTable(ctx, "ghost"), catalog.ErrNoSuchTable)
	assert.ErrorIs(t, sess.UncacheTable(ctx, "ghost"), catalog.ErrNoSuchTable)
}

func TestSessionCacheTempView(t *testing.T) {
	ctx := context.Background()
	sess, _ := newTestSession(t)
	sess.CreateTempView("scratch")

	require.NoError(t, sess.CacheTable(ctx, "scratch"))
	assert.True(t, sess.IsCached("scratch"))

	// dropping the view also evicts it
	sess.DropTempView("scratch")
	assert.False(t, sess.IsCached("scratch"))
}

func TestSessionClearCache(t *testing.T) {
	ctx := context.Background()
	sess, _ := newTestSession(t)

	require.NoError(t, sess.CacheTable(ctx, "users"))
	require.NoError(t, sess.CacheTable(ctx, "orders"))

	sess.ClearCache()
	assert.False(t, sess.IsCached("users"))
	assert.False(t, sess.IsCached("orders"))
}

func TestSessionDropTableEvictsCache(t *testing.T) {
	ctx := context.Background()
	sess, _ := newTestSession(t)

	require.NoError(t, sess.CacheTable(ctx, "users"))
	require.NoError(t, sess.DropTable(ctx, catalog.Identifier{"default", "users"}))
	assert.False(t, sess.IsCached("users"))

	names, err := sess.TableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, names)
}

func TestSessionIDsAreUnique(t *testing.T) {
	cat := mem.NewCatalog("test")
	s1, s2 := session.New(cat), session.New(cat)
	assert.NotEqual(t, s1.ID(), s2.ID())
}
