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

// Package session provides an explicit session handle over a catalog.
//
// A Session owns the state that is deliberately not part of the catalog:
// temporary views and the table cache registry. There is no package-level
// "current" session; callers construct one and pass it around explicitly.
package session

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/AdamIH1/spark"
	"github.com/AdamIH1/spark/catalog"
	"github.com/AdamIH1/spark/config"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Option func(*Session)

// WithMaxWorkers bounds the number of concurrent per-database listings
// performed by AllTables. Defaults to the config file's max-workers.
func WithMaxWorkers(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxWorkers = n
		}
	}
}

// Session is a handle for table listing, temporary views, and cache
// bookkeeping over a single catalog. It is safe for concurrent use.
type Session struct {
	id         uuid.UUID
	cat        catalog.Catalog
	maxWorkers int

	mu     sync.Mutex
	views  map[string]struct{}
	cached map[string]struct{}
}

// New creates a session over the given catalog.
func New(cat catalog.Catalog, opts ...Option) *Session {
	s := &Session{
		id:         uuid.New(),
		cat:        cat,
		maxWorkers: config.EnvConfig.MaxWorkers,
		views:      make(map[string]struct{}),
		cached:     make(map[string]struct{}),
	}

	for _, o := range opts {
		o(s)
	}

	// errgroup.SetLimit(0) would block every Go call
	if s.maxWorkers <= 0 {
		s.maxWorkers = 1
	}

	return s
}

func (s *Session) ID() uuid.UUID            { return s.id }
func (s *Session) Catalog() catalog.Catalog { return s.cat }

// CreateTempView registers a session-scoped temporary view, replacing any
// existing view of the same name.
func (s *Session) CreateTempView(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[name] = struct{}{}
}

// DropTempView removes the named temporary view, reporting whether it
// existed. A dropped view is also removed from the cache registry.
func (s *Session) DropTempView(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.views[name]
	delete(s.views, name)
	delete(s.cached, name)

	return ok
}

// TempViews returns the names of the session's temporary views in sorted
// order.
func (s *Session) TempViews() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.views))
	for name := range s.views {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// Tables lists the tables of the catalog's current database, plus the
// session's temporary views, as projected rows.
func (s *Session) Tables(ctx context.Context) ([]Row, error) {
	return s.TablesIn(ctx, s.cat.CurrentDatabase())
}

// TablesIn lists the tables of the named database, plus the session's
// temporary views, as projected rows. Catalog tables come first in catalog
// order, followed by temp views in sorted name order.
func (s *Session) TablesIn(ctx context.Context, database string) ([]Row, error) {
	tbls, err := s.catalogTables(ctx, database)
	if err != nil {
		return nil, err
	}

	return Project(append(tbls, s.viewDescriptors()...)), nil
}

// AllTables lists the tables of every database in the catalog, plus the
// session's temporary views. Databases are listed concurrently, bounded by
// the session's max-workers; output order follows ListDatabases.
func (s *Session) AllTables(ctx context.Context) ([]Row, error) {
	dbs, err := s.cat.ListDatabases(ctx)
	if err != nil {
		return nil, err
	}

	perDB := make([][]catalog.TableDescriptor, len(dbs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxWorkers)
	for i, db := range dbs {
		g.Go(func() error {
			tbls, err := s.catalogTables(gctx, db)
			if err != nil {
				return err
			}
			perDB[i] = tbls

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []catalog.TableDescriptor
	for _, tbls := range perDB {
		all = append(all, tbls...)
	}

	return Project(append(all, s.viewDescriptors()...)), nil
}

// TableNames returns the table names of the current database plus temp view
// names. The namespace is not included.
func (s *Session) TableNames(ctx context.Context) ([]string, error) {
	return s.TableNamesIn(ctx, s.cat.CurrentDatabase())
}

// TableNamesIn returns the table names of the named database plus temp view
// names.
func (s *Session) TableNamesIn(ctx context.Context, database string) ([]string, error) {
	tbls, err := s.catalogTables(ctx, database)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(tbls))
	for _, tbl := range tbls {
		var name string
		if tbl.Name.Valid {
			name = tbl.Name.Val
		}
		names = append(names, name)
	}

	return append(names, s.TempViews()...), nil
}

// CreateTable creates a table through the catalog.
func (s *Session) CreateTable(ctx context.Context, identifier catalog.Identifier, props spark.Properties) (catalog.TableDescriptor, error) {
	return s.cat.CreateTable(ctx, identifier, props)
}

// DropTable drops a table through the catalog and removes any cache entry
// for it.
func (s *Session) DropTable(ctx context.Context, identifier catalog.Identifier) error {
	if err := s.cat.DropTable(ctx, identifier); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cached, catalog.TableNameFromIdent(identifier))

	return nil
}

// CacheTable marks the named table of the current database (or temp view)
// as cached.
func (s *Session) CacheTable(ctx context.Context, name string) error {
	if err := s.checkTable(ctx, name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached[name] = struct{}{}

	return nil
}

// UncacheTable removes the named table from the cache registry. Uncaching a
// table that was never cached is a no-op, but the table must exist.
func (s *Session) UncacheTable(ctx context.Context, name string) error {
	if err := s.checkTable(ctx, name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cached, name)

	return nil
}

// IsCached reports whether the named table is in the cache registry.
func (s *Session) IsCached(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cached[name]

	return ok
}

// ClearCache empties the cache registry.
func (s *Session) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.cached)
}

func (s *Session) checkTable(ctx context.Context, name string) error {
	s.mu.Lock()
	_, isView := s.views[name]
	s.mu.Unlock()
	if isView {
		return nil
	}

	exists, err := s.cat.CheckTableExists(ctx,
		catalog.Identifier{s.cat.CurrentDatabase(), name})
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", catalog.ErrNoSuchTable, name)
	}

	return nil
}

func (s *Session) catalogTables(ctx context.Context, database string) ([]catalog.TableDescriptor, error) {
	var tbls []catalog.TableDescriptor
	for tbl, err := range s.cat.ListTables(ctx, database) {
		if err != nil {
			return nil, err
		}
		tbls = append(tbls, tbl)
	}

	return tbls, nil
}

// viewDescriptors renders the temp view registry as descriptors. Temp views
// live outside any database, so their namespace has zero segments.
func (s *Session) viewDescriptors() []catalog.TableDescriptor {
	names := s.TempViews()

	tbls := make([]catalog.TableDescriptor, len(names))
	for i, name := range names {
		tbls[i] = catalog.NewTableDescriptor(nil, name, true)
	}

	return tbls
}
