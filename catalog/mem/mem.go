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

// Package mem provides an in-process catalog backed by plain maps. It is
// intended for tests and local experimentation where no metastore is
// available.
package mem

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/AdamIH1/spark"
	"github.com/AdamIH1/spark/catalog"
)

const DefaultDatabase = "default"

var _ catalog.Catalog = (*Catalog)(nil)

func init() {
	catalog.Register("mem", catalog.RegistrarFunc(func(_ context.Context, name string, _ spark.Properties) (catalog.Catalog, error) {
		return NewCatalog(name), nil
	}))
}

type Catalog struct {
	name string

	mu      sync.RWMutex
	current string
	// tables per database, in creation order
	dbs map[string][]string
}

// NewCatalog creates an in-memory catalog with an empty "default" database
// selected as current.
func NewCatalog(name string) *Catalog {
	return &Catalog{
		name:    name,
		current: DefaultDatabase,
		dbs:     map[string][]string{DefaultDatabase: {}},
	}
}

func (c *Catalog) Name() string { return c.name }

func (c *Catalog) CatalogType() catalog.Type { return catalog.InMemory }

func (c *Catalog) CurrentDatabase() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.current
}

func (c *Catalog) SetCurrentDatabase(_ context.Context, database string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.dbs[database]; !ok {
		return fmt.Errorf("%w: %s", catalog.ErrNoSuchDatabase, database)
	}
	c.current = database

	return nil
}

func (c *Catalog) ListDatabases(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dbs := slices.Collect(maps.Keys(c.dbs))
	slices.Sort(dbs)

	return dbs, nil
}

func (c *Catalog) CreateDatabase(_ context.Context, database string, _ spark.Properties) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.dbs[database]; ok {
		return fmt.Errorf("%w: %s", catalog.ErrDatabaseAlreadyExists, database)
	}
	c.dbs[database] = []string{}

	return nil
}

func (c *Catalog) DropDatabase(_ context.Context, database string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tbls, ok := c.dbs[database]
	if !ok {
		return fmt.Errorf("%w: %s", catalog.ErrNoSuchDatabase, database)
	}
	if len(tbls) > 0 {
		return fmt.Errorf("%w: %d tables exist in database %s",
			catalog.ErrDatabaseNotEmpty, len(tbls), database)
	}
	delete(c.dbs, database)

	return nil
}

func (c *Catalog) ListTables(_ context.Context, database string) iter.Seq2[catalog.TableDescriptor, error] {
	c.mu.RLock()
	tbls, ok := c.dbs[database]
	tbls = slices.Clone(tbls)
	c.mu.RUnlock()

	return func(yield func(catalog.TableDescriptor, error) bool) {
		if !ok {
			yield(catalog.TableDescriptor{},
				fmt.Errorf("%w: %s", catalog.ErrNoSuchDatabase, database))

			return
		}

		for _, name := range tbls {
			if !yield(catalog.NewTableDescriptor(catalog.Identifier{database}, name, false), nil) {
				return
			}
		}
	}
}

func (c *Catalog) CreateTable(_ context.Context, identifier catalog.Identifier, _ spark.Properties) (catalog.TableDescriptor, error) {
	db, name, err := c.splitIdent(identifier)
	if err != nil {
		return catalog.TableDescriptor{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tbls, ok := c.dbs[db]
	if !ok {
		return catalog.TableDescriptor{}, fmt.Errorf("%w: %s", catalog.ErrNoSuchDatabase, db)
	}
	if slices.Contains(tbls, name) {
		return catalog.TableDescriptor{}, fmt.Errorf("%w: %s.%s", catalog.ErrTableAlreadyExists, db, name)
	}
	c.dbs[db] = append(tbls, name)

	return catalog.NewTableDescriptor(catalog.Identifier{db}, name, false), nil
}

func (c *Catalog) DropTable(_ context.Context, identifier catalog.Identifier) error {
	db, name, err := c.splitIdent(identifier)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tbls, ok := c.dbs[db]
	if !ok {
		return fmt.Errorf("%w: %s", catalog.ErrNoSuchDatabase, db)
	}

	idx := slices.Index(tbls, name)
	if idx < 0 {
		return fmt.Errorf("%w: %s.%s", catalog.ErrNoSuchTable, db, name)
	}
	c.dbs[db] = slices.Delete(tbls, idx, idx+1)

	return nil
}

func (c *Catalog) CheckTableExists(_ context.Context, identifier catalog.Identifier) (bool, error) {
	db, name, err := c.splitIdent(identifier)
	if err != nil {
		return false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Contains(c.dbs[db], name), nil
}

// splitIdent resolves an identifier to a database and table name, using the
// current database when the identifier has a single segment.
func (c *Catalog) splitIdent(identifier catalog.Identifier) (db, name string, err error) {
	switch len(identifier) {
	case 1:
		return c.CurrentDatabase(), identifier[0], nil
	case 2:
		return identifier[0], identifier[1], nil
	default:
		return "", "", fmt.Errorf("%w: invalid identifier %q",
			catalog.ErrNoSuchTable, strings.Join(identifier, "."))
	}
}
