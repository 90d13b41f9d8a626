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

package catalog

import (
	"context"
	"errors"
	"iter"
	"strings"

	"github.com/AdamIH1/spark"
)

type Type string

const (
	Glue     Type = "glue"
	SQL      Type = "sql"
	InMemory Type = "mem"
)

var (
	// ErrNoSuchTable is returned when a table does not exist in the catalog.
	ErrNoSuchTable           = errors.New("table does not exist")
	ErrNoSuchDatabase        = errors.New("database does not exist")
	ErrTableAlreadyExists    = errors.New("table already exists")
	ErrDatabaseAlreadyExists = errors.New("database already exists")
	ErrDatabaseNotEmpty      = errors.New("database is not empty")
	ErrCatalogNotFound       = errors.New("catalog type not registered")
)

// Identifier is a dot-separated path to a table or database, split into
// its segments. The last segment of a table identifier is the table name,
// everything before it is the database namespace.
type Identifier = []string

// ToIdentifier splits a dotted string into an Identifier. An empty string
// yields a zero-length identifier.
func ToIdentifier(ident string) Identifier {
	if ident == "" {
		return Identifier{}
	}

	return strings.Split(ident, ".")
}

// NamespaceFromIdent returns all but the final segment of the identifier.
func NamespaceFromIdent(ident Identifier) Identifier {
	if len(ident) == 0 {
		return Identifier{}
	}

	return ident[:len(ident)-1]
}

// TableNameFromIdent returns the final segment of the identifier, or the
// empty string for a zero-length identifier.
func TableNameFromIdent(ident Identifier) string {
	if len(ident) == 0 {
		return ""
	}

	return ident[len(ident)-1]
}

// TableDescriptor is the raw record a catalog produces for one table.
//
// The namespace is an ordered sequence of path segments and may legitimately
// be empty (session temp views) or deeper than one level (nested database
// namespaces). Both the name and individual namespace segments are nullable
// since not every backend guarantees them.
type TableDescriptor struct {
	Namespace   []spark.Optional[string]
	Name        spark.Optional[string]
	IsTemporary bool
}

// NewTableDescriptor builds a descriptor whose namespace segments and name
// are all present.
func NewTableDescriptor(namespace Identifier, name string, isTemporary bool) TableDescriptor {
	ns := make([]spark.Optional[string], len(namespace))
	for i, segment := range namespace {
		ns[i] = spark.Some(segment)
	}

	return TableDescriptor{
		Namespace:   ns,
		Name:        spark.Some(name),
		IsTemporary: isTemporary,
	}
}

// Catalog tracks databases and their tables. It is the source of truth for
// table existence and metadata; sessions layer temp views and caching on
// top of it.
//
// ListTables yields descriptors in the backend's listing order. Any failure
// is reported through the iterator's error value and terminates iteration.
type Catalog interface {
	Name() string
	CatalogType() Type

	CurrentDatabase() string
	SetCurrentDatabase(ctx context.Context, database string) error

	ListDatabases(ctx context.Context) ([]string, error)
	CreateDatabase(ctx context.Context, database string, props spark.Properties) error
	DropDatabase(ctx context.Context, database string) error

	ListTables(ctx context.Context, database string) iter.Seq2[TableDescriptor, error]
	CreateTable(ctx context.Context, identifier Identifier, props spark.Properties) (TableDescriptor, error)
	DropTable(ctx context.Context, identifier Identifier) error
	CheckTableExists(ctx context.Context, identifier Identifier) (bool, error)
}
