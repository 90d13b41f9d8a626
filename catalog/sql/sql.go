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

package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"

	"github.com/AdamIH1/spark"
	"github.com/AdamIH1/spark/catalog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mssqldialect"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/oracledialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
)

type SupportedDialect string

const (
	Postgres SupportedDialect = "postgres"
	MySQL    SupportedDialect = "mysql"
	SQLite   SupportedDialect = "sqlite"
	MSSQL    SupportedDialect = "mssql"
	Oracle   SupportedDialect = "oracle"
)

const (
	DialectKey           = "sql.dialect"
	DriverKey            = "sql.driver"
	initCatalogTablesKey = "init_catalog_tables"
)

const tableType = "TABLE"

func init() {
	catalog.Register("sql", catalog.RegistrarFunc(func(ctx context.Context, name string, p spark.Properties) (c catalog.Catalog, err error) {
		driver, ok := p[DriverKey]
		if !ok {
			return nil, errors.New("must provide driver to pass to sql.Open")
		}

		dialect := strings.ToLower(p[DialectKey])
		if dialect == "" {
			return nil, errors.New("must provide sql dialect to use")
		}

		uri := strings.TrimPrefix(p.Get("uri", ""), "sql://")
		sqldb, err := sql.Open(driver, uri)
		if err != nil {
			return nil, err
		}

		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("failed to create SQL catalog: %v", r)
			}
		}()

		return NewCatalog(p.Get(name, "sql"), sqldb, SupportedDialect(dialect), p)
	}))
}

var _ catalog.Catalog = (*Catalog)(nil)

var (
	minimalDatabaseProps = spark.Properties{"exists": "true"}

	dialects  = map[SupportedDialect]schema.Dialect{}
	dialectMx sync.Mutex
)

func createDialect(d SupportedDialect) schema.Dialect {
	switch d {
	case Postgres:
		return pgdialect.New()
	case MySQL:
		return mysqldialect.New()
	case SQLite:
		return sqlitedialect.New()
	case MSSQL:
		return mssqldialect.New()
	case Oracle:
		return oracledialect.New()
	default:
		panic("unsupported sql dialect")
	}
}

func getDialect(d SupportedDialect) schema.Dialect {
	dialectMx.Lock()
	defer dialectMx.Unlock()
	ret, ok := dialects[d]
	if !ok {
		ret = createDialect(d)
		dialects[d] = ret
	}

	return ret
}

type sparkTable struct {
	bun.BaseModel `bun:"table:spark_tables"`

	CatalogName    string `bun:",pk"`
	TableNamespace string `bun:",pk"`
	TableName      string `bun:",pk"`
	TableType      string
}

type sparkDatabaseProps struct {
	bun.BaseModel `bun:"table:spark_database_properties"`

	CatalogName   string `bun:",pk"`
	Namespace     string `bun:",pk"`
	PropertyKey   string `bun:",pk"`
	PropertyValue sql.NullString
}

func withReadTx[R any](ctx context.Context, db *bun.DB, fn func(context.Context, bun.Tx) (R, error)) (result R, err error) {
	db.RunInTx(ctx, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx bun.Tx) error {
		result, err = fn(ctx, tx)

		return err
	})

	return
}

func withWriteTx(ctx context.Context, db *bun.DB, fn func(context.Context, bun.Tx) error) error {
	return db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelDefault}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

// Catalog is a metastore backed by a SQL database. Tables and database
// properties live in the spark_tables and spark_database_properties tables;
// the current database is client-side session state, not persisted.
type Catalog struct {
	db    *bun.DB
	name  string
	props spark.Properties

	mu      sync.RWMutex
	current string
}

// NewCatalog creates a new sql-based catalog using the provided sql.DB handle
// to perform any queries.
//
// The dialect parameter determines the SQL dialect to use for query generation
// and must be one of the supported dialects, i.e. one of the exported
// SupportedDialect values. The separation here allows for the use of different
// drivers/databases provided they support the chosen sql dialect.
//
// If the "init_catalog_tables" property is set to "true" (the default), then
// creating the catalog will also attempt to verify whether the necessary
// tables exist, creating them if they do not already exist.
//
// The environment variable SPARK_SQL_DEBUG can be set to automatically log the
// sql queries to the terminal:
//   - SPARK_SQL_DEBUG=1 logs only failed queries
//   - SPARK_SQL_DEBUG=2 logs all queries
//
// All interactions with the db are performed within transactions to ensure
// atomicity and transactional isolation of catalog changes.
func NewCatalog(name string, db *sql.DB, dialect SupportedDialect, props spark.Properties) (*Catalog, error) {
	cat := &Catalog{
		db:      bun.NewDB(db, getDialect(dialect)),
		name:    name,
		props:   props,
		current: props.Get("database", "default"),
	}

	cat.db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(false),
		bundebug.FromEnv("SPARK_SQL_DEBUG")))

	if cat.props.GetBool(initCatalogTablesKey, true) {
		return cat, cat.ensureTablesExist()
	}

	return cat, nil
}

func (c *Catalog) Name() string { return c.name }

func (c *Catalog) CatalogType() catalog.Type {
	return catalog.SQL
}

func (c *Catalog) CreateSQLTables(ctx context.Context) error {
	_, err := c.db.NewCreateTable().Model((*sparkTable)(nil)).
		IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = c.db.NewCreateTable().Model((*sparkDatabaseProps)(nil)).
		IfNotExists().Exec(ctx)

	return err
}

func (c *Catalog) DropSQLTables(ctx context.Context) error {
	_, err := c.db.NewDropTable().Model((*sparkTable)(nil)).
		IfExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = c.db.NewDropTable().Model((*sparkDatabaseProps)(nil)).
		IfExists().Exec(ctx)

	return err
}

func (c *Catalog) ensureTablesExist() error {
	return c.CreateSQLTables(context.Background())
}

func (c *Catalog) CurrentDatabase() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.current
}

func (c *Catalog) SetCurrentDatabase(ctx context.Context, database string) error {
	exists, err := c.databaseExists(ctx, database)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", catalog.ErrNoSuchDatabase, database)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = database

	return nil
}

func (c *Catalog) databaseExists(ctx context.Context, db string) (bool, error) {
	return withReadTx(ctx, c.db, func(ctx context.Context, tx bun.Tx) (bool, error) {
		exists, err := tx.NewSelect().Model((*sparkTable)(nil)).
			Where("catalog_name = ?", c.name).
			Where("table_namespace = ?", db).
			Limit(1).Exists(ctx)
		if err != nil {
			return false, err
		}
		if exists {
			return true, nil
		}

		return tx.NewSelect().Model((*sparkDatabaseProps)(nil)).
			Where("catalog_name = ?", c.name).Where("namespace = ?", db).
			Limit(1).Exists(ctx)
	})
}

func (c *Catalog) ListDatabases(ctx context.Context) ([]string, error) {
	tableQuery := c.db.NewSelect().Model((*sparkTable)(nil)).
		Column("table_namespace").Where("catalog_name = ?", c.name)
	dbQuery := c.db.NewSelect().Model((*sparkDatabaseProps)(nil)).
		Column("namespace").Where("catalog_name = ?", c.name)

	return withReadTx(ctx, c.db, func(ctx context.Context, tx bun.Tx) ([]string, error) {
		var dbs []string

		rows, err := tx.QueryContext(ctx, tableQuery.String()+" UNION "+dbQuery.String())
		if err != nil {
			return nil, fmt.Errorf("error listing databases: %w", err)
		}

		err = c.db.ScanRows(ctx, rows, &dbs)

		return dbs, err
	})
}

func (c *Catalog) CreateDatabase(ctx context.Context, database string, props spark.Properties) error {
	if database == "" {
		return fmt.Errorf("%w: empty database name", catalog.ErrNoSuchDatabase)
	}

	exists, err := c.databaseExists(ctx, database)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", catalog.ErrDatabaseAlreadyExists, database)
	}

	if len(props) == 0 {
		props = minimalDatabaseProps
	}

	return withWriteTx(ctx, c.db, func(ctx context.Context, tx bun.Tx) error {
		toInsert := make([]sparkDatabaseProps, 0, len(props))
		for k, v := range props {
			toInsert = append(toInsert, sparkDatabaseProps{
				CatalogName:   c.name,
				Namespace:     database,
				PropertyKey:   k,
				PropertyValue: sql.NullString{String: v, Valid: true},
			})
		}

		_, err := tx.NewInsert().Model(&toInsert).Exec(ctx)
		if err != nil {
			return fmt.Errorf("error inserting properties for database '%s': %w", database, err)
		}

		return nil
	})
}

func (c *Catalog) DropDatabase(ctx context.Context, database string) error {
	exists, err := c.databaseExists(ctx, database)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", catalog.ErrNoSuchDatabase, database)
	}

	for _, err := range c.ListTables(ctx, database) {
		if err != nil {
			return err
		}

		// at least one table still exists
		return fmt.Errorf("%w: tables exist in database %s", catalog.ErrDatabaseNotEmpty, database)
	}

	return withWriteTx(ctx, c.db, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*sparkDatabaseProps)(nil)).
			Where("catalog_name = ?", c.name).
			Where("namespace = ?", database).Exec(ctx)
		if err != nil {
			return fmt.Errorf("error deleting database '%s': %w", database, err)
		}

		return nil
	})
}

func (c *Catalog) ListTables(ctx context.Context, database string) iter.Seq2[catalog.TableDescriptor, error] {
	tables, err := c.listTablesAll(ctx, database)
	if err != nil {
		return func(yield func(catalog.TableDescriptor, error) bool) {
			yield(catalog.TableDescriptor{}, err)
		}
	}

	return func(yield func(catalog.TableDescriptor, error) bool) {
		for _, t := range tables {
			if !yield(t, nil) {
				return
			}
		}
	}
}

func (c *Catalog) listTablesAll(ctx context.Context, database string) ([]catalog.TableDescriptor, error) {
	exists, err := c.databaseExists(ctx, database)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", catalog.ErrNoSuchDatabase, database)
	}

	tables, err := withReadTx(ctx, c.db, func(ctx context.Context, tx bun.Tx) ([]sparkTable, error) {
		var tables []sparkTable
		err := tx.NewSelect().Model(&tables).
			Where("catalog_name = ?", c.name).
			Where("table_namespace = ?", database).
			Where("table_type = ?", tableType).
			Scan(ctx)

		return tables, err
	})
	if err != nil {
		return nil, fmt.Errorf("error listing tables for database '%s': %w", database, err)
	}

	ret := make([]catalog.TableDescriptor, len(tables))
	for i, t := range tables {
		// dotted namespaces round-trip to multi-segment descriptors
		ret[i] = catalog.NewTableDescriptor(strings.Split(t.TableNamespace, "."), t.TableName, false)
	}

	return ret, nil
}

func (c *Catalog) CreateTable(ctx context.Context, identifier catalog.Identifier, _ spark.Properties) (catalog.TableDescriptor, error) {
	db, tbl, err := c.splitIdent(identifier)
	if err != nil {
		return catalog.TableDescriptor{}, err
	}

	exists, err := c.databaseExists(ctx, db)
	if err != nil {
		return catalog.TableDescriptor{}, err
	}
	if !exists {
		return catalog.TableDescriptor{}, fmt.Errorf("%w: %s", catalog.ErrNoSuchDatabase, db)
	}

	err = withWriteTx(ctx, c.db, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model(&sparkTable{
			CatalogName:    c.name,
			TableNamespace: db,
			TableName:      tbl,
		}).WherePK().Exists(ctx)
		if err != nil {
			return fmt.Errorf("error checking existence of table '%s.%s': %w", db, tbl, err)
		}
		if exists {
			return fmt.Errorf("%w: %s.%s", catalog.ErrTableAlreadyExists, db, tbl)
		}

		_, err = tx.NewInsert().Model(&sparkTable{
			CatalogName:    c.name,
			TableNamespace: db,
			TableName:      tbl,
			TableType:      tableType,
		}).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}

		return nil
	})
	if err != nil {
		return catalog.TableDescriptor{}, err
	}

	return catalog.NewTableDescriptor(strings.Split(db, "."), tbl, false), nil
}

func (c *Catalog) DropTable(ctx context.Context, identifier catalog.Identifier) error {
	db, tbl, err := c.splitIdent(identifier)
	if err != nil {
		return err
	}

	return withWriteTx(ctx, c.db, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model(&sparkTable{
			CatalogName:    c.name,
			TableNamespace: db,
			TableName:      tbl,
		}).WherePK().Where("table_type = ?", tableType).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete table entry: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("error encountered when deleting table entry: %w", err)
		}

		if n == 0 {
			return fmt.Errorf("%w: %s.%s", catalog.ErrNoSuchTable, db, tbl)
		}

		return nil
	})
}

func (c *Catalog) CheckTableExists(ctx context.Context, identifier catalog.Identifier) (bool, error) {
	db, tbl, err := c.splitIdent(identifier)
	if err != nil {
		return false, err
	}

	return withReadTx(ctx, c.db, func(ctx context.Context, tx bun.Tx) (bool, error) {
		exists, err := tx.NewSelect().Model(&sparkTable{
			CatalogName:    c.name,
			TableNamespace: db,
			TableName:      tbl,
		}).WherePK().Where("table_type = ?", tableType).Exists(ctx)
		if err != nil {
			return false, fmt.Errorf("error checking table existence: %w", err)
		}

		return exists, nil
	})
}

// splitIdent resolves an identifier into the stored namespace string and the
// table name. A single-segment identifier refers to the current database;
// anything longer keeps all leading segments as a dotted namespace.
func (c *Catalog) splitIdent(identifier catalog.Identifier) (db, tbl string, err error) {
	if len(identifier) == 0 {
		return "", "", fmt.Errorf("%w: empty identifier", catalog.ErrNoSuchTable)
	}
	if len(identifier) == 1 {
		return c.CurrentDatabase(), identifier[0], nil
	}

	return strings.Join(catalog.NamespaceFromIdent(identifier), "."),
		catalog.TableNameFromIdent(identifier), nil
}
