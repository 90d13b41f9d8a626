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

package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/AdamIH1/spark"
	"github.com/AdamIH1/spark/catalog"
	"github.com/AdamIH1/spark/config"
	"github.com/AdamIH1/spark/session"

	// registers the built-in catalog types with catalog.Load
	_ "github.com/AdamIH1/spark/catalog/glue"
	_ "github.com/AdamIH1/spark/catalog/mem"
	_ "github.com/AdamIH1/spark/catalog/sql"

	"github.com/docopt/docopt-go"
)

const usage = `spark.

Usage:
  spark tables [options] [DATABASE]
  spark names [options] [DATABASE]
  spark databases [options]
  spark create (database | table) [options] IDENTIFIER
  spark drop (database | table) [options] IDENTIFIER
  spark cache [options] TABLE
  spark uncache [options] TABLE
  spark -h | --help | --version

Commands:
  tables      List the tables of a database as flattened rows.
  names       List table names only.
  databases   List databases.
  create      Create a database or a table.
  drop        Drop a database or a table.
  cache       Mark a table as cached for this invocation.
  uncache     Remove a table from the cache registry.

Arguments:
  DATABASE       database name; defaults to the catalog's current database
  IDENTIFIER     fully qualified database or table identifier
  TABLE          table name in the current database

Options:
  -h --help          show this help message and exit
  --all              list tables across every database
  --catalog TEXT     specify the catalog name [default: default]
  --type TEXT        specify the catalog type
  --uri TEXT         specify the catalog URI
  --driver TEXT      specify the database/sql driver (sql catalogs)
  --dialect TEXT     specify the sql dialect (sql catalogs)
  --output TYPE      output type (json/text) [default: text]
  --credential TEXT  specify credentials for the catalog
  --config TEXT      specify the path to the configuration file`

type Config struct {
	Tables    bool `docopt:"tables"`
	Names     bool `docopt:"names"`
	Databases bool `docopt:"databases"`
	Create    bool `docopt:"create"`
	Drop      bool `docopt:"drop"`
	Cache     bool `docopt:"cache"`
	Uncache   bool `docopt:"uncache"`

	Database bool `docopt:"database"`
	Table    bool `docopt:"table"`

	DatabaseArg string `docopt:"DATABASE"`
	Ident       string `docopt:"IDENTIFIER"`
	TableArg    string `docopt:"TABLE"`

	All     bool   `docopt:"--all"`
	Catalog string `docopt:"--catalog"`
	Type    string `docopt:"--type"`
	URI     string `docopt:"--uri"`
	Driver  string `docopt:"--driver"`
	Dialect string `docopt:"--dialect"`
	Output  string `docopt:"--output"`
	Cred    string `docopt:"--credential"`
	Config  string `docopt:"--config"`
}

func main() {
	ctx := context.Background()
	args, err := docopt.ParseArgs(usage, os.Args[1:], spark.Version())
	if err != nil {
		log.Fatal(err)
	}

	cfg := Config{}

	if err := args.Bind(&cfg); err != nil {
		log.Fatal(err)
	}

	fileCfg := config.ParseConfig(config.LoadConfig(cfg.Config), cfg.Catalog)
	if fileCfg != nil {
		mergeConf(fileCfg, &cfg)
	}

	var output Output
	switch strings.ToLower(cfg.Output) {
	case "text":
		output = textOutput{}
	case "json":
		output = jsonOutput{}
	default:
		log.Fatal("unimplemented output type")
	}

	props := spark.Properties{}
	if cfg.Type != "" {
		props["type"] = cfg.Type
	}
	if cfg.URI != "" {
		props["uri"] = cfg.URI
	}
	if cfg.Cred != "" {
		props["credential"] = cfg.Cred
	}
	if cfg.Driver != "" {
		props["sql.driver"] = cfg.Driver
	}
	if cfg.Dialect != "" {
		props["sql.dialect"] = cfg.Dialect
	}

	cat, err := catalog.Load(ctx, cfg.Catalog, props)
	if err != nil {
		log.Fatal(err)
	}

	sess := session.New(cat)

	switch {
	case cfg.Tables:
		var rows []session.Row
		var err error
		switch {
		case cfg.All:
			rows, err = sess.AllTables(ctx)
		case cfg.DatabaseArg != "":
			rows, err = sess.TablesIn(ctx, cfg.DatabaseArg)
		default:
			rows, err = sess.Tables(ctx)
		}
		if err != nil {
			output.Error(err)
			os.Exit(1)
		}
		output.Rows(rows)
	case cfg.Names:
		var names []string
		var err error
		if cfg.DatabaseArg != "" {
			names, err = sess.TableNamesIn(ctx, cfg.DatabaseArg)
		} else {
			names, err = sess.TableNames(ctx)
		}
		if err != nil {
			output.Error(err)
			os.Exit(1)
		}
		output.Names(names)
	case cfg.Databases:
		dbs, err := cat.ListDatabases(ctx)
		if err != nil {
			output.Error(err)
			os.Exit(1)
		}
		output.Names(dbs)
	case cfg.Create:
		switch {
		case cfg.Database:
			if err := cat.CreateDatabase(ctx, cfg.Ident, nil); err != nil {
				output.Error(err)
				os.Exit(1)
			}
			output.Text("Database " + cfg.Ident + " created successfully")
		case cfg.Table:
			if _, err := sess.CreateTable(ctx, catalog.ToIdentifier(cfg.Ident), nil); err != nil {
				output.Error(err)
				os.Exit(1)
			}
			output.Text("Table " + cfg.Ident + " created successfully")
		}
	case cfg.Drop:
		switch {
		case cfg.Database:
			if err := cat.DropDatabase(ctx, cfg.Ident); err != nil {
				output.Error(err)
				os.Exit(1)
			}
		case cfg.Table:
			if err := sess.DropTable(ctx, catalog.ToIdentifier(cfg.Ident)); err != nil {
				output.Error(err)
				os.Exit(1)
			}
		}
	case cfg.Cache:
		if err := sess.CacheTable(ctx, cfg.TableArg); err != nil {
			output.Error(err)
			os.Exit(1)
		}
		output.Text("Cached table " + cfg.TableArg)
	case cfg.Uncache:
		if err := sess.UncacheTable(ctx, cfg.TableArg); err != nil {
			output.Error(err)
			os.Exit(1)
		}
		output.Text("Uncached table " + cfg.TableArg)
	}
}

func mergeConf(fileConf *config.CatalogConfig, resConfig *Config) {
	if len(resConfig.Type) == 0 {
		resConfig.Type = fileConf.CatalogType
	}
	if len(resConfig.URI) == 0 {
		resConfig.URI = fileConf.URI
	}
	if len(resConfig.Output) == 0 {
		resConfig.Output = fileConf.Output
	}
	if len(resConfig.Cred) == 0 {
		resConfig.Cred = fileConf.Credential
	}
}
