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

package glue

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"sync"

	"github.com/AdamIH1/spark"
	"github.com/AdamIH1/spark/catalog"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/aws/smithy-go"
)

const (
	// The ID of the Glue Data Catalog where the tables reside. If none is
	// provided, Glue automatically uses the caller's AWS account ID by default.
	// See: https://docs.aws.amazon.com/glue/latest/dg/aws-glue-api-catalog-databases.html
	CatalogIdKey = "glue.id"

	AccessKeyID     = "glue.access-key-id"
	SecretAccessKey = "glue.secret-access-key"
	SessionToken    = "glue.session-token"
	Region          = "glue.region"
	Endpoint        = "glue.endpoint"
	MaxRetries      = "glue.max-retries"
	RetryMode       = "glue.retry-mode"
)

var _ catalog.Catalog = (*Catalog)(nil)

func init() {
	catalog.Register("glue", catalog.RegistrarFunc(func(ctx context.Context, name string, props spark.Properties) (catalog.Catalog, error) {
		awsConfig, err := toAwsConfig(ctx, props)
		if err != nil {
			return nil, err
		}

		return NewCatalog(WithName(name), WithAwsConfig(awsConfig),
			WithAwsProperties(AwsProperties(props))), nil
	}))
}

func toAwsConfig(ctx context.Context, p spark.Properties) (aws.Config, error) {
	opts := make([]func(*config.LoadOptions) error, 0)

	for k, v := range p {
		switch k {
		case Region:
			opts = append(opts, config.WithRegion(v))
		case Endpoint:
			opts = append(opts, config.WithBaseEndpoint(v))
		case MaxRetries:
			maxRetry, err := strconv.Atoi(v)
			if err != nil {
				return aws.Config{}, err
			}
			opts = append(opts, config.WithRetryMaxAttempts(maxRetry))
		case RetryMode:
			m, err := aws.ParseRetryMode(v)
			if err != nil {
				return aws.Config{}, err
			}
			opts = append(opts, config.WithRetryMode(m))
		}
	}

	key, secret, token := p[AccessKeyID], p[SecretAccessKey], p[SessionToken]
	if key != "" || secret != "" || token != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, token)))
	}

	return config.LoadDefaultConfig(ctx, opts...)
}

type glueAPI interface {
	CreateTable(ctx context.Context, params *glue.CreateTableInput, optFns ...func(*glue.Options)) (*glue.CreateTableOutput, error)
	GetTable(ctx context.Context, params *glue.GetTableInput, optFns ...func(*glue.Options)) (*glue.GetTableOutput, error)
	GetTables(ctx context.Context, params *glue.GetTablesInput, optFns ...func(*glue.Options)) (*glue.GetTablesOutput, error)
	DeleteTable(ctx context.Context, params *glue.DeleteTableInput, optFns ...func(*glue.Options)) (*glue.DeleteTableOutput, error)
	GetDatabase(ctx context.Context, params *glue.GetDatabaseInput, optFns ...func(*glue.Options)) (*glue.GetDatabaseOutput, error)
	GetDatabases(ctx context.Context, params *glue.GetDatabasesInput, optFns ...func(*glue.Options)) (*glue.GetDatabasesOutput, error)
	CreateDatabase(ctx context.Context, params *glue.CreateDatabaseInput, optFns ...func(*glue.Options)) (*glue.CreateDatabaseOutput, error)
	DeleteDatabase(ctx context.Context, params *glue.DeleteDatabaseInput, optFns ...func(*glue.Options)) (*glue.DeleteDatabaseOutput, error)
}

// Catalog is a metastore backed by the AWS Glue Data Catalog. Glue databases
// are flat, so every descriptor produced here has a single-segment namespace.
type Catalog struct {
	glueSvc   glueAPI
	catalogId *string
	name      string
	props     spark.Properties

	mu      sync.RWMutex
	current string
}

// NewCatalog creates a new instance of glue.Catalog with the given options.
func NewCatalog(opts ...Option) *Catalog {
	glueOps := &options{name: "glue"}

	for _, o := range opts {
		o(glueOps)
	}

	if glueOps.awsProperties == nil {
		glueOps.awsProperties = AwsProperties{}
	}

	var catalogId *string
	if val, ok := glueOps.awsProperties[CatalogIdKey]; ok {
		catalogId = &val
	}

	props := spark.Properties(glueOps.awsProperties)

	return &Catalog{
		glueSvc:   glue.NewFromConfig(glueOps.awsConfig),
		catalogId: catalogId,
		name:      glueOps.name,
		props:     props,
		current:   props.Get("database", "default"),
	}
}

func (c *Catalog) Name() string { return c.name }

func (c *Catalog) CatalogType() catalog.Type {
	return catalog.Glue
}

func (c *Catalog) CurrentDatabase() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.current
}

func (c *Catalog) SetCurrentDatabase(ctx context.Context, database string) error {
	if _, err := c.getDatabase(ctx, database); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = database

	return nil
}

// ListTables yields the tables of the given Glue database.
func (c *Catalog) ListTables(ctx context.Context, database string) iter.Seq2[catalog.TableDescriptor, error] {
	return func(yield func(catalog.TableDescriptor, error) bool) {
		paginator := glue.NewGetTablesPaginator(c.glueSvc, &glue.GetTablesInput{
			CatalogId:    c.catalogId,
			DatabaseName: aws.String(database),
		})

		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				yield(catalog.TableDescriptor{}, translateError(err,
					fmt.Sprintf("failed to list tables in database %s", database),
					fmt.Errorf("%w: %s", catalog.ErrNoSuchDatabase, database)))

				return
			}

			for _, tbl := range page.TableList {
				desc := catalog.TableDescriptor{
					Namespace: []spark.Optional[string]{optString(tbl.DatabaseName)},
					Name:      optString(tbl.Name),
				}
				if !yield(desc, nil) {
					return
				}
			}
		}
	}
}

func (c *Catalog) ListDatabases(ctx context.Context) ([]string, error) {
	var dbs []string

	paginator := glue.NewGetDatabasesPaginator(c.glueSvc, &glue.GetDatabasesInput{
		CatalogId: c.catalogId,
	})
	for paginator.HasMorePages() {
		rsp, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list databases: %w", err)
		}

		for _, database := range rsp.DatabaseList {
			dbs = append(dbs, aws.ToString(database.Name))
		}
	}

	return dbs, nil
}

func (c *Catalog) CreateDatabase(ctx context.Context, database string, props spark.Properties) error {
	input := &glue.CreateDatabaseInput{
		CatalogId: c.catalogId,
		DatabaseInput: &types.DatabaseInput{
			Name:       aws.String(database),
			Parameters: props,
		},
	}
	if desc := props.Get("comment", ""); desc != "" {
		input.DatabaseInput.Description = aws.String(desc)
	}

	if _, err := c.glueSvc.CreateDatabase(ctx, input); err != nil {
		var existsErr *types.AlreadyExistsException
		if errors.As(err, &existsErr) {
			return fmt.Errorf("%w: %s", catalog.ErrDatabaseAlreadyExists, database)
		}

		return fmt.Errorf("failed to create database %s: %w", database, err)
	}

	return nil
}

func (c *Catalog) DropDatabase(ctx context.Context, database string) error {
	// Glue's DeleteDatabase cascades; refuse unless the database is empty so
	// the behavior matches the other backends.
	for _, err := range c.ListTables(ctx, database) {
		if err != nil {
			return err
		}

		return fmt.Errorf("%w: tables exist in database %s", catalog.ErrDatabaseNotEmpty, database)
	}

	_, err := c.glueSvc.DeleteDatabase(ctx, &glue.DeleteDatabaseInput{
		CatalogId: c.catalogId,
		Name:      aws.String(database),
	})
	if err != nil {
		var notFoundErr *types.EntityNotFoundException
		if errors.As(err, &notFoundErr) {
			return fmt.Errorf("%w: %s", catalog.ErrNoSuchDatabase, database)
		}

		return fmt.Errorf("failed to drop database %s: %w", database, err)
	}

	return nil
}

func (c *Catalog) CreateTable(ctx context.Context, identifier catalog.Identifier, props spark.Properties) (catalog.TableDescriptor, error) {
	database, tableName, err := c.identifierToGlueTable(identifier)
	if err != nil {
		return catalog.TableDescriptor{}, err
	}

	_, err = c.glueSvc.CreateTable(ctx, &glue.CreateTableInput{
		CatalogId:    c.catalogId,
		DatabaseName: aws.String(database),
		TableInput: &types.TableInput{
			Name:       aws.String(tableName),
			Parameters: props,
		},
	})
	if err != nil {
		var existsErr *types.AlreadyExistsException
		if errors.As(err, &existsErr) {
			return catalog.TableDescriptor{},
				fmt.Errorf("%w: %s.%s", catalog.ErrTableAlreadyExists, database, tableName)
		}
		var notFoundErr *types.EntityNotFoundException
		if errors.As(err, &notFoundErr) {
			return catalog.TableDescriptor{},
				fmt.Errorf("%w: %s", catalog.ErrNoSuchDatabase, database)
		}

		return catalog.TableDescriptor{},
			fmt.Errorf("failed to create table %s.%s: %w", database, tableName, err)
	}

	return catalog.NewTableDescriptor(catalog.Identifier{database}, tableName, false), nil
}

func (c *Catalog) DropTable(ctx context.Context, identifier catalog.Identifier) error {
	database, tableName, err := c.identifierToGlueTable(identifier)
	if err != nil {
		return err
	}

	_, err = c.glueSvc.DeleteTable(ctx, &glue.DeleteTableInput{
		CatalogId:    c.catalogId,
		DatabaseName: aws.String(database),
		Name:         aws.String(tableName),
	})
	if err != nil {
		var notFoundErr *types.EntityNotFoundException
		if errors.As(err, &notFoundErr) {
			return fmt.Errorf("%w: %s.%s", catalog.ErrNoSuchTable, database, tableName)
		}

		return fmt.Errorf("failed to drop table %s.%s: %w", database, tableName, err)
	}

	return nil
}

func (c *Catalog) CheckTableExists(ctx context.Context, identifier catalog.Identifier) (bool, error) {
	database, tableName, err := c.identifierToGlueTable(identifier)
	if err != nil {
		return false, err
	}

	_, err = c.glueSvc.GetTable(ctx, &glue.GetTableInput{
		CatalogId:    c.catalogId,
		DatabaseName: aws.String(database),
		Name:         aws.String(tableName),
	})
	if err != nil {
		var notFoundErr *types.EntityNotFoundException
		if errors.As(err, &notFoundErr) {
			return false, nil
		}

		return false, fmt.Errorf("failed to get table %s.%s: %w", database, tableName, err)
	}

	return true, nil
}

func (c *Catalog) getDatabase(ctx context.Context, databaseName string) (*types.Database, error) {
	database, err := c.glueSvc.GetDatabase(ctx, &glue.GetDatabaseInput{
		CatalogId: c.catalogId,
		Name:      aws.String(databaseName),
	})
	if err != nil {
		var notFoundErr *types.EntityNotFoundException
		if errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("%w: %s", catalog.ErrNoSuchDatabase, databaseName)
		}

		return nil, fmt.Errorf("failed to get database %s: %w", databaseName, err)
	}

	return database.Database, nil
}

func (c *Catalog) identifierToGlueTable(identifier catalog.Identifier) (string, string, error) {
	switch len(identifier) {
	case 1:
		return c.CurrentDatabase(), identifier[0], nil
	case 2:
		return identifier[0], identifier[1], nil
	default:
		return "", "", fmt.Errorf("invalid identifier, expected database.table: %v", identifier)
	}
}

func optString(s *string) spark.Optional[string] {
	if s == nil {
		return spark.Optional[string]{}
	}

	return spark.Some(*s)
}

// translateError maps a Glue EntityNotFoundException onto notFound, keeping
// the service error code in the message for anything else the API reports.
func translateError(err error, msg string, notFound error) error {
	var notFoundErr *types.EntityNotFoundException
	if errors.As(err, &notFoundErr) {
		return notFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s: %w", msg, apiErr.ErrorCode(), err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}
