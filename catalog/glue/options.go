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

import "github.com/aws/aws-sdk-go-v2/aws"

// AwsProperties is a set of "glue."-prefixed configuration properties.
type AwsProperties map[string]string

type options struct {
	awsConfig     aws.Config
	awsProperties AwsProperties
	name          string
}

type Option func(*options)

// WithAwsConfig provides an already-loaded AWS configuration to use for the
// Glue client instead of loading the default one.
func WithAwsConfig(cfg aws.Config) Option {
	return func(o *options) {
		o.awsConfig = cfg
	}
}

// WithAwsProperties sets the catalog's AWS properties, such as the Glue
// catalog id.
func WithAwsProperties(props AwsProperties) Option {
	return func(o *options) {
		o.awsProperties = props
	}
}

// WithName sets the catalog's name; defaults to "glue".
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}
