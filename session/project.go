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

package session

import "github.com/AdamIH1/spark/catalog"

// Row is the flattened, display-oriented form of a catalog.TableDescriptor.
type Row struct {
	Namespace   string `json:"namespace"`
	TableName   string `json:"tableName"`
	IsTemporary bool   `json:"isTemporary"`
}

// Project converts raw table descriptors into flat three-column rows.
//
// A descriptor's namespace collapses to a single string: a one-segment
// namespace becomes that segment's value (empty string if the segment value
// is null), while zero-segment and multi-segment namespaces both become the
// empty string. The multi-level case is therefore indistinguishable from the
// zero-level case; downstream consumers rely on this flattening, so it must
// not be changed. An absent name likewise becomes the empty string and the
// temporary flag is copied through.
//
// Project is pure and total: it preserves input length and order, performs
// no filtering or deduplication, and cannot fail. The result is never nil.
func Project(tables []catalog.TableDescriptor) []Row {
	rows := make([]Row, len(tables))
	for i, tbl := range tables {
		rows[i] = projectOne(tbl)
	}

	return rows
}

func projectOne(tbl catalog.TableDescriptor) Row {
	var namespace string
	if len(tbl.Namespace) == 1 && tbl.Namespace[0].Valid {
		namespace = tbl.Namespace[0].Val
	}

	var name string
	if tbl.Name.Valid {
		name = tbl.Name.Val
	}

	return Row{
		Namespace:   namespace,
		TableName:   name,
		IsTemporary: tbl.IsTemporary,
	}
}
