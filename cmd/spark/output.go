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
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/AdamIH1/spark/session"

	"github.com/pterm/pterm"
)

type Output interface {
	Rows([]session.Row)
	Names([]string)
	Text(string)
	Error(error)
}

type textOutput struct{}

func (textOutput) Rows(rows []session.Row) {
	data := pterm.TableData{[]string{"Namespace", "Table Name", "Is Temporary"}}
	for _, r := range rows {
		data = append(data, []string{r.Namespace, r.TableName, strconv.FormatBool(r.IsTemporary)})
	}

	pterm.DefaultTable.
		WithBoxed(true).
		WithHasHeader(true).
		WithHeaderRowSeparator("-").
		WithData(data).Render()
}

func (textOutput) Names(names []string) {
	data := pterm.TableData{[]string{"Name"}}
	for _, n := range names {
		data = append(data, []string{n})
	}

	pterm.DefaultTable.
		WithBoxed(true).
		WithHasHeader(true).
		WithHeaderRowSeparator("-").
		WithData(data).Render()
}

func (textOutput) Text(val string) {
	fmt.Println(val)
}

func (textOutput) Error(err error) {
	log.Fatal(err)
}

type jsonOutput struct{}

func (jsonOutput) write(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal(err)
	}
}

func (j jsonOutput) Rows(rows []session.Row) {
	j.write(rows)
}

func (j jsonOutput) Names(names []string) {
	j.write(struct {
		Names []string `json:"names"`
	}{Names: names})
}

func (j jsonOutput) Text(val string) {
	j.write(struct {
		Message string `json:"message"`
	}{Message: val})
}

func (jsonOutput) Error(err error) {
	log.Fatal(err)
}
