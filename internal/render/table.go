// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

// Package render prints report rows as plain-text tables. Reports hand over
// an ordered column list and one map per row; they never print themselves.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Row maps column names to already formatted cell values.
type Row map[string]string

// Table writes the rows as an aligned table with a header and a dash
// separator. Columns missing from a row render as empty cells. An empty row
// list prints just the header.
func Table(w io.Writer, columns []string, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(columns, "\t")); err != nil {
		return err
	}
	dashes := make([]string, len(columns))
	for i, col := range columns {
		dashes[i] = strings.Repeat("-", len(col))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(dashes, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = row[col]
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}
