// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package layout holds the address bit layout tables of the memory
// controller and selects the table row ("configuration case") that applies
// to a DIMM.
//
// The layout table gives, for every DIMM-local byte address bit, the DRAM
// coordinate bit it feeds. The enhanced table gives the XOR partner of
// interleave selector bits when enhanced interleave mode is enabled. Both
// tables are embedded and parsed once; they are never modified.
package layout

import (
	"bufio"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Table dimensions and special positions.
const (
	NumCases = 113

	// NumPositions is the number of DIMM-local byte address bits covered
	// by the layout table.
	NumPositions = 37

	// EnhancedWindow is the number of positions covered by the enhanced
	// table, starting with EnhancedFirstPosition.
	EnhancedWindow        = 9
	EnhancedFirstPosition = 9

	// LineShift converts between byte and cache line addresses.
	LineShift = 6

	// PreCachelinePosition is the only byte address bit below the cache
	// line which feeds a DRAM field (a column bit).
	PreCachelinePosition = 5

	// Unmapped marks absent fields and absent enhanced partners.
	Unmapped = uint8(0xFF)
)

//go:embed layout.txt
var layoutTable string

//go:embed enhanced.txt
var enhancedTable string

// CaseID is an index into the layout tables.
type CaseID uint8

// Case is a single row of the layout tables.
type Case struct {
	ID   CaseID
	Name string

	// Layout maps a DIMM-local byte address bit to a field bit.
	Layout [NumPositions]Field

	// Enhanced maps position EnhancedFirstPosition+n to the position of
	// its XOR partner, or Unmapped.
	Enhanced [EnhancedWindow]uint8

	position [NumFields]uint8
}

// Position returns the byte address bit feeding the field, or Unmapped.
func (c *Case) Position(f Field) uint8 {
	return c.position[f]
}

// Partner returns the byte address bit XORed into the field in enhanced
// interleave mode, or Unmapped.
func (c *Case) Partner(f Field) uint8 {
	pos := c.position[f]
	if pos == Unmapped || pos < EnhancedFirstPosition || pos >= EnhancedFirstPosition+EnhancedWindow {
		return Unmapped
	}
	return c.Enhanced[pos-EnhancedFirstPosition]
}

// RowBits returns the number of row bits the case can address.
func (c *Case) RowBits() uint {
	var n uint
	for f := R0; f <= R16; f++ {
		if c.position[f] != Unmapped {
			n++
		}
	}
	return n
}

// ColumnMask returns the column bits the case can address.
func (c *Case) ColumnMask() uint16 {
	var mask uint16
	for f := C0; f <= C11; f++ {
		if c.position[f] != Unmapped {
			mask |= 1 << f.Index()
		}
	}
	return mask
}

func (c *Case) String() string {
	return fmt.Sprintf("%d (%s)", c.ID, c.Name)
}

var (
	cases      [NumCases]Case
	caseByName map[string]CaseID
)

func init() {
	var err error
	cases, err = parseTables(layoutTable, enhancedTable)
	if err != nil {
		panic(fmt.Sprintf("invalid embedded layout tables: %v", err))
	}
	caseByName = make(map[string]CaseID, NumCases)
	for idx := range cases {
		caseByName[cases[idx].Name] = cases[idx].ID
	}
}

// Get returns the case with the given id. It panics if the id is out of
// range.
func Get(id CaseID) *Case {
	return &cases[id]
}

// Cases returns all cases ordered by id.
func Cases() []*Case {
	result := make([]*Case, NumCases)
	for idx := range cases {
		result[idx] = &cases[idx]
	}
	return result
}

// Lookup returns the case with the given name.
func Lookup(name string) (CaseID, bool) {
	id, ok := caseByName[name]
	return id, ok
}

type tableRow struct {
	id      int
	name    string
	entries []string
}

func readTable(text string, columns int) ([]tableRow, error) {
	var rows []tableRow
	var result *multierror.Error
	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words := strings.Fields(line)
		if len(words) != columns+2 {
			result = multierror.Append(result, fmt.Errorf("line %d: expected %d columns, got %d", lineNum, columns+2, len(words)))
			continue
		}
		id, err := strconv.Atoi(words[0])
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("line %d: invalid case id: %w", lineNum, err))
			continue
		}
		rows = append(rows, tableRow{id: id, name: words[1], entries: words[2:]})
	}
	if err := scanner.Err(); err != nil {
		result = multierror.Append(result, err)
	}
	return rows, result.ErrorOrNil()
}

func parseTables(layoutText, enhancedText string) ([NumCases]Case, error) {
	var table [NumCases]Case
	var result *multierror.Error

	layoutRows, err := readTable(layoutText, NumPositions)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("layout table: %w", err))
	}
	enhancedRows, err := readTable(enhancedText, EnhancedWindow)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("enhanced table: %w", err))
	}
	if len(layoutRows) != NumCases || len(enhancedRows) != NumCases {
		result = multierror.Append(result, fmt.Errorf("expected %d cases, got %d layout and %d enhanced rows",
			NumCases, len(layoutRows), len(enhancedRows)))
		return table, result.ErrorOrNil()
	}

	for idx := range layoutRows {
		lr, er := layoutRows[idx], enhancedRows[idx]
		if lr.id != idx || er.id != idx || lr.name != er.name {
			result = multierror.Append(result, fmt.Errorf("row %d: unexpected case %d/%d (%s/%s)", idx, lr.id, er.id, lr.name, er.name))
			continue
		}
		c := &table[idx]
		c.ID = CaseID(idx)
		c.Name = lr.name
		for f := range c.position {
			c.position[f] = Unmapped
		}
		for pos, s := range lr.entries {
			f, err := ParseField(s)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("case %s, position %d: %w", c.Name, pos, err))
				continue
			}
			c.Layout[pos] = f
			if f == FieldNone {
				continue
			}
			if c.position[f] != Unmapped {
				result = multierror.Append(result, fmt.Errorf("case %s: field %s is mapped twice", c.Name, f))
				continue
			}
			c.position[f] = uint8(pos)
		}
		for n, s := range er.entries {
			c.Enhanced[n] = Unmapped
			if s == "-" {
				continue
			}
			partner, err := strconv.ParseUint(s, 10, 8)
			if err != nil || partner >= NumPositions {
				result = multierror.Append(result, fmt.Errorf("case %s: invalid enhanced partner '%s'", c.Name, s))
				continue
			}
			c.Enhanced[n] = uint8(partner)
		}
	}

	return table, result.ErrorOrNil()
}
