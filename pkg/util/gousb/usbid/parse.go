/* This file was part of the google/gousb project, copied to this project
 * to get around private package issues.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 * Copyright 2024 SUSE, LLC.
 *
 */

package usbid

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/harvester/usbsuspend/pkg/util/gousb"
)

// A Vendor contains the name of the vendor and mappings corresponding to all
// known products by their ID.
type Vendor struct {
	Name    string
	Product map[gousb.ID]*Product
}

// String returns the name of the vendor.
func (v Vendor) String() string {
	return v.Name
}

// A Product contains the name of the product (from a particular vendor) and
// the names of any interfaces that were specified.
type Product struct {
	Name      string
	Interface map[gousb.ID]string
}

// String returns the name of the product.
func (p Product) String() string {
	return p.Name
}

// Parser reads the vendor section of a usb.ids file. Other sections
// (classes, HID usages, languages) start with a kind prefix and are skipped.
type Parser struct {
	vendor  *Vendor
	product *Product
	skip    bool

	vendors map[gousb.ID]*Vendor
}

func NewParser() *Parser {
	return &Parser{
		vendors: make(map[gousb.ID]*Vendor),
	}
}

func split(s string) (kind string, level int, id uint64, name string, err error) {
	pieces := strings.SplitN(s, "  ", 2)
	if len(pieces) != 2 {
		err = fmt.Errorf("malformatted line %q", s)
		return
	}
	name = pieces[1]

	for len(pieces[0]) > 0 && pieces[0][0] == '\t' {
		level, pieces[0] = level+1, pieces[0][1:]
	}

	first := strings.SplitN(pieces[0], " ", 2)
	if len(first) == 2 {
		kind, pieces[0] = first[0], first[1]
	}

	id, err = strconv.ParseUint(pieces[0], 16, 16)
	if err != nil {
		err = fmt.Errorf("malformatted id %q: %w", pieces[0], err)
	}
	return
}

func (p *Parser) parseVendor(level int, id gousb.ID, name string) error {
	switch level {
	case 0:
		p.vendor = &Vendor{
			Name:    name,
			Product: make(map[gousb.ID]*Product),
		}
		p.product = nil
		p.vendors[id] = p.vendor

	case 1:
		if p.vendor == nil {
			return fmt.Errorf("product line without vendor line")
		}
		p.product = &Product{
			Name: name,
		}
		p.vendor.Product[id] = p.product

	case 2:
		if p.product == nil {
			return fmt.Errorf("interface line without product line")
		}
		if p.product.Interface == nil {
			p.product.Interface = make(map[gousb.ID]string)
		}
		p.product.Interface[id] = name

	default:
		return fmt.Errorf("too many levels of nesting for vendor block")
	}

	return nil
}

// ParseIDs parses the vendor and product mappings from r.
func (p *Parser) ParseIDs(r io.Reader) (map[gousb.ID]*Vendor, error) {
	scanner := bufio.NewScanner(r)
	for lineno := 1; scanner.Scan(); lineno++ {
		line := scanner.Text()
		if len(strings.TrimSpace(line)) == 0 || line[0] == '#' {
			continue
		}

		kind, level, id, name, err := split(line)
		// a kind prefix such as "C 00" opens a section that is not vendor data
		if level == 0 {
			p.skip = kind != ""
		}
		if p.skip {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		if err := p.parseVendor(level, gousb.ID(id), name); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return p.vendors, nil
}
