// Copy from https://github.com/google/gousb
//
// Copyright 2013 Google Inc.  All rights reserved.
// Copyright 2016 the gousb Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"bytes"
	"flag"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/harvester/usbsuspend/pkg/util/gousb/usbid"
)

var (
	remote  = flag.String("url", usbid.LinuxUsbDotOrg, "URL from which to download new vendor data")
	outFile = flag.String("o", "usb.ids", "Output filename")
	vendors = flag.String("vendors", "0403,046d,0951,1000,1a86", "Comma separated vendor IDs to keep")
	kinds   = flag.String("kinds", "C", "Comma separated section kinds to keep, e.g. C for device classes")
)

func main() {
	flag.Parse()

	logrus.Printf("Fetching %q...", *remote)
	resp, err := http.Get(*remote)
	if err != nil {
		logrus.Fatalf("failed to download from %q: %s", *remote, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logrus.Fatalf("failed to read %q: %s", *remote, err)
	}

	ids, err := usbid.NewParser().ParseIDs(bytes.NewReader(data))
	if err != nil {
		logrus.Fatalf("failed to parse %q: %s", *remote, err)
	}
	logrus.Printf("Successfully fetched %q: loaded %d Vendor IDs", *remote, len(ids))

	out, err := os.Create(*outFile)
	if err != nil {
		logrus.Fatalf("failed to open output file %q: %s", *outFile, err)
	}
	defer out.Close()

	if err := excerpt(out, bytes.NewReader(data), strings.Split(*vendors, ","), strings.Split(*kinds, ",")); err != nil {
		logrus.Fatalf("failed to write %q: %s", *outFile, err)
	}

	logrus.Printf("Successfully wrote %q", *outFile)
}

// excerpt writes the upstream header comments, then the vendor blocks listed
// in vendors and the top-level sections whose kind prefix (such as "C" for
// device classes) is listed in kinds.
func excerpt(w io.Writer, r io.Reader, vendors, kinds []string) error {
	wantedVendors := make(map[string]bool, len(vendors))
	for _, v := range vendors {
		wantedVendors[strings.ToLower(strings.TrimSpace(v))] = true
	}
	wantedKinds := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		wantedKinds[strings.TrimSpace(k)] = true
	}

	header, copying := true, false
	bw := bufio.NewWriter(w)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "":
			if !header {
				continue
			}
		case strings.HasPrefix(line, "\t"):
			if !copying {
				continue
			}
		default:
			header = false
			if kind := sectionKind(line); kind != "" {
				copying = wantedKinds[kind]
			} else {
				copying = len(line) >= 4 && wantedVendors[line[:4]]
			}
			if !copying {
				continue
			}
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return bw.Flush()
}

// sectionKind returns the prefix of a line like "C 03  Human Interface
// Device", or empty for a vendor line.
func sectionKind(line string) string {
	id := strings.SplitN(line, "  ", 2)[0]
	kind, _, found := strings.Cut(id, " ")
	if !found {
		return ""
	}
	return kind
}
