// SPDX-License-Identifier: Apache-2.0

// Package zybooks parses grade exports from the zyBooks platform.
package zybooks

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"edutools/internal/logger"
)

// Column layout of a zyBooks assignment report export.
const (
	emailColumn = 2
	scoreColumn = 6
)

// acceptedDomains are the campus email domains a row must carry to be
// attributed to a student. Rows from other domains are instructor/demo
// accounts and are skipped.
var acceptedDomains = []string{"u.boisestate.edu", "boisestate.edu"}

// ParseFile reads a zyBooks CSV export and returns percentage scores keyed
// on the lowercased email local part (the campus username).
func ParseFile(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zybooks export %s: %w", path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads a zyBooks CSV export from r. The first row is a header.
func Parse(r io.Reader) (map[string]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // zyBooks exports vary in trailing columns

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read zybooks header row: %w", err)
	}
	if len(header) <= scoreColumn {
		return nil, fmt.Errorf("unexpected zybooks export format: %d columns", len(header))
	}

	scores := make(map[string]float64)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read zybooks row: %w", err)
		}
		if len(row) <= scoreColumn {
			logger.Warnf("Skipping short zybooks row: %v", row)
			continue
		}

		email := strings.ToLower(strings.TrimSpace(row[emailColumn]))
		if email == "" {
			logger.Warnf("No valid email was found in row: %v", row)
			continue
		}

		user, domain, found := strings.Cut(email, "@")
		if !found || !slices.Contains(acceptedDomains, domain) {
			logger.Warnf("Bad email in zybooks export: %s", email)
			continue
		}

		score, err := strconv.ParseFloat(strings.TrimSpace(row[scoreColumn]), 64)
		if err != nil {
			logger.Warnf("Unparseable score %q for %s", row[scoreColumn], email)
			continue
		}

		scores[user] = score
	}

	return scores, nil
}
