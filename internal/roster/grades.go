// SPDX-License-Identifier: Apache-2.0

package roster

import (
	"strconv"

	"edutools/internal/logger"
)

// ApplyScores converts percentage scores (0-100, keyed on username) to
// assignment points and records them as pending grades. Students on the
// roster with no score in the export get a zero. Returns the usernames that
// could not be graded because they have no submission record.
func ApplyScores(r Roster, scores map[string]float64, pointsPossible float64) []string {
	var ungradable []string

	for username, entry := range r {
		points := 0.0
		if pct, ok := scores[username]; ok {
			points = pct / 100 * pointsPossible
		}

		grade := strconv.FormatFloat(points, 'f', -1, 64)
		if !entry.SetGrade(grade) {
			logger.Warnf("No submission record for %s; cannot post grade", username)
			ungradable = append(ungradable, username)
		}
	}

	return ungradable
}
