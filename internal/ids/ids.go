// Package ids holds the identifier strategies for the board entities, kept
// apart from storage so each can be exercised on its own.
//
// Issue ids are <KEY>-<N>. The local provider feeds N from a counter
// persisted in its snapshot; the remote provider derives it by scanning the
// ids already in its table. The two strategies are each internally
// consistent but can renumber differently if a deployment switches provider
// mid-life.
package ids

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sprint returns a timestamp-based sprint identifier.
func Sprint(t time.Time) string {
	return fmt.Sprintf("sprint-%d", t.UnixMilli())
}

// Comment returns a timestamp-based comment identifier.
func Comment(t time.Time) string {
	return fmt.Sprintf("comment-%d", t.UnixMilli())
}

// Issue formats an issue identifier from a project key and sequence number.
func Issue(key string, n int64) string {
	return fmt.Sprintf("%s-%d", key, n)
}

// NextIssueNumber returns one past the highest numeric suffix among the
// existing identifiers carrying the given project key prefix. Identifiers
// with other prefixes or non-numeric suffixes are ignored.
func NextIssueNumber(key string, existing []string) int64 {
	var highest int64
	prefix := key + "-"
	for _, id := range existing {
		rest, ok := strings.CutPrefix(id, prefix)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || n <= highest {
			continue
		}
		highest = n
	}
	return highest + 1
}
