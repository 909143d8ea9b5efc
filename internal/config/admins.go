package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalidAdminID is returned for allow-list entries that are not positive integers.
var ErrInvalidAdminID = errors.New("invalid admin id")

// AdminSet is a validated set of administrator user IDs.
type AdminSet map[int64]struct{}

// ParseAdminIDs parses a comma separated list of user IDs. Blank entries
// between commas are ignored; anything else that is not a positive integer
// fails the whole list.
func ParseAdminIDs(raw string) (AdminSet, error) {
	set := make(AdminSet)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAdminID, part)
		}
		set[id] = struct{}{}
	}
	return set, nil
}

// Contains reports whether id is an administrator.
func (s AdminSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members in ascending order.
func (s AdminSet) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
