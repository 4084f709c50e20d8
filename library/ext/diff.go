package ext

import (
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/r3labs/diff/v3"
)

// Diff returns the structural changes turning a into b.
func Diff(a, b any) (diff.Changelog, error) {
	return diff.Diff(a, b)
}

// DiffLog is Diff plus a human readable rendering, one change per line.
func DiffLog(a, b any) (diff.Changelog, string, error) {
	changes, err := diff.Diff(a, b)
	if err != nil {
		return nil, "", err
	}
	var sb strings.Builder
	for _, c := range changes {
		fmt.Fprintf(&sb, "  %s %s: %v -> %v\n", c.Type, strings.Join(c.Path, "."), c.From, c.To)
	}
	return changes, sb.String(), nil
}

// DeepCopy copies src into dst without sharing nested pointers, maps or slices.
func DeepCopy(dst, src any) error {
	return copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true, IgnoreEmpty: false})
}
