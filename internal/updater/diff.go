package updater

import (
	"bytes"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// diffContext is the number of unchanged lines shown around each change.
const diffContext = 3

// Diff renders the change as a unified diff. It is empty when the content
// did not change.
func (r UpdateResult) Diff() (string, error) {
	fd := r.FileDiff()
	if len(fd.Hunks) == 0 {
		return "", nil
	}
	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// FileDiff builds the go-diff representation of the change. The updater
// rewrites lines in place, so old and new content always have the same
// number of lines and each hunk is a run of replaced lines plus context.
func (r UpdateResult) FileDiff() *diff.FileDiff {
	fd := &diff.FileDiff{
		OrigName: "a/" + r.File,
		NewName:  "b/" + r.File,
	}
	if r.OldContent == r.NewContent {
		return fd
	}

	oldLines := strings.Split(r.OldContent, "\n")
	newLines := strings.Split(r.NewContent, "\n")
	if len(oldLines) != len(newLines) {
		fd.Hunks = []*diff.Hunk{wholeFileHunk(oldLines, newLines)}
		return fd
	}

	var changed []int
	for i := range oldLines {
		if oldLines[i] != newLines[i] {
			changed = append(changed, i)
		}
	}

	for start := 0; start < len(changed); {
		end := start
		for end+1 < len(changed) && changed[end+1]-changed[end] <= 2*diffContext+1 {
			end++
		}
		fd.Hunks = append(fd.Hunks, buildHunk(oldLines, newLines, changed[start:end+1]))
		start = end + 1
	}
	return fd
}

// buildHunk covers the changed line indexes plus surrounding context.
func buildHunk(oldLines, newLines []string, changed []int) *diff.Hunk {
	from := max(changed[0]-diffContext, 0)
	to := min(changed[len(changed)-1]+diffContext, len(oldLines)-1)

	isChanged := make(map[int]bool, len(changed))
	for _, i := range changed {
		isChanged[i] = true
	}

	var body bytes.Buffer
	for i := from; i <= to; i++ {
		if isChanged[i] {
			body.WriteString("-" + oldLines[i] + "\n")
			body.WriteString("+" + newLines[i] + "\n")
			continue
		}
		body.WriteString(" " + oldLines[i] + "\n")
	}

	n := int32(to - from + 1)
	return &diff.Hunk{
		OrigStartLine: int32(from + 1),
		OrigLines:     n,
		NewStartLine:  int32(from + 1),
		NewLines:      n,
		Body:          body.Bytes(),
	}
}

func wholeFileHunk(oldLines, newLines []string) *diff.Hunk {
	var body bytes.Buffer
	for _, l := range oldLines {
		body.WriteString("-" + l + "\n")
	}
	for _, l := range newLines {
		body.WriteString("+" + l + "\n")
	}
	return &diff.Hunk{
		OrigStartLine: 1,
		OrigLines:     int32(len(oldLines)),
		NewStartLine:  1,
		NewLines:      int32(len(newLines)),
		Body:          body.Bytes(),
	}
}
