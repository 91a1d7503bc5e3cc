package ocrtext

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// block is one contiguous recognized-text region attributed to a department:
// the lines between the department's name and the next marker occurrence (or
// the end of the page). Blocks never span pages; aggregation across pages
// happens later.
type block struct {
	dept  string
	page  int // 1-based
	lines []string
}

// Scanner states. A marker line moves the scanner to stateName; the next
// non-blank line is the department name and opens a block.
const (
	stateScan = iota
	stateName
	stateBlock
)

// scanPages runs the line scanner over every page. Lines are NFKC-folded
// before matching: Korean OCR output routinely mixes full-width and
// half-width digits and brackets.
func scanPages(pages []string, marker string) []block {
	marker = norm.NFKC.String(marker)
	var blocks []block

	for pageIdx, text := range pages {
		page := pageIdx + 1
		state := stateScan
		open := -1 // index into blocks of the block being filled

		for _, line := range strings.Split(text, "\n") {
			trimmed := strings.TrimSpace(norm.NFKC.String(line))

			if strings.Contains(trimmed, marker) {
				open = -1
				state = stateName
				continue
			}

			switch state {
			case stateName:
				if trimmed == "" {
					continue // blank noise between marker and name
				}
				blocks = append(blocks, block{dept: trimmed, page: page})
				open = len(blocks) - 1
				state = stateBlock
			case stateBlock:
				blocks[open].lines = append(blocks[open].lines, trimmed)
			}
		}
	}
	return blocks
}
