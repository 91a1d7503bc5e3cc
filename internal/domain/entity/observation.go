package entity

import "sort"

// DepartmentPage records one occurrence of a department block on a scanned
// page. Pages are 1-based. The same department appearing on several pages
// yields several pairs.
type DepartmentPage struct {
	Department string
	Page       int
}

// CodeName pairs an item code with its display name as read off the receipt
// (strict whole-line extraction: the line after the code).
type CodeName struct {
	Code string
	Name string
}

// GroupPages collapses (department, page) pairs into a sorted, deduplicated
// page list per department.
func GroupPages(pairs []DepartmentPage) map[string][]int {
	seen := make(map[string]map[int]bool)
	for _, p := range pairs {
		if seen[p.Department] == nil {
			seen[p.Department] = make(map[int]bool)
		}
		seen[p.Department][p.Page] = true
	}
	out := make(map[string][]int, len(seen))
	for dept, pages := range seen {
		list := make([]int, 0, len(pages))
		for pg := range pages {
			list = append(list, pg)
		}
		sort.Ints(list)
		out[dept] = list
	}
	return out
}
