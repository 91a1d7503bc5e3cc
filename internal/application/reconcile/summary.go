package reconcile

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/hyeonlab/ward-recon/internal/domain/entity"
)

// NameCount is a per-department or per-item mismatch tally.
type NameCount struct {
	Name  string
	Count int
}

// Summary aggregates a mismatch set. All figures cover non-missing-marker
// rows only; system-missing candidates are observations, not quantity
// disagreements, and would skew the mean.
type Summary struct {
	Total         int
	Departments   []NameCount
	Items         []NameCount
	AvgDifference decimal.Decimal
}

// Summarize computes total and per-department/per-item mismatch counts plus
// the mean difference. Tallies are sorted by count descending, then name.
func Summarize(records []entity.MismatchRecord) Summary {
	deptCounts := make(map[string]int)
	itemCounts := make(map[string]int)
	sum := decimal.Zero
	total := 0

	for _, m := range records {
		if m.IsSystemMissing() {
			continue
		}
		total++
		deptCounts[m.Department]++
		itemCounts[m.ItemName]++
		sum = sum.Add(m.Difference)
	}

	s := Summary{
		Total:       total,
		Departments: toSortedCounts(deptCounts),
		Items:       toSortedCounts(itemCounts),
	}
	if total > 0 {
		s.AvgDifference = sum.Div(decimal.NewFromInt(int64(total)))
	} else {
		s.AvgDifference = decimal.Zero
	}
	return s
}

func toSortedCounts(counts map[string]int) []NameCount {
	out := make([]NameCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, NameCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
