// mkfixture cuts a small representative history fixture from a larger export.
// Two-pass: first buckets every row by category, then takes the most recent
// reports until each category is covered and the row budget is spent.
// Usage: go run ./cmd/mkfixture --in qc_history.parquet --out testdata/history-small.parquet --reports 5
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/samber/lo"

	"github.com/gyeh/qcwatch/internal/history"
	"github.com/gyeh/qcwatch/internal/model"
	"github.com/gyeh/qcwatch/internal/normalize"
)

func main() {
	in := flag.String("in", "qc_history.parquet", "input parquet")
	out := flag.String("out", "testdata/history-small.parquet", "output parquet")
	maxReports := flag.Int("reports", 5, "max reports to keep")
	checkOnly := flag.Bool("check", false, "only print stats, don't write")
	flag.Parse()

	r, err := history.Open(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open input: %v\n", err)
		os.Exit(1)
	}
	rows, err := r.ReadAll()
	r.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "read: %v\n", err)
		os.Exit(1)
	}

	byReport := lo.GroupBy(rows, func(row model.MetricRow) string { return row.Report })
	categories := lo.Uniq(lo.Map(rows, func(row model.MetricRow, _ int) string { return row.Category }))
	sort.Strings(categories)

	if *checkOnly {
		fmt.Printf("Total: %d rows, %d reports, %d categories\n", len(rows), len(byReport), len(categories))
		for _, c := range categories {
			n := lo.CountBy(rows, func(row model.MetricRow) bool { return row.Category == c })
			fmt.Printf("  %-12s %d\n", c, n)
		}
		return
	}

	// Pass 1: newest reports first.
	reports := lo.Keys(byReport)
	sort.Slice(reports, func(i, j int) bool {
		ti := normalize.ParseDate(byReport[reports[i]][0].ProcessedAt)
		tj := normalize.ParseDate(byReport[reports[j]][0].ProcessedAt)
		if ti == nil || tj == nil {
			return reports[i] < reports[j]
		}
		return ti.After(*tj)
	})

	// Pass 2: keep reports until the budget is spent, then add any report
	// that brings a category not yet covered.
	covered := make(map[string]bool)
	var selected []model.MetricRow
	kept := 0
	for _, report := range reports {
		group := byReport[report]
		adds := lo.ContainsBy(group, func(row model.MetricRow) bool { return !covered[row.Category] })
		if kept >= *maxReports && !adds {
			continue
		}
		for _, row := range group {
			covered[row.Category] = true
		}
		selected = append(selected, group...)
		kept++
	}

	if err := history.Write(*out, selected); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d rows from %d reports to %s\n", len(selected), kept, *out)
	fmt.Println("Category coverage:")
	for _, c := range categories {
		n := lo.CountBy(selected, func(row model.MetricRow) bool { return row.Category == c })
		fmt.Printf("  %-12s %d\n", c, n)
	}
}
