package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"domainwizard/internal/domain"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func money(p *float64) string {
	if p == nil {
		return "-"
	}
	return "$" + strconv.FormatFloat(*p, 'f', 2, 64)
}

func score(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

func domainRows(ds []domain.ScoredDomain) [][]string {
	rows := make([][]string, 0, len(ds))
	for i, d := range ds {
		flag := ""
		if d.Underpriced {
			flag = "underpriced"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			d.Domain,
			money(d.Price),
			score(d.OverallScore),
			score(d.MarketabilityScore),
			score(d.FinancialValueScore),
			"$" + strconv.FormatFloat(d.Valuation.EstimatedValue, 'f', 0, 64),
			flag,
		})
	}
	return rows
}

func renderDomains(w io.Writer, title string, ds []domain.ScoredDomain) error {
	if len(ds) == 0 {
		return nil
	}
	fmt.Fprintf(w, "\n%s (%d)\n", title, len(ds))
	t := newTable(w)
	t.Header([]string{"#", "Domain", "Price", "Overall", "Market", "Financial", "Value", ""})
	if err := t.Bulk(domainRows(ds)); err != nil {
		return err
	}
	return t.Render()
}

func renderResults(w io.Writer, res *domain.Results) error {
	if err := renderDomains(w, "Within budget", res.WithinBudget); err != nil {
		return err
	}
	if err := renderDomains(w, "Over budget", res.OverBudget); err != nil {
		return err
	}
	if len(res.WithinBudget) == 0 && len(res.OverBudget) == 0 {
		fmt.Fprintln(w, "\nNo available domains found.")
	}
	if len(res.LoopSummaries) == 0 {
		return nil
	}
	fmt.Fprintln(w, "\nLoops")
	t := newTable(w)
	t.Header([]string{"Loop", "Style", "Keywords", "Reward", "Generated", "Available", "In budget", "Top"})
	for _, s := range res.LoopSummaries {
		if err := t.Append([]string{
			strconv.Itoa(s.Loop),
			string(s.Style),
			strings.Join(s.Keywords, " "),
			strconv.FormatFloat(s.Reward, 'f', 3, 64),
			strconv.Itoa(s.Generated),
			strconv.Itoa(s.Available),
			strconv.Itoa(s.WithinBudget),
			s.TopDomain,
		}); err != nil {
			return err
		}
	}
	return t.Render()
}

func renderAppraisal(w io.Writer, d domain.ScoredDomain) error {
	v := d.Valuation
	fmt.Fprintf(w, "%s\n", d.Domain)
	fmt.Fprintf(w, "  availability  %s\n", availabilityText(d.AvailabilityResult))
	fmt.Fprintf(w, "  words         %s\n", strings.Join(d.Words, " + "))
	fmt.Fprintf(w, "  overall       %s   marketability %s   financial %s\n",
		score(d.OverallScore), score(d.MarketabilityScore), score(d.FinancialValueScore))
	fmt.Fprintf(w, "  value         $%.0f (range $%.0f to $%.0f, %s confidence)\n",
		v.EstimatedValue, v.ValueLow, v.ValueHigh, v.Confidence)
	fmt.Fprintf(w, "  sale odds     12m %.1f%%  24m %.1f%%  36m %.1f%%\n",
		100*v.SaleProb12, 100*v.SaleProb24, 100*v.SaleProb36)
	if roi := v.ROI; roi != nil {
		fmt.Fprintf(w, "  roi           %.1f%%\n", 100*(*roi))
	}

	fmt.Fprintln(w)
	t := newTable(w)
	t.Header([]string{"Score", "Value", "Drivers", "Detractors"})
	for _, s := range []struct {
		name string
		sub  domain.SubScore
	}{
		{"phonetic", d.Phonetic},
		{"brandability", d.Brandability},
		{"seo", d.SEO},
		{"commercial", d.Commercial},
		{"memorability", d.Memorability},
		{"financial", d.Financial},
	} {
		if err := t.Append([]string{s.name, score(s.sub.Score), factors(s.sub.Drivers), factors(s.sub.Detractors)}); err != nil {
			return err
		}
	}
	return t.Render()
}

func availabilityText(a domain.AvailabilityResult) string {
	switch {
	case !a.Definitive:
		return a.Reason
	case a.Available:
		return "available"
	default:
		return "registered"
	}
}

func factors(fs []domain.Factor) string {
	names := make([]string, 0, len(fs))
	for i, f := range fs {
		if i == 3 {
			break
		}
		names = append(names, fmt.Sprintf("%s (%+.0f)", f.Name, f.Impact))
	}
	return strings.Join(names, ", ")
}
