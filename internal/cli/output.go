package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"RigorScore/internal/domain"
	"RigorScore/internal/transport"
	"RigorScore/internal/usecase"
)

var (
	goodColor  = color.New(color.FgGreen, color.Bold)
	warnColor  = color.New(color.FgYellow)
	badColor   = color.New(color.FgRed, color.Bold)
	labelColor = color.New(color.FgCyan)
	dimColor   = color.New(color.Faint)
)

type printer struct {
	w    io.Writer
	json bool
}

func (p *printer) printJSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// scoreText colors a 0-100 score by band.
func scoreText(v float64) string {
	s := fmt.Sprintf("%6.2f", v)
	switch {
	case v >= 75:
		return goodColor.Sprint(s)
	case v >= 50:
		return warnColor.Sprint(s)
	default:
		return badColor.Sprint(s)
	}
}

func deltaText(d *float64) string {
	if d == nil {
		return dimColor.Sprint("first entry")
	}
	switch {
	case *d > 0:
		return goodColor.Sprintf("+%.2f", *d)
	case *d < 0:
		return badColor.Sprintf("%.2f", *d)
	}
	return "±0.00"
}

func (p *printer) score(res usecase.ScoreResult) error {
	if p.json {
		return p.printJSON(res)
	}
	fmt.Fprintf(p.w, "%s %s  (%s)\n", labelColor.Sprint("Composite"), scoreText(res.Composite), deltaText(res.Delta))
	fmt.Fprintf(p.w, "  Veracity  %s\n", scoreText(res.Veracity))
	fmt.Fprintf(p.w, "  Conflict  %s\n", scoreText(res.Conflict))
	fmt.Fprintf(p.w, "  Logic     %s\n", scoreText(res.Logic))
	fmt.Fprintf(p.w, "Sources: %d (%d authoritative)  Seq: %d\n", res.SourceCount, res.AuthoritativeCount, res.Seq)
	if len(res.Conflicts) > 0 {
		fmt.Fprintln(p.w, labelColor.Sprint("Conflicts:"))
		for _, c := range res.Conflicts {
			fmt.Fprintf(p.w, "  - %s %s %q: %s (%s)\n",
				severityText(c.Severity), c.Dimension, c.Subject, c.Rationale, strings.Join(c.SourceIDs, ", "))
		}
	}
	p.warnings(res.Warnings)
	return nil
}

func severityText(s domain.Severity) string {
	switch s {
	case domain.SeveritySevere:
		return badColor.Sprint(s)
	case domain.SeverityModerate:
		return warnColor.Sprint(s)
	}
	return string(s)
}

func (p *printer) warnings(ws []domain.Warning) {
	if len(ws) == 0 {
		return
	}
	fmt.Fprintln(p.w, warnColor.Sprint("Warnings:"))
	for _, w := range ws {
		fmt.Fprintf(p.w, "  - [%s] %s\n", w.Code, w.Message)
	}
}

func (p *printer) readiness(res usecase.ReadinessResult) error {
	if p.json {
		return p.printJSON(res)
	}
	verdict := badColor.Sprint("NOT READY")
	if res.IsReady {
		verdict = goodColor.Sprint("READY")
	}
	fmt.Fprintf(p.w, "%s %s  %d/%d criteria  score %s\n",
		labelColor.Sprint("Readiness"), verdict, res.ChecksPassed, res.ChecksTotal, scoreText(res.ReadinessScore))
	fmt.Fprintf(p.w, "Pack: %s\n", res.PackID)

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	for _, c := range res.Checks {
		mark := badColor.Sprint("FAIL")
		if c.Passed {
			mark = goodColor.Sprint("PASS")
		}
		fmt.Fprintf(tw, "  %s\t%s\t%.2f\t%s\n", mark, c.CriterionName, c.Confidence, c.Rationale)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(res.Missing) > 0 {
		fmt.Fprintf(p.w, "Missing: %s\n", strings.Join(res.Missing, ", "))
	}
	p.warnings(res.Warnings)
	return nil
}

func (p *printer) history(entries []transport.LogEntryView) error {
	if p.json {
		return p.printJSON(struct {
			Entries []transport.LogEntryView `json:"entries"`
		}{entries})
	}
	if len(entries) == 0 {
		fmt.Fprintln(p.w, dimColor.Sprint("no score history"))
		return nil
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tWHEN\tCOMPOSITE\tDELTA\tTRIGGER\tNOTE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.Seq, e.Timestamp.Format("2006-01-02 15:04"), scoreText(e.Composite), deltaText(e.Delta), e.Trigger, e.Note)
	}
	return tw.Flush()
}

func (p *printer) packs(packs []transport.PackView) error {
	if p.json {
		return p.printJSON(packs)
	}
	for _, pack := range packs {
		fmt.Fprintf(p.w, "%s  %s\n", labelColor.Sprint(pack.ID), pack.Description)
		for _, c := range pack.Criteria {
			fmt.Fprintf(p.w, "  - %s [%s]\n", c.Name, c.Category)
		}
	}
	return nil
}

func (p *printer) workspaces(items []transport.WorkspaceView) error {
	if p.json {
		if len(items) == 1 {
			return p.printJSON(items[0])
		}
		return p.printJSON(items)
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tZERO-PERSISTENCE\tRETENTION")
	for _, ws := range items {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%dd\n", ws.ID, ws.Name, ws.ZeroPersistence, ws.RetentionDays)
	}
	return tw.Flush()
}

func (p *printer) analysis(a transport.AnalysisView, sources []transport.BoundSourceView) error {
	if p.json {
		if sources == nil {
			return p.printJSON(a)
		}
		return p.printJSON(struct {
			Analysis transport.AnalysisView      `json:"analysis"`
			Sources  []transport.BoundSourceView `json:"sources"`
		}{a, sources})
	}
	fmt.Fprintf(p.w, "%s %s  %s\n", labelColor.Sprint("Analysis"), a.ID, a.Name)
	fmt.Fprintf(p.w, "Pack: %s  Status: %s\n", a.PromptPackID, a.Status)
	if len(sources) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tTYPE\tSTATUS\tAUTH\tWEIGHT\tWORDS")
	for _, s := range sources {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%.2f\t%d\n", s.ID, s.Type, s.Status, s.Authoritative, s.Weight, s.WordCount)
	}
	return tw.Flush()
}

func (p *printer) source(s transport.SourceView) error {
	if p.json {
		return p.printJSON(s)
	}
	fmt.Fprintf(p.w, "%s %s  %s\n", labelColor.Sprint("Source"), s.ID, s.Title)
	fmt.Fprintf(p.w, "Type: %s  Status: %s  Authoritative: %t  Words: %d\n", s.Type, s.Status, s.Authoritative, s.WordCount)
	if !s.HasText {
		fmt.Fprintln(p.w, dimColor.Sprint("text purged"))
	}
	return nil
}

func (p *printer) sweep(r usecase.SweepReport) error {
	if p.json {
		return p.printJSON(r)
	}
	fmt.Fprintf(p.w, "Rescored %d (%d failed), purged %d (%d failed)\n",
		r.Rescored, r.RescoreFailures, r.Purged, r.PurgeFailures)
	return nil
}
