// Package view formata o estado dos stores para o terminal.
package view

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/radieske/tips-platform/internal/shared/winrate"
	"github.com/radieske/tips-platform/internal/tips-client/store"
	"github.com/radieske/tips-platform/pkg/contracts/events"
	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func rel(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Records imprime o cabeçalho com as taxas e a tabela da coleção
func Records(w io.Writer, title string, st store.State, now time.Time) {
	fmt.Fprintf(w, "%s: %s records, daily %d%%, monthly %d%%", title, humanize.Comma(int64(len(st.Records))), st.Rates.Daily, st.Rates.Monthly)
	if !st.LoadedAt.IsZero() {
		fmt.Fprintf(w, " (loaded %s)", rel(st.LoadedAt, now))
	}
	fmt.Fprintln(w)
	if st.Stale {
		fmt.Fprintln(w, "  * out of date, refresh to see server changes")
	}
	if st.Err != "" {
		fmt.Fprintf(w, "  ! %s\n", st.Err)
	}
	if len(st.Records) == 0 {
		return
	}

	tw := table(w)
	fmt.Fprintln(tw, "ID\tMATCH\tMARKET\tODDS\tSTATUS\tSCORE\tKICKOFF\tCREATED")
	for _, r := range st.Records {
		score := "-"
		if out, ok := r.Outcome(); ok {
			score = out.FinalScore
		}
		fmt.Fprintf(tw, "%s\t%s x %s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(r.ID), r.HomeTeam, r.AwayTeam, r.Market, orDash(r.Odds),
			r.Status(), score, rel(r.MatchTime, now), rel(r.CreatedAt, now))
	}
	_ = tw.Flush()
}

// Stats imprime o resumo do pool de treino
func Stats(w io.Writer, s winrate.Summary) {
	tw := table(w)
	fmt.Fprintf(tw, "total\t%s\n", humanize.Comma(int64(s.Total)))
	fmt.Fprintf(tw, "won\t%s\n", humanize.Comma(int64(s.Won)))
	fmt.Fprintf(tw, "lost\t%s\n", humanize.Comma(int64(s.Lost)))
	fmt.Fprintf(tw, "refunded\t%s\n", humanize.Comma(int64(s.Refunded)))
	fmt.Fprintf(tw, "pending\t%s\n", humanize.Comma(int64(s.Pending)))
	fmt.Fprintf(tw, "win rate\t%d%%\n", s.WinRate)
	_ = tw.Flush()
}

// Candidates lista o conjunto de trabalho
func Candidates(w io.Writer, cs []prediction.Candidate, now time.Time) {
	if len(cs) == 0 {
		fmt.Fprintln(w, "no candidates")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "MATCH ID\tMATCH\tLEAGUE\tMARKET\tODDS\tKICKOFF")
	for _, c := range cs {
		fmt.Fprintf(tw, "%s\t%s x %s\t%s\t%s\t%s\t%s\n",
			c.MatchID, c.HomeTeam, c.AwayTeam, orDash(c.League), c.Market, orDash(c.Odds), rel(c.MatchTime, now))
	}
	_ = tw.Flush()
}

// Notice imprime um aviso recebido do feed ao vivo
func Notice(w io.Writer, ev events.Lifecycle, now time.Time) {
	fmt.Fprintf(w, "[%s] %s %s", rel(ev.Ts, now), ev.Pool, ev.Type)
	if ev.RecordID != "" {
		fmt.Fprintf(w, " %s", shortID(ev.RecordID))
	}
	if ev.Status != "" {
		fmt.Fprintf(w, " -> %s", ev.Status)
	}
	fmt.Fprintln(w)
}
