// Package bitdegreetest renders pages with the same markup as bitdegree.org
// so scrapers can be tested without hitting the network.
package bitdegreetest

import (
	"fmt"
	"html"
	"strings"
)

type Landing struct {
	Name string
	// Stats are rendered as `span.stats-value` nodes in order, an empty
	// string renders an empty node.
	Stats          []string
	Volume7d       string
	BacklinkRank   string
	OrganicTraffic string
}

type Row struct {
	BaseCoin    string
	Name        string
	Volume      string
	VolumeShare string
}

func esc(s string) string {
	return html.EscapeString(s)
}

func LandingPage(l Landing) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>")
	b.WriteString(esc(l.Name))
	b.WriteString("</title></head><body>\n")

	b.WriteString(`<div class="overall-stats">` + "\n")
	for _, stat := range l.Stats {
		fmt.Fprintf(&b, "  <div class=\"stat\"><span class=\"stats-value\">\n    %s\n  </span></div>\n", esc(stat))
	}
	b.WriteString("</div>\n")

	b.WriteString(`<div class="container mt-4"><div class="row"><div class="col-12 col-md-12 content content-description">`)
	fmt.Fprintf(
		&b,
		"<p><strong>%s</strong> has a 24h volume of <strong>%s</strong> and a 7 day volume of <strong>%s</strong>.</p>",
		esc(l.Name), "-", esc(l.Volume7d),
	)
	b.WriteString("</div></div></div>\n")

	b.WriteString(`<div class="row px-0 px-md-2">`)
	b.WriteString("<div></div><div></div><div></div>")
	b.WriteString(`<div><div class="socials-card card-shadow p-3 h-100"><div class="wrp d-flex flex-column">`)
	b.WriteString(`<div><h4>Website</h4></div>`)
	b.WriteString(`<div><div class="d-flex flex-column">`)
	fmt.Fprintf(&b, `<div><p class="mb-0 stat text-left">%s</p><span>Ahrefs rank</span></div>`, esc(l.BacklinkRank))
	fmt.Fprintf(&b, `<div><p class="mb-0 stat text-left">%s</p><span>Organic traffic</span></div>`, esc(l.OrganicTraffic))
	b.WriteString("</div></div>")
	b.WriteString("</div></div></div>")
	b.WriteString("</div>\n")

	b.WriteString("</body></html>")
	return b.String()
}

func TablePage(rows []Row) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><body>\n")
	b.WriteString(`<div class="exchange-currencies-table"><div class="table-wrp"><table class="table">`)
	b.WriteString("<thead><tr><th>#</th><th>Coin</th><th>Price</th><th>Pair</th><th>Spread</th><th>Volume</th><th>Volume %</th></tr></thead>\n")
	b.WriteString("<tbody>\n")
	for i, r := range rows {
		fmt.Fprintf(
			&b,
			"<tr><td>%d</td><td><div class=\"d-flex\"><div class=\"mr-1\">\n %s \n</div><img src=\"coin.png\"></div></td><td>$1</td><td><strong>%s</strong></td><td>0.1%%</td><td><span>%s</span></td><td>\n %s \n</td></tr>\n",
			i+1, esc(r.BaseCoin), esc(r.Name), esc(r.Volume), esc(r.VolumeShare),
		)
	}
	b.WriteString("</tbody></table></div></div>\n")
	b.WriteString("</body></html>")
	return b.String()
}
