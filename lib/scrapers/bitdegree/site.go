package bitdegree

import (
	"fmt"
	"net/url"
	"strings"
)

// Site builds the urls of exchange pages.
type Site struct {
	BaseUrl string
}

// LandingUrl is the statistics page of an exchange.
func (s Site) LandingUrl(slug string) string {
	return fmt.Sprintf(
		"%s/top-crypto-exchanges/%s",
		strings.TrimSuffix(s.BaseUrl, "/"),
		url.PathEscape(slug),
	)
}

// TableUrl is a page of an exchange's market table, pages start at 1.
func (s Site) TableUrl(slug string, page int) string {
	return fmt.Sprintf("%s/markets?page=%d#all-markets", s.LandingUrl(slug), page)
}
