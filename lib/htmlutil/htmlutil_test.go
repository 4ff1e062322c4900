package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t testing.TB, body string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestClean(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{in: "  $1.2B \n", expected: "$1.2B"},
		{in: "30,000\n\t  BTC", expected: "30,000 BTC"},
		{in: "\u200b#7", expected: "#7"},
		{in: "   ", expected: ""},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, Clean(test.in))
	}
}

func TestOwnText(t *testing.T) {
	doc := parse(t, `<div id="a"> 2.3% <span>ignored</span> share </div>`)

	node := doc.Find("#a").Nodes[0]
	require.Equal(t, "2.3% share", Clean(OwnText(node)))
	require.Equal(t, "2.3% ignored share", Clean(GetText(node)))
}

func TestOwnTextsKeepsPositions(t *testing.T) {
	doc := parse(t, `<p>
		<span class="v">one</span>
		<span class="v"></span>
		<span class="v"> three </span>
	</p>`)

	require.Equal(t, []string{"one", "", "three"}, OwnTexts(doc.Find("span.v")))

	first, ok := FirstOwnText(doc.Find("span.v"))
	require.True(t, ok)
	require.Equal(t, "one", first)

	_, ok = FirstOwnText(doc.Find("span.missing"))
	require.False(t, ok)
}
