package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<h1>  Court
	invitation </h1>
<form>
	<input type="hidden" name="authenticity_token" value="abc123">
	<input type="hidden" name="empty">
</form>
</body></html>`

func parse(t *testing.T, src string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestNormalizeText(t *testing.T) {
	require.Equal(t, "a b c", NormalizeText("  a \n\t b\u0000 c "))
	require.Equal(t, "נמצא מגרש פנוי", NormalizeText("נמצא   מגרש\nפנוי"))
	require.Equal(t, "", NormalizeText(" \n "))
	// directional marks are dropped
	require.Equal(t, "מגרש: 5", NormalizeText("מגרש:\u200f 5"))
}

func TestSelectionText(t *testing.T) {
	doc := parse(t, page)
	require.Equal(t, "Court invitation", SelectionText(doc.Find("h1")))
	require.Equal(t, "Court invitation", strings.TrimSpace(NormalizeText(GetText(doc.Find("h1").Nodes[0]))))
}
