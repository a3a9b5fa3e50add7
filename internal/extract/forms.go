package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Form-value helpers for the offer edit page. All of them tolerate missing
// fields and return zero values.

func inputValue(doc *goquery.Document, name string) string {
	return doc.Find(fmt.Sprintf("input[name=%q]", name)).First().AttrOr("value", "")
}

func textareaValue(doc *goquery.Document, name string) string {
	return doc.Find(fmt.Sprintf("textarea[name=%q]", name)).First().Text()
}

func checkboxValue(doc *goquery.Document, name string) bool {
	sel := doc.Find(fmt.Sprintf("input[name=%q][type=\"checkbox\"]", name)).First()
	_, checked := sel.Attr("checked")
	return checked
}

func selectValue(doc *goquery.Document, name string) string {
	return doc.Find(fmt.Sprintf("select[name=%q] option[selected]", name)).First().AttrOr("value", "")
}

// fieldValue prefers an input value and falls back to the selected option of
// a select with the same name.
func fieldValue(doc *goquery.Document, name string) string {
	if v := inputValue(doc, name); v != "" {
		return v
	}
	return selectValue(doc, name)
}

func trimText(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}
