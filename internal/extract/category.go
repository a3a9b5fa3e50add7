package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tradewatch/tradewatch/internal/market"
)

var reNodeLink = regexp.MustCompile(`/(lots|chips)/(\d+)/?`)

// ParseCategorySubcategories reads the subcategory pills of a catalog page.
func ParseCategorySubcategories(html string) []market.CategorySubcategory {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	container := doc.Find("div.counter-list.counter-list-pills").First()
	if container.Length() == 0 {
		return nil
	}

	var subs []market.CategorySubcategory
	container.Find("a.counter-item").Each(func(_ int, item *goquery.Selection) {
		m := reNodeLink.FindStringSubmatch(item.AttrOr("href", ""))
		if m == nil {
			return
		}
		typ := market.SubcategoryCommon
		if m[1] == "chips" {
			typ = market.SubcategoryCurrency
		}
		id, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return
		}
		count, _ := strconv.Atoi(strings.ReplaceAll(trimText(item.Find("div.counter-value").First()), " ", ""))
		subs = append(subs, market.CategorySubcategory{
			ID:         id,
			Name:       trimText(item.Find("div.counter-param").First()),
			OfferCount: count,
			Type:       typ,
			Active:     item.HasClass("active"),
		})
	})
	return subs
}

// ParseCategoryFilters reads the search filter widgets of a catalog page.
func ParseCategoryFilters(html string) []market.CategoryFilter {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	container := doc.Find("div.showcase-filters").First()
	if container.Length() == 0 {
		return nil
	}

	var filters []market.CategoryFilter
	container.Find("div.lot-field").Each(func(_ int, field *goquery.Selection) {
		fieldID, ok := field.Attr("data-id")
		if !ok {
			return
		}
		if sel := field.Find("select.lot-field-input").First(); sel.Length() > 0 {
			name := strings.TrimPrefix(sel.AttrOr("name", fieldID), "f-")
			options := optionList(sel.Find("option"))
			if len(options) > 0 {
				filters = append(filters, market.CategoryFilter{
					ID:      fieldID,
					Name:    name,
					Type:    market.FilterSelect,
					Options: options,
				})
			}
		} else if box := field.Find("div.lot-field-radio-box").First(); box.Length() > 0 {
			options := optionList(box.Find("button"))
			if len(options) > 0 {
				filters = append(filters, market.CategoryFilter{
					ID:      fieldID,
					Name:    fieldID,
					Type:    market.FilterRadio,
					Options: options,
				})
			}
		} else if field.Find("div.lot-field-range-box").Length() > 0 {
			name := trimText(field.Find("label.control-label").First())
			if name == "" {
				name = fieldID
			}
			filters = append(filters, market.CategoryFilter{
				ID:   fieldID,
				Name: name,
				Type: market.FilterRange,
			})
		}
	})

	container.Find("label.showcase-filter-label").Each(func(_ int, label *goquery.Selection) {
		checkbox := label.Find(`input[type="checkbox"].showcase-filter-input`).First()
		if checkbox.Length() == 0 {
			return
		}
		name := checkbox.AttrOr("name", "unknown")
		filters = append(filters, market.CategoryFilter{
			ID:   name,
			Name: trimText(label),
			Type: market.FilterCheckbox,
		})
	})

	return filters
}

func optionList(sel *goquery.Selection) []market.CategoryFilterOption {
	var options []market.CategoryFilterOption
	sel.Each(func(_ int, opt *goquery.Selection) {
		value, ok := opt.Attr("value")
		if !ok || value == "" {
			return
		}
		options = append(options, market.CategoryFilterOption{Value: value, Label: trimText(opt)})
	})
	return options
}
