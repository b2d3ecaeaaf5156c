package filter

import (
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Query parameter names shared by every list screen.
const (
	PageParam = "page"
	SizeParam = "size"
)

// RangeField maps a named numeric range onto its two query parameters.
type RangeField struct {
	Name     string
	MinParam string
	MaxParam string
}

// DateField maps a named date range onto its two query parameters.
type DateField struct {
	Name       string
	StartParam string
	EndParam   string
}

// Schema declares which filters a resource's list screen understands and how
// they are spelled in the query string.
type Schema struct {
	Resource  string
	TextParam string
	Ranges    []RangeField
	Dates     []DateField
}

// Built-in schemas of the console's list screens.
var (
	Menus = Schema{
		Resource:  "menus",
		TextParam: "name",
		Ranges:    []RangeField{{Name: "price", MinParam: "minPrice", MaxParam: "maxPrice"}},
	}
	Tables = Schema{
		Resource:  "tables",
		TextParam: "name",
	}
	Users = Schema{
		Resource:  "users",
		TextParam: "name",
	}
	Transactions = Schema{
		Resource:  "transactions",
		TextParam: "userName",
		Dates:     []DateField{{Name: "transDate", StartParam: "startTransDate", EndParam: "endTransDate"}},
	}
)

// Project keeps only the fields the resource uses, so filters it does not
// understand never change its cache key.
func (s Schema) Project(f FilterState) FilterState {
	out := FilterState{Page: f.Page, Size: f.Size}
	if s.TextParam != "" {
		out.Text = f.Text
	}
	for _, field := range s.Ranges {
		if r, ok := f.Ranges[field.Name]; ok {
			if out.Ranges == nil {
				out.Ranges = make(map[string]Range)
			}
			out.Ranges[field.Name] = r
		}
	}
	for _, field := range s.Dates {
		if d, ok := f.Dates[field.Name]; ok {
			if out.Dates == nil {
				out.Dates = make(map[string]DateRange)
			}
			out.Dates[field.Name] = d
		}
	}
	return out.Normalize()
}

// Encode writes f as query parameters. Absent filters are omitted; page and size
// are always present.
func (s Schema) Encode(f FilterState) url.Values {
	p := s.Project(f)
	values := url.Values{}

	if s.TextParam != "" && p.Text != "" {
		values.Set(s.TextParam, p.Text)
	}
	for _, field := range s.Ranges {
		r := p.Ranges[field.Name]
		setIfPresent(values, field.MinParam, r.Min)
		setIfPresent(values, field.MaxParam, r.Max)
	}
	for _, field := range s.Dates {
		d := p.Dates[field.Name]
		setIfPresent(values, field.StartParam, d.Start)
		setIfPresent(values, field.EndParam, d.End)
	}

	values.Set(PageParam, strconv.Itoa(p.Page))
	values.Set(SizeParam, strconv.Itoa(p.Size))
	return values
}

// Decode parses query parameters into a normalized FilterState. Values that
// cannot be parsed fall back to the field's default instead of failing.
func (s Schema) Decode(values url.Values) FilterState {
	f := FilterState{
		Page: parsePositive(values.Get(PageParam), DefaultPage),
		Size: parseSize(values.Get(SizeParam)),
	}

	if s.TextParam != "" {
		f.Text = values.Get(s.TextParam)
	}

	for _, field := range s.Ranges {
		r := Range{
			Min: canonicalDecimal(values.Get(field.MinParam)),
			Max: canonicalDecimal(values.Get(field.MaxParam)),
		}
		if r.IsZero() {
			continue
		}
		if f.Ranges == nil {
			f.Ranges = make(map[string]Range)
		}
		f.Ranges[field.Name] = r
	}

	for _, field := range s.Dates {
		d := DateRange{
			Start: canonicalDate(values.Get(field.StartParam)),
			End:   canonicalDate(values.Get(field.EndParam)),
		}
		if d.IsZero() {
			continue
		}
		if f.Dates == nil {
			f.Dates = make(map[string]DateRange)
		}
		f.Dates[field.Name] = d
	}

	return f.Normalize()
}

// Canonicalize runs f through Encode and Decode so numeric and date bounds take
// their canonical spelling.
func (s Schema) Canonicalize(f FilterState) FilterState {
	return s.Decode(s.Encode(f))
}

func setIfPresent(values url.Values, param, value string) {
	if param != "" && value != "" {
		values.Set(param, value)
	}
}

func parsePositive(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func parseSize(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || !ValidSize(n) {
		return DefaultSize
	}
	return n
}

func canonicalDecimal(raw string) string {
	if raw == "" {
		return ""
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return ""
	}
	return d.String()
}

func canonicalDate(raw string) string {
	if raw == "" {
		return ""
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return ""
	}
	return t.Format(DateLayout)
}
