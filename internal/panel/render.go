package panel

import (
	"fmt"
	"strings"
	"time"

	"github.com/sidememo/sidememo/internal/memo"
)

const (
	previewLimit  = 60
	listDate      = "2006/01/02"
	detailDate    = "2006/01/02 15:04"
	untitledTitle = "Untitled memo"
	emptyPreview  = "No content"
	loadingText   = "Loading..."
	emptyListText = "No memos yet. Create a new memo."
)

// ListItem is the one-line summary shown in the list view.
type ListItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Untitled bool   `json:"untitled"`
	Preview  string `json:"preview"`
	Date     string `json:"date"`
}

// Summarize builds the list entry for m, formatting dates in loc (nil means local time).
func Summarize(m memo.Memo, loc *time.Location) ListItem {
	if loc == nil {
		loc = time.Local
	}
	it := ListItem{ID: m.ID, Title: m.Title, Date: m.UpdatedAt.In(loc).Format(listDate)}
	if it.Title == "" {
		it.Title = untitledTitle
		it.Untitled = true
	}
	it.Preview = preview(m.Content)
	if it.Preview == "" {
		it.Preview = emptyPreview
	}
	return it
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > previewLimit {
		return string(r[:previewLimit]) + "..."
	}
	return s
}

// Items summarizes every memo of the view in display order.
func (v View) Items(loc *time.Location) []ListItem {
	out := make([]ListItem, 0, len(v.Memos))
	for _, m := range v.Memos {
		out = append(out, Summarize(m, loc))
	}
	return out
}

// Render draws the view as plain text.
func (v View) Render(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	if v.Kind == ViewList {
		b.WriteString("Memos  [+ New]\n")
		switch {
		case v.Loading:
			b.WriteString(loadingText + "\n")
		case len(v.Memos) == 0:
			b.WriteString(emptyListText + "\n")
		default:
			for _, it := range v.Items(loc) {
				fmt.Fprintf(&b, "- %s  (%s)\n  %s\n", it.Title, it.Date, it.Preview)
			}
		}
		return b.String()
	}

	b.WriteString("< Back")
	if v.IsNew {
		b.WriteString("  New memo")
	}
	b.WriteString("\n")
	if v.Current != nil {
		fmt.Fprintf(&b, "Last updated: %s\n", v.Current.UpdatedAt.In(loc).Format(detailDate))
	}
	fmt.Fprintf(&b, "%s\n%s\n", v.Title, v.Content)
	return b.String()
}
