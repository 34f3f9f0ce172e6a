package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/snipkeeper/internal/models"
)

const timeLayout = "2006-01-02 15:04"

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes rows under header, columns aligned, trailing blanks trimmed.
func printTable(w io.Writer, header []string, rows [][]string) {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()

	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func tagNames(tags []models.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}

// itemJSON is the JSON shape of an item; the value is already opened.
type itemJSON struct {
	ID            int64      `json:"id"`
	CategoryID    int64      `json:"category_id"`
	Label         string     `json:"label"`
	Type          string     `json:"type"`
	Value         string     `json:"value"`
	Sensitive     bool       `json:"sensitive"`
	Favorite      bool       `json:"favorite"`
	FavoriteOrder int        `json:"favorite_order,omitempty"`
	UseCount      int64      `json:"use_count"`
	LastUsedAt    *time.Time `json:"last_used_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Tags          []string   `json:"tags"`
}

func toItemJSON(v models.ItemView) itemJSON {
	return itemJSON{
		ID:            v.ID,
		CategoryID:    v.CategoryID,
		Label:         v.Label,
		Type:          string(v.Type),
		Value:         v.Value,
		Sensitive:     v.Sensitive(),
		Favorite:      v.Favorite,
		FavoriteOrder: v.FavoriteOrder,
		UseCount:      v.UseCount,
		LastUsedAt:    v.LastUsedAt,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
		Tags:          tagNames(v.Tags),
	}
}

func (r *runner) printItems(views []models.ItemView) error {
	if r.jsonOut {
		out := make([]itemJSON, 0, len(views))
		for _, v := range views {
			out = append(out, toItemJSON(v))
		}
		return printJSON(r.out, out)
	}
	if len(views) == 0 {
		fmt.Fprintln(r.out, "No items found.")
		return nil
	}

	rows := make([][]string, 0, len(views))
	for _, v := range views {
		preview := truncate(v.Value, 40)
		if v.Sensitive() {
			preview = "********"
		}
		fav := ""
		if v.Favorite {
			fav = "*"
		}
		rows = append(rows, []string{
			fmt.Sprint(v.ID),
			fav,
			truncate(v.Label, 30),
			string(v.Type),
			preview,
			strings.Join(tagNames(v.Tags), ","),
			v.UpdatedAt.Local().Format(timeLayout),
		})
	}
	printTable(r.out, []string{"ID", "FAV", "LABEL", "TYPE", "VALUE", "TAGS", "UPDATED"}, rows)
	fmt.Fprintf(r.out, "Total: %d item(s)\n", len(views))
	return nil
}

func (r *runner) printItem(v *models.ItemView) error {
	if r.jsonOut {
		return printJSON(r.out, toItemJSON(*v))
	}
	fmt.Fprintf(r.out, "ID:        %d\n", v.ID)
	fmt.Fprintf(r.out, "Label:     %s\n", v.Label)
	fmt.Fprintf(r.out, "Type:      %s\n", v.Type)
	fmt.Fprintf(r.out, "Category:  %d\n", v.CategoryID)
	fmt.Fprintf(r.out, "Sensitive: %t\n", v.Sensitive())
	fmt.Fprintf(r.out, "Favorite:  %t\n", v.Favorite)
	fmt.Fprintf(r.out, "Tags:      %s\n", strings.Join(tagNames(v.Tags), ", "))
	fmt.Fprintf(r.out, "Used:      %d (last %s)\n", v.UseCount, formatTime(v.LastUsedAt))
	fmt.Fprintf(r.out, "Updated:   %s\n", formatTime(&v.UpdatedAt))
	fmt.Fprintf(r.out, "Value:\n%s\n", v.Value)
	return nil
}
