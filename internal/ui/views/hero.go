package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"heroscope/internal/domain"
)

const (
	numberWidth = 6
	nameWidth   = 32
	countWidth  = 8
)

// HeroRenderer renders hero rows and the detail page
type HeroRenderer struct {
	styles *Styles
}

// NewHeroRenderer creates a new hero renderer
func NewHeroRenderer(styles *Styles) *HeroRenderer {
	return &HeroRenderer{styles: styles}
}

// RenderHeader renders the table header
func (r *HeroRenderer) RenderHeader(width int) string {
	header := fmt.Sprintf("%-*s%-*s%*s%*s  %s", numberWidth, "#", nameWidth, "Name",
		countWidth, "Comics", countWidth, "Series", "Description")
	return r.styles.Header.Render(truncate(header, width-4))
}

// RenderRow renders one hero as a table row
func (r *HeroRenderer) RenderRow(hero domain.Hero, number int, isSelected, showDescription bool, width int) string {
	line := fmt.Sprintf("%-*s%-*s%*d%*d", numberWidth, fmt.Sprintf("%d.", number),
		nameWidth, truncate(hero.Name, nameWidth-2),
		countWidth, hero.Comics.Available, countWidth, hero.Series.Available)

	if showDescription && hero.Description != "" {
		avail := width - 4 - lipgloss.Width(line) - 2
		if avail > 10 {
			desc := strings.Join(strings.Fields(hero.Description), " ")
			line += "  " + r.styles.Description.Render(truncate(desc, avail))
		}
	}

	if isSelected {
		return r.styles.Selected.Render(line)
	}
	return r.styles.Row.Render(line)
}

// RenderDetail renders the full hero page shown in the pager
func (r *HeroRenderer) RenderDetail(hero domain.Hero) string {
	var b strings.Builder

	b.WriteString(r.styles.DetailTitle.Render(hero.Name))
	b.WriteString("\n")

	if hero.Description != "" {
		b.WriteString(hero.Description)
	} else {
		b.WriteString(r.styles.Dim.Render("No description available."))
	}
	b.WriteString("\n")

	b.WriteString(r.styles.DetailSection.Render("Details"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s  %d\n", r.styles.DetailKey.Render("ID      "), hero.ID))
	if hero.Modified != "" {
		b.WriteString(fmt.Sprintf("  %s  %s\n", r.styles.DetailKey.Render("Modified"), hero.Modified))
	}
	if hero.Thumbnail.Path != "" {
		b.WriteString(fmt.Sprintf("  %s  %s.%s\n", r.styles.DetailKey.Render("Image   "),
			hero.Thumbnail.Path, hero.Thumbnail.Extension))
	}

	r.writeSubItems(&b, "Comics", hero.Comics)
	r.writeSubItems(&b, "Series", hero.Series)
	r.writeSubItems(&b, "Stories", hero.Stories)
	r.writeSubItems(&b, "Events", hero.Events)

	if len(hero.URLs) > 0 {
		b.WriteString(r.styles.DetailSection.Render("Links"))
		b.WriteString("\n")
		for _, u := range hero.URLs {
			b.WriteString(fmt.Sprintf("  %s  %s\n", r.styles.DetailKey.Render(u.Type), u.URL))
		}
	}

	return b.String()
}

func (r *HeroRenderer) writeSubItems(b *strings.Builder, title string, items domain.HeroSubItems) {
	if items.Available == 0 {
		return
	}
	b.WriteString(r.styles.DetailSection.Render(fmt.Sprintf("%s (%s)", title, humanize.Comma(int64(items.Available)))))
	b.WriteString("\n")
	for _, item := range items.Items {
		b.WriteString("  • ")
		b.WriteString(item.Name)
		b.WriteString("\n")
	}
	if rest := items.Available - len(items.Items); rest > 0 && len(items.Items) > 0 {
		b.WriteString(r.styles.Dim.Render(fmt.Sprintf("  and %s more", humanize.Comma(int64(rest)))))
		b.WriteString("\n")
	}
}

// truncate shortens s to max visible runes, adding an ellipsis
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
