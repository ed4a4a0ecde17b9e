package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mosaicfw/mosaic/internal/host"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	rowStyle    = lipgloss.NewStyle()
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List discovered plugins",
	Long: `Plugins discovers every candidate on the search paths, builtin and
on-disk, and lists it without loading anything.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		h, err := host.New(cmd.Context(), cfg, newLogger())
		if err != nil {
			return err
		}
		defer func() { _ = h.Close() }()

		count, err := h.Manager().DiscoverAll(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println(renderPluginTable(h))
		fmt.Println(dimStyle.Render(fmt.Sprintf("%d plugin(s) discovered", count)))
		for _, record := range h.Manager().Errors() {
			fmt.Println(failStyle.Render("  " + record.String()))
		}
		return nil
	},
}

// renderPluginTable formats the discovered plugins as aligned columns.
func renderPluginTable(h *host.Host) string {
	type row struct{ id, version, name, kind string }

	rows := []row{{id: "ID", version: "VERSION", name: "NAME", kind: "KIND"}}
	widths := []int{len("ID"), len("VERSION"), len("NAME"), len("KIND")}
	for _, inst := range h.Manager().Instances() {
		d := inst.Descriptor()
		kind := "wasm"
		if d.IsBuiltin() {
			kind = "builtin"
		}
		r := row{id: d.ID, version: d.Version, name: d.Name, kind: kind}
		rows = append(rows, r)
		for i, cell := range []string{r.id, r.version, r.name, r.kind} {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for i, r := range rows {
		line := fmt.Sprintf("%-*s  %-*s  %-*s  %-*s",
			widths[0], r.id, widths[1], r.version, widths[2], r.name, widths[3], r.kind)
		if i == 0 {
			b.WriteString(headerStyle.Render(line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
