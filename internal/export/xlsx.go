// Package export renders a report variant as a styled xlsx workbook: one
// sheet per week plus Total, Stats and Raw sheets. It is a pure formatting
// step over the engine's output tables.
package export

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/geoliga/geoliga/internal/logger"
	"github.com/geoliga/geoliga/internal/models"
)

// Sheet palette, matching the league's established spreadsheet look.
const (
	fillDark  = "2B2B2B"
	fillMid   = "3A3A3A"
	fillRowA  = "D9EAD3"
	fillRowB  = "C9E2BC"
	fillWhite = "FFFFFF"
	borderHex = "1F1F1F"
)

type styleSet struct {
	hdrBig   int
	hdrMed   int
	hdr      int
	hdrLink  int
	body     [2]int // zebra: even/odd
	bodyBold [2]int
	bodyLeft [2]int
	rawHdr   int
	raw      int
	rawLeft  int
}

// Workbook renders one variant into an in-memory workbook. The caller owns
// the returned file and must Close it.
func Workbook(v models.Variant) (*excelize.File, error) {
	f := excelize.NewFile()

	styles, err := newStyleSet(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	for _, week := range v.Weeks {
		if err := writeWeekSheet(f, styles, week); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := writeTotalSheet(f, styles, v); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeStatsSheet(f, styles, v); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRawSheet(f, styles, v.Raw); err != nil {
		f.Close()
		return nil, err
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteWorkbook renders one variant into an xlsx file at path.
func WriteWorkbook(path string, v models.Variant) error {
	log := logger.Default().WithPrefix("export")

	f, err := Workbook(v)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return err
	}
	log.Info("wrote %s", path)
	return nil
}

func newStyleSet(f *excelize.File) (styleSet, error) {
	var s styleSet
	var err error

	thin := []excelize.Border{
		{Type: "left", Color: borderHex, Style: 1},
		{Type: "right", Color: borderHex, Style: 1},
		{Type: "top", Color: borderHex, Style: 1},
		{Type: "bottom", Color: borderHex, Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}
	left := &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true}
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
	}

	if s.hdrBig, err = f.NewStyle(&excelize.Style{
		Fill: fill(fillDark), Border: thin, Alignment: center,
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 16},
	}); err != nil {
		return s, err
	}
	if s.hdrMed, err = f.NewStyle(&excelize.Style{
		Fill: fill(fillDark), Border: thin, Alignment: center,
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 12},
	}); err != nil {
		return s, err
	}
	if s.hdr, err = f.NewStyle(&excelize.Style{
		Fill: fill(fillMid), Border: thin, Alignment: center,
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
	}); err != nil {
		return s, err
	}
	if s.hdrLink, err = f.NewStyle(&excelize.Style{
		Fill: fill(fillMid), Border: thin, Alignment: center,
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Underline: "single"},
	}); err != nil {
		return s, err
	}

	zebra := [2]string{fillRowA, fillRowB}
	for i, color := range zebra {
		if s.body[i], err = f.NewStyle(&excelize.Style{
			Fill: fill(color), Border: thin, Alignment: center,
			Font: &excelize.Font{Color: "000000"},
		}); err != nil {
			return s, err
		}
		if s.bodyBold[i], err = f.NewStyle(&excelize.Style{
			Fill: fill(color), Border: thin, Alignment: center,
			Font: &excelize.Font{Bold: true, Color: "000000"},
		}); err != nil {
			return s, err
		}
		if s.bodyLeft[i], err = f.NewStyle(&excelize.Style{
			Fill: fill(color), Border: thin, Alignment: left,
			Font: &excelize.Font{Color: "000000"},
		}); err != nil {
			return s, err
		}
	}

	if s.rawHdr, err = f.NewStyle(&excelize.Style{
		Fill: fill(fillDark), Border: thin, Alignment: center,
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
	}); err != nil {
		return s, err
	}
	if s.raw, err = f.NewStyle(&excelize.Style{
		Fill: fill(fillWhite), Border: thin, Alignment: center,
		Font: &excelize.Font{Color: "000000"},
	}); err != nil {
		return s, err
	}
	if s.rawLeft, err = f.NewStyle(&excelize.Style{
		Fill: fill(fillWhite), Border: thin, Alignment: left,
		Font: &excelize.Font{Color: "000000"},
	}); err != nil {
		return s, err
	}
	return s, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// numValue renders integral floats as ints for display; the engine keeps
// full precision internally.
func numValue(v float64) any {
	if math.Abs(v-math.Round(v)) < 1e-9 {
		return int(math.Round(v))
	}
	return v
}

func writeWeekSheet(f *excelize.File, s styleSet, week models.WeekTable) error {
	sheet := week.Label
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	nMaps := len(week.Maps)
	const (
		colRank     = 1
		colPlayer   = 2
		colTotal    = 3
		colMapStart = 4
	)

	// Row 1-2: merged week header and deadline over the fixed columns.
	if err := f.MergeCell(sheet, cell(colRank, 1), cell(colTotal, 1)); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, cell(colRank, 2), cell(colTotal, 2)); err != nil {
		return err
	}
	f.SetCellValue(sheet, cell(colRank, 1), week.Label)
	deadline := "Deadline"
	if week.Deadline != "" {
		deadline = "Deadline " + week.Deadline
	}
	f.SetCellValue(sheet, cell(colRank, 2), deadline)
	f.SetCellStyle(sheet, cell(colRank, 1), cell(colTotal, 1), s.hdrBig)
	f.SetCellStyle(sheet, cell(colRank, 2), cell(colTotal, 2), s.hdrMed)

	for i, m := range week.Maps {
		c := colMapStart + i
		f.SetCellValue(sheet, cell(c, 1), fmt.Sprintf("Map %d", i+1))
		f.SetCellValue(sheet, cell(c, 2), m.Name)
		f.SetCellStyle(sheet, cell(c, 1), cell(c, 2), s.hdrMed)
	}

	// Row 3: column headers; map columns carry the rule text and link.
	f.SetCellValue(sheet, cell(colRank, 3), "#")
	f.SetCellValue(sheet, cell(colPlayer, 3), "Spelare")
	f.SetCellValue(sheet, cell(colTotal, 3), "Poäng")
	f.SetCellStyle(sheet, cell(colRank, 3), cell(colTotal, 3), s.hdr)
	for i, m := range week.Maps {
		c := colMapStart + i
		f.SetCellValue(sheet, cell(c, 3), "🔗 "+m.RuleText)
		if m.URL != "" {
			if err := f.SetCellHyperLink(sheet, cell(c, 3), m.URL, "External"); err != nil {
				return err
			}
		}
		f.SetCellStyle(sheet, cell(c, 3), cell(c, 3), s.hdrLink)
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze: true, YSplit: 3, TopLeftCell: "A4", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}

	f.SetColWidth(sheet, "A", "A", 4.5)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 8)
	if nMaps > 0 {
		first, _ := excelize.ColumnNumberToName(colMapStart)
		last, _ := excelize.ColumnNumberToName(colMapStart + nMaps - 1)
		f.SetColWidth(sheet, first, last, 14)
	}

	for idx, st := range week.Standings {
		r := 4 + idx
		z := idx % 2

		f.SetCellValue(sheet, cell(colRank, r), idx+1)
		f.SetCellValue(sheet, cell(colPlayer, r), st.Player)
		f.SetCellValue(sheet, cell(colTotal, r), numValue(st.TotalBorda))
		f.SetCellStyle(sheet, cell(colRank, r), cell(colRank, r), s.body[z])
		f.SetCellStyle(sheet, cell(colPlayer, r), cell(colPlayer, r), s.bodyLeft[z])
		f.SetCellStyle(sheet, cell(colTotal, r), cell(colTotal, r), s.bodyBold[z])

		for i, mp := range st.PerMap {
			c := colMapStart + i
			if mp.Points > 0 {
				f.SetCellValue(sheet, cell(c, r), numValue(mp.Points))
			}
			f.SetCellStyle(sheet, cell(c, r), cell(c, r), s.body[z])
		}
	}
	return nil
}

func writeTotalSheet(f *excelize.File, s styleSet, v models.Variant) error {
	const sheet = "Total"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	weekLabels := make([]string, 0, len(v.Weeks))
	for _, w := range v.Weeks {
		weekLabels = append(weekLabels, w.Label)
	}

	headers := append([]string{"#", "Spelare", "Poäng (Borda)", "Total pts", "Kartor", "Veckor"}, weekLabels...)

	if err := f.MergeCell(sheet, cell(1, 1), cell(len(headers), 1)); err != nil {
		return err
	}
	f.SetCellValue(sheet, cell(1, 1), "Totalställning")
	f.SetCellStyle(sheet, cell(1, 1), cell(len(headers), 1), s.hdrBig)

	for c, h := range headers {
		f.SetCellValue(sheet, cell(c+1, 2), h)
	}
	f.SetCellStyle(sheet, cell(1, 2), cell(len(headers), 2), s.hdr)

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze: true, YSplit: 2, TopLeftCell: "A3", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}

	f.SetColWidth(sheet, "A", "A", 4.5)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 14)
	f.SetColWidth(sheet, "D", "F", 10)
	if len(weekLabels) > 0 {
		first, _ := excelize.ColumnNumberToName(7)
		last, _ := excelize.ColumnNumberToName(6 + len(weekLabels))
		f.SetColWidth(sheet, first, last, 12)
	}

	for idx, t := range v.Total {
		r := 3 + idx
		z := idx % 2

		f.SetCellValue(sheet, cell(1, r), idx+1)
		f.SetCellValue(sheet, cell(2, r), t.Player)
		f.SetCellValue(sheet, cell(3, r), numValue(t.TotalBorda))
		f.SetCellValue(sheet, cell(4, r), t.TotalRawPts)
		f.SetCellValue(sheet, cell(5, r), t.MapsCounted)
		f.SetCellValue(sheet, cell(6, r), t.WeeksCounted)

		for i, wk := range t.PerWeek {
			if wk > 0 {
				f.SetCellValue(sheet, cell(7+i, r), numValue(wk))
			}
		}

		f.SetCellStyle(sheet, cell(1, r), cell(len(headers), r), s.body[z])
		f.SetCellStyle(sheet, cell(2, r), cell(2, r), s.bodyLeft[z])
		f.SetCellStyle(sheet, cell(3, r), cell(3, r), s.bodyBold[z])
	}
	return nil
}

func writeStatsSheet(f *excelize.File, s styleSet, v models.Variant) error {
	const sheet = "Stats"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	playerHeaders := []string{
		"#", "Spelare",
		"Total Borda", "Total pts",
		"Kartor", "Veckor",
		"Snitt Borda / karta", "Snitt Borda / vecka",
		"Snitt pts / karta",
		"Bästa vecka", "Bästa vecka Borda", "Bästa vecka pts",
	}
	width := len(playerHeaders)

	if err := f.MergeCell(sheet, cell(1, 1), cell(width, 1)); err != nil {
		return err
	}
	f.SetCellValue(sheet, cell(1, 1), "Statistik")
	f.SetCellStyle(sheet, cell(1, 1), cell(width, 1), s.hdrBig)

	// League-wide summary block.
	summaryHeaders := []string{
		"Totalt Borda", "Totalt pts", "Kartor", "Veckor",
		"Snitt Borda / karta", "Snitt Borda / vecka", "Snitt pts / karta",
		"Bästa vecka", "Bästa vecka Borda",
	}
	st := v.Stats
	summaryValues := []any{
		numValue(st.TotalBorda), st.TotalRawPts, st.MapCount, st.WeekCount,
		numValue(st.AvgBordaPerMap), numValue(st.AvgBordaPerWeek), numValue(st.AvgRawPtsPerMap),
		st.BestWeekLabel, numValue(st.BestWeekBorda),
	}
	for c, h := range summaryHeaders {
		f.SetCellValue(sheet, cell(c+1, 2), h)
		f.SetCellValue(sheet, cell(c+1, 3), summaryValues[c])
	}
	f.SetCellStyle(sheet, cell(1, 2), cell(len(summaryHeaders), 2), s.hdr)
	f.SetCellStyle(sheet, cell(1, 3), cell(len(summaryHeaders), 3), s.body[0])

	const playerHeaderRow = 5
	for c, h := range playerHeaders {
		f.SetCellValue(sheet, cell(c+1, playerHeaderRow), h)
	}
	f.SetCellStyle(sheet, cell(1, playerHeaderRow), cell(width, playerHeaderRow), s.hdr)

	widths := []float64{4.5, 22, 12, 10, 8, 8, 14, 14, 12, 14, 16, 14}
	for i, w := range widths {
		name, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, name, name, w)
	}

	for idx, p := range v.Players {
		r := playerHeaderRow + 1 + idx
		z := idx % 2

		values := []any{
			idx + 1, p.Player,
			numValue(p.TotalBorda), p.TotalRawPts,
			p.MapsCounted, p.WeeksCounted,
			numValue(p.AvgBordaPerMap), numValue(p.AvgBordaPerWeek),
			numValue(p.AvgRawPtsPerMap),
			p.BestWeekLabel, numValue(p.BestWeekBorda), p.BestWeekRawPts,
		}
		for c, val := range values {
			f.SetCellValue(sheet, cell(c+1, r), val)
		}
		f.SetCellStyle(sheet, cell(1, r), cell(width, r), s.body[z])
		f.SetCellStyle(sheet, cell(2, r), cell(2, r), s.bodyLeft[z])
		f.SetCellStyle(sheet, cell(3, r), cell(3, r), s.bodyBold[z])
	}
	return nil
}

func writeRawSheet(f *excelize.File, s styleSet, raw []models.RawRow) error {
	const sheet = "Raw"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{
		"week", "map_index", "map_url", "token", "map_name", "rule_text",
		"player", "total_pts", "total_time", "played_at", "rank", "tied", "borda",
	}
	for c, h := range headers {
		f.SetCellValue(sheet, cell(c+1, 1), h)
	}
	f.SetCellStyle(sheet, cell(1, 1), cell(len(headers), 1), s.rawHdr)

	if len(raw) == 0 {
		f.SetCellValue(sheet, "A2", "No data")
		return nil
	}

	for idx, row := range raw {
		r := 2 + idx
		playedAt := ""
		if row.PlayedAt != nil {
			playedAt = row.PlayedAt.UTC().Format("2006-01-02 15:04:05")
		}
		values := []any{
			row.WeekLabel, row.MapIndex, row.MapURL, row.Token, row.MapName, row.RuleText,
			row.Player, row.TotalPts, row.TotalTime, playedAt, row.Rank, row.Tied, numValue(row.Borda),
		}
		for c, val := range values {
			f.SetCellValue(sheet, cell(c+1, r), val)
		}
		f.SetCellStyle(sheet, cell(1, r), cell(len(headers), r), s.raw)
		f.SetCellStyle(sheet, cell(7, r), cell(7, r), s.rawLeft)
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}

	for c, h := range headers {
		name, _ := excelize.ColumnNumberToName(c + 1)
		w := float64(len(h) + 2)
		if w < 10 {
			w = 10
		}
		if w > 40 {
			w = 40
		}
		f.SetColWidth(sheet, name, name, w)
	}
	return nil
}
