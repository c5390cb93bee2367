package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"alfredoptarigan/resume-matcher/internal/matching"
	"alfredoptarigan/resume-matcher/internal/models"
)

const (
	SummarySheet      = "Summary"
	SectionsSheet     = "Sections"
	EquivalencesSheet = "Equivalences"
)

// ReportInput is everything a match report shows. Resume and JD are optional
// and only used for their names.
type ReportInput struct {
	Result models.MatchResult
	Resume *models.Document
	JD     *models.Document
}

// SaveMatchReport writes the report to path, adding .xlsx when missing.
func SaveMatchReport(in ReportInput, path string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer out.Close()

	if err := WriteMatchReport(in, out); err != nil {
		return "", err
	}
	return path, nil
}

// WriteMatchReport renders a match result as a workbook with Summary,
// Sections and Equivalences sheets.
func WriteMatchReport(in ReportInput, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SectionsSheet, EquivalencesSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create %s sheet: %w", name, err)
		}
	}

	styles, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("failed to create styles: %w", err)
	}

	if err := writeSummary(f, styles, in); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeSections(f, styles, in.Result.SectionScores); err != nil {
		return fmt.Errorf("failed to create sections sheet: %w", err)
	}
	if err := writeEquivalences(f, styles, in.Result.Equivalences); err != nil {
		return fmt.Errorf("failed to create equivalences sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

type reportStyles struct {
	title  int
	header int
	label  int
	wrap   int
}

func newStyles(f *excelize.File) (reportStyles, error) {
	var s reportStyles
	var err error

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	}); err != nil {
		return s, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	}); err != nil {
		return s, err
	}
	if s.label, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	if s.wrap, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    border,
	}); err != nil {
		return s, err
	}
	return s, nil
}

func documentName(doc *models.Document, id fmt.Stringer) string {
	if doc == nil {
		return id.String()
	}
	if doc.OriginalFilename != "" {
		return doc.OriginalFilename
	}
	if doc.Title != "" {
		return doc.Title
	}
	return doc.ID.String()
}

func writeSummary(f *excelize.File, s reportStyles, in ReportInput) error {
	sheet := SummarySheet
	result := in.Result

	f.SetColWidth(sheet, "A", "A", 25)
	f.SetColWidth(sheet, "B", "B", 70)

	f.SetCellValue(sheet, "A1", "Resume Match Report")
	f.SetCellStyle(sheet, "A1", "B1", s.title)
	if err := f.MergeCell(sheet, "A1", "B1"); err != nil {
		return err
	}

	rows := [][2]any{
		{"Resume:", documentName(in.Resume, result.ResumeID)},
		{"Job Description:", documentName(in.JD, result.JDID)},
		{"Generated:", time.Now().Format("2006-01-02 15:04:05")},
		{"Match Score:", round2(result.MatchScore)},
		{"Grade:", string(result.Grade)},
		{"Overall Similarity:", round2(result.OverallSimilarity)},
		{"Equivalence Bonus:", round2(result.EquivalenceBonus)},
		{"Summary:", result.Feedback.Summary},
	}

	row := 3
	for _, r := range rows {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r[0])
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), s.label)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r[1])
		row++
	}

	if len(result.Feedback.ActionItems) > 0 {
		row++
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Action Items")
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), s.title)
		if err := f.MergeCell(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row)); err != nil {
			return err
		}
		row++
		for i, item := range result.Feedback.ActionItems {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), i+1)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), item)
			f.SetCellStyle(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), s.wrap)
			row++
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, style int, headers []string) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, style)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSections(f *excelize.File, s reportStyles, sections []models.SectionScore) error {
	sheet := SectionsSheet
	f.SetColWidth(sheet, "A", "A", 22)
	f.SetColWidth(sheet, "B", "D", 12)
	f.SetColWidth(sheet, "E", "E", 60)

	if err := writeHeader(f, sheet, s.header, []string{"Section", "Score", "Weight", "Chunks", "Best Match"}); err != nil {
		return err
	}

	for i, section := range sections {
		row := i + 2
		best := ""
		if len(section.TopMatches) > 0 {
			best = section.TopMatches[0].JDContent
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), matching.SectionLabel(section.SectionType))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), round2(section.Score))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), section.Weight)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), section.ChunkCount)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), best)
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("E%d", row), s.wrap)
	}

	if len(sections) > 0 {
		return f.AutoFilter(sheet, fmt.Sprintf("A1:E%d", len(sections)+1), []excelize.AutoFilterOptions{})
	}
	return nil
}

func writeEquivalences(f *excelize.File, s reportStyles, equivalences []models.EquivalenceMatch) error {
	sheet := EquivalencesSheet
	f.SetColWidth(sheet, "A", "C", 24)

	if err := writeHeader(f, sheet, s.header, []string{"Required", "Resume Has", "Group"}); err != nil {
		return err
	}

	for i, eq := range equivalences {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), eq.JDRequired)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), eq.ResumeHas)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), eq.Group)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
