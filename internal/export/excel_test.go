package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"alfredoptarigan/resume-matcher/internal/models"
)

func sampleResult() models.MatchResult {
	return models.MatchResult{
		ResumeID:          uuid.New(),
		JDID:              uuid.New(),
		OverallSimilarity: 0.8123,
		MatchScore:        72.345,
		Grade:             models.GradeB,
		SectionScores: []models.SectionScore{
			{SectionType: models.SectionRequirements, Score: 110.5, Weight: 1.5, ChunkCount: 2,
				TopMatches: []models.ChunkMatch{{JDContent: "Go or Java"}}},
			{SectionType: models.SectionTechStack, Score: 40, Weight: 1.0, ChunkCount: 1},
		},
		Equivalences: []models.EquivalenceMatch{{JDRequired: "vue", ResumeHas: "react", Group: "frontend_framework"}},
		Feedback: models.Feedback{
			Summary:     "Good match.",
			ActionItems: []string{"Learn Kubernetes"},
		},
	}
}

func TestWriteMatchReport(t *testing.T) {
	var buf bytes.Buffer
	resume := &models.Document{OriginalFilename: "jane.pdf"}

	if err := WriteMatchReport(ReportInput{Result: sampleResult(), Resume: resume}, &buf); err != nil {
		t.Fatalf("WriteMatchReport() error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != SummarySheet || sheets[1] != SectionsSheet || sheets[2] != EquivalencesSheet {
		t.Fatalf("sheets = %v", sheets)
	}

	cells := []struct {
		sheet, cell, want string
	}{
		{SummarySheet, "B3", "jane.pdf"},
		{SummarySheet, "B6", "72.35"},
		{SummarySheet, "B7", "B"},
		{SummarySheet, "B10", "Good match."},
		{SummarySheet, "B13", "Learn Kubernetes"},
		{SectionsSheet, "A1", "Section"},
		{SectionsSheet, "A2", "requirements"},
		{SectionsSheet, "E2", "Go or Java"},
		{SectionsSheet, "A3", "tech stack"},
		{EquivalencesSheet, "A2", "vue"},
		{EquivalencesSheet, "B2", "react"},
	}
	for _, c := range cells {
		got, err := f.GetCellValue(c.sheet, c.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s!%s) error: %v", c.sheet, c.cell, err)
		}
		if got != c.want {
			t.Errorf("%s!%s = %q, want %q", c.sheet, c.cell, got, c.want)
		}
	}
}

func TestSaveMatchReportAddsExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report")

	saved, err := SaveMatchReport(ReportInput{Result: sampleResult()}, path)
	if err != nil {
		t.Fatalf("SaveMatchReport() error: %v", err)
	}
	if saved != path+".xlsx" {
		t.Fatalf("saved to %q, want %q", saved, path+".xlsx")
	}
	if _, err := os.Stat(saved); err != nil {
		t.Fatalf("report not written: %v", err)
	}
}
