package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/export"
	"alfredoptarigan/resume-matcher/internal/matching"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/services"
)

var errNoDocuments = errors.New("no embedded documents to choose from")

var matchCmd = &cobra.Command{
	Use:   "match [<resume-id> <jd-id>]",
	Short: "Score a resume against a job description",
	Args: func(cmd *cobra.Command, args []string) error {
		interactive, _ := cmd.Flags().GetBool("interactive")
		if interactive {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		interactive, _ := cmd.Flags().GetBool("interactive")
		xlsx, _ := cmd.Flags().GetString("xlsx")
		gaps, _ := cmd.Flags().GetBool("gaps")
		return match(commandContext(cmd), args, interactive, gaps, xlsx)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().BoolP("interactive", "i", false, "pick the resume and job description from a list")
	matchCmd.Flags().Bool("gaps", false, "print the gap analysis instead of the raw match")
	matchCmd.Flags().StringP("xlsx", "x", "", "also write the match report to this Excel file")
}

func match(ctx context.Context, args []string, interactive, gaps bool, xlsx string) error {
	svc, _, zlog := loadServices(ctx)
	defer svc.Close()

	resumeID, jdID, err := resolvePair(ctx, svc.Documents, args, interactive)
	if err != nil {
		return err
	}

	result, err := svc.Analysis.Match(ctx, resumeID, jdID)
	if err != nil {
		return err
	}

	if xlsx != "" {
		resume, err := svc.Documents.Get(ctx, resumeID)
		if err != nil {
			return err
		}
		jd, err := svc.Documents.Get(ctx, jdID)
		if err != nil {
			return err
		}
		path, err := export.SaveMatchReport(export.ReportInput{Result: *result, Resume: resume, JD: jd}, xlsx)
		if err != nil {
			return err
		}
		zlog.Info("📊 Match report written", zap.String("path", path))
	}

	if gaps {
		analysis := matching.AnalyzeGaps(*result)
		return printJSON(analysis)
	}

	fmt.Printf("Match score: %.1f (grade %s)\n", result.MatchScore, result.Grade)
	fmt.Printf("Overall similarity: %.3f, equivalence bonus: %.1f\n", result.OverallSimilarity, result.EquivalenceBonus)
	for _, s := range result.SectionScores {
		fmt.Printf("  %-24s %5.1f  (weight %.1f, %d chunks)\n", matching.SectionLabel(s.SectionType), s.Score, s.Weight, s.ChunkCount)
	}
	fmt.Println(result.Feedback.Summary)
	for _, item := range result.Feedback.ActionItems {
		fmt.Printf("  - %s\n", item)
	}
	return nil
}

func resolvePair(ctx context.Context, documents services.DocumentService, args []string, interactive bool) (uuid.UUID, uuid.UUID, error) {
	if interactive {
		resumeID, err := pickDocument(ctx, documents, models.RoleResume)
		if err != nil {
			return uuid.Nil, uuid.Nil, err
		}
		jdID, err := pickDocument(ctx, documents, models.RoleJobDescription)
		if err != nil {
			return uuid.Nil, uuid.Nil, err
		}
		return resumeID, jdID, nil
	}

	resumeID, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid resume id %q: %w", args[0], err)
	}
	jdID, err := uuid.Parse(args[1])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid job description id %q: %w", args[1], err)
	}
	return resumeID, jdID, nil
}

func pickDocument(ctx context.Context, documents services.DocumentService, role models.Role) (uuid.UUID, error) {
	docs, err := documents.List(ctx, repositories.DocumentFilter{Role: role, Status: models.StatusCompleted})
	if err != nil {
		return uuid.Nil, err
	}
	if len(docs) == 0 {
		return uuid.Nil, fmt.Errorf("%w: %s", errNoDocuments, role)
	}

	items := make([]string, len(docs))
	for i, d := range docs {
		items[i] = documentLabel(d)
	}

	prompt := promptui.Select{
		Label: fmt.Sprintf("Select %s", matching.SectionLabel(models.SectionType(role))),
		Items: items,
		Size:  10,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return uuid.Nil, err
	}
	return docs[idx].ID, nil
}

func documentLabel(d models.Document) string {
	name := d.OriginalFilename
	if d.Title != "" {
		name = d.Title
	}
	return fmt.Sprintf("%s  [%s, %d chunks, %s]", name, d.Language, d.ChunkCount, d.CreatedAt.Format("2006-01-02"))
}
