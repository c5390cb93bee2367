package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/services"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Store resumes or job descriptions and embed them",
	Long: "Store one or more PDF or text files under the given role, then chunk and embed them.\n" +
		"Text files containing HTML are reduced to their visible text.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roleFlag, _ := cmd.Flags().GetString("role")
		role, err := models.ParseRole(roleFlag)
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")
		return ingest(commandContext(cmd), args, role, !force)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringP("role", "r", "resume", "document role: resume or job_description")
	ingestCmd.Flags().Bool("force", false, "fail instead of skipping documents that are already embedded")
}

func ingest(ctx context.Context, paths []string, role models.Role, skip bool) error {
	svc, _, zlog := loadServices(ctx)
	defer svc.Close()

	var results []models.IngestionResult
	for _, path := range paths {
		doc, duplicate, err := createDocument(ctx, svc.Documents, path, role)
		if err != nil {
			zlog.Error("❌ Failed to store document", zap.String("path", path), zap.Error(err))
			results = append(results, models.IngestionResult{Status: models.IngestionFailed, Error: err.Error()})
			continue
		}
		if duplicate {
			zlog.Info("♻️ Identical document already stored", zap.String("path", path), zap.String("document_id", doc.ID.String()))
		}

		result, err := svc.Ingestion.Ingest(ctx, doc.ID, services.IngestOptions{SkipIfExists: skip})
		if err != nil {
			zlog.Error("❌ Ingestion failed", zap.String("document_id", doc.ID.String()), zap.Error(err))
			results = append(results, models.IngestionResult{DocumentID: doc.ID, Status: models.IngestionFailed, Error: err.Error()})
			continue
		}
		results = append(results, *result)
	}

	return printJSON(results)
}

// createDocument stores a PDF through the file pipeline and anything else as text.
func createDocument(ctx context.Context, documents services.DocumentService, path string, role models.Role) (*models.Document, bool, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return documents.CreateFromFile(ctx, path, role)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return documents.CreateFromText(ctx, role, filepath.Base(path), string(data))
}
