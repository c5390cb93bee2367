package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/rag"
	"alfredoptarigan/resume-matcher/internal/services"
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>...",
	Short: "Show how files would be chunked, without storing or embedding anything",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roleFlag, _ := cmd.Flags().GetString("role")
		role, err := models.ParseRole(roleFlag)
		if err != nil {
			return err
		}
		size, _ := cmd.Flags().GetInt("chunk-size")
		overlap, _ := cmd.Flags().GetInt("chunk-overlap")
		verbose, _ := cmd.Flags().GetBool("chunks")
		return preview(args, role, size, overlap, verbose)
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringP("role", "r", "resume", "document role: resume or job_description")
	previewCmd.Flags().Int("chunk-size", 0, "override the role's default chunk size")
	previewCmd.Flags().Int("chunk-overlap", 0, "override the role's default chunk overlap")
	previewCmd.Flags().Bool("chunks", false, "print every chunk")
}

func preview(paths []string, role models.Role, size, overlap int, verbose bool) error {
	zlog, err := logger.New(false, false)
	if err != nil {
		return err
	}
	parser := services.NewPDFParserService(zlog)

	inputs := make([]rag.BatchInput, 0, len(paths))
	for _, path := range paths {
		text, err := readText(parser, path)
		if err != nil {
			zlog.Warn("⚠️ Skipping file", zap.String("path", path), zap.Error(err))
			continue
		}
		inputs = append(inputs, rag.BatchInput{Source: filepath.Base(path), Text: text})
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no readable files")
	}

	cfg := rag.DefaultChunkConfig(role)
	if size > 0 {
		cfg.ChunkSize = size
	}
	if overlap > 0 {
		cfg.ChunkOverlap = overlap
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	batch := rag.NewChunker(nil).SplitBatch(inputs, role, cfg)

	chunks := make([]models.Chunk, len(batch))
	perSource := make(map[string]int)
	for i, bc := range batch {
		chunks[i] = bc.Chunk
		perSource[bc.Source]++
	}
	rag.AddTokenCounts(chunks)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if verbose {
		fmt.Fprintln(w, "#\tSOURCE\tSECTION\tTOKENS\tPREVIEW")
		for i, bc := range batch {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", bc.GlobalIndex, bc.Source, chunks[i].SectionType, chunks[i].TokenCount,
				strings.ReplaceAll(logger.Truncate(chunks[i].Content, 60), "\n", " "))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "SOURCE\tCHUNKS")
	for _, in := range inputs {
		fmt.Fprintf(w, "%s\t%d\n", in.Source, perSource[in.Source])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	return printJSON(rag.Summarize(chunks))
}

func readText(parser services.PDFParserService, path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		content, err := parser.Extract(path)
		if err != nil {
			return "", err
		}
		return rag.CleanText(content.Text, true), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := string(data)
	if rag.LooksLikeHTML(text) {
		if text, err = rag.StripHTML(text); err != nil {
			return "", err
		}
	}
	return rag.CleanText(text, false), nil
}
