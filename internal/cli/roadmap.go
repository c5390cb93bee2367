package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/services"
)

var roadmapCmd = &cobra.Command{
	Use:   "roadmap <resume-id> <jd-id>",
	Short: "Generate a weekly learning roadmap that closes the gaps",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		interactive, _ := cmd.Flags().GetBool("interactive")
		if !interactive {
			if err := cobra.ExactArgs(2)(cmd, args); err != nil {
				return err
			}
		}
		weeks, _ := cmd.Flags().GetInt("weeks")
		out, _ := cmd.Flags().GetString("out")
		return generateRoadmap(commandContext(cmd), args, interactive, weeks, out)
	},
}

func init() {
	rootCmd.AddCommand(roadmapCmd)

	roadmapCmd.Flags().IntP("weeks", "w", services.DefaultRoadmapWeeks, "roadmap length in weeks (4-12)")
	roadmapCmd.Flags().BoolP("interactive", "i", false, "pick the resume and job description from a list")
	roadmapCmd.Flags().StringP("out", "o", "", "write the roadmap JSON to this file instead of stdout")
}

func generateRoadmap(ctx context.Context, args []string, interactive bool, weeks int, out string) error {
	svc, _, zlog := loadServices(ctx)
	defer svc.Close()

	resumeID, jdID, err := resolvePair(ctx, svc.Documents, args, interactive)
	if err != nil {
		return err
	}

	plan, err := svc.Roadmap.Generate(ctx, resumeID, jdID, weeks)
	if err != nil {
		return err
	}

	if out == "" {
		return printJSON(plan)
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	zlog.Info("🗺️ Roadmap written", zap.String("path", out), zap.Int("weeks", plan.TotalWeeks))
	return nil
}
