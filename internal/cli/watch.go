package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/services"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Ingest PDFs dropped into <dir>/resume and <dir>/job_description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settle, _ := cmd.Flags().GetDuration("settle")
		return watch(commandContext(cmd), args[0], settle)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("settle", 2*time.Second, "how long a file must stay unchanged before it is ingested")
}

func watch(ctx context.Context, dir string, settle time.Duration) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, _, zlog := loadServices(ctx)
	defer svc.Close()

	watcher := services.NewDirectoryWatcher(dir, svc.Documents, svc.Ingestion, settle, zlog)
	zlog.Info("👀 Watching for documents",
		zap.String("resumes", watcher.RoleDir(models.RoleResume)),
		zap.String("job_descriptions", watcher.RoleDir(models.RoleJobDescription)),
	)

	return watcher.Run(ctx)
}
