package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/unclebandit/deskagent/internal/automation"
	"github.com/unclebandit/deskagent/internal/backup"
	"github.com/unclebandit/deskagent/internal/config"
	"github.com/unclebandit/deskagent/internal/logging"
	"github.com/unclebandit/deskagent/internal/repository"
	"github.com/unclebandit/deskagent/internal/service"
)

var (
	cfg     *config.Config
	repo    *repository.CampaignRepository
	svc     *service.CampaignService
	backups *backup.Manager
)

var rootCmd = &cobra.Command{
	Use:           "deskagent",
	Short:         "deskagent manages the fundraising campaign store.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logging.Configure(cfg.LogLevel)

		repo = repository.NewCampaignRepository(cfg.CSVPath)
		backups = backup.NewManager(cfg.CSVPath, cfg.BackupRetain)
		svc = &service.CampaignService{
			CampaignRepo:        repo,
			Topic:               cfg.CreationQueue,
			DefaultCategory:     cfg.Campaign.Category,
			DefaultTargetAmount: cfg.Campaign.TargetAmount,
		}
		if cfg.Automation.URL != "" {
			svc.Creator = automation.NewClient(cfg.Automation.URL, cfg.Automation.Timeout)
		}
		return nil
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable(out io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(header)
	return t
}

// truncate shortens long free-text cells for table output.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
