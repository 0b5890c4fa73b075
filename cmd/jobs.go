package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pagemint/pagemint/internal/compress"
	"github.com/pagemint/pagemint/internal/config"
	"github.com/pagemint/pagemint/internal/jobs"
	"github.com/pagemint/pagemint/internal/steplog"
	"github.com/pagemint/pagemint/internal/store"
)

// compactionThreshold is how many steps may pile up past the snapshot before
// the compactor folds them.
const compactionThreshold = 100

func init() {
	rootCmd.AddCommand(jobsCmd())
}

func jobsCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "jobs",
		Short: "run the background jobs (link sweeper, snapshot compactor)",
		Run: func(cmd *cobra.Command, args []string) {
			cnf := config.LoadConfig()

			docStore := store.NewGormStore(config.GetDb(cnf))
			if err := docStore.Migrate(); err != nil {
				logrus.Fatalf("migration failed: %v", err)
			}

			log := steplog.NewGormLog(docStore, compress.FromName(cnf.Compression))

			executor := jobs.NewTaskExecutor([]jobs.CronJob{
				jobs.NewLinkSweeper("@every 1m", docStore),
				jobs.NewSnapshotCompactor("@every 5m", docStore, log, compactionThreshold),
			})
			executor.Run()
			logrus.Info("background jobs running, press Ctrl+C to stop")

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
			<-sigs

			executor.Stop()
		},
	}

	return command
}
