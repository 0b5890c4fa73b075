package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pagemint/pagemint/internal/compress"
	"github.com/pagemint/pagemint/internal/config"
	"github.com/pagemint/pagemint/internal/queue"
	"github.com/pagemint/pagemint/internal/service"
	"github.com/pagemint/pagemint/internal/store"
)

// newService wires a DocumentService against the configured database. The
// CLI talks to the store directly; the cache and queue stay off unless
// configured.
func newService() *service.DocumentService {
	cnf := config.LoadConfig()

	docStore := store.NewGormStore(config.GetDb(cnf))
	if err := docStore.Migrate(); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}

	var changeQueue queue.DocumentQueue
	if cnf.KafkaBrokers != "" {
		var err error
		changeQueue, err = queue.NewKafkaQueue(cnf.KafkaBrokers)
		if err != nil {
			logrus.Fatalf("failed to connect change queue: %v", err)
		}
	}

	return service.NewDocumentService(compress.FromName(cnf.Compression), docStore, nil, changeQueue)
}

func checkMissingFlags(cmd *cobra.Command, required []string) bool {
	missing := false
	for _, name := range required {
		if !cmd.Flags().Changed(name) {
			logrus.Errorf("missing required flag: --%s", name)
			missing = true
		}
	}
	return missing
}
