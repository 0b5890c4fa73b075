package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pagemint/pagemint/internal/store"
)

// LinkSweeper disables web links whose expiry has passed. The permission
// resolver already treats an expired link as private, so the sweep only keeps
// the stored flags tidy.
type LinkSweeper struct {
	store store.Store
	cron  string
}

func NewLinkSweeper(interval string, store store.Store) *LinkSweeper {
	return &LinkSweeper{
		store: store,
		cron:  interval,
	}
}

func (s *LinkSweeper) Schedule() string {
	return s.cron
}

func (s *LinkSweeper) Run() {
	ctx := context.Background()

	docs, err := s.store.ListExpiredWebLinks(ctx, time.Now().UnixMilli())
	if err != nil {
		logrus.Errorf("link sweep failed to list expired links: %v", err)
		return
	}

	for _, doc := range docs {
		doc.WebLinkEnabled = false
		doc.PublicLinkExpiresAt = nil
		if err := s.store.UpdateDocument(ctx, doc); err != nil {
			logrus.Errorf("link sweep failed to disable link on %s: %v", doc.ID, err)
			continue
		}
		logrus.Infof("disabled expired web link on document %s", doc.ID)
	}
}
