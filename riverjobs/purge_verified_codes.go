package riverjobs

import (
	"context"
	"errors"
	"time"

	"github.com/riverqueue/river"

	"github.com/open-rails/verifykit/core"
)

type PurgeVerifiedCodesArgs struct {
	BatchSize int `json:"batch_size,omitempty"`
}

func (PurgeVerifiedCodesArgs) Kind() string { return "verifykit_purge_verified_codes" }

func (args PurgeVerifiedCodesArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue: river.QueueDefault,
		UniqueOpts: river.UniqueOpts{
			ByArgs:   true,
			ByPeriod: 24 * time.Hour,
			ByQueue:  true,
		},
	}
}

// PurgeVerifiedCodesWorker clears leftover verification codes from profiles
// that are already verified. Confirmation clears the column on the happy path;
// this sweep catches rows verified through side channels (imports, admin
// updates) that still carry a stale code.
type PurgeVerifiedCodesWorker struct {
	river.WorkerDefaults[PurgeVerifiedCodesArgs]
	store core.ProfileStore
}

func NewPurgeVerifiedCodesWorker(store core.ProfileStore) *PurgeVerifiedCodesWorker {
	return &PurgeVerifiedCodesWorker{store: store}
}

func (w *PurgeVerifiedCodesWorker) Timeout(*river.Job[PurgeVerifiedCodesArgs]) time.Duration {
	return 10 * time.Minute
}

func (w *PurgeVerifiedCodesWorker) Work(ctx context.Context, job *river.Job[PurgeVerifiedCodesArgs]) error {
	if w == nil || w.store == nil {
		return errors.New("verifykit purge: profile store not configured")
	}
	batch := job.Args.BatchSize
	if batch <= 0 {
		batch = 500
	}
	_, err := w.store.PurgeVerifiedCodes(ctx, batch)
	return err
}
