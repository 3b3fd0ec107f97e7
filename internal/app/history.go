package app

import (
	"context"

	"pubcheck/internal/config"
	"pubcheck/internal/storage"
	logx "pubcheck/pkg/logx"
)

// History returns up to limit audit records, newest first. It only needs the
// storage section, so cfg does not have to pass full validation.
func History(ctx context.Context, cfg *config.Config, limit int, log logx.Logger) ([]storage.RunRecord, error) {
	sc, enabled, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, storage.ErrDisabled
	}
	st, err := storage.Open(sc, log)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.RecentRuns(ctx, limit)
}
