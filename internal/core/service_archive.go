package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"labcore/internal/blob"
	"labcore/pkg/domain"
)

// RunArchive identifies an archived set of run artifacts.
type RunArchive struct {
	RunID uuid.UUID
	Keys  []string
}

// ArchiveRun generates every instrument artifact reachable from a sequencing
// run and stores them immutably under runs/<uuid>/.
func (s *Service) ArchiveRun(ctx context.Context, store blob.Store, sequencingProcessID int64) (RunArchive, error) {
	runID := uuid.New()
	archive := RunArchive{RunID: runID}

	sheet, err := s.GenerateSampleSheet(ctx, sequencingProcessID)
	if err != nil {
		return RunArchive{}, err
	}
	artifacts := []struct {
		name, contentType, body string
	}{
		{"SampleSheet.csv", "text/csv", sheet},
	}

	poolingIDs, err := s.poolingProcessesForRun(ctx, sequencingProcessID)
	if err != nil {
		return RunArchive{}, err
	}
	for _, poolingID := range poolingIDs {
		epmotion, err := s.GenerateEpMotionPoolFile(ctx, poolingID)
		if err != nil {
			return RunArchive{}, err
		}
		artifacts = append(artifacts, struct{ name, contentType, body string }{
			fmt.Sprintf("EpMotion_pool_%d.csv", poolingID), "text/csv", epmotion,
		})
		picklist, err := s.GeneratePoolPicklist(ctx, poolingID)
		if err != nil {
			return RunArchive{}, err
		}
		artifacts = append(artifacts, struct{ name, contentType, body string }{
			fmt.Sprintf("Echo_pool_%d.csv", poolingID), "text/csv", picklist,
		})
	}

	for _, artifact := range artifacts {
		key := fmt.Sprintf("runs/%s/%s", runID, artifact.name)
		if _, err := store.Put(ctx, key, strings.NewReader(artifact.body), blob.PutOptions{
			ContentType: artifact.contentType,
			Metadata:    map[string]string{"sequencing_process_id": fmt.Sprintf("%d", sequencingProcessID)},
		}); err != nil {
			return RunArchive{}, err
		}
		archive.Keys = append(archive.Keys, key)
	}
	s.logger.Info("run artifacts archived",
		zap.String("run_id", runID.String()),
		zap.Int64("sequencing_process_id", sequencingProcessID),
		zap.Int("artifacts", len(archive.Keys)))
	return archive, nil
}

// poolingProcessesForRun resolves the pooling process behind each pool of a
// sequencing run, deduplicated in lane order.
func (s *Service) poolingProcessesForRun(ctx context.Context, sequencingProcessID int64) ([]int64, error) {
	var ids []int64
	err := s.view(ctx, "pooling_processes_for_run", func(view TransactionView) error {
		process, err := view.ProcessByID(sequencingProcessID)
		if err != nil {
			return err
		}
		seq, ok := process.(domain.SequencingProcess)
		if !ok {
			return domain.Invalidf("process %d is not a sequencing process", sequencingProcessID)
		}
		seen := make(map[int64]struct{})
		for _, poolID := range seq.PoolIDs {
			pool, ok := view.FindPoolComposition(poolID)
			if !ok {
				return domain.UnknownIDError{Entity: domain.EntityComposition, ID: poolID}
			}
			if _, dup := seen[pool.ProcessID]; dup {
				continue
			}
			seen[pool.ProcessID] = struct{}{}
			ids = append(ids, pool.ProcessID)
		}
		return nil
	})
	return ids, err
}
