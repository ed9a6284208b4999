package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/domain/types"
	"github.com/clipline/clipline/pkg/infra/memory"
	"github.com/clipline/clipline/pkg/usecase"
)

func TestDeduplicator_ShouldProcess(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sinks := []types.SinkID{"notion", "telegram"}
	dedup := usecase.NewDeduplicator(store, sinks)

	hash := model.HashText("some content")

	t.Run("unseen content needs all sinks", func(t *testing.T) {
		missing := gt.R1(dedup.ShouldProcess(ctx, hash)).NoError(t)
		gt.Array(t, missing).Equal(sinks)
	})

	t.Run("partially delivered content needs the remainder", func(t *testing.T) {
		gt.R1(store.InsertIfAbsent(ctx, &model.DeliveryRecord{
			Hash:        hash,
			SinkID:      "notion",
			DeliveredAt: time.Now(),
		})).NoError(t)

		missing := gt.R1(dedup.ShouldProcess(ctx, hash)).NoError(t)
		gt.Array(t, missing).Equal([]types.SinkID{"telegram"})
	})

	t.Run("fully delivered content is skipped", func(t *testing.T) {
		gt.R1(store.InsertIfAbsent(ctx, &model.DeliveryRecord{
			Hash:        hash,
			SinkID:      "telegram",
			DeliveredAt: time.Now(),
		})).NoError(t)

		missing := gt.R1(dedup.ShouldProcess(ctx, hash)).NoError(t)
		gt.Array(t, missing).Length(0)
	})

	t.Run("different content is independent", func(t *testing.T) {
		missing := gt.R1(dedup.ShouldProcess(ctx, model.HashText("other content"))).NoError(t)
		gt.Array(t, missing).Equal(sinks)
	})
}
