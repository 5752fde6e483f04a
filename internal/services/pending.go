package services

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"xiaofei/internal/api"
	"xiaofei/internal/log"
	"xiaofei/internal/ui"
)

// pendingCallTimeout bounds the shared backend call, which outlives the
// request that started it.
const pendingCallTimeout = 10 * time.Second

// PendingCounter reads the pending badge count. Concurrent page loads share
// one backend call; the result is never cached. A failure shows as zero.
type PendingCounter struct {
	reader  api.PendingReader
	group   singleflight.Group
	timeout time.Duration
	logFail func(error)
}

// NewPendingCounter logs at most one failure per logEvery.
func NewPendingCounter(reader api.PendingReader, logger *slog.Logger, logEvery time.Duration) *PendingCounter {
	if logger == nil {
		logger = slog.Default()
	}
	return &PendingCounter{
		reader:  reader,
		timeout: pendingCallTimeout,
		logFail: ui.Throttle(func(err error) {
			logger.Error("更新待收货数量失败",
				log.FieldError, err,
				log.FieldErrorType, errorType(err))
		}, logEvery),
	}
}

// Count never fails; errors are logged and reported as zero. A caller whose
// ctx ends stops waiting without cancelling the call others share.
func (p *PendingCounter) Count(ctx context.Context) int {
	ch := p.group.DoChan("pending", func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		return p.reader.PendingCount(callCtx)
	})
	select {
	case <-ctx.Done():
		return 0
	case res := <-ch:
		if res.Err != nil {
			p.logFail(res.Err)
			return 0
		}
		return res.Val.(int)
	}
}

func errorType(err error) string {
	if api.IsTransport(err) {
		return log.ErrorTypeNetwork
	}
	return log.ErrorTypeAPI
}
