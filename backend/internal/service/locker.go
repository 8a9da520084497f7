package service

import (
	"context"
	"errors"
	"time"

	"github.com/EagleChen/mapmutex"
	"go.uber.org/zap"

	"github.com/ockci/smartflow/backend/pkg/redis"
)

// GenerationLocker 租户级排产互斥
// 同一租户同一时刻只允许一个生成请求；拿不到锁立即失败，不排队
type GenerationLocker interface {
	TryAcquire(ctx context.Context, tenantID string) (release func(), err error)
}

type generationLocker struct {
	local  *mapmutex.Mutex
	rdb    *redis.Client // 可为 nil：单实例部署只用进程内锁
	ttl    time.Duration
	logger *zap.Logger
}

// NewGenerationLocker 进程内 mapmutex + 可选的 Redis SET NX 锁
func NewGenerationLocker(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) GenerationLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &generationLocker{
		// 只尝试一次：并发生成直接返回冲突
		local:  mapmutex.NewCustomizedMapMutex(1, 1000000, 10, 1.1, 0.2),
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func (l *generationLocker) TryAcquire(ctx context.Context, tenantID string) (func(), error) {
	if !l.local.TryLock(tenantID) {
		return nil, ErrGenerationInProgress
	}
	if l.rdb == nil {
		return func() { l.local.Unlock(tenantID) }, nil
	}

	lock, err := l.rdb.AcquireLock(ctx, "schedule:generate:"+tenantID, l.ttl)
	if err != nil {
		l.local.Unlock(tenantID)
		if errors.Is(err, redis.ErrLockHeld) {
			return nil, ErrGenerationInProgress
		}
		return nil, err
	}

	return func() {
		// 请求 ctx 可能已取消，释放锁使用独立超时
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := l.rdb.ReleaseLock(releaseCtx, lock); err != nil {
			l.logger.Warn("释放排产锁失败，等待过期", zap.String("tenant_id", tenantID), zap.Error(err))
		}
		l.local.Unlock(tenantID)
	}, nil
}
