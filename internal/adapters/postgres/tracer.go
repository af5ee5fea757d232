package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ai-newsletter/subscription-api/internal/platform/metrics"
)

type queryStartKey struct{}

type queryStart struct {
	at  time.Time
	sql string
}

// QueryTracer is a pgx.QueryTracer that records query latency and logs slow queries.
type QueryTracer struct {
	logger        *zap.Logger
	slowThreshold time.Duration
}

func NewQueryTracer(logger *zap.Logger, slowThreshold time.Duration) *QueryTracer {
	if slowThreshold <= 0 {
		slowThreshold = 100 * time.Millisecond
	}
	return &QueryTracer{logger: logger, slowThreshold: slowThreshold}
}

func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{at: time.Now(), sql: data.SQL})
}

func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	took := time.Since(start.at)
	slow := took > t.slowThreshold
	metrics.RecordDBQueryDuration("postgres", slow, took)
	if !slow {
		return
	}

	sql := start.sql
	if len(sql) > 200 {
		sql = sql[:200] + "..."
	}
	t.logger.Warn("slow-query",
		zap.String("sql", sql),
		zap.Duration("took", took),
		zap.String("command_tag", data.CommandTag.String()),
		zap.Error(data.Err),
	)
}
