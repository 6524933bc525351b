package logger

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// GormLogger routes gorm's statement log through logrus
type GormLogger struct {
	entry    *logrus.Entry
	LogLevel gormlogger.LogLevel
}

func NewGormLogger() *GormLogger {
	return &GormLogger{entry: WithComponent("gorm"), LogLevel: gormlogger.Warn}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.LogLevel = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Info {
		l.entry.WithContext(ctx).WithField("data", data).Info(msg)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Warn {
		l.entry.WithContext(ctx).WithField("data", data).Warn(msg)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Error {
		l.entry.WithContext(ctx).WithField("data", data).Error(msg)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	entry := l.entry.WithContext(ctx).WithFields(logrus.Fields{
		"sql":     sql,
		"latency": elapsed.String(),
		"rows":    rows,
	})

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		// unique-pair races are resolved by the caller
		entry.Debug("duplicate key")
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && l.LogLevel >= gormlogger.Error:
		entry.WithError(err).Error("query failed")
	case elapsed > slowQueryThreshold && l.LogLevel >= gormlogger.Warn:
		entry.Warn("slow query")
	case l.LogLevel >= gormlogger.Info:
		entry.Debug("query")
	}
}
