// Package logging provides the structured, correlation-ID-aware logger
// shared by every core package.
package logging

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

type ErrorRateLimiter struct {
	mu            sync.Mutex
	errorCounts   map[string]*errorEntry
	cleanupTicker *time.Ticker
}

type errorEntry struct {
	count      int
	firstSeen  time.Time
	lastLogged time.Time
	suppressed int
}

var (
	rateLimiter     *ErrorRateLimiter
	rateLimitWindow = 1 * time.Minute
	maxErrorsPerMin = 5
)

func NewErrorRateLimiter() *ErrorRateLimiter {
	limiter := &ErrorRateLimiter{
		errorCounts:   make(map[string]*errorEntry),
		cleanupTicker: time.NewTicker(5 * time.Minute),
	}

	go func() {
		for range limiter.cleanupTicker.C {
			limiter.cleanup()
		}
	}()

	return limiter
}

func (rl *ErrorRateLimiter) ShouldLog(errorKey string) (shouldLog bool, suppressedCount int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, exists := rl.errorCounts[errorKey]

	if !exists {
		rl.errorCounts[errorKey] = &errorEntry{
			count:      1,
			firstSeen:  now,
			lastLogged: now,
		}
		return true, 0
	}

	if now.Sub(entry.firstSeen) > rateLimitWindow {
		suppressedCount = entry.suppressed
		rl.errorCounts[errorKey] = &errorEntry{
			count:      1,
			firstSeen:  now,
			lastLogged: now,
		}
		return true, suppressedCount
	}

	entry.count++

	if entry.count <= maxErrorsPerMin {
		entry.lastLogged = now
		return true, 0
	}

	entry.suppressed++
	return false, 0
}

func (rl *ErrorRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, entry := range rl.errorCounts {
		if now.Sub(entry.lastLogged) > 10*time.Minute {
			delete(rl.errorCounts, key)
		}
	}
}

// InitLogger initializes the structured logger with JSON format.
func InitLogger() *logrus.Logger {
	log = logrus.New()

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "ts",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	log.SetOutput(os.Stdout)

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	rateLimiter = NewErrorRateLimiter()

	log.WithFields(logrus.Fields{
		"event":              "logger_initialized",
		"level":              log.Level.String(),
		"rate_limit_enabled": true,
		"max_errors_per_min": maxErrorsPerMin,
	}).Info("structured logging initialized")

	return log
}

// NewCorrelationID generates a new correlation ID for request tracing.
func NewCorrelationID() string {
	return uuid.New().String()
}

// WithCorrelationID returns logger fields carrying a correlation ID.
func WithCorrelationID(correlationID string) logrus.Fields {
	return logrus.Fields{"correlation_id": correlationID}
}

// GetLogger returns the process-wide logger, initializing it on first use.
func GetLogger() *logrus.Logger {
	if log == nil {
		return InitLogger()
	}
	return log
}

// Event types as constants.
const (
	EventOrderAccepted  = "order_accepted"
	EventOrderRested    = "order_rested"
	EventOrderMatched   = "order_matched"
	EventOrderCancelled = "order_cancelled"
	EventOrderRejected  = "order_rejected"
	EventOrderUnmatched = "order_unmatched"
	EventTradeExecuted  = "trade_executed"
	EventEngineStarted  = "engine_started"
	EventEngineStopped  = "engine_stopped"
	EventMailboxFull    = "mailbox_full"
)

// LogOrderAccepted logs an order that passed validation and entered the mailbox.
func LogOrderAccepted(correlationID string, orderID int64, instrument, side string) {
	fields := logrus.Fields{
		"event":      EventOrderAccepted,
		"order_id":   orderID,
		"instrument": instrument,
		"side":       side,
	}
	if correlationID != "" {
		fields["correlation_id"] = correlationID
	}
	GetLogger().WithFields(fields).Info("order accepted")
}

// LogOrderRested logs an order (or a residual of one) that came to rest.
func LogOrderRested(orderID int64, instrument string, price, size string) {
	GetLogger().WithFields(logrus.Fields{
		"event":      EventOrderRested,
		"order_id":   orderID,
		"instrument": instrument,
		"price":      price,
		"size":       size,
	}).Info("order rested")
}

// LogTradeExecuted logs a single execution.
func LogTradeExecuted(tradeID string, buyOrderID, sellOrderID int64, instrument, price, size string) {
	GetLogger().WithFields(logrus.Fields{
		"event":         EventTradeExecuted,
		"trade_id":      tradeID,
		"buy_order_id":  buyOrderID,
		"sell_order_id": sellOrderID,
		"instrument":    instrument,
		"price":         price,
		"size":          size,
	}).Info("trade executed")
}

// LogOrderCancelled logs a successful cancel.
func LogOrderCancelled(orderID int64, instrument string) {
	GetLogger().WithFields(logrus.Fields{
		"event":      EventOrderCancelled,
		"order_id":   orderID,
		"instrument": instrument,
	}).Info("order cancelled")
}

// LogOrderRejected logs an order that failed validation before entering
// the book, rate-limited per distinct reason so a bad client cannot flood
// the log.
func LogOrderRejected(orderID int64, instrument, reason string) {
	errorKey := fmt.Sprintf("reject:%s:%s", instrument, reason)
	shouldLog, suppressed := rateLimiter.ShouldLog(errorKey)
	if !shouldLog {
		return
	}
	fields := logrus.Fields{
		"event":      EventOrderRejected,
		"order_id":   orderID,
		"instrument": instrument,
		"reason":     reason,
	}
	if suppressed > 0 {
		fields["suppressed_count"] = suppressed
	}
	GetLogger().WithFields(fields).Warn("order rejected")
}

// LogOrderUnmatched logs an order or residual dropped to the unmatched queue.
func LogOrderUnmatched(orderID int64, instrument, reason, size string) {
	GetLogger().WithFields(logrus.Fields{
		"event":      EventOrderUnmatched,
		"order_id":   orderID,
		"instrument": instrument,
		"reason":     reason,
		"size":       size,
	}).Info("order unmatched")
}

// LogEngineStarted logs an engine's worker goroutine coming up.
func LogEngineStarted(instrument string) {
	GetLogger().WithFields(logrus.Fields{
		"event":      EventEngineStarted,
		"instrument": instrument,
	}).Info("engine started")
}

// LogEngineStopped logs an engine's worker goroutine shutting down.
func LogEngineStopped(instrument string) {
	GetLogger().WithFields(logrus.Fields{
		"event":      EventEngineStopped,
		"instrument": instrument,
	}).Info("engine stopped")
}

// LogMailboxFull logs a command dropped because the engine's mailbox was
// saturated, rate-limited so a sustained overload does not itself become
// a logging bottleneck.
func LogMailboxFull(instrument string) {
	shouldLog, suppressed := rateLimiter.ShouldLog("mailbox_full:" + instrument)
	if !shouldLog {
		return
	}
	fields := logrus.Fields{
		"event":      EventMailboxFull,
		"instrument": instrument,
	}
	if suppressed > 0 {
		fields["suppressed_count"] = suppressed
	}
	GetLogger().WithFields(fields).Error("mailbox full")
}

// LogWithFields provides a flexible, level-parameterized logging call.
func LogWithFields(level logrus.Level, message string, fields logrus.Fields) {
	GetLogger().WithFields(fields).Log(level, message)
}
