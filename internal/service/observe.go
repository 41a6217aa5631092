package service

import (
	"context"

	"github.com/segyhp/lending-core/internal/domain"
	"github.com/segyhp/lending-core/internal/metrics"
	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/sirupsen/logrus"
)

const outcomeOK = "ok"

// observe records the outcome of a use case: a metric for every call, an
// info line on success, a warning for rejected input and an error for
// infrastructure failures.
func observe(log *logrus.Logger, usecase string, err error, fields logrus.Fields) {
	outcome := outcomeOK
	if err != nil {
		outcome = customError.KindOf(err)
	}
	metrics.UseCaseTotal.WithLabelValues(usecase, outcome).Inc()

	entry := log.WithFields(fields).WithField("usecase", usecase)
	switch outcome {
	case outcomeOK:
		entry.Info("use case completed")
	case customError.KindInternal:
		entry.WithError(err).Error("use case failed")
	default:
		entry.WithError(err).WithField("code", customError.CodeOf(err)).Warn("use case rejected")
	}
}

// publish hands committed audit events to the publisher. Failures are logged
// only: the audit table already holds the durable record.
func publish(ctx context.Context, publisher EventPublisher, log *logrus.Logger, events ...domain.AuditEvent) {
	for _, event := range events {
		if err := publisher.Publish(ctx, event); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"action":   event.Action,
				"event_id": event.ID,
			}).Warn("failed to publish audit event")
		}
	}
}
