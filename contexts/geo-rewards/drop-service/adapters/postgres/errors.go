package postgresadapter

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"math/rand/v2"
	"net"
	"strings"
	"time"

	domainerrors "moveserver/contexts/geo-rewards/drop-service/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func isUniqueViolation(err error) bool {
	return sqlState(err) == "23505"
}

func isForeignKeyViolation(err error) bool {
	return sqlState(err) == "23503"
}

// isSerializationFailure covers serialization_failure and deadlock_detected.
func isSerializationFailure(err error) bool {
	switch sqlState(err) {
	case "40001", "40P01":
		return true
	default:
		return false
	}
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isDomainError(err error) bool {
	return errors.Is(err, domainerrors.ErrDropNotFound) ||
		errors.Is(err, domainerrors.ErrAlreadyClaimed) ||
		errors.Is(err, domainerrors.ErrInvalidDropInput) ||
		errors.Is(err, domainerrors.ErrInvalidClaimPayload) ||
		errors.Is(err, domainerrors.ErrBackendUnavailable)
}

// classify marks connectivity-class failures with ErrBackendUnavailable so
// the failover policy can recognize them. Other errors pass through.
func classify(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	if isUnavailable(err) {
		return errors.Join(domainerrors.ErrBackendUnavailable, err)
	}
	return err
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	state := sqlState(err)
	switch {
	case strings.HasPrefix(state, "08"),
		state == "53300",
		state == "57P01",
		state == "57P02",
		state == "57P03":
		return true
	case state != "":
		return false
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	return errors.As(err, &connectErr) ||
		errors.As(err, &netErr) ||
		pgconn.Timeout(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}

const (
	backoffBase = 5 * time.Millisecond
	backoffMax  = 250 * time.Millisecond
)

// backoff sleeps with full jitter over an exponentially growing window.
func backoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(backoffDelay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func backoffDelay(attempt int) time.Duration {
	window := backoffMax
	if attempt < 6 {
		window = min(backoffBase<<attempt, backoffMax)
	}
	return window/2 + time.Duration(rand.Int64N(int64(window/2)+1))
}
