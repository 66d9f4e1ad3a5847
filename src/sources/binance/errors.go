package binance

import (
	"context"
	"errors"
	"fmt"

	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"github.com/adshao/go-binance/v2/common"
	"go.uber.org/zap"
)

// API error codes worth retrying.
var transientCodes = map[int64]bool{
	-1000: true, // unknown error
	-1001: true, // disconnected
	-1003: true, // too many requests
	-1007: true, // timeout waiting for backend
	-1015: true, // too many new orders
	-1021: true, // timestamp outside recv window
	-2013: true, // order does not exist (yet)
}

// Classify wraps err with interfaces.ErrTransient or interfaces.ErrRejected.
// Cancellation passes through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		if transientCodes[apiErr.Code] {
			return fmt.Errorf("%w: %w", interfaces.ErrTransient, err)
		}
		return fmt.Errorf("%w: %w", interfaces.ErrRejected, err)
	}
	return fmt.Errorf("%w: %w", interfaces.ErrTransient, err)
}

func (c *Connector) classify(op string, err error) error {
	err = Classify(err)
	c.Log.Debug("binance request failed", zap.String("op", op), zap.Error(err))
	if errors.Is(err, interfaces.ErrRejected) {
		c.Statsd.Inc("binance.rejected")
	}
	return fmt.Errorf("%s: %w", op, err)
}
