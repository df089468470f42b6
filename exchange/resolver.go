package exchange

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrNoSymbol means the venue does not list the pair at all. It is never retried.
var ErrNoSymbol = errors.New("pair not offered on this exchange")

// AllCandidatesFailedError is returned once every candidate symbol has been tried.
type AllCandidatesFailedError struct {
	Tried []string
	Errs  []error
}

func (e *AllCandidatesFailedError) Error() string {
	parts := make([]string, len(e.Tried))
	for i, symbol := range e.Tried {
		parts[i] = fmt.Sprintf("%s: %v", symbol, e.Errs[i])
	}
	return "all candidates failed (" + strings.Join(parts, "; ") + ")"
}

// resolve tries candidates strictly in order and returns the first success with the symbol that produced it.
// Individual failures only reach the debug log and the exhaustion error.
func resolve[T any](ctx context.Context, candidates []string, attempt func(context.Context, string) (T, error)) (T, string, error) {
	var zero T
	if len(candidates) == 0 {
		return zero, "", ErrNoSymbol
	}

	failed := &AllCandidatesFailedError{}
	for _, symbol := range candidates {
		if ctx.Err() != nil {
			break
		}
		data, err := attempt(ctx, symbol)
		if err == nil {
			return data, symbol, nil
		}
		logrus.WithError(err).WithField("symbol", symbol).Debug("Candidate symbol failed, trying next")
		failed.Tried = append(failed.Tried, symbol)
		failed.Errs = append(failed.Errs, err)
	}
	if len(failed.Tried) == 0 {
		return zero, "", errors.Wrap(ctx.Err(), "resolve symbol")
	}
	return zero, "", failed
}
