// Package predict is the boundary to the word prediction engine. The engine
// runs out of process and is treated as a black box.
package predict

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"appagent/internal/metrics"
)

// Predictor returns candidate words for the word being typed.
type Predictor interface {
	Predict(ctx context.Context, prevWords, currentWord string) ([]string, error)
}

// Func adapts a function to Predictor.
type Func func(ctx context.Context, prevWords, currentWord string) ([]string, error)

func (f Func) Predict(ctx context.Context, prevWords, currentWord string) ([]string, error) {
	return f(ctx, prevWords, currentWord)
}

// Disabled predicts nothing. It is used when no engine is configured.
var Disabled = Func(func(context.Context, string, string) ([]string, error) { return nil, nil })

// ExecPredictor runs an external command per request. The previous words and
// the current word are appended as the last two arguments; every non-empty
// line of output is a candidate.
type ExecPredictor struct {
	command []string
	timeout time.Duration
}

func NewExecPredictor(command []string, timeout time.Duration) (*ExecPredictor, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, errors.New("predictor command is empty")
	}
	if timeout <= 0 {
		timeout = time.Second
	}
	return &ExecPredictor{command: append([]string(nil), command...), timeout: timeout}, nil
}

func (p *ExecPredictor) Predict(ctx context.Context, prevWords, currentWord string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := append(append([]string(nil), p.command[1:]...), prevWords, currentWord)
	cmd := exec.CommandContext(ctx, p.command[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// Children that inherit stdout must not hold Output past the deadline.
	cmd.WaitDelay = 100 * time.Millisecond

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "predictor timed out")
		}
		return nil, errors.Wrapf(err, "predictor failed: %s", strings.TrimSpace(stderr.String()))
	}

	var words []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		if w := strings.TrimSpace(sc.Text()); w != "" {
			words = append(words, w)
		}
	}
	return words, sc.Err()
}

var nonPrintable = regexp.MustCompile(`[^ -~]`)

// Guard cleans up an engine's answers and keeps its failures away from the
// caller: errors and panics become an empty result.
type Guard struct {
	next      Predictor
	wordCount int
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewGuard(next Predictor, wordCount int, logger *zap.Logger, m *metrics.Metrics) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if next == nil {
		next = Disabled
	}
	return &Guard{next: next, wordCount: wordCount, logger: logger.Named("predict"), metrics: m}
}

// Predict never returns an error. Candidates are stripped of characters
// outside printable ASCII, must start with currentWord (ignoring case) and
// are capped at the configured word count.
func (g *Guard) Predict(ctx context.Context, prevWords, currentWord string) (words []string, _ error) {
	start := time.Now()
	status := "ok"
	defer func() {
		if r := recover(); r != nil {
			words, status = nil, "panic"
			g.logger.Error("predictor panicked", zap.Any("panic", r))
		}
		g.metrics.RecordPrediction(status, time.Since(start))
	}()

	raw, err := g.next.Predict(ctx, prevWords, currentWord)
	if err != nil {
		status = "error"
		g.logger.Debug("prediction failed",
			zap.String("prev", prevWords),
			zap.String("current", currentWord),
			zap.Error(err),
		)
		return nil, nil
	}

	for _, w := range raw {
		if g.wordCount > 0 && len(words) >= g.wordCount {
			break
		}
		w = nonPrintable.ReplaceAllString(w, "")
		if matchPrefix(currentWord, w) {
			words = append(words, w)
		}
	}
	return words, nil
}

func matchPrefix(prefix, word string) bool {
	if word == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(word), strings.ToLower(prefix))
}
