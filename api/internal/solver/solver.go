package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MCQPrompt  = "This is an MCQ question. Give me ONLY the correct option (A/B/C/D) with explanation."
	PingPrompt = "Hello! Please respond with 'Gemini API is working' if you can see this message."
)

type Options struct {
	// Models is the fallback chain, tried in order on every request.
	Models []string
	// Prompt defaults to MCQPrompt.
	Prompt string
	// MaxImageSide enables downscaling when > 0.
	MaxImageSide int
	// MaxImagePixels rejects larger images; <= 0 means DefaultMaxImagePixels.
	MaxImagePixels int64
	// Timeout bounds model acquisition plus generation when > 0.
	Timeout time.Duration
}

// Solver decodes question images and dispatches them to the first model of
// the chain that can be acquired. It keeps no per-request state.
type Solver struct {
	engine Engine
	opts   Options
	log    *zap.Logger
}

func New(engine Engine, opts Options, log *zap.Logger) *Solver {
	if opts.Prompt == "" {
		opts.Prompt = MCQPrompt
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts.Models = append([]string(nil), opts.Models...)
	return &Solver{engine: engine, opts: opts, log: log}
}

func (s *Solver) EngineName() string { return s.engine.Name() }

func (s *Solver) Models() []string { return append([]string(nil), s.opts.Models...) }

// Analyze answers the question shown in a data:image/ URI.
func (s *Solver) Analyze(ctx context.Context, dataURI string) (string, error) {
	log := s.newLog()
	return s.guard(log, func() (string, error) {
		if err := ValidateDataURI(dataURI); err != nil {
			return "", err
		}
		log.Info("processing image", zap.Int("chars", len(dataURI)))

		img, err := DecodeDataURI(dataURI, s.limits())
		if err != nil {
			log.Warn("image decode failed", zap.Error(err))
			return "", err
		}
		return s.solve(ctx, log, img)
	})
}

// AnalyzeBytes is Analyze for callers that already hold the raw image.
func (s *Solver) AnalyzeBytes(ctx context.Context, raw []byte, mimeHint string) (string, error) {
	log := s.newLog()
	return s.guard(log, func() (string, error) {
		log.Info("processing image", zap.Int("bytes", len(raw)))

		img, err := DecodeImage(raw, mimeHint, s.limits())
		if err != nil {
			log.Warn("image decode failed", zap.Error(err))
			return "", err
		}
		return s.solve(ctx, log, img)
	})
}

// Solve runs inference on an already decoded image.
func (s *Solver) Solve(ctx context.Context, img *Image) (string, error) {
	log := s.newLog()
	return s.guard(log, func() (string, error) {
		if img == nil || len(img.Data) == 0 {
			return "", decodeError(errors.New("empty image"))
		}
		return s.solve(ctx, log, img)
	})
}

// Ping sends a short text prompt to the primary model only.
func (s *Solver) Ping(ctx context.Context) (string, error) {
	if len(s.opts.Models) == 0 {
		return "", errors.New("no models configured")
	}
	name := s.opts.Models[0]
	m, err := s.engine.Acquire(ctx, name)
	if err != nil {
		s.log.Warn("ping: model load failed", zap.String("model", name), zap.Error(err))
		return "", err
	}
	defer s.closeModel(s.log, m)

	text, err := m.Generate(ctx, PingPrompt, nil)
	if err != nil {
		s.log.Warn("ping failed", zap.String("model", name), zap.Error(err))
		return "", err
	}
	return text, nil
}

func (s *Solver) solve(ctx context.Context, log *zap.Logger, img *Image) (string, error) {
	log.Info("image opened",
		zap.String("format", img.Format),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Int("bytes", len(img.Data)))

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	m, err := s.acquire(ctx, log)
	if err != nil {
		return "", err
	}
	defer s.closeModel(log, m)

	log.Info("sending request", zap.String("engine", s.engine.Name()), zap.String("model", m.Name()))
	start := time.Now()
	text, err := m.Generate(ctx, s.opts.Prompt, img)
	if err != nil {
		log.Error("generation failed", zap.String("model", m.Name()), zap.Error(err))
		return "", processingError(err)
	}
	log.Info("received response",
		zap.String("model", m.Name()),
		zap.Int("chars", len(text)),
		zap.Duration("took", time.Since(start)))
	return text, nil
}

// acquire walks the model chain and returns the first handle that can be
// obtained. The error of the last attempt is reported when all fail.
func (s *Solver) acquire(ctx context.Context, log *zap.Logger) (Model, error) {
	var lastErr error
	for i, name := range s.opts.Models {
		m, err := s.engine.Acquire(ctx, name)
		if err == nil {
			log.Info("model loaded", zap.String("model", name), zap.Bool("fallback", i > 0))
			return m, nil
		}
		log.Warn("model load failed", zap.String("model", name), zap.Error(err))
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no models configured")
	}
	return nil, modelUnavailableError(lastErr)
}

func (s *Solver) closeModel(log *zap.Logger, m Model) {
	if err := m.Close(); err != nil {
		log.Warn("model close failed", zap.String("model", m.Name()), zap.Error(err))
	}
}

// guard converts a panic below it into a processing error.
func (s *Solver) guard(log *zap.Logger, fn func() (string, error)) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in analysis", zap.Any("panic", r), zap.Stack("stack"))
			answer, err = "", processingError(fmt.Errorf("panic: %v", r))
		}
	}()
	return fn()
}

func (s *Solver) limits() Limits {
	return Limits{MaxSide: s.opts.MaxImageSide, MaxPixels: s.opts.MaxImagePixels}
}

func (s *Solver) newLog() *zap.Logger {
	return s.log.With(zap.String("analysis_id", uuid.NewString()))
}
