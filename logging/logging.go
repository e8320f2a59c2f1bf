// Package logging encapsula o zap atrás de uma interface Logger pequena, usada
// em todo o runtime. As linhas não carregam campos implícitos: a correlação é
// feita decorando um Logger com Prefixed, e o Logger da requisição viaja no
// context.Context.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Formatos aceitos em Config.Format.
const (
	FormatPlain   = "plain"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Logger é a superfície de log entregue a handlers e à infra.
//
// As formas variádicas juntam os argumentos com espaço (como console.log);
// as formas com f recebem uma format string.
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	With(keysAndValues ...any) Logger
	Sync() error
}

type Config struct {
	Level  string
	Format string
	// Output recebe debug/info/warn. Padrão: os.Stdout.
	Output io.Writer
	// ErrorOutput recebe as linhas de erro. Padrão: os.Stderr.
	ErrorOutput io.Writer
}

// New monta um Logger sobre o zap.
func New(cfg Config) (Logger, error) {
	level := zapcore.InfoLevel
	if strings.TrimSpace(cfg.Level) != "" {
		if err := level.Set(cfg.Level); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	enc, err := encoderFor(cfg.Format)
	if err != nil {
		return nil, err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	errOut := cfg.ErrorOutput
	if errOut == nil {
		errOut = os.Stderr
	}

	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= level && l < zapcore.ErrorLevel })
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= level && l >= zapcore.ErrorLevel })

	core := zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(out)), low),
		zapcore.NewCore(enc.Clone(), zapcore.Lock(zapcore.AddSync(errOut)), high),
	)
	return NewFromZap(zap.New(core)), nil
}

func encoderFor(format string) (zapcore.Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatPlain:
		// só a mensagem: uma linha por evento
		return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			MessageKey:     "msg",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
		}), nil
	case FormatConsole:
		ec := zap.NewDevelopmentEncoderConfig()
		ec.CallerKey = ""
		return zapcore.NewConsoleEncoder(ec), nil
	case FormatJSON:
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(ec), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

// NewFromZap adapta um *zap.Logger existente.
func NewFromZap(l *zap.Logger) Logger {
	return &zapLogger{s: l.Sugar()}
}

var nop = NewFromZap(zap.NewNop())

// Nop devolve um Logger que descarta tudo.
func Nop() Logger { return nop }

type zapLogger struct {
	s *zap.SugaredLogger
}

func (l *zapLogger) Debug(args ...any) { l.s.Debugln(args...) }
func (l *zapLogger) Info(args ...any)  { l.s.Infoln(args...) }
func (l *zapLogger) Warn(args ...any)  { l.s.Warnln(args...) }
func (l *zapLogger) Error(args ...any) { l.s.Errorln(args...) }

func (l *zapLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l *zapLogger) Infof(format string, args ...any)  { l.s.Infof(format, args...) }
func (l *zapLogger) Warnf(format string, args ...any)  { l.s.Warnf(format, args...) }
func (l *zapLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }

func (l *zapLogger) With(keysAndValues ...any) Logger {
	return &zapLogger{s: l.s.With(keysAndValues...)}
}

func (l *zapLogger) Sync() error { return l.s.Sync() }

type ctxKey struct{}

// NewContext devolve uma cópia de ctx carregando l.
func NewContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext devolve o Logger guardado em ctx, ou Nop quando não há.
func FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return nop
	}
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
		return l
	}
	return nop
}

// FromContextOr é como FromContext, mas devolve fallback (e não Nop) quando
// ctx não carrega Logger.
func FromContextOr(ctx context.Context, fallback Logger) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
			return l
		}
	}
	if fallback == nil {
		return nop
	}
	return fallback
}
