package logging

import "strings"

// Prefixed decora base para que toda linha comece com prefix. base não é
// alterado; prefixo vazio devolve o próprio base.
func Prefixed(base Logger, prefix string) Logger {
	if base == nil {
		base = nop
	}
	if prefix == "" {
		return base
	}
	return &prefixed{
		base:   base,
		prefix: prefix,
		format: strings.ReplaceAll(prefix, "%", "%%") + " ",
	}
}

type prefixed struct {
	base   Logger
	prefix string
	format string
}

func (p *prefixed) args(args []any) []any {
	out := make([]any, 0, len(args)+1)
	out = append(out, p.prefix)
	return append(out, args...)
}

func (p *prefixed) Debug(args ...any) { p.base.Debug(p.args(args)...) }
func (p *prefixed) Info(args ...any)  { p.base.Info(p.args(args)...) }
func (p *prefixed) Warn(args ...any)  { p.base.Warn(p.args(args)...) }
func (p *prefixed) Error(args ...any) { p.base.Error(p.args(args)...) }

func (p *prefixed) Debugf(format string, args ...any) { p.base.Debugf(p.format+format, args...) }
func (p *prefixed) Infof(format string, args ...any)  { p.base.Infof(p.format+format, args...) }
func (p *prefixed) Warnf(format string, args ...any)  { p.base.Warnf(p.format+format, args...) }
func (p *prefixed) Errorf(format string, args ...any) { p.base.Errorf(p.format+format, args...) }

func (p *prefixed) With(keysAndValues ...any) Logger {
	return &prefixed{base: p.base.With(keysAndValues...), prefix: p.prefix, format: p.format}
}

func (p *prefixed) Sync() error { return p.base.Sync() }
