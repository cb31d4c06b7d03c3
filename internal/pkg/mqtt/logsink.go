package mqtt

import (
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

type logPublisher interface {
	PublishLog(line string) error
}

// LogSink forwards log lines to a bus attached after the logger is built.
// Lines logged before Attach are dropped.
type LogSink struct {
	mu  sync.RWMutex
	pub logPublisher
}

func (l *LogSink) Attach(pub logPublisher) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pub = pub
}

func (l *LogSink) PublishLog(line string) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.pub == nil {
		return nil
	}
	return l.pub.PublishLog(line)
}

type logCore struct {
	zapcore.LevelEnabler
	enc zapcore.Encoder
	pub logPublisher
}

// NewLogCore returns a core that mirrors entries to the bus log topic. Publish
// errors are dropped so logging never fails because of the bus.
func NewLogCore(pub logPublisher, level zapcore.LevelEnabler) zapcore.Core {
	return &logCore{
		LevelEnabler: level,
		enc: zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			LevelKey:       "level",
			MessageKey:     "msg",
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		}),
		pub: pub,
	}
}

func (c *logCore) With(fields []zapcore.Field) zapcore.Core {
	enc := c.enc.Clone()
	for _, f := range fields {
		f.AddTo(enc)
	}
	return &logCore{LevelEnabler: c.LevelEnabler, enc: enc, pub: c.pub}
}

func (c *logCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *logCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return nil
	}
	defer buf.Free()
	_ = c.pub.PublishLog(strings.TrimSuffix(buf.String(), "\n"))
	return nil
}

func (c *logCore) Sync() error {
	return nil
}
