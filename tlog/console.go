package tlog

import (
	"fmt"
	"sync"

	"github.com/ridge/must/v2"
	"github.com/ridge/ringsource/tlog/formatter"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// The console encoder renders each entry with the JSON encoder first and then
// reformats it, so text logs show exactly the fields JSON logs carry.

const consoleEncoderName = "ring-console"

func init() {
	for _, color := range []bool{false, true} {
		color := color
		must.OK(zap.RegisterEncoder(consoleEncoding(color), func(cfg zapcore.EncoderConfig) (zapcore.Encoder, error) {
			return newConsoleEncoder(cfg, color), nil
		}))
	}
}

func consoleEncoding(color bool) string {
	return fmt.Sprintf("%s;color=%t", consoleEncoderName, color)
}

type consoleEncoder struct {
	zapcore.Encoder
	color bool

	mu            sync.Mutex
	lastTimestamp string
}

func newConsoleEncoder(cfg zapcore.EncoderConfig, color bool) *consoleEncoder {
	return &consoleEncoder{
		Encoder: zapcore.NewJSONEncoder(cfg),
		color:   color,
	}
}

// Clone implements zapcore.Encoder
func (ce *consoleEncoder) Clone() zapcore.Encoder {
	return &consoleEncoder{
		Encoder: ce.Encoder.Clone(),
		color:   ce.color,
	}
}

// EncodeEntry implements zapcore.Encoder
func (ce *consoleEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line, err := ce.Encoder.EncodeEntry(entry, fields)
	if err != nil {
		return nil, err
	}
	defer line.Free()

	ce.mu.Lock()
	defer ce.mu.Unlock()

	out, ts, err := formatter.JSONLogMessage(line.Bytes(), ce.lastTimestamp, ce.color)
	if err != nil {
		return nil, err
	}
	ce.lastTimestamp = ts
	return out, nil
}
