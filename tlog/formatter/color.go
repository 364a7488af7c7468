package formatter

import "go.uber.org/zap/buffer"

type color string

// ANSI SGR sequences
const (
	reset          color = "\x1b[0m"
	bold           color = "\x1b[1m"
	italic         color = "\x1b[3m"
	fgRed          color = "\x1b[31m"
	fgGreen        color = "\x1b[32m"
	fgYellow       color = "\x1b[33m"
	fgBlue         color = "\x1b[34m"
	fgMagenta      color = "\x1b[35m"
	fgGray         color = "\x1b[90m"
	fgBrightYellow color = "\x1b[93m"
)

const (
	debugColor       = fgMagenta
	infoColor        = fgBlue
	warnColor        = fgYellow
	errorColor       = fgRed
	fieldColor       = fgGreen
	subFieldColor    = fgBlue
	messageColor     = bold
	callerColor      = italic
	repeatedTSColor  = fgBlue
	separatorColor   = fgGray
	objectPunctColor = fgYellow
	arrayPunctColor  = fgBrightYellow
)

type styleFn func(*buffer.Buffer, color, string)

func plain(buf *buffer.Buffer, _ color, text string) {
	buf.AppendString(text)
}

func colored(buf *buffer.Buffer, c color, text string) {
	if text == "" {
		return
	}
	buf.AppendString(string(c))
	buf.AppendString(text)
	buf.AppendString(string(reset))
}

func styleFor(color bool) styleFn {
	if color {
		return colored
	}
	return plain
}
