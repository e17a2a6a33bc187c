// Package debug builds the zerolog loggers used by the commands.
package debug

import (
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

const TimeFormat = "2006-01-02T15:04:05.0000Z"

// Options configure NewLogger.
type Options struct {
	Level zerolog.Level
	// Console renders human readable lines instead of JSON.
	Console bool
	// Color only applies to console output.
	Color bool
}

// NewLogger returns a logger writing to w with the time and caller hooks
// installed.
func NewLogger(w io.Writer, opts Options) zerolog.Logger {
	if opts.Console {
		w = ConsoleWriter(w, opts.Color)
	}
	return zerolog.New(w).
		Level(opts.Level).
		Hook(CustomTimeHook{WithColor: opts.Color}).
		Hook(CustomCallerHook{WithColor: opts.Color && opts.Console})
}

// ConsoleWriter formats events as "time LVL caller > message key=value".
func ConsoleWriter(w io.Writer, colorize bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:          w,
		NoColor:      !colorize,
		TimeFormat:   TimeFormat,
		PartsOrder:   []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.CallerFieldName, zerolog.MessageFieldName},
		FormatLevel:  func(i any) string { return FormatLevel(i, colorize) },
		FormatCaller: func(i any) string { return fmt.Sprintf("%v >", i) },
	}
}

var levelColors = map[string]*color.Color{
	zerolog.LevelTraceValue: color.New(color.Faint),
	zerolog.LevelDebugValue: color.New(color.FgBlue),
	zerolog.LevelInfoValue:  color.New(color.FgGreen),
	zerolog.LevelWarnValue:  color.New(color.FgYellow),
	zerolog.LevelErrorValue: color.New(color.FgRed, color.Bold),
	zerolog.LevelFatalValue: color.New(color.FgHiRed, color.Bold),
	zerolog.LevelPanicValue: color.New(color.FgHiRed, color.Bold),
}

// FormatLevel renders a level as three upper case letters.
func FormatLevel(i any, colorize bool) string {
	lvl, _ := i.(string)
	short := strings.ToUpper(lvl)
	if len(short) > 3 {
		short = short[:3]
	}
	if c, ok := levelColors[lvl]; ok && colorize {
		return c.Sprint(short)
	}
	return short
}

// zerolog keeps the CallerSkipFrame count unexported.
func callerSkipFrameCount(e *zerolog.Event) int {
	v := reflect.ValueOf(e).Elem()
	field := v.FieldByName("skipFrame")
	if field.IsValid() && field.CanInt() {
		return int(field.Int())
	}
	return 0
}

type CustomTimeHook struct {
	WithColor bool
	Format    string
}

func (t CustomTimeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	format := t.Format
	if format == "" {
		format = TimeFormat
	}
	e.Str(zerolog.TimestampFieldName, time.Now().UTC().Format(format))
}

type CustomCallerHook struct {
	WithColor bool
}

func (c CustomCallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	pc, file, line, ok := runtime.Caller(callerSkipFrameCount(e) + 3)
	if !ok {
		return
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return
	}
	pkg, _ := GetPackageAndFuncFromFuncName(fn.Name())
	e.Str(zerolog.CallerFieldName, FormatCaller(pkg, file, line, c.WithColor))
}

// GetPackageAndFuncFromFuncName splits a runtime function name such as
// "github.com/a/b.(*T).M" into its package and function parts.
func GetPackageAndFuncFromFuncName(name string) (pkg, function string) {
	lastSlash := strings.LastIndexByte(name, '/')
	if lastSlash < 0 {
		lastSlash = 0
	}
	firstDot := strings.IndexByte(name[lastSlash:], '.') + lastSlash
	if firstDot < lastSlash {
		return name, ""
	}

	pkg = name[:firstDot]
	function = name[firstDot+1:]

	if strings.Contains(pkg, ".(") {
		parts := strings.SplitN(pkg, ".(", 2)
		pkg = parts[0]
		function = "(" + parts[1] + "." + function
	}
	return pkg, function
}

func FormatCaller(pkg, path string, number int, colorize bool) string {
	file := FileNameOfPath(path)
	if colorize {
		file = color.New(color.Bold).Sprint(file)
		num := color.New(color.FgHiRed, color.Bold).Sprintf("%d", number)
		sep := color.New(color.Faint).Sprint(":")
		return fmt.Sprintf("%s%s%s%s%s", pkg, sep, file, sep, num)
	}
	return fmt.Sprintf("%s:%s:%d", pkg, file, number)
}

func FileNameOfPath(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
