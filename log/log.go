// Package log is CSP's structured logger, adapted from gravwell's
// ingest/log package: the same Level scale and RFC5424 wire record, cut
// down to what the core (client and server negotiation, registrar
// lifecycle) needs to report rather than a full
// multi-writer rotating-file logger.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

// Level mirrors ingest/log's level scale.
type Level int

const (
	OFF   Level = 0
	DEBUG Level = 1
	INFO  Level = 2
	WARN  Level = 3
	ERROR Level = 4
)

func (l Level) String() string {
	switch l {
	case OFF:
		return "OFF"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a case-insensitive level name, as found in a config
// file's Log-Level parameter. Mirrors ingest/log's LevelFromString.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case `OFF`:
		return OFF, nil
	case `DEBUG`:
		return DEBUG, nil
	case `INFO`:
		return INFO, nil
	case `WARN`:
		return WARN, nil
	case `ERROR`:
		return ERROR, nil
	default:
		return OFF, fmt.Errorf("log: invalid level %q", s)
	}
}

func (l Level) priority() rfc5424.Priority {
	switch l {
	case DEBUG:
		return rfc5424.User | rfc5424.Debug
	case INFO:
		return rfc5424.User | rfc5424.Info
	case WARN:
		return rfc5424.User | rfc5424.Warning
	case ERROR:
		return rfc5424.User | rfc5424.Error
	default:
		return 0
	}
}

// Logger is the interface client.Client, server.Server, and
// registrar.Registrar accept. DiscardLogger and *RFC5424Logger both
// satisfy it.
type Logger interface {
	Debug(msg string, sds ...rfc5424.SDParam) error
	Info(msg string, sds ...rfc5424.SDParam) error
	Warn(msg string, sds ...rfc5424.SDParam) error
	Error(msg string, sds ...rfc5424.SDParam) error
}

// discard is the zero-dependency default used by embedders and tests.
type discard struct{}

// DiscardLogger drops everything; it is the default when no logger is
// configured.
var DiscardLogger Logger = discard{}

func (discard) Debug(string, ...rfc5424.SDParam) error { return nil }
func (discard) Info(string, ...rfc5424.SDParam) error  { return nil }
func (discard) Warn(string, ...rfc5424.SDParam) error  { return nil }
func (discard) Error(string, ...rfc5424.SDParam) error { return nil }

// RFC5424Logger writes RFC5424-framed structured records to an
// io.Writer, matching the teacher's genRfcOutput/GenRFCMessage shape.
type RFC5424Logger struct {
	mtx      sync.Mutex
	w        io.Writer
	hostname string
	appname  string
	level    Level
}

// NewRFC5424Logger builds a logger writing to w at minimum level lvl.
// appname identifies this process in every emitted record.
func NewRFC5424Logger(w io.Writer, appname string, lvl Level) *RFC5424Logger {
	hostname, _ := os.Hostname()
	return &RFC5424Logger{w: w, hostname: hostname, appname: appname, level: lvl}
}

func (l *RFC5424Logger) Debug(msg string, sds ...rfc5424.SDParam) error {
	return l.output(DEBUG, msg, sds...)
}
func (l *RFC5424Logger) Info(msg string, sds ...rfc5424.SDParam) error {
	return l.output(INFO, msg, sds...)
}
func (l *RFC5424Logger) Warn(msg string, sds ...rfc5424.SDParam) error {
	return l.output(WARN, msg, sds...)
}
func (l *RFC5424Logger) Error(msg string, sds ...rfc5424.SDParam) error {
	return l.output(ERROR, msg, sds...)
}

func (l *RFC5424Logger) output(lvl Level, msg string, sds ...rfc5424.SDParam) error {
	if lvl < l.level {
		return nil
	}
	b, err := genRFCMessage(time.Now(), lvl.priority(), l.hostname, l.appname, "csp", msg, sds...)
	if err != nil {
		return err
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	_, err = fmt.Fprintln(l.w, string(b))
	return err
}

func genRFCMessage(ts time.Time, prio rfc5424.Priority, hostname, appname, msgid, msg string, sds ...rfc5424.SDParam) ([]byte, error) {
	m := rfc5424.Message{
		Priority:  prio,
		Timestamp: ts,
		Hostname:  hostname,
		AppName:   appname,
		MessageID: msgid,
		Message:   []byte(msg),
	}
	if len(sds) > 0 {
		m.StructuredData = []rfc5424.StructuredData{{ID: "csp@1", Parameters: sds}}
	}
	return m.MarshalBinary()
}
