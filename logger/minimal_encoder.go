package logger

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// palette holds the ANSI colors of one console theme
type palette struct {
	fg     string
	time   string
	accent string // component names
	id     string // request ids, uris
	number string
	query  string // query text and outcomes
	warn   string
	warnBg string
	err    string
	errBg  string
}

var themes = map[string]palette{
	"everforest": {
		fg:     "\x1b[38;5;223m",
		time:   "\x1b[38;5;107m",
		accent: "\x1b[38;5;208m",
		id:     "\x1b[38;5;109m",
		number: "\x1b[38;5;108m",
		query:  "\x1b[38;5;142m",
		warn:   "\x1b[38;5;179m",
		warnBg: "\x1b[48;5;58m",
		err:    "\x1b[38;5;167m",
		errBg:  "\x1b[48;5;52m",
	},
	"gruvbox": {
		fg:     "\x1b[38;5;223m",
		time:   "\x1b[38;5;108m",
		accent: "\x1b[38;5;214m",
		id:     "\x1b[38;5;109m",
		number: "\x1b[38;5;175m",
		query:  "\x1b[38;5;142m",
		warn:   "\x1b[38;5;214m",
		warnBg: "\x1b[48;5;58m",
		err:    "\x1b[38;5;167m",
		errBg:  "\x1b[48;5;88m",
	},
}

// Current active theme
var currentTheme = "everforest"

// SetTheme configures the color scheme for log output. Unknown names are ignored.
func SetTheme(theme string) {
	if _, ok := themes[theme]; ok {
		currentTheme = theme
	}
}

func colors() palette {
	return themes[currentTheme]
}

// minimalEncoder implements a calm, compact console encoder with theme support
// Format: "13:04:35  s.http  Parsed query  9f2c41d0  42 chars  3ms"
type minimalEncoder struct {
	// collects fields attached with Logger.With so they are printed too
	*zapcore.MapObjectEncoder
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{MapObjectEncoder: zapcore.NewMapObjectEncoder()}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		clone.Fields[k] = v
	}
	return &minimalEncoder{MapObjectEncoder: clone}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	c := colors()
	final := buffer.NewPool().Get()

	final.AppendString(c.time)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level: only show for WARN and above, bold with background
	if ent.Level >= zapcore.WarnLevel {
		final.AppendString("  ")
		final.AppendString(levelColorString(c, ent.Level))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(c.accent)
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(c.fg)
	final.AppendString(ent.Message)
	final.AppendString(colorReset)

	if values := extractFieldValues(c, append(enc.contextFields(), fields...)); values != "" {
		final.AppendString("  ")
		final.AppendString(values)
	}

	final.AppendString("\n")
	return final, nil
}

// contextFields returns the fields attached with Logger.With in key order
func (enc *minimalEncoder) contextFields() []zapcore.Field {
	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zapcore.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, enc.Fields[k]))
	}
	return fields
}

// levelColorString returns bold + colored + background for WARN/ERROR
func levelColorString(c palette, level zapcore.Level) string {
	if level == zapcore.WarnLevel {
		return colorBold + c.warnBg + c.warn + "WARN" + colorReset
	}
	return colorBold + c.errBg + c.err + level.CapitalString() + colorReset
}

// abbreviateName shortens component names: server.http -> s.http
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// getFieldValue extracts the value from a zap field, handling different field types
func getFieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", field.Integer)
	case zapcore.Float64Type:
		return strconv.FormatFloat(math.Float64frombits(uint64(field.Integer)), 'g', -1, 64)
	case zapcore.BoolType:
		return fmt.Sprintf("%t", field.Integer == 1)
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok {
			return err.Error()
		}
	}
	if field.Interface != nil {
		return fmt.Sprintf("%v", field.Interface)
	}
	return ""
}

// extractFieldValues renders the fields compactly: known fields get a
// color and unit, any other field is shown as key=value so nothing is
// silently dropped.
func extractFieldValues(c palette, fields []zapcore.Field) string {
	var values []string

	for _, field := range fields {
		val := getFieldValue(field)
		if val == "" {
			continue
		}
		switch field.Key {
		case FieldRequestID:
			if len(val) > 8 {
				val = val[:8]
			}
			values = append(values, c.id+val+colorReset)
		case FieldURI, FieldAddress, FieldPath:
			values = append(values, c.id+val+colorReset)
		case FieldQueryLength:
			values = append(values, c.number+val+colorReset+" chars")
		case FieldTokens:
			values = append(values, c.number+val+colorReset+" tokens")
		case FieldDurationMS:
			values = append(values, c.number+val+colorReset+"ms")
		case FieldOutcome:
			values = append(values, c.query+val+colorReset)
		case FieldError:
			values = append(values, c.err+val+colorReset)
		default:
			values = append(values, c.fg+field.Key+"="+val+colorReset)
		}
	}

	return strings.Join(values, " ")
}
