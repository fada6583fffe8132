package logger

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// Redaction replaces the value of every PII field.
	Redaction = "***"
	// Separator delimits key=value pairs in log messages.
	Separator = ";"
)

// FilterDatum obfuscates the value of each field in a "key=value<separator>" message.
// A trailing pair with no separator is obfuscated as well.
func FilterDatum(fields []string, redaction, message, separator string) string {
	return newRedactor(fields, redaction, separator).apply(message)
}

type redactor struct {
	patterns    []*regexp.Regexp
	replacement string
}

func newRedactor(fields []string, redaction, separator string) redactor {
	r := redactor{replacement: "${1}=" + escapeReplacement(redaction) + "${2}"}
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		r.patterns = append(r.patterns, fieldPattern(field, separator))
	}
	return r
}

func (r redactor) apply(message string) string {
	for _, p := range r.patterns {
		message = p.ReplaceAllString(message, r.replacement)
	}
	return message
}

func fieldPattern(field, separator string) *regexp.Regexp {
	if separator == "" {
		return regexp.MustCompile(`\b(` + regexp.QuoteMeta(field) + `)=.*?()$`)
	}
	sep := regexp.QuoteMeta(separator)
	return regexp.MustCompile(`\b(` + regexp.QuoteMeta(field) + `)=.*?(` + sep + `|$)`)
}

func escapeReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

type redactingCore struct {
	zapcore.Core
	redactor redactor
	fieldSet map[string]struct{}
}

// NewRedactingCore wraps core so PII never reaches the encoder.
// Fields whose key is a PII field are replaced, and key=value pairs inside
// the message and string fields are obfuscated.
func NewRedactingCore(core zapcore.Core, piiFields []string) zapcore.Core {
	set := make(map[string]struct{}, len(piiFields))
	fields := make([]string, 0, len(piiFields))
	for _, f := range piiFields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if _, ok := set[f]; ok {
			continue
		}
		set[f] = struct{}{}
		fields = append(fields, f)
	}
	return &redactingCore{Core: core, redactor: newRedactor(fields, Redaction, Separator), fieldSet: set}
}

// NewSampledRedactingCore redacts entries that survive sampling. The sampler
// sits outside the redactor so its Check decides what gets written.
func NewSampledRedactingCore(core zapcore.Core, piiFields []string, window time.Duration, initial, thereafter int) zapcore.Core {
	return zapcore.NewSamplerWithOptions(NewRedactingCore(core, piiFields), window, initial, thereafter)
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{
		Core:     c.Core.With(c.redactFields(fields)),
		redactor: c.redactor,
		fieldSet: c.fieldSet,
	}
}

func (c *redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Message = c.redactor.apply(ent.Message)
	return c.Core.Write(ent, c.redactFields(fields))
}

func (c *redactingCore) redactFields(fields []zapcore.Field) []zapcore.Field {
	if len(c.fieldSet) == 0 || len(fields) == 0 {
		return fields
	}
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		if _, ok := c.fieldSet[strings.ToLower(f.Key)]; ok {
			out[i] = zap.String(f.Key, Redaction)
			continue
		}
		if f.Type == zapcore.StringType {
			out[i] = zap.String(f.Key, c.redactor.apply(f.String))
			continue
		}
		out[i] = f
	}
	return out
}
