package http1

import (
	"bytes"

	"github.com/indigo-web/relay/http/headers"
	"github.com/indigo-web/utils/buffer"
	"github.com/indigo-web/utils/uf"
)

type fieldsState uint8

const (
	eFieldKey fieldsState = iota
	eFieldKeyCR
	eFieldColon
	eFieldValue
)

// fieldErrors lets both request and response heads report errors of their own.
type fieldErrors struct {
	bad, tooLarge, tooMany error
}

// fieldScanner parses the header section of a message, the empty line terminating
// it included.
type fieldScanner struct {
	state     fieldsState
	buff      *buffer.Buffer
	key       string
	headers   *headers.Headers
	number    int
	maxFields int
	errs      fieldErrors
}

func newFieldScanner(buff *buffer.Buffer, hdrs *headers.Headers, maxFields int, errs fieldErrors) fieldScanner {
	return fieldScanner{
		state:     eFieldKey,
		buff:      buff,
		headers:   hdrs,
		maxFields: maxFields,
		errs:      errs,
	}
}

func (f *fieldScanner) scan(data []byte) (done bool, rest []byte, err error) {
	switch f.state {
	case eFieldKey:
		goto key
	case eFieldKeyCR:
		goto keyCR
	case eFieldColon:
		goto colon
	case eFieldValue:
		goto value
	default:
		panic("BUG: fields scanner: unknown state")
	}

key:
	if len(data) == 0 {
		f.state = eFieldKey
		return false, nil, nil
	}

	if f.buff.SegmentLength() == 0 {
		switch data[0] {
		case '\r':
			data = data[1:]
			goto keyCR
		case '\n':
			return true, data[1:], nil
		}
	}

	{
		colonIdx := bytes.IndexByte(data, ':')
		if lf := bytes.IndexByte(data, '\n'); lf != -1 && (colonIdx == -1 || lf < colonIdx) {
			return false, nil, f.errs.bad
		}

		if colonIdx == -1 {
			if !f.buff.Append(data) {
				return false, nil, f.errs.tooLarge
			}

			f.state = eFieldKey
			return false, nil, nil
		}

		if !f.buff.Append(data[:colonIdx]) {
			return false, nil, f.errs.tooLarge
		}

		rawKey := f.buff.Finish()
		if !isToken(rawKey) {
			return false, nil, f.errs.bad
		}

		if f.number++; f.number > f.maxFields {
			return false, nil, f.errs.tooMany
		}

		f.key = uf.B2S(rawKey)
		data = data[colonIdx+1:]
		goto colon
	}

keyCR:
	if len(data) == 0 {
		f.state = eFieldKeyCR
		return false, nil, nil
	}

	if data[0] != '\n' {
		return false, nil, f.errs.bad
	}

	return true, data[1:], nil

colon:
	for i := 0; i < len(data); i++ {
		if data[i] != ' ' && data[i] != '\t' {
			data = data[i:]
			goto value
		}
	}

	f.state = eFieldColon
	return false, nil, nil

value:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !f.buff.Append(data) {
				return false, nil, f.errs.tooLarge
			}

			f.state = eFieldValue
			return false, nil, nil
		}

		if !f.buff.Append(data[:lf]) {
			return false, nil, f.errs.tooLarge
		}

		value := rtrim(f.buff.Finish())
		if !isFieldValue(value) {
			return false, nil, f.errs.bad
		}

		f.headers.Add(f.key, uf.B2S(value))
		data = data[lf+1:]
		goto key
	}
}

func (f *fieldScanner) reset() {
	f.state = eFieldKey
	f.key = ""
	f.number = 0
	f.headers.Clear()
}

// isToken checks whether the field name is a valid RFC 9110 token, loosely: non-empty and
// having no whitespaces, control characters or delimiters, which could be mistaken for them.
func isToken(b []byte) bool {
	if len(b) == 0 {
		return false
	}

	for _, char := range b {
		if char <= ' ' || char >= 0x7f || char == '"' || char == ',' || char == ';' {
			return false
		}
	}

	return true
}

// isFieldValue rejects control characters, except horizontal tabs. Bare CRs are among them.
func isFieldValue(b []byte) bool {
	for _, char := range b {
		if (char < ' ' && char != '\t') || char == 0x7f {
			return false
		}
	}

	return true
}

// rtrim strips the line terminator's CR, if any, and trailing whitespaces.
func rtrim(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		b = b[:len(b)-1]
	}

	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}

	return b
}
