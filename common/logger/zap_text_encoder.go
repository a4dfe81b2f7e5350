// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var _pool = buffer.NewPool()

// DefaultTimeEncoder formats timestamps the way our text encoder wants them.
func DefaultTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006/01/02 15:04:05.000 -07:00"))
}

// ShortCallerEncoder trims the caller path to file:line.
func ShortCallerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(caller.TrimmedPath())
}

// textEncoder renders each field as its own [key=value] bracket instead of
// the comma-joined tuple zapcore's console encoder produces, so a value that
// itself contains commas can't be confused with a field separator. A value
// containing whitespace or a double quote is written Go-quoted.
type textEncoder struct {
	*zapcore.EncoderConfig
	buf                 *buffer.Buffer
	spaced              bool
	disableErrorVerbose bool
}

// NewTextEncoderByConfig builds the encoder registered under the
// "_WpCustomTextEncoder_" name. format is accepted for symmetry with the
// json/console constructors and is not used: every format yields this
// text encoder.
func NewTextEncoderByConfig(format string) zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "name",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     DefaultTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   ShortCallerEncoder,
	}
	return &textEncoder{
		EncoderConfig:       &cfg,
		buf:                 _pool.Get(),
		disableErrorVerbose: true,
	}
}

func (enc *textEncoder) bracket(key, val string) {
	if strings.ContainsAny(val, " \t\r\n\"") {
		val = strconv.Quote(val)
	}
	if enc.buf.Len() > 0 {
		enc.buf.AppendByte(' ')
	}
	enc.buf.AppendByte('[')
	enc.buf.AppendString(key)
	enc.buf.AppendByte('=')
	enc.buf.AppendString(val)
	enc.buf.AppendByte(']')
}

func (enc *textEncoder) Clone() zapcore.Encoder {
	clone := &textEncoder{
		EncoderConfig:       enc.EncoderConfig,
		buf:                 _pool.Get(),
		spaced:              enc.spaced,
		disableErrorVerbose: enc.disableErrorVerbose,
	}
	clone.buf.AppendString(enc.buf.String())
	return clone
}

// scalar field encoding

func (enc *textEncoder) AddString(key, val string)      { enc.bracket(key, val) }
func (enc *textEncoder) AddByteString(key string, val []byte) { enc.bracket(key, string(val)) }
func (enc *textEncoder) AddBool(key string, val bool)    { enc.bracket(key, strconv.FormatBool(val)) }
func (enc *textEncoder) AddInt(key string, val int)      { enc.bracket(key, strconv.Itoa(val)) }
func (enc *textEncoder) AddInt64(key string, val int64)  { enc.bracket(key, strconv.FormatInt(val, 10)) }
func (enc *textEncoder) AddInt32(key string, val int32)  { enc.AddInt64(key, int64(val)) }
func (enc *textEncoder) AddInt16(key string, val int16)  { enc.AddInt64(key, int64(val)) }
func (enc *textEncoder) AddInt8(key string, val int8)    { enc.AddInt64(key, int64(val)) }
func (enc *textEncoder) AddUint(key string, val uint)    { enc.AddUint64(key, uint64(val)) }
func (enc *textEncoder) AddUint64(key string, val uint64) {
	enc.bracket(key, strconv.FormatUint(val, 10))
}
func (enc *textEncoder) AddUint32(key string, val uint32)     { enc.AddUint64(key, uint64(val)) }
func (enc *textEncoder) AddUint16(key string, val uint16)     { enc.AddUint64(key, uint64(val)) }
func (enc *textEncoder) AddUint8(key string, val uint8)       { enc.AddUint64(key, uint64(val)) }
func (enc *textEncoder) AddUintptr(key string, val uintptr)   { enc.AddUint64(key, uint64(val)) }
func (enc *textEncoder) AddFloat64(key string, val float64)   { enc.bracket(key, strconv.FormatFloat(val, 'g', -1, 64)) }
func (enc *textEncoder) AddFloat32(key string, val float32) {
	enc.bracket(key, strconv.FormatFloat(float64(val), 'g', -1, 32))
}
func (enc *textEncoder) AddComplex128(key string, val complex128) { enc.bracket(key, fmt.Sprintf("%v", val)) }
func (enc *textEncoder) AddComplex64(key string, val complex64)   { enc.bracket(key, fmt.Sprintf("%v", val)) }
func (enc *textEncoder) AddDuration(key string, val time.Duration) { enc.bracket(key, val.String()) }
func (enc *textEncoder) AddTime(key string, val time.Time)         { enc.bracket(key, val.String()) }
func (enc *textEncoder) AddReflected(key string, val interface{}) error {
	enc.bracket(key, fmt.Sprintf("%+v", val))
	return nil
}

func (enc *textEncoder) AddNamespace(key string) {
	// Namespaces are rarely used by our callers; render as an ordinary key.
	enc.bracket(key, "{")
}

func (enc *textEncoder) AddBinary(key string, val []byte) {
	enc.bracket(key, fmt.Sprintf("%x", val))
}

func (enc *textEncoder) AddArray(key string, marshaler zapcore.ArrayMarshaler) error {
	sub := &joinArrayEncoder{}
	if err := marshaler.MarshalLogArray(sub); err != nil {
		return err
	}
	enc.bracket(key, "["+joinStrings(sub.items, ",")+"]")
	return nil
}

func (enc *textEncoder) AddObject(key string, marshaler zapcore.ObjectMarshaler) error {
	sub := zapcore.NewMapObjectEncoder()
	if err := marshaler.MarshalLogObject(sub); err != nil {
		return err
	}
	enc.bracket(key, fmt.Sprintf("%+v", sub.Fields))
	return nil
}

func (enc *textEncoder) OpenNamespace(key string) { enc.AddNamespace(key) }

func (enc *textEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := _pool.Get()

	if enc.TimeKey != "" && enc.EncodeTime != nil {
		enc.EncodeTime(entry.Time, sliceArrayEncoderTo(line))
	}
	if enc.LevelKey != "" && enc.EncodeLevel != nil {
		if line.Len() > 0 {
			line.AppendByte(' ')
		}
		enc.EncodeLevel(entry.Level, sliceArrayEncoderTo(line))
	}
	if entry.LoggerName != "" && enc.NameKey != "" {
		line.AppendByte(' ')
		line.AppendString(entry.LoggerName)
	}
	if entry.Caller.Defined && enc.CallerKey != "" && enc.EncodeCaller != nil {
		line.AppendByte(' ')
		enc.EncodeCaller(entry.Caller, sliceArrayEncoderTo(line))
	}
	if entry.Message != "" {
		line.AppendByte(' ')
		line.AppendString(entry.Message)
	}

	if enc.buf.Len() > 0 {
		line.AppendByte(' ')
		line.AppendString(enc.buf.String())
	}

	fieldEnc := &textEncoder{EncoderConfig: enc.EncoderConfig, buf: _pool.Get(), disableErrorVerbose: enc.disableErrorVerbose}
	for _, f := range fields {
		f.AddTo(fieldEnc)
	}
	if fieldEnc.buf.Len() > 0 {
		line.AppendByte(' ')
		line.AppendString(fieldEnc.buf.String())
	}
	fieldEnc.buf.Free()

	if entry.Stack != "" && enc.StacktraceKey != "" {
		line.AppendByte('\n')
		line.AppendString(entry.Stack)
	}

	line.AppendString(enc.LineEnding)
	return line, nil
}

func joinStrings(items []string, sep string) string {
	out := ""
	for i, it := range items {
		if i > 0 {
			out += sep
		}
		out += it
	}
	return out
}

// joinArrayEncoder collects array elements as their string form so AddArray
// can render them as one comma list inside a single pair of brackets, with
// no per-element brackets ("[a,b]").
type joinArrayEncoder struct{ items []string }

func (e *joinArrayEncoder) AppendBool(v bool)              { e.items = append(e.items, strconv.FormatBool(v)) }
func (e *joinArrayEncoder) AppendByteString(v []byte)      { e.items = append(e.items, string(v)) }
func (e *joinArrayEncoder) AppendComplex128(v complex128)  { e.items = append(e.items, fmt.Sprintf("%v", v)) }
func (e *joinArrayEncoder) AppendComplex64(v complex64)    { e.items = append(e.items, fmt.Sprintf("%v", v)) }
func (e *joinArrayEncoder) AppendFloat64(v float64)        { e.items = append(e.items, strconv.FormatFloat(v, 'g', -1, 64)) }
func (e *joinArrayEncoder) AppendFloat32(v float32) {
	e.items = append(e.items, strconv.FormatFloat(float64(v), 'g', -1, 32))
}
func (e *joinArrayEncoder) AppendInt(v int)         { e.items = append(e.items, strconv.Itoa(v)) }
func (e *joinArrayEncoder) AppendInt64(v int64)     { e.items = append(e.items, strconv.FormatInt(v, 10)) }
func (e *joinArrayEncoder) AppendInt32(v int32)     { e.AppendInt64(int64(v)) }
func (e *joinArrayEncoder) AppendInt16(v int16)     { e.AppendInt64(int64(v)) }
func (e *joinArrayEncoder) AppendInt8(v int8)       { e.AppendInt64(int64(v)) }
func (e *joinArrayEncoder) AppendString(v string)   { e.items = append(e.items, v) }
func (e *joinArrayEncoder) AppendUint(v uint)       { e.AppendUint64(uint64(v)) }
func (e *joinArrayEncoder) AppendUint64(v uint64)   { e.items = append(e.items, strconv.FormatUint(v, 10)) }
func (e *joinArrayEncoder) AppendUint32(v uint32)   { e.AppendUint64(uint64(v)) }
func (e *joinArrayEncoder) AppendUint16(v uint16)   { e.AppendUint64(uint64(v)) }
func (e *joinArrayEncoder) AppendUint8(v uint8)     { e.AppendUint64(uint64(v)) }
func (e *joinArrayEncoder) AppendUintptr(v uintptr) { e.AppendUint64(uint64(v)) }
func (e *joinArrayEncoder) AppendDuration(v time.Duration) { e.items = append(e.items, v.String()) }
func (e *joinArrayEncoder) AppendTime(v time.Time)         { e.items = append(e.items, v.String()) }
func (e *joinArrayEncoder) AppendArray(zapcore.ArrayMarshaler) error   { return nil }
func (e *joinArrayEncoder) AppendObject(zapcore.ObjectMarshaler) error { return nil }
func (e *joinArrayEncoder) AppendReflected(v interface{}) error {
	e.items = append(e.items, fmt.Sprintf("%v", v))
	return nil
}

func sliceArrayEncoderTo(buf *buffer.Buffer) zapcore.PrimitiveArrayEncoder {
	return &bufPrimitiveEncoder{buf: buf}
}

// bufPrimitiveEncoder adapts a buffer.Buffer to zapcore.PrimitiveArrayEncoder
// so EncodeTime/EncodeLevel/EncodeCaller/EncodeDuration can append into it.
type bufPrimitiveEncoder struct{ buf *buffer.Buffer }

func (b *bufPrimitiveEncoder) AppendBool(v bool)                    { b.buf.AppendBool(v) }
func (b *bufPrimitiveEncoder) AppendByteString(v []byte)            { b.buf.AppendString(string(v)) }
func (b *bufPrimitiveEncoder) AppendComplex128(v complex128)        { b.buf.AppendString(fmt.Sprintf("%v", v)) }
func (b *bufPrimitiveEncoder) AppendComplex64(v complex64)          { b.buf.AppendString(fmt.Sprintf("%v", v)) }
func (b *bufPrimitiveEncoder) AppendFloat64(v float64)              { b.buf.AppendFloat(v, 64) }
func (b *bufPrimitiveEncoder) AppendFloat32(v float32)              { b.buf.AppendFloat(float64(v), 32) }
func (b *bufPrimitiveEncoder) AppendInt(v int)                      { b.buf.AppendInt(int64(v)) }
func (b *bufPrimitiveEncoder) AppendInt64(v int64)                  { b.buf.AppendInt(v) }
func (b *bufPrimitiveEncoder) AppendInt32(v int32)                  { b.buf.AppendInt(int64(v)) }
func (b *bufPrimitiveEncoder) AppendInt16(v int16)                  { b.buf.AppendInt(int64(v)) }
func (b *bufPrimitiveEncoder) AppendInt8(v int8)                    { b.buf.AppendInt(int64(v)) }
func (b *bufPrimitiveEncoder) AppendString(v string)                { b.buf.AppendString(v) }
func (b *bufPrimitiveEncoder) AppendUint(v uint)                    { b.buf.AppendUint(uint64(v)) }
func (b *bufPrimitiveEncoder) AppendUint64(v uint64)                { b.buf.AppendUint(v) }
func (b *bufPrimitiveEncoder) AppendUint32(v uint32)                { b.buf.AppendUint(uint64(v)) }
func (b *bufPrimitiveEncoder) AppendUint16(v uint16)                { b.buf.AppendUint(uint64(v)) }
func (b *bufPrimitiveEncoder) AppendUint8(v uint8)                  { b.buf.AppendUint(uint64(v)) }
func (b *bufPrimitiveEncoder) AppendUintptr(v uintptr)              { b.buf.AppendUint(uint64(v)) }
func (b *bufPrimitiveEncoder) AppendDuration(v time.Duration)       { b.buf.AppendString(v.String()) }
func (b *bufPrimitiveEncoder) AppendTime(v time.Time)               { b.buf.AppendString(v.String()) }
