// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package record

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/NationalSecurityAgency/DCP/digest"
	"github.com/NationalSecurityAgency/DCP/hexcodec"
	"github.com/NationalSecurityAgency/DCP/log"
)

// Writer serializes Entry and XattrEntry values as newline-delimited JSON,
// plus '#'-prefixed metadata lines, onto an underlying stream.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer that appends to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteMetadata emits a "#<key>\t<value>\n" line, escaping '\n' and '\t'
// in value with the naive backslash scheme.
func (w *Writer) WriteMetadata(key, value string) error {
	_, err := fmt.Fprintf(w.w, "#%s\t%s\n", key, escapeMetadata(value))
	return err
}

// WriteMetadataList emits a "#<key>\t<v1>\t<v2>...\n" line with each value
// tab/newline escaped, matching the naive list metadata variant.
func (w *Writer) WriteMetadataList(key string, values []string) error {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = escapeMetadata(v)
	}
	_, err := fmt.Fprintf(w.w, "#%s\t%s\n", key, strings.Join(escaped, "\t"))
	return err
}

// WriteMetadataJSON emits a "#<key>\t<json-array>\n" line, the strict-JSON
// metadata variant.
func (w *Writer) WriteMetadataJSON(key string, values []string) error {
	b, err := json.Marshal(values)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w.w, "#%s\t%s\n", key, b)
	return err
}

func escapeMetadata(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}

// WriteEntry serializes e in the fixed key order:
// md5, sha1, sha256, sha512, pathmd5, uid, gid, mode, size, asec, ansec,
// msec, mnsec, csec, cnsec, type, state, elapsed,
// symlinkTarget|symlinkTargetHex, path|pathhex.
func (w *Writer) WriteEntry(e *Entry) error {
	var b strings.Builder
	b.WriteByte('{')

	writeHex := func(name string, v []byte) {
		if len(v) == 0 {
			return
		}
		fmt.Fprintf(&b, "%q:%q,", name, hexcodec.Unpack(v))
	}
	writeHex("md5", e.MD5)
	writeHex("sha1", e.SHA1)
	writeHex("sha256", e.SHA256)
	writeHex("sha512", e.SHA512)

	fmt.Fprintf(&b, "%q:%q", "pathmd5", hexcodec.Unpack(e.PathMD5[:]))

	if e.HasStat {
		fmt.Fprintf(&b, `,"uid":%d,"gid":%d,"mode":%d,"size":%d,`+
			`"asec":%d,"ansec":%d,"msec":%d,"mnsec":%d,"csec":%d,"cnsec":%d`,
			e.UID, e.GID, e.Mode, e.Size,
			e.ASec, e.ANSec, e.MSec, e.MNSec, e.CSec, e.CNSec)
		fmt.Fprintf(&b, `,"type":%q`, string(e.Type))
	}

	fmt.Fprintf(&b, `,"state":%s`, mustMarshalString(string(e.State)))

	if e.ElapsedMS >= 0 {
		fmt.Fprintf(&b, `,"elapsed":%d`, e.ElapsedMS)
	}

	if e.State == SymlinkCreated || e.SymlinkTarget != "" {
		writeStringOrHex(&b, "symlinkTarget", "symlinkTargetHex", e.SymlinkTarget)
	}

	if e.Path != "" {
		writeStringOrHex(&b, "path", "pathhex", e.Path)
	}

	b.WriteString("}\n")
	_, err := io.WriteString(w.w, b.String())
	return err
}

// WriteXattr serializes x: pathmd5, xattrName, xattrValue (base64).
func (w *Writer) WriteXattr(x *XattrEntry) error {
	_, err := fmt.Fprintf(w.w, "{%q:%q,%q:%s,%q:%q}\n",
		"pathmd5", hexcodec.Unpack(x.PathMD5[:]),
		"xattrName", mustMarshalString(x.Name),
		"xattrValue", base64.StdEncoding.EncodeToString(x.Value))
	return err
}

func writeStringOrHex(b *strings.Builder, strKey, hexKey, s string) {
	if utf8.ValidString(s) {
		fmt.Fprintf(b, `,%q:%s`, strKey, mustMarshalString(s))
	} else {
		fmt.Fprintf(b, `,%q:%q`, hexKey, hexcodec.Unpack([]byte(s)))
	}
}

func mustMarshalString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		// json.Marshal of a string only fails for invalid UTF-8, which
		// writeStringOrHex already routes around; state values are
		// always valid ASCII constants.
		return strconv.Quote(s)
	}
	return string(b)
}

// Reader reads the line-delimited record stream written by Writer,
// skipping '#'-prefixed metadata lines.
type Reader struct {
	s    *bufio.Scanner
	line int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{s: s}
}

// ErrDone is returned by ReadEntry and ReadXattr once the stream is
// exhausted, matching the specification's "distinguished no-more signal".
var ErrDone = io.EOF

// ReadEntry reads and parses the next non-metadata record line as an
// Entry. Returns ErrDone at end of stream.
func (r *Reader) ReadEntry() (*Entry, error) {
	line, err := r.nextRecordLine()
	if err != nil {
		return nil, err
	}
	return r.parseEntry(line)
}

// ReadXattr reads and parses the next non-metadata record line as an
// XattrEntry. Returns ErrDone at end of stream.
func (r *Reader) ReadXattr() (*XattrEntry, error) {
	line, err := r.nextRecordLine()
	if err != nil {
		return nil, err
	}
	return r.parseXattr(line)
}

func (r *Reader) nextRecordLine() (string, error) {
	for {
		if !r.s.Scan() {
			if err := r.s.Err(); err != nil {
				return "", err
			}
			return "", ErrDone
		}
		r.line++
		line := r.s.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '#' {
			continue
		}
		return line, nil
	}
}

// checkNoDuplicateKeys walks the JSON object in line verifying JSON_REJECT_
// DUPLICATES semantics (the standard decoder silently keeps the last of a
// repeated key; jansson, and this reader, treat it as a hard parse error).
func checkNoDuplicateKeys(line string) error {
	dec := json.NewDecoder(strings.NewReader(line))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("not a JSON object")
	}
	seen := make(map[string]bool)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("non-string key")
		}
		if seen[key] {
			return fmt.Errorf("duplicate key %q", key)
		}
		seen[key] = true
		var discard interface{}
		if err := dec.Decode(&discard); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return err
	}
	return nil
}

func (r *Reader) parseEntry(line string) (*Entry, error) {
	if err := checkNoDuplicateKeys(line); err != nil {
		return nil, fmt.Errorf("cannot parse json on line %d: %w", r.line, err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		return nil, fmt.Errorf("cannot parse json on line %d: %w", r.line, err)
	}

	e := &Entry{ElapsedMS: -1}
	hasPathMD5 := false

	for key, raw := range m {
		switch key {
		case "md5", "sha1", "sha256", "sha512", "pathmd5":
			s, err := decodeJSONString(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: not a string", key, r.line)
			}
			if s == "" {
				continue // empty-string digests are treated as absent
			}
			tag, _ := digest.ParseTag(key)
			n := digest.MaxLength
			if key != "pathmd5" {
				n = digest.Length(tag)
			} else {
				n = 16
			}
			dest := make([]byte, n)
			got, err := hexcodec.Pack(dest, s, r.line)
			if err != nil || got != n {
				return nil, fmt.Errorf("invalid %q on line %d: wrong length", key, r.line)
			}
			if key == "pathmd5" {
				copy(e.PathMD5[:], dest)
				hasPathMD5 = true
			} else {
				e.SetDigest(tag, dest)
			}

		case "uid":
			v, err := decodeJSONInt(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: non integer", key, r.line)
			}
			e.UID = uint32(v)
			e.HasStat = true
		case "gid":
			v, err := decodeJSONInt(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: non integer", key, r.line)
			}
			e.GID = uint32(v)
			e.HasStat = true
		case "mode":
			v, err := decodeJSONInt(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: non integer", key, r.line)
			}
			e.Mode = uint32(v)
			e.Type = TypeFromMode(e.Mode)
			e.HasStat = true
		case "size":
			v, err := decodeJSONInt(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: non integer", key, r.line)
			}
			e.Size = v
			e.HasStat = true
		case "asec":
			v, err := decodeJSONInt(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: non integer", key, r.line)
			}
			e.ASec = v
		case "ansec":
			v, err := decodeJSONInt(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: non integer", key, r.line)
			}
			e.ANSec = v
		case "msec":
			v, err := decodeJSONInt(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: non integer", key, r.line)
			}
			e.MSec = v
		case "mnsec":
			v, err := decodeJSONInt(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: non integer", key, r.line)
			}
			e.MNSec = v
		case "csec":
			v, err := decodeJSONInt(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: non integer", key, r.line)
			}
			e.CSec = v
		case "cnsec":
			v, err := decodeJSONInt(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: non integer", key, r.line)
			}
			e.CNSec = v
		case "elapsed":
			v, err := decodeJSONInt(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: non integer", key, r.line)
			}
			e.ElapsedMS = v

		case "state":
			s, err := decodeJSONString(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: not a string", key, r.line)
			}
			e.State = State(s)
		case "type":
			// Derived from mode on write; accepted but not trusted on
			// read since Type is recomputed from "mode" above.
		case "path":
			s, err := decodeJSONString(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: not a string", key, r.line)
			}
			e.Path = s
		case "pathhex":
			s, err := decodeJSONString(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: not a string", key, r.line)
			}
			dest := make([]byte, len(s)/2)
			n, err := hexcodec.Pack(dest, s, r.line)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: %w", key, r.line, err)
			}
			e.Path = string(dest[:n])
		case "symlinkTarget":
			s, err := decodeJSONString(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: not a string", key, r.line)
			}
			e.SymlinkTarget = s
		case "symlinkTargetHex":
			s, err := decodeJSONString(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: not a string", key, r.line)
			}
			dest := make([]byte, len(s)/2)
			n, err := hexcodec.Pack(dest, s, r.line)
			if err != nil {
				return nil, fmt.Errorf("invalid %q on line %d: %w", key, r.line, err)
			}
			e.SymlinkTarget = string(dest[:n])

		default:
			// Unknown keys are forward-compatibility noise: warn and
			// ignore, per the specification.
			warnUnknownKey(key, r.line)
		}
	}

	if !hasPathMD5 {
		return nil, fmt.Errorf("'pathmd5' missing on line %d", r.line)
	}
	return e, nil
}

func (r *Reader) parseXattr(line string) (*XattrEntry, error) {
	if err := checkNoDuplicateKeys(line); err != nil {
		return nil, fmt.Errorf("cannot parse json on line %d: %w", r.line, err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		return nil, fmt.Errorf("cannot parse json on line %d: %w", r.line, err)
	}
	x := &XattrEntry{}
	hasPathMD5 := false
	for key, raw := range m {
		switch key {
		case "pathmd5":
			s, err := decodeJSONString(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid pathmd5 on line %d", r.line)
			}
			dest := make([]byte, 16)
			n, err := hexcodec.Pack(dest, s, r.line)
			if err != nil || n != 16 {
				return nil, fmt.Errorf("invalid pathmd5 on line %d: wrong length", r.line)
			}
			copy(x.PathMD5[:], dest)
			hasPathMD5 = true
		case "xattrName":
			s, err := decodeJSONString(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid xattrName on line %d", r.line)
			}
			x.Name = s
		case "xattrValue":
			s, err := decodeJSONString(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid xattrValue on line %d", r.line)
			}
			v, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("invalid xattrValue on line %d: %w", r.line, err)
			}
			x.Value = v
		default:
			warnUnknownKey(key, r.line)
		}
	}
	if !hasPathMD5 {
		return nil, fmt.Errorf("'pathmd5' missing on line %d", r.line)
	}
	return x, nil
}

func decodeJSONString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}

func decodeJSONInt(raw json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	v, err := n.Int64()
	if err != nil {
		return 0, err
	}
	return v, nil
}

// warnUnknownKey is overridable by tests; production builds log through
// the log package directly.
var warnUnknownKey = func(key string, line int) {
	log.Debug.Printf("record: ignoring unknown field %q on line %d", key, line)
}
