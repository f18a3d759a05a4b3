package repository

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/ini.v1"
)

// Field is a single key/value line of a credentials profile
type Field struct {
	Key   string
	Value string
}

// Record holds the fields of one profile in file order
type Record []Field

// Get returns the value of key
func (r Record) Get(key string) (string, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Has reports whether key is present with a non-empty value
func (r Record) Has(key string) bool {
	v, ok := r.Get(key)
	return ok && v != ""
}

// Keys returns the field names in file order
func (r Record) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// Clone returns a copy that shares no backing array with r
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	copy(out, r)
	return out
}

// With returns a copy of r with key set to value. An existing key keeps its
// position; a new key is appended.
func (r Record) With(key, value string) Record {
	out := r.Clone()
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Field{Key: key, Value: value})
}

// Without returns a copy of r with key removed
func (r Record) Without(key string) Record {
	out := make(Record, 0, len(r))
	for _, f := range r {
		if f.Key != key {
			out = append(out, f)
		}
	}
	return out
}

// Profile is a named record
type Profile struct {
	Name   string
	Record Record
}

// Snapshot is an immutable, ordered view of a credentials file.
// Keys found before the first section header are kept in the preamble so
// they survive a rewrite. Sections that cannot be read as plain key/value
// lines are carried as raw text and have an empty record.
type Snapshot struct {
	preamble Record
	profiles []Profile
	raw      map[string]string
}

// NewSnapshot builds a snapshot from profiles, in the given order
func NewSnapshot(profiles ...Profile) Snapshot {
	s := Snapshot{}
	for _, p := range profiles {
		s = s.WithProfile(p.Name, p.Record)
	}
	return s
}

// Names returns the profile names in file order
func (s Snapshot) Names() []string {
	names := make([]string, len(s.profiles))
	for i, p := range s.profiles {
		names[i] = p.Name
	}
	return names
}

// Profiles returns a copy of all profiles in file order
func (s Snapshot) Profiles() []Profile {
	out := make([]Profile, len(s.profiles))
	for i, p := range s.profiles {
		out[i] = Profile{Name: p.Name, Record: p.Record.Clone()}
	}
	return out
}

// Profile returns a copy of the named profile's record
func (s Snapshot) Profile(name string) (Record, bool) {
	for _, p := range s.profiles {
		if p.Name == name {
			return p.Record.Clone(), true
		}
	}
	return nil, false
}

// Len returns the number of profiles
func (s Snapshot) Len() int {
	return len(s.profiles)
}

// WithProfile returns a new snapshot in which name maps to rec. The receiver
// is left untouched. A replaced profile keeps its position in the file.
func (s Snapshot) WithProfile(name string, rec Record) Snapshot {
	out := Snapshot{
		preamble: s.preamble.Clone(),
		profiles: make([]Profile, 0, len(s.profiles)+1),
	}
	for n, body := range s.raw {
		if n == name {
			continue
		}
		if out.raw == nil {
			out.raw = make(map[string]string)
		}
		out.raw[n] = body
	}
	replaced := false
	for _, p := range s.profiles {
		if p.Name == name {
			out.profiles = append(out.profiles, Profile{Name: name, Record: rec.Clone()})
			replaced = true
			continue
		}
		out.profiles = append(out.profiles, Profile{Name: p.Name, Record: p.Record.Clone()})
	}
	if !replaced {
		out.profiles = append(out.profiles, Profile{Name: name, Record: rec.Clone()})
	}
	return out
}

// loadOptions are shared by Decode and Encode so that a value written by
// Encode reads back identically. AWS secrets may contain '#' and ';', and
// quotes around a value are part of it for the AWS CLI.
var loadOptions = ini.LoadOptions{
	IgnoreInlineComment:     true,
	PreserveSurroundedQuote: true,
}

// Decode parses credentials file content
func Decode(data []byte) (Snapshot, error) {
	opts := loadOptions
	opts.UnparseableSections = rawSections(data)

	f, err := ini.LoadSources(opts, data)
	if err != nil {
		return Snapshot{}, err
	}

	var s Snapshot
	for _, sec := range f.Sections() {
		if sec.Name() != ini.DefaultSection && lo.Contains(opts.UnparseableSections, sec.Name()) {
			if s.raw == nil {
				s.raw = make(map[string]string)
			}
			s.raw[sec.Name()] = sec.Body()
			s.profiles = append(s.profiles, Profile{Name: sec.Name()})
			continue
		}

		rec := make(Record, 0, len(sec.Keys()))
		for _, k := range sec.Keys() {
			rec = append(rec, Field{Key: k.Name(), Value: k.Value()})
		}
		if sec.Name() == ini.DefaultSection {
			s.preamble = rec
			continue
		}
		s.profiles = append(s.profiles, Profile{Name: sec.Name(), Record: rec})
	}
	return s, nil
}

// rawSections names the sections holding a line the ini library would read
// with its own quoting rules: a quoted key, or a value opened by """ or a
// backtick. The AWS CLI reads those characters literally, so such sections
// are kept verbatim instead of being decoded.
func rawSections(data []byte) []string {
	var names []string
	section := ""
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if line[0] == '[' {
			if end := strings.LastIndexByte(line, ']'); end > 0 {
				section = strings.TrimSpace(line[1:end])
			}
			continue
		}
		if section == "" || lo.Contains(names, section) {
			continue
		}
		if line[0] == '"' || line[0] == '`' {
			names = append(names, section)
			continue
		}
		if i := strings.IndexAny(line, "=:"); i >= 0 {
			value := strings.TrimSpace(line[i+1:])
			if strings.HasPrefix(value, `"""`) || strings.HasPrefix(value, "`") {
				names = append(names, section)
			}
		}
	}
	return names
}

// Encode renders a snapshot in INI format
func Encode(s Snapshot) ([]byte, error) {
	f := ini.Empty(loadOptions)

	def := f.Section(ini.DefaultSection)
	for _, field := range s.preamble {
		if _, err := def.NewKey(field.Key, field.Value); err != nil {
			return nil, fmt.Errorf("failed to encode key %q: %w", field.Key, err)
		}
	}

	for _, p := range s.profiles {
		if body, ok := s.raw[p.Name]; ok {
			if _, err := f.NewRawSection(p.Name, body+"\n"); err != nil {
				return nil, fmt.Errorf("failed to encode profile %q: %w", p.Name, err)
			}
			continue
		}
		sec, err := f.NewSection(p.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to encode profile %q: %w", p.Name, err)
		}
		for _, field := range p.Record {
			if _, err := sec.NewKey(field.Key, field.Value); err != nil {
				return nil, fmt.Errorf("failed to encode key %q of profile %q: %w", field.Key, p.Name, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode credentials: %w", err)
	}
	return buf.Bytes(), nil
}
