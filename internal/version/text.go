package version

// MarshalText/UnmarshalText let go-toml/v2 and encoding/json read and write
// Version and Request as plain strings (spec.md §4.C's "M.m.p" form),
// mirroring the teacher's config.FileEntry text-marshaling trick
// (SPEC_FULL.md §3).

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (r Request) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Request) UnmarshalText(text []byte) error {
	parsed, err := ParseRequest(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
