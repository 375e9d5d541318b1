package source

import (
	"fmt"
	"strings"
)

// Descriptor identifies one company's operational source. The wire format is
// the deployment's historical one: COMPANY^addr/dbname^user^pass, with
// multiple descriptors joined by commas.
type Descriptor struct {
	Company  string
	Addr     string
	Database string
	Username string
	Password string
}

// ParseDescriptors splits a comma-separated descriptor list. Blank entries
// are ignored; a malformed entry fails the whole list.
func ParseDescriptors(s string) ([]Descriptor, error) {
	var out []Descriptor
	for _, raw := range strings.Split(s, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		d, err := parseDescriptor(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no source descriptors configured")
	}
	return out, nil
}

func parseDescriptor(raw string) (Descriptor, error) {
	parts := strings.Split(raw, "^")
	if len(parts) != 4 {
		return Descriptor{}, fmt.Errorf("descriptor %q: want COMPANY^addr/db^user^pass", raw)
	}
	addr, db, ok := strings.Cut(parts[1], "/")
	if !ok || addr == "" || db == "" {
		return Descriptor{}, fmt.Errorf("descriptor %q: address must be addr/db", raw)
	}
	d := Descriptor{
		Company:  strings.TrimSpace(parts[0]),
		Addr:     addr,
		Database: db,
		Username: parts[2],
		Password: parts[3],
	}
	if d.Company == "" {
		return Descriptor{}, fmt.Errorf("descriptor %q: company code is empty", raw)
	}
	return d, nil
}
