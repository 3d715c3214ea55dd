package vfs

import (
	"strings"

	"webterm/vpath"
)

const (
	maxPathLength = 1024
	maxNameLength = 255
	invalidChars  = `<>:"|?*`
)

var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// validatePath checks a normalized absolute path that is about to be created.
func validatePath(op string, info vpath.Info) error {
	if len(info.Normalized) > maxPathLength {
		return newErrorf(EINVAL, op, info.Normalized, "path longer than %d characters", maxPathLength)
	}

	for _, seg := range info.Segments {
		if err := validateName(op, info.Normalized, seg); err != nil {
			return err
		}
	}
	return nil
}

func validateName(op, path, name string) error {
	if len(name) > maxNameLength {
		return newErrorf(EINVAL, op, path, "name longer than %d characters", maxNameLength)
	}

	for _, r := range name {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(invalidChars, r) {
			return newErrorf(EINVAL, op, path, "name contains invalid character %q", r)
		}
	}

	stem := name
	if i := strings.Index(stem, "."); i > 0 {
		stem = stem[:i]
	}
	if _, reserved := reservedNames[strings.ToUpper(stem)]; reserved {
		return newErrorf(EINVAL, op, path, "%q is a reserved name", name)
	}
	return nil
}
