package platform

import "strings"

const maxKeyLen = 255

// lineBreaks (and NUL) may not appear in a command or directory: every native
// mechanism stores one registration per line or value.
const lineBreaks = "\r\n\x00"

// ValidateKey checks that key is usable as a launchd label, a crontab marker
// and a registry value name alike.
func ValidateKey(op, key string) error {
	if key == "" {
		return InvalidArgument(op, "key is required")
	}
	if len(key) > maxKeyLen {
		return InvalidArgument(op, "key is longer than %d bytes", maxKeyLen)
	}
	if key[0] == '.' || key[0] == '-' {
		return InvalidArgument(op, "key %q must not start with %q", key, key[0])
	}
	for i := 0; i < len(key); i++ {
		if !isKeyByte(key[i]) {
			return InvalidArgument(op, "key %q contains invalid character %q", key, key[i])
		}
	}
	return nil
}

func isKeyByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.', c == '_', c == '-':
		return true
	}
	return false
}

// ValidateSpec checks every field of a registration request.
func ValidateSpec(op string, spec Spec) error {
	if err := ValidateKey(op, spec.Key); err != nil {
		return err
	}
	if spec.Command == "" {
		return InvalidArgument(op, "command is required")
	}
	if spec.WorkingDirectory == "" {
		return InvalidArgument(op, "working directory is required")
	}
	if strings.ContainsAny(spec.Command, lineBreaks) {
		return InvalidArgument(op, "command must be a single line")
	}
	if strings.ContainsAny(spec.WorkingDirectory, lineBreaks) {
		return InvalidArgument(op, "working directory must be a single line")
	}
	return nil
}
