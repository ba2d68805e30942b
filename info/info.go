// Package info provides utility functions for manipulating info lines returned
// by the modem in response to AT commands.
package info

import "strings"

// HasPrefix returns true if the line begins with the info prefix for the command.
func HasPrefix(line, cmd string) bool {
	return strings.HasPrefix(line, cmd+":")
}

// TrimPrefix removes the command  prefix, if any, and any intervening space
// from the info line.
func TrimPrefix(line, cmd string) string {
	return strings.TrimLeft(strings.TrimPrefix(line, cmd+":"), " ")
}

// Split splits the parameters of an info line at commas.
//
// Commas within double quotes do not split, and the quotes themselves are
// removed. A trailing comma, or trailing empty quoted string, yields a
// trailing empty parameter, but an empty string yields no parameters.
func Split(params string) []string {
	var fields []string
	var field strings.Builder
	inString := false
	quoted := false
	for i := 0; i < len(params); i++ {
		c := params[i]
		switch {
		case c == '"':
			inString = !inString
			quoted = true
		case c == ',' && !inString:
			fields = append(fields, field.String())
			field.Reset()
			quoted = false
		default:
			field.WriteByte(c)
		}
	}
	if field.Len() > 0 || quoted || strings.HasSuffix(params, ",") {
		fields = append(fields, field.String())
	}
	return fields
}

// Params returns the parameters of the info line for the command.
//
// Returns false if the line is not an info line for the command.
func Params(line, cmd string) ([]string, bool) {
	if !HasPrefix(line, cmd) {
		return nil, false
	}
	return Split(TrimPrefix(line, cmd)), true
}

// CutParams returns the parameters of the line following the literal prefix,
// such as `+QCFG: "band",`.
//
// Returns false if the line does not start with the prefix.
func CutParams(line, prefix string) ([]string, bool) {
	rest, ok := strings.CutPrefix(line, prefix)
	if !ok {
		return nil, false
	}
	return Split(rest), true
}
