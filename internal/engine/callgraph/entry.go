package callgraph

import (
	"docgen/internal/core/errors"
	"fmt"
	"strings"
)

type EntryKind int

const (
	EntryFunction EntryKind = iota
	EntryMethod
)

// EntryPoint names the definition a build starts from: a free function, or a
// method on a type's impl block.
type EntryPoint struct {
	Kind     EntryKind
	TypeName string
	Name     string
}

func Function(name string) EntryPoint {
	return EntryPoint{Kind: EntryFunction, Name: name}
}

func Method(typeName, method string) EntryPoint {
	return EntryPoint{Kind: EntryMethod, TypeName: typeName, Name: method}
}

// ParseEntryPoint accepts "name" or "Type::method".
func ParseEntryPoint(s string) (EntryPoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return EntryPoint{}, errors.New(errors.CodeValidationError, "entry point must not be empty")
	}
	parts := strings.Split(s, "::")
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return EntryPoint{}, errors.New(errors.CodeValidationError, fmt.Sprintf("invalid entry point %q", s))
		}
	}
	switch len(parts) {
	case 1:
		return Function(parts[0]), nil
	case 2:
		return Method(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])), nil
	default:
		return EntryPoint{}, errors.New(errors.CodeValidationError, fmt.Sprintf("entry point %q has more than two segments", s))
	}
}

func (e EntryPoint) String() string {
	if e.Kind == EntryMethod {
		return e.TypeName + "::" + e.Name
	}
	return e.Name
}
