package model

import (
	"fmt"
	"strings"
)

// An artifact reference is a string "container/key" naming a piece of
// content in the artifact store. It is treated as an opaque capability:
// stages must check the container against their input contract before
// dereferencing.

// FormatRef builds a reference string from a container and key.
func FormatRef(container, key string) string {
	return container + "/" + key
}

// ParseRef splits a reference on the first separator. The key may
// itself contain separators ("{request_id}/extracted.txt").
func ParseRef(ref string) (container, key string, err error) {
	container, key, ok := strings.Cut(ref, "/")
	if !ok || container == "" || key == "" {
		return "", "", ErrBadRequest(fmt.Sprintf("malformed artifact reference %q", ref))
	}
	return container, key, nil
}
