package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitSlot splits a concrete slot name into base name and numeric array
// index. Names without a numeric suffix report index -1. The split is purely
// lexical; callers decide whether the base actually declares an array socket.
func SplitSlot(slot string) (base string, index int) {
	i := strings.LastIndexByte(slot, '_')
	if i <= 0 || i == len(slot)-1 {
		return slot, -1
	}
	n, err := strconv.Atoi(slot[i+1:])
	if err != nil || n < 0 {
		return slot, -1
	}
	return slot[:i], n
}

// SlotName returns the concrete slot name for one element of an array socket.
func SlotName(base string, index int) string {
	return fmt.Sprintf("%s_%d", base, index)
}

// ResolveSlot maps a concrete slot name to its declaring spec within specs.
// Scalar sockets resolve by exact name; array sockets resolve indexed slots
// of their base name. The returned index is -1 for scalar sockets.
//
// A slot that matches no spec is a configuration error. So is addressing an
// array socket without an index, or indexing a scalar socket: array
// membership never mixes with a non-indexed socket of the same base name.
func ResolveSlot(specs []SocketSpec, slot string) (*SocketSpec, int, error) {
	// Exact names win over suffix interpretation so a scalar socket may
	// legitimately be called "retry_2".
	for i := range specs {
		if specs[i].Name == slot {
			if specs[i].IsArray {
				return nil, 0, fmt.Errorf("socket %q is an array socket and must be addressed by indexed slot (%s_0, %s_1, ...)", slot, slot, slot)
			}
			return &specs[i], -1, nil
		}
	}

	base, index := SplitSlot(slot)
	if index >= 0 {
		for i := range specs {
			if specs[i].Name == base {
				if !specs[i].IsArray {
					return nil, 0, fmt.Errorf("socket %q is not an array socket, cannot address slot %q", base, slot)
				}
				return &specs[i], index, nil
			}
		}
	}

	return nil, 0, fmt.Errorf("unknown socket %q", slot)
}
