package schema

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Digest fields on the wire are Digest32 submessages holding one bytes
// field. These helpers read and write them through dotted paths so callers
// stay schema-generic.

// GetDigest reads the 32-byte digest stored at path. The second return is
// false when the field (or any parent along the path) is unset.
func GetDigest(msg proto.Message, path string) ([32]byte, bool, error) {
	var out [32]byte
	m := msg.ProtoReflect()
	parts := pathParts(path)
	for i, part := range parts {
		fd := m.Descriptor().Fields().ByName(protoreflect.Name(part))
		if fd == nil {
			return out, false, fmt.Errorf("field %q not present on %s", path, msg.ProtoReflect().Descriptor().FullName())
		}
		if !m.Has(fd) {
			return out, false, nil
		}
		if i == len(parts)-1 {
			leaf := m.Get(fd).Message()
			valueFd := leaf.Descriptor().Fields().ByName("value")
			if valueFd == nil {
				return out, false, fmt.Errorf("field %q on %s is not a digest", path, msg.ProtoReflect().Descriptor().FullName())
			}
			raw := leaf.Get(valueFd).Bytes()
			if len(raw) != 32 {
				return out, false, fmt.Errorf("digest field %q holds %d bytes, want 32", path, len(raw))
			}
			copy(out[:], raw)
			return out, true, nil
		}
		m = m.Get(fd).Message()
	}
	return out, false, nil
}

// SetDigest writes a 32-byte digest at path, materializing intermediate
// messages. The input message is mutated; callers wanting copy semantics
// clone first.
func SetDigest(msg proto.Message, path string, d [32]byte) error {
	m := msg.ProtoReflect()
	if _, err := ResolveField(m.Descriptor(), path); err != nil {
		return err
	}
	parts := pathParts(path)
	for _, part := range parts[:len(parts)-1] {
		m = m.Mutable(m.Descriptor().Fields().ByName(protoreflect.Name(part))).Message()
	}
	leaf := m.Mutable(m.Descriptor().Fields().ByName(protoreflect.Name(parts[len(parts)-1]))).Message()
	valueFd := leaf.Descriptor().Fields().ByName("value")
	if valueFd == nil || valueFd.Kind() != protoreflect.BytesKind {
		return fmt.Errorf("field %q on %s is not a digest", path, msg.ProtoReflect().Descriptor().FullName())
	}
	leaf.Set(valueFd, protoreflect.ValueOfBytes(append([]byte(nil), d[:]...)))
	return nil
}

func pathParts(path string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	return append(parts, path[start:])
}
