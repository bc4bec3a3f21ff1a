package canonical

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/Mindburn-Labs/ucf/core/pkg/schema"
)

// sortList orders a set-like repeated field by its declared key. The order
// is total: key comparison first, then the full element's canonical bytes,
// so a given multiset of elements has exactly one normalized layout.
func sortList(m protoreflect.Message, fd protoreflect.FieldDescriptor, key schema.SortKey) error {
	if m.Get(fd).List().Len() < 2 {
		return nil
	}
	list := m.Mutable(fd).List()
	n := list.Len()

	elems := make([]protoreflect.Value, n)
	for i := 0; i < n; i++ {
		elems[i] = list.Get(i)
	}

	if len(key.Fields) > 0 && fd.Kind() != protoreflect.MessageKind {
		return fmt.Errorf("%w: %s.%s: key fields declared on a scalar list",
			ErrSchemaPolicyMismatch, m.Descriptor().FullName(), fd.Name())
	}

	var keyFds []protoreflect.FieldDescriptor
	for _, name := range key.Fields {
		kfd := fd.Message().Fields().ByName(protoreflect.Name(name))
		if kfd == nil {
			return fmt.Errorf("%w: %s has no key field %q",
				ErrSchemaPolicyMismatch, fd.Message().FullName(), name)
		}
		keyFds = append(keyFds, kfd)
	}

	// Tie-break bytes are memoized; elements are already normalized when
	// the post-order walk reaches this list.
	tieBytes := make([][]byte, n)
	var sortErr error
	elementBytes := func(i int) []byte {
		if tieBytes[i] == nil {
			b, err := marshalMessage(elems[i].Message())
			if err != nil {
				sortErr = err
				b = []byte{}
			}
			tieBytes[i] = b
		}
		return tieBytes[i]
	}

	less := func(i, j int) bool {
		if len(keyFds) == 0 {
			if fd.Kind() == protoreflect.MessageKind {
				return bytes.Compare(elementBytes(i), elementBytes(j)) < 0
			}
			return compareScalar(fd.Kind(), elems[i], elems[j]) < 0
		}
		a, b := elems[i].Message(), elems[j].Message()
		for _, kfd := range keyFds {
			if c := compareScalar(kfd.Kind(), a.Get(kfd), b.Get(kfd)); c != 0 {
				return c < 0
			}
		}
		return bytes.Compare(elementBytes(i), elementBytes(j)) < 0
	}
	sort.SliceStable(elems, less)
	if sortErr != nil {
		return sortErr
	}

	for i := 0; i < n; i++ {
		list.Set(i, elems[i])
	}
	return nil
}

func compareScalar(kind protoreflect.Kind, a, b protoreflect.Value) int {
	switch kind {
	case protoreflect.StringKind:
		return strings.Compare(a.String(), b.String())
	case protoreflect.BytesKind:
		return bytes.Compare(a.Bytes(), b.Bytes())
	case protoreflect.BoolKind:
		return boolToInt(a.Bool()) - boolToInt(b.Bool())
	case protoreflect.EnumKind:
		return int(a.Enum()) - int(b.Enum())
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return compareInt64(a.Int(), b.Int())
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return compareUint64(a.Uint(), b.Uint())
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		// Bit comparison keeps the order total even for NaN payloads.
		return compareUint64(math.Float64bits(a.Float()), math.Float64bits(b.Float()))
	default:
		return 0
	}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
