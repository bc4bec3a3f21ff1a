package canonical

import (
	"fmt"
	"math"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// marshalMessage serializes a normalized message deterministically: fields
// in ascending field-number order, repeated scalars packed, submessages
// length-delimited. Unset implicit-presence fields are omitted; explicit
// presence (optional, oneof) fields are emitted whenever set, default
// values included.
func marshalMessage(m protoreflect.Message) ([]byte, error) {
	md := m.Descriptor()
	fields := md.Fields()
	ordered := make([]protoreflect.FieldDescriptor, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		ordered[i] = fields.Get(i)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Number() < ordered[j].Number() })

	var buf []byte
	var err error
	for _, fd := range ordered {
		if fd.IsMap() {
			return nil, fmt.Errorf("%s.%s: map fields have no canonical order", md.FullName(), fd.Name())
		}
		if fd.IsList() {
			list := m.Get(fd).List()
			if list.Len() == 0 {
				continue
			}
			buf, err = appendList(buf, fd, list)
		} else {
			if !m.Has(fd) {
				continue
			}
			buf, err = appendField(buf, fd, m.Get(fd))
		}
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func appendField(buf []byte, fd protoreflect.FieldDescriptor, v protoreflect.Value) ([]byte, error) {
	buf = protowire.AppendTag(buf, fd.Number(), wireType(fd.Kind()))
	return appendValue(buf, fd, v)
}

func appendList(buf []byte, fd protoreflect.FieldDescriptor, list protoreflect.List) ([]byte, error) {
	if packable(fd.Kind()) {
		// The canonical profile always packs packable repeated fields.
		var payload []byte
		var err error
		for i := 0; i < list.Len(); i++ {
			payload, err = appendValue(payload, fd, list.Get(i))
			if err != nil {
				return nil, err
			}
		}
		buf = protowire.AppendTag(buf, fd.Number(), protowire.BytesType)
		return protowire.AppendBytes(buf, payload), nil
	}
	var err error
	for i := 0; i < list.Len(); i++ {
		buf, err = appendField(buf, fd, list.Get(i))
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// appendValue writes the tagless payload of one value.
func appendValue(buf []byte, fd protoreflect.FieldDescriptor, v protoreflect.Value) ([]byte, error) {
	switch fd.Kind() {
	case protoreflect.Int32Kind, protoreflect.Int64Kind:
		return protowire.AppendVarint(buf, uint64(v.Int())), nil
	case protoreflect.Sint32Kind, protoreflect.Sint64Kind:
		return protowire.AppendVarint(buf, protowire.EncodeZigZag(v.Int())), nil
	case protoreflect.Uint32Kind, protoreflect.Uint64Kind:
		return protowire.AppendVarint(buf, v.Uint()), nil
	case protoreflect.BoolKind:
		return protowire.AppendVarint(buf, protowire.EncodeBool(v.Bool())), nil
	case protoreflect.EnumKind:
		return protowire.AppendVarint(buf, uint64(int64(v.Enum()))), nil
	case protoreflect.Fixed32Kind:
		return protowire.AppendFixed32(buf, uint32(v.Uint())), nil
	case protoreflect.Sfixed32Kind:
		return protowire.AppendFixed32(buf, uint32(v.Int())), nil
	case protoreflect.FloatKind:
		return protowire.AppendFixed32(buf, math.Float32bits(float32(v.Float()))), nil
	case protoreflect.Fixed64Kind:
		return protowire.AppendFixed64(buf, v.Uint()), nil
	case protoreflect.Sfixed64Kind:
		return protowire.AppendFixed64(buf, uint64(v.Int())), nil
	case protoreflect.DoubleKind:
		return protowire.AppendFixed64(buf, math.Float64bits(v.Float())), nil
	case protoreflect.StringKind:
		return protowire.AppendString(buf, v.String()), nil
	case protoreflect.BytesKind:
		return protowire.AppendBytes(buf, v.Bytes()), nil
	case protoreflect.MessageKind:
		sub, err := marshalMessage(v.Message())
		if err != nil {
			return nil, err
		}
		return protowire.AppendBytes(buf, sub), nil
	default:
		return nil, fmt.Errorf("field %s: kind %v not in the wire profile", fd.FullName(), fd.Kind())
	}
}

func wireType(kind protoreflect.Kind) protowire.Type {
	switch kind {
	case protoreflect.Fixed32Kind, protoreflect.Sfixed32Kind, protoreflect.FloatKind:
		return protowire.Fixed32Type
	case protoreflect.Fixed64Kind, protoreflect.Sfixed64Kind, protoreflect.DoubleKind:
		return protowire.Fixed64Type
	case protoreflect.StringKind, protoreflect.BytesKind, protoreflect.MessageKind:
		return protowire.BytesType
	default:
		return protowire.VarintType
	}
}

func packable(kind protoreflect.Kind) bool {
	switch kind {
	case protoreflect.StringKind, protoreflect.BytesKind, protoreflect.MessageKind, protoreflect.GroupKind:
		return false
	default:
		return true
	}
}
