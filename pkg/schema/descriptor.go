package schema

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// The ucf.v1 descriptor set is built programmatically rather than generated
// from .proto sources, so the module carries no codegen step and the schema
// surface stays inspectable by the hygiene checks. The builder below covers
// the subset of proto3 the wire profile allows: scalar/message/enum fields,
// repeated fields, real oneofs, and explicit-presence (proto3 optional)
// scalars. Map fields are intentionally not constructible.

type fileBuilder struct {
	fd *descriptorpb.FileDescriptorProto
}

func newFile(name string, deps ...string) *fileBuilder {
	return &fileBuilder{fd: &descriptorpb.FileDescriptorProto{
		Name:       proto.String(name),
		Package:    proto.String(pkgName),
		Syntax:     proto.String("proto3"),
		Dependency: deps,
	}}
}

type messageBuilder struct {
	md *descriptorpb.DescriptorProto
	// nextOneof tracks indices so synthetic optional oneofs always follow
	// the real ones, as protodesc requires.
	realOneofs int
}

func (f *fileBuilder) message(name string) *messageBuilder {
	mb := &messageBuilder{md: &descriptorpb.DescriptorProto{Name: proto.String(name)}}
	f.fd.MessageType = append(f.fd.MessageType, mb.md)
	return mb
}

func (f *fileBuilder) enum(name string, values ...string) {
	ed := &descriptorpb.EnumDescriptorProto{Name: proto.String(name)}
	for i, v := range values {
		ed.Value = append(ed.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(v),
			Number: proto.Int32(int32(i)),
		})
	}
	f.fd.EnumType = append(f.fd.EnumType, ed)
}

type fieldOpt func(*descriptorpb.FieldDescriptorProto, *messageBuilder)

func repeated() fieldOpt {
	return func(fd *descriptorpb.FieldDescriptorProto, _ *messageBuilder) {
		fd.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	}
}

// explicit marks a scalar field as proto3 optional. Presence is tracked via
// the synthetic oneof protodesc expects.
func explicit() fieldOpt {
	return func(fd *descriptorpb.FieldDescriptorProto, mb *messageBuilder) {
		fd.Proto3Optional = proto.Bool(true)
		idx := int32(len(mb.md.OneofDecl))
		mb.md.OneofDecl = append(mb.md.OneofDecl, &descriptorpb.OneofDescriptorProto{
			Name: proto.String("_" + fd.GetName()),
		})
		fd.OneofIndex = proto.Int32(idx)
	}
}

// inOneof places the field in the real oneof with the given name, declaring
// it on first use.
func inOneof(name string) fieldOpt {
	return func(fd *descriptorpb.FieldDescriptorProto, mb *messageBuilder) {
		for i, od := range mb.md.OneofDecl {
			if od.GetName() == name {
				fd.OneofIndex = proto.Int32(int32(i))
				return
			}
		}
		if len(mb.md.OneofDecl) > mb.realOneofs {
			// Synthetic oneofs already appended; real ones must precede them.
			panic(fmt.Sprintf("schema: oneof %q declared after optional fields in %s", name, mb.md.GetName()))
		}
		idx := int32(len(mb.md.OneofDecl))
		mb.md.OneofDecl = append(mb.md.OneofDecl, &descriptorpb.OneofDescriptorProto{Name: proto.String(name)})
		mb.realOneofs++
		fd.OneofIndex = proto.Int32(idx)
	}
}

func (mb *messageBuilder) scalar(num int32, name string, typ descriptorpb.FieldDescriptorProto_Type, opts ...fieldOpt) *messageBuilder {
	fd := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(num),
		Type:   typ.Enum(),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
	}
	for _, opt := range opts {
		opt(fd, mb)
	}
	mb.md.Field = append(mb.md.Field, fd)
	return mb
}

func (mb *messageBuilder) msg(num int32, name, typeName string, opts ...fieldOpt) *messageBuilder {
	fd := &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		Number:   proto.Int32(num),
		Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
		TypeName: proto.String("." + pkgName + "." + typeName),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
	}
	for _, opt := range opts {
		opt(fd, mb)
	}
	mb.md.Field = append(mb.md.Field, fd)
	return mb
}

func (mb *messageBuilder) enumField(num int32, name, typeName string, opts ...fieldOpt) *messageBuilder {
	fd := &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		Number:   proto.Int32(num),
		Type:     descriptorpb.FieldDescriptorProto_TYPE_ENUM.Enum(),
		TypeName: proto.String("." + pkgName + "." + typeName),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
	}
	for _, opt := range opts {
		opt(fd, mb)
	}
	mb.md.Field = append(mb.md.Field, fd)
	return mb
}

// Short type aliases keep the schema definitions readable.
const (
	tString = descriptorpb.FieldDescriptorProto_TYPE_STRING
	tBytes  = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	tUint32 = descriptorpb.FieldDescriptorProto_TYPE_UINT32
	tUint64 = descriptorpb.FieldDescriptorProto_TYPE_UINT64
	tSint32 = descriptorpb.FieldDescriptorProto_TYPE_SINT32
	tSint64 = descriptorpb.FieldDescriptorProto_TYPE_SINT64
	tBool   = descriptorpb.FieldDescriptorProto_TYPE_BOOL
)

// buildFiles links the descriptor protos into a resolved registry. Any
// inconsistency here is a programming error in this package, so it panics
// at init time rather than returning an error every caller would have to
// treat as impossible.
func buildFiles(protos ...*descriptorpb.FileDescriptorProto) *protoregistry.Files {
	set := &descriptorpb.FileDescriptorSet{File: protos}
	files, err := protodesc.NewFiles(set)
	if err != nil {
		panic(fmt.Sprintf("schema: invalid descriptor set: %v", err))
	}
	return files
}
