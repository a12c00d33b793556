// Package gencommon emits <Base>Common.h and <Base>Common.cpp: the shared
// declarations (enums, structs, unions, per-interface Req/Resp/Notify
// aggregates) and their Polaris wire serialization, grounded on
// cpp_common_header_gen.py and cpp_common_impl_gen.py.
package gencommon

import (
	"fmt"

	"github.com/WuGaoyin/idlc/internal/codegen"
	"github.com/WuGaoyin/idlc/internal/cppgen"
	"github.com/WuGaoyin/idlc/internal/ir"
)

// Emitter produces the Declaration Emitter (header) and Serialization
// Emitter (impl) halves of the Common artifact pair.
type Emitter struct {
	ctx *cppgen.Context
}

// New returns an Emitter for the given context.
func New(ctx *cppgen.Context) *Emitter { return &Emitter{ctx: ctx} }

// GenerateHeader produces <Base>Common.h.
func (e *Emitter) GenerateHeader() ([]byte, error) {
	b := codegen.New()
	base := e.ctx.BaseName

	e.ctx.HeaderGuardStart(b, "COMMON_H")
	b.P("")
	b.P("#include <array>")
	b.P("#include <cstdint>")
	b.P("#include <string>")
	b.P("#include <unordered_map>")
	b.P("#include <vector>")
	b.P("")
	b.P(`#include "polaris/polaris_api.h"`)
	e.ctx.NamespaceStart(b)

	writeBytesBufferDecl(b)
	writeNameIdMapperDecl(b)
	writeMessageReaderDecl(b)
	writeMessageWriterDecl(b)

	for _, item := range e.ctx.Doc.DeclarationsOrder {
		enum, strct, union, iface, err := e.ctx.Doc.Resolve(item)
		if err != nil {
			return nil, err
		}
		switch {
		case enum != nil:
			writeEnumDeclaration(b, enum)
		case strct != nil:
			if err := writeStructDeclaration(b, strct); err != nil {
				return nil, err
			}
		case union != nil:
			if err := writeUnionDeclaration(b, union); err != nil {
				return nil, err
			}
		case iface != nil:
			if err := writeDataWrapperStructs(b, iface); err != nil {
				return nil, err
			}
		}
	}

	e.ctx.NamespaceEnd(b)
	e.ctx.HeaderGuardEnd(b, "COMMON_H")
	_ = base
	return b.Bytes(), nil
}

// GenerateImpl produces <Base>Common.cpp.
func (e *Emitter) GenerateImpl() ([]byte, error) {
	b := codegen.New()
	b.P(`#include "%sCommon.h"`, e.ctx.BaseName)
	b.P("")
	e.ctx.NamespaceStart(b)

	for _, item := range e.ctx.Doc.DeclarationsOrder {
		_, strct, union, _, err := e.ctx.Doc.Resolve(item)
		if err != nil {
			return nil, err
		}
		switch {
		case strct != nil:
			if err := writeStructImplementation(b, strct); err != nil {
				return nil, err
			}
		case union != nil:
			if err := writeUnionImplementation(b, union); err != nil {
				return nil, err
			}
		}
	}

	writeMessageReaderImpl(b)
	writeMessageWriterImpl(b)

	e.ctx.NamespaceEnd(b)
	return b.Bytes(), nil
}

func writeBytesBufferDecl(b *codegen.Builder) {
	b.P("struct BytesBuffer {")
	b.Block(func() { b.P("std::vector<uint8_t> data;") })
	b.P("};")
	b.P("")
}

func writeNameIdMapperDecl(b *codegen.Builder) {
	b.P("class NameIdMapper {")
	b.P(" public:")
	b.Block(func() {
		b.P("bool FindId(const std::string& name, uint16_t* id) const {")
		b.Block(func() {
			b.P("if (id == nullptr) {")
			b.Block(func() { b.P("return false;") })
			b.P("}")
			b.P("")
			b.P("auto iter = name_id_map_.find(name);")
			b.P("if (iter == name_id_map_.end()) {")
			b.Block(func() { b.P("return false;") })
			b.P("}")
			b.P("")
			b.P("*id = iter->second;")
			b.P("return true;")
		})
		b.P("}")
		b.P("")
		b.P("bool FindName(uint16_t id, const char** name, uint32_t* size) const {")
		b.Block(func() {
			b.P("if (name == nullptr || size == nullptr) {")
			b.Block(func() { b.P("return false;") })
			b.P("}")
			b.P("")
			b.P("auto iter = id_name_map_.find(id);")
			b.P("if (iter == id_name_map_.end()) {")
			b.Block(func() { b.P("return false;") })
			b.P("}")
			b.P("")
			b.P("*name = iter->second.c_str();")
			b.P("*size = static_cast<uint32_t>(iter->second.size());")
			b.P("return true;")
		})
		b.P("}")
		b.P("")
		b.P("void InsertNameId(const std::string& name, uint16_t id) { name_id_map_.emplace(name, id); }")
		b.P("void InsertIdName(uint16_t id, const std::string& name) { id_name_map_.emplace(id, name); }")
	})
	b.P("")
	b.P(" private:")
	b.Block(func() {
		b.P("std::unordered_map<std::string, uint16_t> name_id_map_;")
		b.P("std::unordered_map<uint16_t, std::string> id_name_map_;")
	})
	b.P("};")
	b.P("")
}

func writeMessageReaderDecl(b *codegen.Builder) {
	b.P("class MessageReader {")
	b.P(" public:")
	b.Block(func() {
		b.P("explicit MessageReader(PolarisReadableMessage* message) : message_(message) {}")
		b.P("")
		for _, t := range primitiveOrder {
			b.P("bool Read(%s* value);", t)
		}
		b.P("")
		b.P("template <typename T>")
		b.P("bool Read(std::vector<T>* value) {")
		b.Block(func() {
			b.P("uint32_t size = 0;")
			b.P("if (!message_->read_vector_begin(message_, &size)) {")
			b.Block(func() { b.P("return false;") })
			b.P("}")
			b.P("value->resize(size);")
			b.P("bool ok = true;")
			b.P("for (uint32_t i = 0; i < size; ++i) {")
			b.Block(func() {
				b.P("if (!Read(&(*value)[i])) {")
				b.Block(func() {
					b.P("ok = false;")
					b.P("break;")
				})
				b.P("}")
			})
			b.P("}")
			b.P("message_->read_vector_end(message_);")
			b.P("return ok;")
		})
		b.P("}")
		b.P("")
		b.P("template <typename T, size_t N>")
		b.P("bool Read(std::array<T, N>* value) {")
		b.Block(func() {
			b.P("uint32_t size = 0;")
			b.P("if (!message_->read_vector_begin(message_, &size)) {")
			b.Block(func() { b.P("return false;") })
			b.P("}")
			b.P("bool ok = true;")
			b.P("for (uint32_t i = 0; i < size && i < N; ++i) {")
			b.Block(func() {
				b.P("if (!Read(&(*value)[i])) {")
				b.Block(func() {
					b.P("ok = false;")
					b.P("break;")
				})
				b.P("}")
			})
			b.P("}")
			b.P("message_->read_vector_end(message_);")
			b.P("return ok;")
		})
		b.P("}")
		b.P("")
		b.P("template <typename T>")
		b.P("bool Read(T* value) {")
		b.Block(func() { b.P("return value->Deserialize(message_);") })
		b.P("}")
	})
	b.P("")
	b.P(" private:")
	b.Block(func() { b.P("PolarisReadableMessage* message_;") })
	b.P("};")
	b.P("")
}

func writeMessageWriterDecl(b *codegen.Builder) {
	b.P("class MessageWriter {")
	b.P(" public:")
	b.Block(func() {
		b.P("explicit MessageWriter(PolarisWritableMessage* message) : message_(message) {}")
		b.P("")
		for _, t := range primitiveOrder {
			b.P("void Write(const %s& value);", t)
		}
		b.P("")
		b.P("template <typename T>")
		b.P("void Write(const std::vector<T>& value) {")
		b.Block(func() {
			b.P("message_->write_vector_begin(message_, static_cast<uint32_t>(value.size()));")
			b.P("for (const auto& item : value) {")
			b.Block(func() { b.P("Write(item);") })
			b.P("}")
			b.P("message_->write_vector_end(message_);")
		})
		b.P("}")
		b.P("")
		b.P("template <typename T, size_t N>")
		b.P("void Write(const std::array<T, N>& value) {")
		b.Block(func() {
			b.P("message_->write_vector_begin(message_, static_cast<uint32_t>(value.size()));")
			b.P("for (const auto& item : value) {")
			b.Block(func() { b.P("Write(item);") })
			b.P("}")
			b.P("message_->write_vector_end(message_);")
		})
		b.P("}")
		b.P("")
		b.P("template <typename T>")
		b.P("void Write(const T& value) {")
		b.Block(func() { b.P("value.Serialize(message_);") })
		b.P("}")
	})
	b.P("")
	b.P(" private:")
	b.Block(func() { b.P("PolarisWritableMessage* message_;") })
	b.P("};")
	b.P("")
}

var primitiveOrder = []string{
	"bool", "int8_t", "int16_t", "int32_t", "int64_t",
	"uint8_t", "uint16_t", "uint32_t", "uint64_t",
	"float", "double", "std::string", "BytesBuffer",
}

func writeEnumDeclaration(b *codegen.Builder, e *ir.EnumDecl) {
	b.P("enum class %s : int32_t {", e.Name)
	b.Block(func() {
		for _, m := range e.Members {
			if m.Value != nil {
				b.P("%s = %d,", m.Name, *m.Value)
			} else {
				b.P("%s,", m.Name)
			}
		}
	})
	b.P("};")
	b.P("")
}

func writeStructDeclaration(b *codegen.Builder, s *ir.StructDecl) error {
	b.P("struct %s {", s.Name)
	b.P(" public:")
	var resolveErr error
	b.Block(func() {
		for _, m := range s.Members {
			cppType, err := cppgen.ResolveType(m.Type)
			if err != nil {
				resolveErr = err
				return
			}
			b.P("%s %s;", cppType, m.Name)
		}
		b.P("")
		b.P("void Serialize(PolarisWritableMessage* message) const;")
		b.P("bool Deserialize(PolarisReadableMessage* message);")
	})
	if resolveErr != nil {
		return resolveErr
	}
	b.P("};")
	b.P("")
	return nil
}

// writeUnionDeclaration emits a tagged struct-of-members rather than a
// raw C++ union: members may be non-trivial (std::string, std::vector),
// which a real union would require manual placement-new/destructor
// management to hold safely. The Tag enum and switch-based
// Serialize/Deserialize contract spec.md describes are preserved exactly;
// only the storage representation is simplified (see DESIGN.md).
func writeUnionDeclaration(b *codegen.Builder, u *ir.UnionDecl) error {
	memberTypes := make([]string, len(u.Members))
	for i, m := range u.Members {
		cppType, err := cppgen.ResolveType(m.Type)
		if err != nil {
			return err
		}
		memberTypes[i] = cppType
	}

	b.P("class %s {", u.Name)
	b.P(" public:")
	b.Block(func() {
		b.P("enum class Tag : uint32_t {")
		b.Block(func() {
			for i := range u.Members {
				b.P("TYPE_%d = %d,", i+1, i+1)
			}
			b.P("TYPE_RESERVED = %d,", len(u.Members)+1)
		})
		b.P("};")
		b.P("")
		b.P("%s() = default;", u.Name)
		b.P("~%s() = default;", u.Name)
		b.P("")
		for i, m := range u.Members {
			b.P("explicit %s(const %s& value) : tag_(Tag::TYPE_%d), %s(value) {}", u.Name, memberTypes[i], i+1, m.Name)
		}
		b.P("")
		for i, m := range u.Members {
			b.P("void SetValue(const %s& value) {", memberTypes[i])
			b.Block(func() {
				b.P("tag_ = Tag::TYPE_%d;", i+1)
				b.P("%s = value;", m.Name)
			})
			b.P("}")
			b.P("")
		}
		for i, m := range u.Members {
			b.P("bool GetValue(%s* value) const {", memberTypes[i])
			b.Block(func() {
				b.P("if (value == nullptr) {")
				b.Block(func() { b.P("return false;") })
				b.P("}")
				b.P("")
				b.P("if (tag_ != Tag::TYPE_%d) {", i+1)
				b.Block(func() { b.P("return false;") })
				b.P("}")
				b.P("")
				b.P("*value = %s;", m.Name)
				b.P("return true;")
			})
			b.P("}")
			b.P("")
		}
		b.P("Tag GetTag() const { return tag_; }")
		b.P("")
		b.P("void Serialize(PolarisWritableMessage* message) const;")
		b.P("bool Deserialize(PolarisReadableMessage* message);")
		b.P("")
		for i, m := range u.Members {
			b.P("%s %s;", memberTypes[i], m.Name)
		}
	})
	b.P("")
	b.P(" private:")
	b.Block(func() { b.P("Tag tag_ = Tag::TYPE_RESERVED;") })
	b.P("};")
	b.P("")
	return nil
}

// dataWrapperKind identifies which of the three per-function aggregate
// shapes is being emitted.
type dataWrapperKind int

const (
	kindReq dataWrapperKind = iota
	kindResp
	kindNotify
)

// writeDataWrapperStructs emits the Req/Resp aggregate pair for every
// method and the Notify aggregate for every event of iface, suppressing
// any aggregate whose sole member resolves to void (__genDataWrapperStructItem).
func writeDataWrapperStructs(b *codegen.Builder, iface *ir.InterfaceDecl) error {
	for _, m := range iface.Methods {
		if err := writeDataWrapperStructItem(b, iface.Name, m.Name+"Req", m.Parameters, kindReq); err != nil {
			return err
		}
		if err := writeDataWrapperStructItem(b, iface.Name, m.Name+"Resp", m.Returns, kindResp); err != nil {
			return err
		}
	}
	for _, e := range iface.Events {
		if err := writeDataWrapperStructItem(b, iface.Name, e.Name+"Notify", e.Members, kindNotify); err != nil {
			return err
		}
	}
	return nil
}

func writeDataWrapperStructItem(b *codegen.Builder, ifaceName, structName string, args []ir.Argument, kind dataWrapperKind) error {
	empty, err := cppgen.IsArgsListEmpty(args)
	if err != nil {
		return err
	}
	if empty {
		return nil
	}

	functionName := structName
	byRef := kind == kindReq

	var fields []string
	for i, arg := range args {
		cppType, err := cppgen.ResolveType(arg.Type)
		if err != nil {
			return err
		}
		name := cppgen.MemberName(functionName, i, arg)
		if byRef {
			fields = append(fields, fmt.Sprintf("const %s& %s;", cppType, name))
		} else {
			fields = append(fields, fmt.Sprintf("%s %s;", cppType, name))
		}
	}

	b.P("struct %s {", structName)
	b.Block(func() {
		for _, f := range fields {
			b.P("%s", f)
		}
	})
	b.P("};")
	b.P("")
	_ = ifaceName
	return nil
}

func writeStructImplementation(b *codegen.Builder, s *ir.StructDecl) error {
	b.P("void %s::Serialize(PolarisWritableMessage* message) const {", s.Name)
	b.Block(func() {
		b.P("if (message == nullptr) {")
		b.Block(func() { b.P("return;") })
		b.P("}")
		b.P("")
		b.P("MessageWriter writer(message);")
		b.P("message->write_struct_begin(message);")
		for _, m := range s.Members {
			b.P("writer.Write(this->%s);", m.Name)
		}
		b.P("message->write_struct_end(message);")
	})
	b.P("}")
	b.P("")
	b.P("bool %s::Deserialize(PolarisReadableMessage* message) {", s.Name)
	b.Block(func() {
		b.P("if (message == nullptr) {")
		b.Block(func() { b.P("return false;") })
		b.P("}")
		b.P("")
		b.P("MessageReader reader(message);")
		b.P("")
		b.P("if (!message->read_struct_begin(message)) {")
		b.Block(func() { b.P("return false;") })
		b.P("}")
		for _, m := range s.Members {
			b.P("reader.Read(&(this->%s));", m.Name)
		}
		b.P("message->read_struct_end(message);")
		b.P("return true;")
	})
	b.P("}")
	b.P("")
	return nil
}

func writeUnionImplementation(b *codegen.Builder, u *ir.UnionDecl) error {
	b.P("void %s::Serialize(PolarisWritableMessage* message) const {", u.Name)
	b.Block(func() {
		b.P("if (message == nullptr) {")
		b.Block(func() { b.P("return;") })
		b.P("}")
		b.P("")
		b.P("MessageWriter writer(message);")
		b.P("message->write_union_begin(message, static_cast<uint32_t>(tag_));")
		b.P("")
		b.P("switch (tag_) {")
		for i, m := range u.Members {
			b.P("case Tag::TYPE_%d:", i+1)
			b.Block(func() {
				b.P("writer.Write(this->%s);", m.Name)
				b.P("break;")
			})
		}
		b.P("default:")
		b.Block(func() { b.P("break;") })
		b.P("}")
		b.P("")
		b.P("message->write_union_end(message);")
	})
	b.P("}")
	b.P("")
	b.P("bool %s::Deserialize(PolarisReadableMessage* message) {", u.Name)
	b.Block(func() {
		b.P("if (message == nullptr) {")
		b.Block(func() { b.P("return false;") })
		b.P("}")
		b.P("")
		b.P("MessageReader reader(message);")
		b.P("uint32_t raw_tag = 0;")
		b.P("bool flag = message->read_union_begin(message, &raw_tag);")
		b.P("tag_ = static_cast<Tag>(raw_tag);")
		b.P("")
		b.P("if (!flag) {")
		b.Block(func() { b.P("return false;") })
		b.P("}")
		b.P("")
		b.P("switch (tag_) {")
		for i, m := range u.Members {
			b.P("case Tag::TYPE_%d:", i+1)
			b.Block(func() {
				b.P("reader.Read(&(this->%s));", m.Name)
				b.P("break;")
			})
		}
		b.P("default:")
		b.Block(func() { b.P("break;") })
		b.P("}")
		b.P("")
		b.P("message->read_union_end(message);")
		b.P("return true;")
	})
	b.P("}")
	b.P("")
	return nil
}

func writeMessageReaderImpl(b *codegen.Builder) {
	b.P("bool MessageReader::Read(bool* value) {")
	b.Block(func() {
		b.P("uint8_t result = 0;")
		b.P("if (!message_->read_uint8(message_, &result)) {")
		b.Block(func() { b.P("return false;") })
		b.P("}")
		b.P("")
		b.P("*value = result > 0;")
		b.P("return true;")
	})
	b.P("}")
	b.P("")

	primRead := []struct{ typ, call string }{
		{"int8_t", "read_int8"},
		{"int16_t", "read_int16"},
		{"int32_t", "read_int32"},
		{"int64_t", "read_int64"},
		{"uint8_t", "read_uint8"},
		{"uint16_t", "read_uint16"},
		{"uint32_t", "read_uint32"},
		{"uint64_t", "read_uint64"},
		{"float", "read_float"},
		{"double", "read_double"},
	}
	for _, p := range primRead {
		b.P("bool MessageReader::Read(%s* value) {", p.typ)
		b.Block(func() { b.P("return message_->%s(message_, value);", p.call) })
		b.P("}")
		b.P("")
	}

	b.P("bool MessageReader::Read(std::string* value) {")
	b.Block(func() {
		b.P("const char* str = nullptr;")
		b.P("uint32_t size = 0;")
		b.P("")
		b.P("if (!message_->read_string(message_, &str, &size)) {")
		b.Block(func() { b.P("return false;") })
		b.P("}")
		b.P("")
		b.P("*value = str;")
		b.P("delete[] str;")
		b.P("return true;")
	})
	b.P("}")
	b.P("")

	b.P("bool MessageReader::Read(BytesBuffer* value) {")
	b.Block(func() {
		b.P("int8_t* buffer = nullptr;")
		b.P("uint32_t size = 0;")
		b.P("")
		b.P("if (!message_->read_byte_buffer(message_, &buffer, &size)) {")
		b.Block(func() { b.P("return false;") })
		b.P("}")
		b.P("")
		b.P("const uint8_t* temp = reinterpret_cast<const uint8_t*>(buffer);")
		b.P("value->data.assign(temp, temp + size);")
		b.P("delete[] buffer;")
		b.P("return true;")
	})
	b.P("}")
	b.P("")
}

func writeMessageWriterImpl(b *codegen.Builder) {
	// Open Question 5: the original's write side promotes bool -> uint8_t
	// implicitly at the call site (message_->write_uint8(message_, value)
	// with a bool argument). Made explicit here per spec.md's own
	// redesign note.
	b.P("void MessageWriter::Write(const bool& value) {")
	b.Block(func() { b.P("message_->write_uint8(message_, value ? 1 : 0);") })
	b.P("}")
	b.P("")

	primWrite := []struct{ typ, call string }{
		{"int8_t", "write_int8"},
		{"int16_t", "write_int16"},
		{"int32_t", "write_int32"},
		{"int64_t", "write_int64"},
		{"uint8_t", "write_uint8"},
		{"uint16_t", "write_uint16"},
		{"uint32_t", "write_uint32"},
		{"uint64_t", "write_uint64"},
		{"float", "write_float"},
		{"double", "write_double"},
	}
	for _, p := range primWrite {
		b.P("void MessageWriter::Write(const %s& value) {", p.typ)
		b.Block(func() { b.P("message_->%s(message_, value);", p.call) })
		b.P("}")
		b.P("")
	}

	b.P("void MessageWriter::Write(const std::string& value) {")
	b.Block(func() { b.P("message_->write_string(message_, value.c_str());") })
	b.P("}")
	b.P("")

	b.P("void MessageWriter::Write(const BytesBuffer& value) {")
	b.Block(func() {
		b.P("message_->write_byte_buffer(message_, reinterpret_cast<const int8_t*>(value.data.data()), static_cast<uint32_t>(value.data.size()));")
	})
	b.P("}")
	b.P("")
}
