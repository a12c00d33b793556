// Package genservice emits <Base>Service.h and <Base>Service.cpp: the
// per-interface service skeleton pair (a stored-handler Service/ServiceImpl
// and a virtual-override AbstractService) sharing one Codec for wire
// encoding and one request-name dispatcher, grounded on
// cpp_service_header_gen.py and cpp_service_impl_gen.py.
package genservice

import (
	"fmt"

	"github.com/WuGaoyin/idlc/internal/codegen"
	"github.com/WuGaoyin/idlc/internal/cppgen"
	"github.com/WuGaoyin/idlc/internal/ir"
)

// Emitter produces the Service Skeleton Emitter's header and impl halves.
type Emitter struct {
	ctx *cppgen.Context
}

// New returns an Emitter for the given context.
func New(ctx *cppgen.Context) *Emitter { return &Emitter{ctx: ctx} }

func (e *Emitter) interfaces() ([]*ir.InterfaceDecl, error) {
	var out []*ir.InterfaceDecl
	for _, item := range e.ctx.Doc.DeclarationsOrder {
		if item.Category != ir.CategoryInterface {
			continue
		}
		_, _, _, iface, err := e.ctx.Doc.Resolve(item)
		if err != nil {
			return nil, err
		}
		out = append(out, iface)
	}
	return out, nil
}

// GenerateHeader produces <Base>Service.h.
func (e *Emitter) GenerateHeader() ([]byte, error) {
	b := codegen.New()
	ifaces, err := e.interfaces()
	if err != nil {
		return nil, err
	}

	e.ctx.HeaderGuardStart(b, "SERVICE_H")
	b.P("")
	b.P("#include <functional>")
	b.P("#include <memory>")
	b.P("#include <mutex>")
	b.P("#include <string>")
	b.P("")
	b.P(`#include "%sCommon.h"`, e.ctx.BaseName)
	e.ctx.NamespaceStart(b)

	b.P("struct SessionContext final {")
	b.Block(func() {
		b.P("uint32_t channel = 0;")
		b.P("std::string token;")
		b.P("std::string client_identifier;")
		b.P("bool has_permission = false;")
	})
	b.P("};")
	b.P("")
	b.P("using SessionHandler = std::function<void(const SessionContext& session, bool active)>;")
	b.P("using CommunicationHandler = std::function<void(bool available)>;")
	b.P("")

	for _, iface := range ifaces {
		b.P("class %sService;", iface.Name)
		b.P("class %sServiceImpl;", iface.Name)
	}
	b.P("")

	for _, iface := range ifaces {
		if err := writeServiceDecl(b, iface); err != nil {
			return nil, err
		}
		if err := writeAbstractServiceDecl(b, iface); err != nil {
			return nil, err
		}
	}

	e.ctx.NamespaceEnd(b)
	e.ctx.HeaderGuardEnd(b, "SERVICE_H")
	return b.Bytes(), nil
}

// GenerateImpl produces <Base>Service.cpp.
func (e *Emitter) GenerateImpl() ([]byte, error) {
	b := codegen.New()
	ifaces, err := e.interfaces()
	if err != nil {
		return nil, err
	}

	b.P(`#include "%sService.h"`, e.ctx.BaseName)
	b.P("")
	b.P("#include <vector>")
	b.P("")
	e.ctx.NamespaceStart(b)

	writeNameIdAdapters(b)

	for _, iface := range ifaces {
		if err := writeStaticHandlerDecls(b, iface); err != nil {
			return nil, err
		}
		if err := writeCodec(b, iface); err != nil {
			return nil, err
		}
		if err := writeServiceImplImpl(b, iface, e.ctx.FullNamespace()); err != nil {
			return nil, err
		}
		if err := writeStaticHandlerImpls(b, iface); err != nil {
			return nil, err
		}
		if err := writeServiceClass(b, iface); err != nil {
			return nil, err
		}
		if err := writeAbstractServiceImpl(b, iface, e.ctx.FullNamespace()); err != nil {
			return nil, err
		}
	}

	e.ctx.NamespaceEnd(b)
	return b.Bytes(), nil
}

func replyerTypeName(funcName string) string { return funcName + "Replyer" }
func handlerTypeName(funcName string) string { return funcName + "Handler" }
func notifyFuncName(eventName string) string { return "Notify" + eventName }
func handleFuncName(funcName string) string  { return "handle" + funcName }
func onFuncName(funcName string) string      { return "on" + funcName }
func registerFuncName(funcName string) string { return "Register" + funcName + "Handler" }

// writeNameIdAdapters emits the two free functions that adapt a
// NameIdMapper to the raw name<->id resolver callback signatures the
// Polaris runtime API expects, shared by every interface's service
// construction in this translation unit.
func writeNameIdAdapters(b *codegen.Builder) {
	b.P("static bool NameToId(void* user_data, const char* name, uint16_t* id) {")
	b.Block(func() {
		b.P("NameIdMapper* object = reinterpret_cast<NameIdMapper*>(user_data);")
		b.P("")
		b.P("if (object == nullptr) {")
		b.Block(func() { b.P("return false;") })
		b.P("}")
		b.P("")
		b.P("return object->FindId(name, id);")
	})
	b.P("}")
	b.P("")
	b.P("static bool IdToName(void* user_data, uint16_t id, const char** name, uint32_t* size) {")
	b.Block(func() {
		b.P("NameIdMapper* object = reinterpret_cast<NameIdMapper*>(user_data);")
		b.P("")
		b.P("if (object == nullptr) {")
		b.Block(func() { b.P("return false;") })
		b.P("}")
		b.P("")
		b.P("return object->FindName(id, name, size);")
	})
	b.P("}")
	b.P("")
}

func writeServiceDecl(b *codegen.Builder, iface *ir.InterfaceDecl) error {
	name := iface.Name + "Service"
	b.P("class %s final {", name)
	b.P(" public:")
	var resolveErr error
	b.Block(func() {
		b.P("%s();", name)
		b.P("~%s();", name)
		b.P("")
		b.P("%s(const %s&) = delete;", name, name)
		b.P("%s& operator=(const %s&) = delete;", name, name)
		b.P("")
		b.P("bool Start();")
		b.P("void Stop();")
		b.P("")
		for _, m := range iface.Methods {
			if err := writeMethodTypedefs(b, m); err != nil {
				resolveErr = err
				return
			}
			b.P("void %s(const %s& handler);", registerFuncName(m.Name), handlerTypeName(m.Name))
			b.P("")
		}
		for _, ev := range iface.Events {
			args, err := cppgen.ArgListStr("event", ev.Members, "", ", ", "")
			if err != nil {
				resolveErr = err
				return
			}
			b.P("void %s(%s);", notifyFuncName(ev.Name), args)
		}
		b.P("")
		b.P("void RegisterSessionHandler(const SessionHandler& handler);")
		b.P("void RegisterCommunicationHandler(const CommunicationHandler& handler);")
	})
	if resolveErr != nil {
		return resolveErr
	}
	b.P("")
	b.P(" private:")
	b.Block(func() { b.P("std::shared_ptr<%sServiceImpl> impl_;", iface.Name) })
	b.P("};")
	b.P("")
	return nil
}

// writeMethodTypedefs emits the <Method>Replyer (when the method returns a
// value) and <Method>Handler using-declarations shared by both the Service
// and AbstractService declarations.
func writeMethodTypedefs(b *codegen.Builder, m ir.Method) error {
	returnsEmpty, err := cppgen.IsArgsListEmpty(m.Returns)
	if err != nil {
		return err
	}
	replyer := replyerTypeName(m.Name)
	if !returnsEmpty {
		respArgs, err := cppgen.ArgListStr("reply", m.Returns, "", ", ", "")
		if err != nil {
			return err
		}
		b.P("using %s = std::function<void(%s)>;", replyer, respArgs)
	}

	paramArgs, err := cppgen.ArgListStr("param", m.Parameters, "", ", ", "")
	if err != nil {
		return err
	}
	sep := ""
	if paramArgs != "" {
		sep = ", "
	}
	if returnsEmpty {
		b.P("using %s = std::function<void(const SessionContext& ctx%s%s)>;", handlerTypeName(m.Name), sep, paramArgs)
	} else {
		b.P("using %s = std::function<void(const SessionContext& ctx%s%s, const %s& replyer)>;", handlerTypeName(m.Name), sep, paramArgs, replyer)
	}
	return nil
}

func writeAbstractServiceDecl(b *codegen.Builder, iface *ir.InterfaceDecl) error {
	name := "Abstract" + iface.Name + "Service"
	b.P("class %s {", name)
	b.P(" public:")
	var resolveErr error
	b.Block(func() {
		for _, m := range iface.Methods {
			returnsEmpty, err := cppgen.IsArgsListEmpty(m.Returns)
			if err != nil {
				resolveErr = err
				return
			}
			if returnsEmpty {
				continue
			}
			respArgs, err := cppgen.ArgListStr("reply", m.Returns, "", ", ", "")
			if err != nil {
				resolveErr = err
				return
			}
			b.P("using %s = std::function<void(%s)>;", replyerTypeName(m.Name), respArgs)
		}
	})
	if resolveErr != nil {
		return resolveErr
	}
	b.P("")
	b.P(" public:")
	b.Block(func() {
		b.P("%s();", name)
		b.P("virtual ~%s();", name)
		b.P("")
		b.P("%s(const %s&) = delete;", name, name)
		b.P("%s& operator=(const %s&) = delete;", name, name)
		b.P("")
		b.P("bool Start();")
		b.P("void Stop();")
		b.P("")
		for _, ev := range iface.Events {
			args, err := cppgen.ArgListStr("event", ev.Members, "", ", ", "")
			if err != nil {
				resolveErr = err
				return
			}
			b.P("void %s(%s);", notifyFuncName(ev.Name), args)
		}
	})
	if resolveErr != nil {
		return resolveErr
	}
	b.P("")
	b.P(" private:")
	b.Block(func() {
		b.P("virtual void handleSession(const SessionContext& session, bool active) {}")
		b.P("virtual void handleCommStatus(bool available) {}")
		for _, m := range iface.Methods {
			paramArgs, err := cppgen.ArgListStr("param", m.Parameters, "", ", ", "")
			if err != nil {
				resolveErr = err
				return
			}
			sep := ""
			if paramArgs != "" {
				sep = ", "
			}
			returnsEmpty, err := cppgen.IsArgsListEmpty(m.Returns)
			if err != nil {
				resolveErr = err
				return
			}
			if returnsEmpty {
				b.P("virtual void %s(const SessionContext& ctx%s%s) {}", handleFuncName(m.Name), sep, paramArgs)
			} else {
				b.P("virtual void %s(const SessionContext& ctx%s%s, const %s& replyer) {}", handleFuncName(m.Name), sep, paramArgs, replyerTypeName(m.Name))
			}
		}
	})
	if resolveErr != nil {
		return resolveErr
	}
	b.P("")
	b.P(" private:")
	b.Block(func() {
		b.P("static void %sRequestHandler(void* user_data, PolarisReadableMessage* message);", iface.Name)
		b.P("static void %sSessionHandler(void* user_data, const PolarisSession* session, bool active);", iface.Name)
		b.P("static void %sCommHandler(void* user_data, bool available);", iface.Name)
		b.P("")
		b.P("void onRequest(PolarisReadableMessage* request);")
		b.P("")
		for _, m := range iface.Methods {
			b.P("void %s(PolarisReadableMessage* request, const std::string& permission);", onFuncName(m.Name))
		}
		b.P("void initNameIdMapping();")
	})
	b.P("")
	b.P(" private:")
	b.Block(func() {
		b.P("PolarisRuntime* runtime_ = nullptr;")
		b.P("PolarisService* service_ = nullptr;")
		b.P("std::shared_ptr<NameIdMapper> name_id_map_;")
	})
	b.P("};")
	b.P("")
	return nil
}

// writeStaticHandlerDecls forward-declares the three free-function ABI
// trampolines used by <Interface>ServiceImpl, matching the original
// generator's file-scope static declarations.
func writeStaticHandlerDecls(b *codegen.Builder, iface *ir.InterfaceDecl) error {
	b.P("static void %sRequestHandler(void* user_data, PolarisReadableMessage* message);", iface.Name)
	b.P("static void %sSessionHandler(void* user_data, const PolarisSession* session, bool active);", iface.Name)
	b.P("static void %sCommHandler(void* user_data, bool available);", iface.Name)
	b.P("")
	return nil
}

func writeStaticHandlerImpls(b *codegen.Builder, iface *ir.InterfaceDecl) error {
	implName := iface.Name + "ServiceImpl"

	b.P("static void %sRequestHandler(void* user_data, PolarisReadableMessage* message) {", iface.Name)
	b.Block(func() {
		b.P("%s* impl = reinterpret_cast<%s*>(user_data);", implName, implName)
		b.P("")
		b.P("if (impl == nullptr) {")
		b.Block(func() { b.P("return;") })
		b.P("}")
		b.P("")
		b.P("impl->OnRequest(message);")
	})
	b.P("}")
	b.P("")

	b.P("static void %sSessionHandler(void* user_data, const PolarisSession* session, bool active) {", iface.Name)
	b.Block(func() {
		b.P("%s* service = reinterpret_cast<%s*>(user_data);", implName, implName)
		b.P("")
		b.P("if (service == nullptr) {")
		b.Block(func() { b.P("return;") })
		b.P("}")
		b.P("")
		b.P("SessionContext ctx;")
		b.P("ctx.channel = session->channel;")
		b.P("ctx.token = session->token;")
		b.P("ctx.client_identifier = session->client_identifier;")
		b.P("service->OnSession(ctx, active);")
	})
	b.P("}")
	b.P("")

	b.P("static void %sCommHandler(void* user_data, bool available) {", iface.Name)
	b.Block(func() {
		b.P("%s* service = reinterpret_cast<%s*>(user_data);", implName, implName)
		b.P("")
		b.P("if (service == nullptr) {")
		b.Block(func() { b.P("return;") })
		b.P("}")
		b.P("")
		b.P("service->OnCommStatus(available);")
	})
	b.P("}")
	b.P("")
	return nil
}

// writeCodec emits <Interface>Codec: one static ReplyDecorator per method
// with a non-void return, and one static NotifyDecorator per event with at
// least one member. These decorators are the only serialization path the
// Req/Resp/Notify aggregates get; a method or event with no members has
// nothing to encode and gets no decorator at all.
func writeCodec(b *codegen.Builder, iface *ir.InterfaceDecl) error {
	b.P("class %sCodec {", iface.Name)
	b.P(" public:")
	var resolveErr error
	b.Block(func() {
		for _, m := range iface.Methods {
			empty, err := cppgen.IsArgsListEmpty(m.Returns)
			if err != nil {
				resolveErr = err
				return
			}
			if empty {
				continue
			}
			respName := m.Name + "Resp"
			b.P("static void %sReplyDecorator(void* user_data, PolarisWritableMessage* message) {", m.Name)
			b.Block(func() {
				b.P("%s* argument = reinterpret_cast<%s*>(user_data);", respName, respName)
				b.P("")
				b.P("if (argument == nullptr) {")
				b.Block(func() { b.P("return;") })
				b.P("}")
				b.P("")
				b.P("MessageWriter writer(message);")
				b.P("message->serialize_begin(message, 1);")
				for i, r := range m.Returns {
					name := cppgen.MemberName(m.Name+"Resp", i, r)
					b.P("writer.Write(argument->%s);", name)
				}
				b.P("message->serialize_end(message);")
			})
			b.P("}")
			b.P("")
		}
		for _, ev := range iface.Events {
			empty, err := cppgen.IsArgsListEmpty(ev.Members)
			if err != nil {
				resolveErr = err
				return
			}
			if empty {
				continue
			}
			notifyName := ev.Name + "Notify"
			b.P("static void %sNotifyDecorator(void* user_data, PolarisWritableMessage* message) {", ev.Name)
			b.Block(func() {
				b.P("%s* argument = reinterpret_cast<%s*>(user_data);", notifyName, notifyName)
				b.P("")
				b.P("if (argument == nullptr) {")
				b.Block(func() { b.P("return;") })
				b.P("}")
				b.P("")
				b.P("MessageWriter writer(message);")
				b.P("message->serialize_begin(message, %d);", len(ev.Members))
				for i, m := range ev.Members {
					name := cppgen.MemberName(ev.Name+"Notify", i, m)
					b.P("writer.Write(argument->%s);", name)
				}
				b.P("message->serialize_end(message);")
			})
			b.P("}")
			b.P("")
		}
	})
	if resolveErr != nil {
		return resolveErr
	}
	b.P("};")
	b.P("")
	return nil
}

func writeServiceImplImpl(b *codegen.Builder, iface *ir.InterfaceDecl, namespace string) error {
	name := iface.Name + "ServiceImpl"

	b.P("class %s final {", name)
	b.P(" public:")
	var resolveErr error
	b.Block(func() {
		b.P("%s() {", name)
		b.Block(func() {
			b.P("runtime_ = PolarisCreateRuntime();")
			b.P("name_id_map_ = std::make_shared<NameIdMapper>();")
			b.P("")
			b.P("if (runtime_ == nullptr || name_id_map_ == nullptr) {")
			b.Block(func() { b.P("return;") })
			b.P("}")
			b.P("")
			b.P("initNameIdMapping();")
			b.P("")
			b.P("PolarisServiceIdentifier identifier;")
			b.P("identifier.service_name = \"%s.%s\";", namespace, iface.Name)
			b.P("service_ = PolarisCreateService(runtime_, &identifier, POLARIS_CHANNEL_DDS,")
			b.P("                               IdToName, name_id_map_.get(),")
			b.P("                               NameToId, name_id_map_.get());")
		})
		b.P("}")
		b.P("")
		b.P("~%s() {", name)
		b.Block(func() {
			b.P("if (runtime_ == nullptr) {")
			b.Block(func() { b.P("return;") })
			b.P("}")
			b.P("")
			b.P("if (service_ != nullptr) {")
			b.Block(func() {
				b.P("PolarisDestroyService(runtime_, service_);")
				b.P("service_ = nullptr;")
			})
			b.P("}")
			b.P("")
			b.P("PolarisDestroyRuntime(runtime_);")
			b.P("runtime_ = nullptr;")
		})
		b.P("}")
		b.P("")
		b.P("bool Start() {")
		b.Block(func() {
			b.P("if (service_ == nullptr) {")
			b.Block(func() { b.P("return false;") })
			b.P("}")
			b.P("")
			b.P("service_->start(service_, %sRequestHandler, this,", iface.Name)
			b.P("                %sSessionHandler, this,", iface.Name)
			b.P("                %sCommHandler, this);", iface.Name)
			b.P("")
			b.P("return true;")
		})
		b.P("}")
		b.P("")
		b.P("void Stop() {")
		b.Block(func() {
			b.P("if (service_ == nullptr) {")
			b.Block(func() { b.P("return;") })
			b.P("}")
			b.P("")
			b.P("service_->stop(service_);")
		})
		b.P("}")
		b.P("")
		b.P("void OnSession(const SessionContext& session, bool active) {")
		b.Block(func() {
			b.P("if (session_handler_ != nullptr) {")
			b.Block(func() { b.P("session_handler_(session, active);") })
			b.P("}")
		})
		b.P("}")
		b.P("")
		b.P("void OnCommStatus(bool available) {")
		b.Block(func() {
			b.P("if (communication_handler_ != nullptr) {")
			b.Block(func() { b.P("communication_handler_(available);") })
			b.P("}")
		})
		b.P("}")
		b.P("")
		b.P("void RegisterSessionHandler(const SessionHandler& handler) { session_handler_ = handler; }")
		b.P("void RegisterCommunicationHandler(const CommunicationHandler& handler) { communication_handler_ = handler; }")
		b.P("")

		b.P("void OnRequest(PolarisReadableMessage* request) {")
		b.Block(func() {
			b.P("std::string request_name = request->get_name(request);")
			for i, m := range iface.Methods {
				cond := "if"
				if i > 0 {
					cond = "} else if"
				}
				b.P("%s (request_name == %q) {", cond, m.Name)
				b.Block(func() {
					b.P("std::string permission = \"\";")
					b.P("Handle%s(request, permission);", m.Name)
				})
			}
			if len(iface.Methods) > 0 {
				b.P("}")
			}
		})
		b.P("}")
		b.P("")

		for _, m := range iface.Methods {
			b.P("void %s(const %s& handler) { %s_handler_ = handler; }", registerFuncName(m.Name), handlerTypeName(m.Name), onFuncName(m.Name))
			b.P("")
		}

		for _, m := range iface.Methods {
			if err := writeHandleMethod(b, iface.Name, m); err != nil {
				resolveErr = err
				return
			}
		}

		for _, ev := range iface.Events {
			if err := writeNotifyMethod(b, iface.Name, "service_", ev); err != nil {
				resolveErr = err
				return
			}
		}
	})
	if resolveErr != nil {
		return resolveErr
	}
	b.P("")
	b.P(" private:")
	b.Block(func() {
		b.P("void initNameIdMapping() {")
		b.Block(func() {
			b.P("std::vector<std::string> all_names = {%s};", cppgen.MethodEventNamesStr(iface))
			b.P("")
			b.P("for (size_t i = 0; i < all_names.size(); ++i) {")
			b.Block(func() {
				b.P("name_id_map_->InsertNameId(all_names[i], static_cast<uint16_t>(i));")
				b.P("name_id_map_->InsertIdName(static_cast<uint16_t>(i), all_names[i]);")
			})
			b.P("}")
		})
		b.P("}")
	})
	b.P("")
	b.P(" private:")
	b.Block(func() {
		b.P("std::shared_ptr<NameIdMapper> name_id_map_;")
		b.P("PolarisRuntime* runtime_ = nullptr;")
		b.P("PolarisService* service_ = nullptr;")
		b.P("")
		for _, m := range iface.Methods {
			b.P("%s %s_handler_;", handlerTypeName(m.Name), onFuncName(m.Name))
		}
		b.P("SessionHandler session_handler_;")
		b.P("CommunicationHandler communication_handler_;")
	})
	b.P("};")
	b.P("")
	return nil
}

// writeHandleMethod emits Handle<Method>: reads parameters off the wire,
// resolves channel/token/permission, clones the request, builds the reply
// lambda (for methods with a non-void return) that encodes the response
// through the Codec, and finally invokes the registered/virtual handler.
func writeHandleMethod(b *codegen.Builder, ifaceName string, m ir.Method) error {
	paramEmpty, err := cppgen.IsArgsListEmpty(m.Parameters)
	if err != nil {
		return err
	}
	returnsEmpty, err := cppgen.IsArgsListEmpty(m.Returns)
	if err != nil {
		return err
	}
	paramNames, err := cppgen.NoTypeArgListStr("in", m.Parameters, "", "")
	if err != nil {
		return err
	}

	b.P("void %s(PolarisReadableMessage* request, const std::string& permission) {", implHandleName(m.Name))
	b.Block(func() {
		b.P("if (%s_handler_ == nullptr) {", onFuncName(m.Name))
		b.Block(func() { b.P("return;") })
		b.P("}")
		b.P("")
		b.P("MessageReader reader(request);")
		if !paramEmpty {
			for _, p := range m.Parameters {
				cppType, err := cppgen.ResolveType(p.Type)
				if err != nil {
					continue
				}
				b.P("%s %s;", cppType, p.Name)
				b.P("reader.Read(&%s);", p.Name)
			}
		}
		b.P("")
		b.P("uint32_t channel = 0;")
		b.P("request->get_channel(request, &channel);")
		b.P("std::string token = request->get_token(request);")
		b.P("bool check_result = true;")
		b.P("")
		b.P("if (!permission.empty()) {")
		b.Block(func() {
			b.P("check_result = service_->verify_permission(service_, channel, token.c_str(), permission.c_str());")
		})
		b.P("}")
		b.P("")
		b.P("SessionContext ctx;")
		b.P("ctx.channel = channel;")
		b.P("ctx.token = token;")
		b.P("ctx.has_permission = check_result;")
		b.P("PolarisReadableMessage* cloned_request = request->clone(request);")
		b.P("")
		if !returnsEmpty {
			respArgs, err := cppgen.ArgListStr("reply", m.Returns, "", ", ", "")
			if err == nil {
				b.P("auto handler = [this, cloned_request](%s) {", respArgs)
				b.Block(func() {
					names, err := cppgen.NoTypeArgListStr("reply", m.Returns, "", "")
					if err == nil {
						b.P("%sResp argument = {%s};", m.Name, names)
					}
					b.P("service_->reply(service_, cloned_request, %sCodec::%sReplyDecorator, &argument);", ifaceName, m.Name)
					b.P("PolarisDestroySyncReplyMessage(cloned_request);")
				})
				b.P("};")
				b.P("")
			}
		}
		sep := ""
		if paramNames != "" {
			sep = ", "
		}
		replySep := ""
		replyArg := ""
		if !returnsEmpty {
			replySep = ", "
			replyArg = "handler"
		}
		b.P("%s_handler_(ctx%s%s%s%s);", onFuncName(m.Name), sep, paramNames, replySep, replyArg)
	})
	b.P("}")
	b.P("")
	return nil
}

func implHandleName(name string) string { return "Handle" + name }

// writeNotifyMethod emits Notify<Event>, which passes the event's literal
// string name to the ABI's service->notify — there is no numeric id at
// this call site, matching the original generator.
func writeNotifyMethod(b *codegen.Builder, ifaceName, serviceVar string, ev ir.Event) error {
	empty, err := cppgen.IsArgsListEmpty(ev.Members)
	if err != nil {
		return err
	}
	args, err := cppgen.ArgListStr("event", ev.Members, "", ", ", "")
	if err != nil {
		return err
	}

	b.P("void %s(%s) {", notifyFuncName(ev.Name), args)
	b.Block(func() {
		b.P("if (%s == nullptr) {", serviceVar)
		b.Block(func() { b.P("return;") })
		b.P("}")
		b.P("")
		if empty {
			b.P("%s->notify(%s, %q, nullptr, nullptr);", serviceVar, serviceVar, ev.Name)
			return
		}
		names, err := cppgen.NoTypeArgListStr("event", ev.Members, "", "")
		if err == nil {
			b.P("%sNotify argument = {%s};", ev.Name, names)
		}
		b.P("%s->notify(%s, %q, %sCodec::%sNotifyDecorator, &argument);", serviceVar, serviceVar, ev.Name, ifaceName, ev.Name)
	})
	b.P("}")
	b.P("")
	return nil
}

// writeServiceClass emits <Interface>Service's trivial pimpl-forwarding
// definitions.
func writeServiceClass(b *codegen.Builder, iface *ir.InterfaceDecl) error {
	name := iface.Name + "Service"
	implName := iface.Name + "ServiceImpl"

	b.P("%s::%s() : impl_(std::make_shared<%s>()) {}", name, name, implName)
	b.P("%s::~%s() = default;", name, name)
	b.P("")
	b.P("bool %s::Start() {", name)
	b.Block(func() {
		b.P("if (impl_ != nullptr) {")
		b.Block(func() { b.P("return impl_->Start();") })
		b.P("}")
		b.P("")
		b.P("return false;")
	})
	b.P("}")
	b.P("")
	b.P("void %s::Stop() {", name)
	b.Block(func() {
		b.P("if (impl_ != nullptr) {")
		b.Block(func() { b.P("impl_->Stop();") })
		b.P("}")
	})
	b.P("}")
	b.P("")
	b.P("void %s::RegisterSessionHandler(const SessionHandler& handler) {", name)
	b.Block(func() {
		b.P("if (impl_ != nullptr) {")
		b.Block(func() { b.P("impl_->RegisterSessionHandler(handler);") })
		b.P("}")
	})
	b.P("}")
	b.P("")
	b.P("void %s::RegisterCommunicationHandler(const CommunicationHandler& handler) {", name)
	b.Block(func() {
		b.P("if (impl_ != nullptr) {")
		b.Block(func() { b.P("impl_->RegisterCommunicationHandler(handler);") })
		b.P("}")
	})
	b.P("}")
	b.P("")

	for _, m := range iface.Methods {
		b.P("void %s::%s(const %s& handler) {", name, registerFuncName(m.Name), handlerTypeName(m.Name))
		b.Block(func() {
			b.P("if (impl_ != nullptr) {")
			b.Block(func() { b.P("impl_->%s(handler);", registerFuncName(m.Name)) })
			b.P("}")
		})
		b.P("}")
		b.P("")
	}

	for _, ev := range iface.Events {
		args, err := cppgen.ArgListStr("event", ev.Members, "", ", ", "")
		if err != nil {
			return err
		}
		names, err := cppgen.NoTypeArgListStr("event", ev.Members, "", "")
		if err != nil {
			return err
		}
		b.P("void %s::%s(%s) {", name, notifyFuncName(ev.Name), args)
		b.Block(func() {
			b.P("if (impl_ != nullptr) {")
			b.Block(func() { b.P("impl_->%s(%s);", notifyFuncName(ev.Name), names) })
			b.P("}")
		})
		b.P("}")
		b.P("")
	}
	return nil
}

func writeAbstractServiceImpl(b *codegen.Builder, iface *ir.InterfaceDecl, namespace string) error {
	name := "Abstract" + iface.Name + "Service"

	b.P("%s::%s() {", name, name)
	b.Block(func() {
		b.P("runtime_ = PolarisCreateRuntime();")
		b.P("name_id_map_ = std::make_shared<NameIdMapper>();")
		b.P("")
		b.P("if (runtime_ == nullptr || name_id_map_ == nullptr) {")
		b.Block(func() { b.P("return;") })
		b.P("}")
		b.P("")
		b.P("initNameIdMapping();")
		b.P("")
		b.P("PolarisServiceIdentifier identifier;")
		b.P("identifier.service_name = \"%s.%s\";", namespace, iface.Name)
		b.P("service_ = PolarisCreateService(runtime_, &identifier, POLARIS_CHANNEL_DDS,")
		b.P("                               IdToName, name_id_map_.get(),")
		b.P("                               NameToId, name_id_map_.get());")
	})
	b.P("}")
	b.P("")
	b.P("%s::~%s() {", name, name)
	b.Block(func() {
		b.P("if (runtime_ == nullptr) {")
		b.Block(func() { b.P("return;") })
		b.P("}")
		b.P("")
		b.P("if (service_ != nullptr) {")
		b.Block(func() {
			b.P("PolarisDestroyService(runtime_, service_);")
			b.P("service_ = nullptr;")
		})
		b.P("}")
		b.P("")
		b.P("PolarisDestroyRuntime(runtime_);")
		b.P("runtime_ = nullptr;")
	})
	b.P("}")
	b.P("")
	b.P("bool %s::Start() {", name)
	b.Block(func() {
		b.P("if (service_ == nullptr) {")
		b.Block(func() { b.P("return false;") })
		b.P("}")
		b.P("")
		b.P("service_->start(service_, %sRequestHandler, this,", iface.Name)
		b.P("                %sSessionHandler, this,", iface.Name)
		b.P("                %sCommHandler, this);", iface.Name)
		b.P("")
		b.P("return true;")
	})
	b.P("}")
	b.P("")
	b.P("void %s::Stop() {", name)
	b.Block(func() {
		b.P("if (service_ == nullptr) {")
		b.Block(func() { b.P("return;") })
		b.P("}")
		b.P("")
		b.P("service_->stop(service_);")
	})
	b.P("}")
	b.P("")

	b.P("void %s::onRequest(PolarisReadableMessage* request) {", name)
	b.Block(func() {
		b.P("std::string request_name = request->get_name(request);")
		for i, m := range iface.Methods {
			cond := "if"
			if i > 0 {
				cond = "} else if"
			}
			b.P("%s (request_name == %q) {", cond, m.Name)
			b.Block(func() {
				b.P("std::string permission = \"\";")
				b.P("%s(request, permission);", onFuncName(m.Name))
			})
		}
		if len(iface.Methods) > 0 {
			b.P("}")
		}
	})
	b.P("}")
	b.P("")

	b.P("void %s::%sRequestHandler(void* user_data, PolarisReadableMessage* message) {", name, iface.Name)
	b.Block(func() {
		b.P("%s* impl = reinterpret_cast<%s*>(user_data);", name, name)
		b.P("")
		b.P("if (impl == nullptr) {")
		b.Block(func() { b.P("return;") })
		b.P("}")
		b.P("")
		b.P("impl->onRequest(message);")
	})
	b.P("}")
	b.P("")

	b.P("void %s::%sSessionHandler(void* user_data, const PolarisSession* session, bool active) {", name, iface.Name)
	b.Block(func() {
		b.P("%s* service = reinterpret_cast<%s*>(user_data);", name, name)
		b.P("")
		b.P("if (service == nullptr) {")
		b.Block(func() { b.P("return;") })
		b.P("}")
		b.P("")
		b.P("SessionContext ctx;")
		b.P("ctx.channel = session->channel;")
		b.P("ctx.token = session->token;")
		b.P("ctx.client_identifier = session->client_identifier;")
		b.P("service->handleSession(ctx, active);")
	})
	b.P("}")
	b.P("")

	b.P("void %s::%sCommHandler(void* user_data, bool available) {", name, iface.Name)
	b.Block(func() {
		b.P("%s* service = reinterpret_cast<%s*>(user_data);", name, name)
		b.P("")
		b.P("if (service == nullptr) {")
		b.Block(func() { b.P("return;") })
		b.P("}")
		b.P("")
		b.P("service->handleCommStatus(available);")
	})
	b.P("}")
	b.P("")

	b.P("void %s::initNameIdMapping() {", name)
	b.Block(func() {
		b.P("std::vector<std::string> all_names = {%s};", cppgen.MethodEventNamesStr(iface))
		b.P("")
		b.P("for (size_t i = 0; i < all_names.size(); ++i) {")
		b.Block(func() {
			b.P("name_id_map_->InsertNameId(all_names[i], static_cast<uint16_t>(i));")
			b.P("name_id_map_->InsertIdName(static_cast<uint16_t>(i), all_names[i]);")
		})
		b.P("}")
	})
	b.P("}")
	b.P("")

	for _, m := range iface.Methods {
		if err := writeAbstractOnMethod(b, name, iface.Name, m); err != nil {
			return err
		}
	}

	for _, ev := range iface.Events {
		if err := writeAbstractNotifyMethod(b, name, iface.Name, ev); err != nil {
			return err
		}
	}
	return nil
}

// writeAbstractOnMethod emits AbstractService::on<Method>: identical wire
// handling to ServiceImpl's Handle<Method>, but dispatching to the
// subclass's virtual handle<Method> override instead of a stored
// std::function.
func writeAbstractOnMethod(b *codegen.Builder, serviceName, ifaceName string, m ir.Method) error {
	paramEmpty, err := cppgen.IsArgsListEmpty(m.Parameters)
	if err != nil {
		return err
	}
	returnsEmpty, err := cppgen.IsArgsListEmpty(m.Returns)
	if err != nil {
		return err
	}
	paramNames, err := cppgen.NoTypeArgListStr("in", m.Parameters, "", "")
	if err != nil {
		return err
	}

	b.P("void %s::%s(PolarisReadableMessage* request, const std::string& permission) {", serviceName, onFuncName(m.Name))
	b.Block(func() {
		b.P("MessageReader reader(request);")
		if !paramEmpty {
			for _, p := range m.Parameters {
				cppType, err := cppgen.ResolveType(p.Type)
				if err != nil {
					continue
				}
				b.P("%s %s;", cppType, p.Name)
				b.P("reader.Read(&%s);", p.Name)
			}
		}
		b.P("")
		b.P("uint32_t channel = 0;")
		b.P("request->get_channel(request, &channel);")
		b.P("std::string token = request->get_token(request);")
		b.P("bool check_result = true;")
		b.P("")
		b.P("if (!permission.empty()) {")
		b.Block(func() {
			b.P("check_result = service_->verify_permission(service_, channel, token.c_str(), permission.c_str());")
		})
		b.P("}")
		b.P("")
		b.P("SessionContext ctx;")
		b.P("ctx.channel = channel;")
		b.P("ctx.token = token;")
		b.P("ctx.has_permission = check_result;")
		b.P("PolarisReadableMessage* cloned_request = request->clone(request);")
		b.P("")
		sep := ""
		if paramNames != "" {
			sep = ", "
		}
		if !returnsEmpty {
			respArgs, err := cppgen.ArgListStr("reply", m.Returns, "", ", ", "")
			if err == nil {
				b.P("auto handler = [this, cloned_request](%s) {", respArgs)
				b.Block(func() {
					names, err := cppgen.NoTypeArgListStr("reply", m.Returns, "", "")
					if err == nil {
						b.P("%sResp argument = {%s};", m.Name, names)
					}
					b.P("service_->reply(service_, cloned_request, %sCodec::%sReplyDecorator, &argument);", ifaceName, m.Name)
					b.P("PolarisDestroySyncReplyMessage(cloned_request);")
				})
				b.P("};")
				b.P("%s(ctx%s%s, handler);", handleFuncName(m.Name), sep, paramNames)
			}
		} else {
			b.P("%s(ctx%s%s);", handleFuncName(m.Name), sep, paramNames)
		}
	})
	b.P("}")
	b.P("")
	return nil
}

func writeAbstractNotifyMethod(b *codegen.Builder, serviceName, ifaceName string, ev ir.Event) error {
	return writeNotifyMethodNamed(b, serviceName, ifaceName, "service_", ev)
}

// writeNotifyMethodNamed is writeNotifyMethod specialized for an
// out-of-line AbstractService member definition (Notify<Event> qualified
// with the class name, rather than an in-class member body).
func writeNotifyMethodNamed(b *codegen.Builder, serviceName, ifaceName, serviceVar string, ev ir.Event) error {
	empty, err := cppgen.IsArgsListEmpty(ev.Members)
	if err != nil {
		return err
	}
	args, err := cppgen.ArgListStr("event", ev.Members, "", ", ", "")
	if err != nil {
		return err
	}

	b.P("void %s::%s(%s) {", serviceName, notifyFuncName(ev.Name), args)
	b.Block(func() {
		b.P("if (%s == nullptr) {", serviceVar)
		b.Block(func() { b.P("return;") })
		b.P("}")
		b.P("")
		if empty {
			b.P("%s->notify(%s, %q, nullptr, nullptr);", serviceVar, serviceVar, ev.Name)
			return
		}
		names, err := cppgen.NoTypeArgListStr("event", ev.Members, "", "")
		if err == nil {
			b.P("%sNotify argument = {%s};", ev.Name, names)
		}
		b.P("%s->notify(%s, %q, %sCodec::%sNotifyDecorator, &argument);", serviceVar, serviceVar, ev.Name, ifaceName, ev.Name)
	})
	b.P("}")
	b.P("")
	return nil
}
