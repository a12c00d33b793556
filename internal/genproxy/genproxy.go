// Package genproxy emits <Base>Proxy.h and <Base>Proxy.cpp: the
// per-interface client proxy pair, selecting fire-and-forget, sync
// request/reply, or async request/reply-with-callback per method, plus
// event subscribe/unsubscribe, grounded on cpp_proxy_header_gen.py and
// cpp_proxy_impl_gen.py.
package genproxy

import (
	"fmt"
	"strings"

	"github.com/WuGaoyin/idlc/internal/codegen"
	"github.com/WuGaoyin/idlc/internal/cppgen"
	"github.com/WuGaoyin/idlc/internal/ir"
)

// Emitter produces the Proxy Emitter's header and impl halves.
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

// GenerateHeader produces <Base>Proxy.h.
func (e *Emitter) GenerateHeader() ([]byte, error) {
	b := codegen.New()
	ifaces, err := e.interfaces()
	if err != nil {
		return nil, err
	}

	e.ctx.HeaderGuardStart(b, "PROXY_H")
	b.P("")
	b.P("#include <functional>")
	b.P("#include <memory>")
	b.P("#include <mutex>")
	b.P("#include <vector>")
	b.P("")
	b.P(`#include "%sCommon.h"`, e.ctx.BaseName)
	e.ctx.NamespaceStart(b)

	b.P("enum class ErrorCode {")
	b.Block(func() {
		b.P("OK = 0,")
		b.P("TIMEOUT,")
		b.P("SERVICE_UNAVAILABLE,")
		b.P("TRANSPORT_ERROR,")
	})
	b.P("};")
	b.P("")
	b.P("enum class WaitResult {")
	b.Block(func() {
		b.P("READY,")
		b.P("TIMEOUT,")
		b.P("FAILED,")
	})
	b.P("};")
	b.P("")
	b.P("using ServiceStatusCallback = std::function<void(bool)>;")
	b.P("")

	for _, iface := range ifaces {
		if err := writeProxyDecl(b, iface); err != nil {
			return nil, err
		}
	}

	e.ctx.NamespaceEnd(b)
	e.ctx.HeaderGuardEnd(b, "PROXY_H")
	return b.Bytes(), nil
}

// GenerateImpl produces <Base>Proxy.cpp.
func (e *Emitter) GenerateImpl() ([]byte, error) {
	b := codegen.New()
	ifaces, err := e.interfaces()
	if err != nil {
		return nil, err
	}

	b.P(`#include "%sProxy.h"`, e.ctx.BaseName)
	b.P("")
	e.ctx.NamespaceStart(b)

	b.P("namespace {")
	b.Block(func() {
		b.P("ErrorCode ConvertErrorCode(PolarisErrorCode code) {")
		b.Block(func() {
			b.P("switch (code) {")
			b.P("case kPolarisErrorOk:")
			b.Block(func() { b.P("return ErrorCode::OK;") })
			b.P("case kPolarisErrorTimeout:")
			b.Block(func() { b.P("return ErrorCode::TIMEOUT;") })
			b.P("default:")
			b.Block(func() { b.P("return ErrorCode::TRANSPORT_ERROR;") })
			b.P("}")
		})
		b.P("}")
	})
	b.P("}  // namespace")
	b.P("")

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

	for _, iface := range ifaces {
		if err := writeCodec(b, iface); err != nil {
			return nil, err
		}
		if err := writeProxyImplImpl(b, iface, e.ctx.FullNamespace()); err != nil {
			return nil, err
		}
	}

	e.ctx.NamespaceEnd(b)
	return b.Bytes(), nil
}

// callPattern identifies which of the two method shapes a method uses:
// fire-and-forget, or the Sync+Async request/reply pair.
type callPattern int

const (
	patternFireAndForget callPattern = iota
	patternSyncAsync
)

func methodPattern(m ir.Method) (callPattern, error) {
	empty, err := cppgen.IsArgsListEmpty(m.Returns)
	if err != nil {
		return 0, err
	}
	if empty {
		return patternFireAndForget, nil
	}
	return patternSyncAsync, nil
}

func writeProxyDecl(b *codegen.Builder, iface *ir.InterfaceDecl) error {
	name := iface.Name + "Proxy"
	b.P("class %s final {", name)
	b.P(" public:")
	var resolveErr error
	b.Block(func() {
		b.P("explicit %s(const std::string& app_name);", name)
		b.P("~%s();", name)
		b.P("")
		b.P("%s(const %s&) = delete;", name, name)
		b.P("%s& operator=(const %s&) = delete;", name, name)
		b.P("")
		b.P("void WatchServiceStatus(ServiceStatusCallback callback);")
		b.P("bool IsServiceActive() const;")
		b.P("WaitResult WaitService(uint32_t timeout_ms);")
		b.P("")
		for _, m := range iface.Methods {
			pattern, err := methodPattern(m)
			if err != nil {
				resolveErr = err
				return
			}
			paramArgs, err := cppgen.ArgListStr("param", m.Parameters, "", ", ", "")
			if err != nil {
				resolveErr = err
				return
			}
			switch pattern {
			case patternFireAndForget:
				b.P("ErrorCode %s(%s);", m.Name, paramArgs)
			case patternSyncAsync:
				respArgs, err := cppgen.ArgListStr("reply", m.Returns, "", ", ", "")
				if err != nil {
					resolveErr = err
					return
				}
				sep := ""
				if paramArgs != "" {
					sep = ", "
				}
				outParams, err := outParamList(m)
				if err != nil {
					resolveErr = err
					return
				}
				b.P("ErrorCode %sSync(%s%s%s, int timeout_msec);", m.Name, paramArgs, sep, outParams)
				b.P("using %sCallback = std::function<void(ErrorCode, %s)>;", m.Name, respArgs)
				b.P("void %sAsync(%s%s%sCallback callback);", m.Name, paramArgs, sep, m.Name)
			}
			b.P("")
		}
		for _, ev := range iface.Events {
			args, err := cppgen.ArgListStr("event", ev.Members, "", ", ", "")
			if err != nil {
				resolveErr = err
				return
			}
			b.P("using %sCallback = std::function<void(%s)>;", ev.Name, args)
			b.P("void On%s(%sCallback callback);", ev.Name, ev.Name)
			b.P("void Off%s();", ev.Name)
			b.P("")
		}
		b.P("void Unwatch(const std::string& event_name);")
	})
	if resolveErr != nil {
		return resolveErr
	}
	b.P(" private:")
	b.Block(func() {
		for _, m := range iface.Methods {
			pattern, err := methodPattern(m)
			if err != nil {
				resolveErr = err
				return
			}
			if pattern != patternSyncAsync {
				continue
			}
			b.P("static void %sResultHandler(PolarisErrorCode code, PolarisReadableMessage* reply, void* user_data);", m.Name)
			b.P("static void Remove%sResultCallback(void* holder);", m.Name)
		}
		for _, ev := range iface.Events {
			b.P("static void %sMessageHandler(PolarisReadableMessage* payload, void* user_data);", ev.Name)
		}
		b.P("")
		b.P("class Impl;")
		b.P("std::shared_ptr<Impl> impl_;")
	})
	if resolveErr != nil {
		return resolveErr
	}
	b.P("};")
	b.P("")
	return nil
}

// outParamList renders the method's return values as a typed pointer
// out-parameter list for the Sync call shape, e.g. "int32_t* sum" or
// "int32_t* a, bool* b" for multiple returns.
func outParamList(m ir.Method) (string, error) {
	var parts []string
	for i, r := range m.Returns {
		cppType, err := cppgen.ResolveType(r.Type)
		if err != nil {
			return "", err
		}
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("out_arg_%d", i)
		}
		parts = append(parts, fmt.Sprintf("%s* %s", cppType, name))
	}
	return strings.Join(parts, ", "), nil
}

// writeCodec emits <Interface>Codec: one static <method>_message_decorator
// per method whose request carries at least one parameter. This is a
// distinct class from the service-side <Interface>Codec (different file,
// different members) — it always targets the method's Req aggregate and
// exists regardless of the method's return shape, since every RPC call
// (fire-and-forget, sync, async) encodes its request through it.
func writeCodec(b *codegen.Builder, iface *ir.InterfaceDecl) error {
	b.P("class %sCodec {", iface.Name)
	b.P(" public:")
	var resolveErr error
	b.Block(func() {
		for _, m := range iface.Methods {
			empty, err := cppgen.IsArgsListEmpty(m.Parameters)
			if err != nil {
				resolveErr = err
				return
			}
			if empty {
				continue
			}
			reqName := m.Name + "Req"
			b.P("static void %s_message_decorator(void* user_data, PolarisWritableMessage* message) {", lowerFirst(m.Name))
			b.Block(func() {
				b.P("const %s* argument = reinterpret_cast<const %s*>(user_data);", reqName, reqName)
				b.P("")
				b.P("if (argument == nullptr) {")
				b.Block(func() { b.P("return;") })
				b.P("}")
				b.P("")
				b.P("MessageWriter writer(message);")
				b.P("message->serialize_begin(message, %d);", len(m.Parameters))
				for i, p := range m.Parameters {
					name := cppgen.MemberName(m.Name+"Req", i, p)
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

func writeProxyImplImpl(b *codegen.Builder, iface *ir.InterfaceDecl, namespace string) error {
	name := iface.Name + "Proxy"

	b.P("class %s::Impl {", name)
	b.P(" public:")
	var resolveErr error
	b.Block(func() {
		b.P("explicit Impl(const std::string& app_name) {")
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
			b.P("client_ = PolarisCreateClient(runtime_, &identifier, POLARIS_CHANNEL_DDS,")
			b.P("                             app_name.c_str(), NameToId, name_id_map_.get());")
		})
		b.P("}")
		b.P("")
		b.P("~Impl() {")
		b.Block(func() {
			b.P("if (runtime_ == nullptr) {")
			b.Block(func() { b.P("return;") })
			b.P("}")
			b.P("")
			b.P("if (client_ != nullptr) {")
			b.Block(func() {
				b.P("PolarisDestroyClient(runtime_, client_);")
				b.P("client_ = nullptr;")
			})
			b.P("}")
			b.P("")
			b.P("PolarisDestroyRuntime(runtime_);")
			b.P("runtime_ = nullptr;")
		})
		b.P("}")
		b.P("")
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
		b.P("")
		b.P("std::shared_ptr<NameIdMapper> name_id_map_;")
		b.P("PolarisRuntime* runtime_ = nullptr;")
		b.P("PolarisClient* client_ = nullptr;")
		b.P("std::recursive_mutex callback_mutex_;")
		b.P("std::vector<ServiceStatusCallback> service_status_callbacks_;")
		for _, ev := range iface.Events {
			b.P("%sCallback %s_callback_;", ev.Name, lowerFirst(ev.Name))
		}
		for _, m := range iface.Methods {
			pattern, err := methodPattern(m)
			if err != nil {
				resolveErr = err
				return
			}
			if pattern == patternSyncAsync {
				b.P("std::vector<void*> %s_user_data_;", lowerFirst(m.Name))
				b.P("std::vector<%sCallback> %s_callbacks_;", m.Name, lowerFirst(m.Name))
			}
		}
	})
	if resolveErr != nil {
		return resolveErr
	}
	b.P("};")
	b.P("")

	b.P("%s::%s(const std::string& app_name) : impl_(std::make_shared<Impl>(app_name)) {}", name, name)
	b.P("%s::~%s() = default;", name, name)
	b.P("")

	b.P("void %s::WatchServiceStatus(ServiceStatusCallback callback) {", name)
	b.Block(func() {
		b.P("std::lock_guard<std::recursive_mutex> lock(impl_->callback_mutex_);")
		b.P("impl_->service_status_callbacks_.push_back(std::move(callback));")
		b.P("impl_->client_->watch_service_status(impl_->client_);")
	})
	b.P("}")
	b.P("")

	b.P("bool %s::IsServiceActive() const {", name)
	b.Block(func() { b.P("return impl_->client_->is_service_active(impl_->client_);") })
	b.P("}")
	b.P("")

	b.P("WaitResult %s::WaitService(uint32_t timeout_ms) {", name)
	b.Block(func() {
		b.P("int rc = impl_->client_->wait_service(impl_->client_, timeout_ms);")
		b.P("if (rc == 0) {")
		b.Block(func() { b.P("return WaitResult::READY;") })
		b.P("} else if (rc == 1) {")
		b.Block(func() { b.P("return WaitResult::TIMEOUT;") })
		b.P("}")
		b.P("return WaitResult::FAILED;")
	})
	b.P("}")
	b.P("")

	b.P("void %s::Unwatch(const std::string& event_name) {", name)
	b.Block(func() { b.P("impl_->client_->unwatch(impl_->client_, event_name.c_str());") })
	b.P("}")
	b.P("")

	for _, m := range iface.Methods {
		if err := writeProxyMethod(b, name, iface, m); err != nil {
			return err
		}
	}

	for _, ev := range iface.Events {
		if err := writeProxyEvent(b, name, ev); err != nil {
			return err
		}
	}

	return nil
}

func writeProxyMethod(b *codegen.Builder, proxyName string, iface *ir.InterfaceDecl, m ir.Method) error {
	pattern, err := methodPattern(m)
	if err != nil {
		return err
	}
	paramArgs, err := cppgen.ArgListStr("param", m.Parameters, "", ", ", "")
	if err != nil {
		return err
	}
	paramNames, err := cppgen.NoTypeArgListStr("param", m.Parameters, "", "")
	if err != nil {
		return err
	}
	decorator := iface.Name + "Codec::" + lowerFirst(m.Name) + "_message_decorator"

	if pattern == patternFireAndForget {
		b.P("ErrorCode %s::%s(%s) {", proxyName, m.Name, paramArgs)
		b.Block(func() {
			if paramNames != "" {
				b.P("%sReq req{%s};", m.Name, paramNames)
				b.P("PolarisErrorCode code = impl_->client_->send(impl_->client_, %q, %s, &req);", m.Name, decorator)
			} else {
				b.P("PolarisErrorCode code = impl_->client_->send(impl_->client_, %q, nullptr, nullptr);", m.Name)
			}
			b.P("return ConvertErrorCode(code);")
		})
		b.P("}")
		b.P("")
		return nil
	}

	respArgs, err := cppgen.ArgListStr("reply", m.Returns, "", ", ", "")
	if err != nil {
		return err
	}
	sep := ""
	if paramArgs != "" {
		sep = ", "
	}
	outParams, err := outParamList(m)
	if err != nil {
		return err
	}

	b.P("ErrorCode %s::%sSync(%s%s%s, int timeout_msec) {", proxyName, m.Name, paramArgs, sep, outParams)
	b.Block(func() {
		b.P("PolarisReadableMessage* reply = nullptr;")
		if paramNames != "" {
			b.P("%sReq req{%s};", m.Name, paramNames)
			b.P("PolarisErrorCode code = impl_->client_->request_sync(impl_->client_, %q, timeout_msec, %s, &req, &reply);", m.Name, decorator)
		} else {
			b.P("PolarisErrorCode code = impl_->client_->request_sync(impl_->client_, %q, timeout_msec, nullptr, nullptr, &reply);", m.Name)
		}
		b.P("if (code != kPolarisErrorOk) {")
		b.Block(func() { b.P("return ConvertErrorCode(code);") })
		b.P("}")
		b.P("")
		b.P("%sResp resp;", m.Name)
		b.P("MessageReader reader(reply);")
		for i, r := range m.Returns {
			rn := cppgen.MemberName(m.Name+"Resp", i, r)
			b.P("reader.Read(&resp.%s);", rn)
		}
		b.P("PolarisDestroySyncReplyMessage(reply);")
		b.P("return ErrorCode::OK;")
	})
	b.P("}")
	b.P("")

	b.P("void %s::%sAsync(%s%s%sCallback callback) {", proxyName, m.Name, paramArgs, sep, m.Name)
	b.Block(func() {
		b.P("auto* holder = new %sCallback(std::move(callback));", m.Name)
		b.P("{")
		b.Block(func() {
			b.P("std::lock_guard<std::recursive_mutex> lock(impl_->callback_mutex_);")
			b.P("impl_->%s_user_data_.push_back(holder);", lowerFirst(m.Name))
			b.P("impl_->%s_callbacks_.push_back(*holder);", lowerFirst(m.Name))
		})
		b.P("}")
		b.P("")
		if paramNames != "" {
			b.P("%sReq req{%s};", m.Name, paramNames)
			b.P("impl_->client_->request_async(impl_->client_, %q, %s, &req, &%sResultHandler, holder);", m.Name, decorator, m.Name)
		} else {
			b.P("impl_->client_->request_async(impl_->client_, %q, nullptr, nullptr, &%sResultHandler, holder);", m.Name, m.Name)
		}
	})
	b.P("}")
	b.P("")

	b.P("void %s::%sResultHandler(PolarisErrorCode code, PolarisReadableMessage* reply, void* user_data) {", proxyName, m.Name)
	b.Block(func() {
		b.P("auto* holder = static_cast<%sCallback*>(user_data);", m.Name)
		b.P("%sResp resp;", m.Name)
		b.P("if (code == kPolarisErrorOk && reply != nullptr) {")
		b.Block(func() {
			b.P("MessageReader reader(reply);")
			for i, r := range m.Returns {
				rn := cppgen.MemberName(m.Name+"Resp", i, r)
				b.P("reader.Read(&resp.%s);", rn)
			}
		})
		b.P("}")
		b.P("(*holder)(ConvertErrorCode(code), %s);", respMemberRefs(m))
		b.P("Remove%sResultCallback(holder);", m.Name)
	})
	b.P("}")
	b.P("")

	b.P("void %s::Remove%sResultCallback(void* holder) {", proxyName, m.Name)
	b.Block(func() {
		b.P("std::lock_guard<std::recursive_mutex> lock(impl_->callback_mutex_);")
		b.P("for (size_t i = 0; i < impl_->%s_user_data_.size(); ++i) {", lowerFirst(m.Name))
		b.Block(func() {
			b.P("if (impl_->%s_user_data_[i] == holder) {", lowerFirst(m.Name))
			b.Block(func() {
				b.P("impl_->%s_user_data_.erase(impl_->%s_user_data_.begin() + i);", lowerFirst(m.Name), lowerFirst(m.Name))
				b.P("impl_->%s_callbacks_.erase(impl_->%s_callbacks_.begin() + i);", lowerFirst(m.Name), lowerFirst(m.Name))
				b.P("break;")
			})
			b.P("}")
		})
		b.P("}")
		b.P("delete static_cast<%sCallback*>(holder);", m.Name)
	})
	b.P("}")
	b.P("")
	return nil
}

func respMemberRefs(m ir.Method) string {
	parts, err := cppgen.NoTypeArgListStr("resp", m.Returns, "", "")
	if err != nil {
		return ""
	}
	return prefixEach(parts, "resp.")
}

func prefixEach(commaList, prefix string) string {
	if commaList == "" {
		return ""
	}
	var out []byte
	field := ""
	flush := func() {
		if field != "" {
			out = append(out, []byte(prefix+field)...)
		}
	}
	for i := 0; i < len(commaList); i++ {
		c := commaList[i]
		if c == ',' {
			flush()
			out = append(out, ',')
			field = ""
			for i+1 < len(commaList) && commaList[i+1] == ' ' {
				i++
			}
			continue
		}
		field += string(c)
	}
	flush()
	return string(out)
}

// writeProxyEvent emits On<Event>/Off<Event>, subscribing and
// unsubscribing by the event's literal string name — there is no numeric
// id at this call site, matching the original generator. Off<Event> only
// calls the ABI's unwatch: the callback stored by On<Event> stays in the
// Impl until the Impl is destroyed.
func writeProxyEvent(b *codegen.Builder, proxyName string, ev ir.Event) error {
	b.P("void %s::On%s(%sCallback callback) {", proxyName, ev.Name, ev.Name)
	b.Block(func() {
		b.P("std::lock_guard<std::recursive_mutex> lock(impl_->callback_mutex_);")
		b.P("impl_->%s_callback_ = std::move(callback);", lowerFirst(ev.Name))
		b.P("impl_->client_->watch(impl_->client_, %q, &%sMessageHandler, this);", ev.Name, ev.Name)
	})
	b.P("}")
	b.P("")

	b.P("void %s::Off%s() {", proxyName, ev.Name)
	b.Block(func() {
		b.P("impl_->client_->unwatch(impl_->client_, %q);", ev.Name)
	})
	b.P("}")
	b.P("")

	b.P("void %s::%sMessageHandler(PolarisReadableMessage* payload, void* user_data) {", proxyName, ev.Name)
	b.Block(func() {
		b.P("auto* self = static_cast<%s*>(user_data);", proxyName)
		b.P("%sNotify notify;", ev.Name)
		b.P("MessageReader reader(payload);")
		for i, m := range ev.Members {
			name := cppgen.MemberName(ev.Name+"Notify", i, m)
			b.P("reader.Read(&notify.%s);", name)
		}
		b.P("if (self->impl_->%s_callback_) {", lowerFirst(ev.Name))
		b.Block(func() {
			args, err := cppgen.NoTypeArgListStr("notify", ev.Members, "", "")
			if err == nil {
				b.P("self->impl_->%s_callback_(%s);", lowerFirst(ev.Name), prefixEach(args, "notify."))
			}
		})
		b.P("}")
	})
	b.P("}")
	b.P("")
	return nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'A' && r[0] <= 'Z' {
		r[0] = r[0] + ('a' - 'A')
	}
	return string(r)
}
