package genproxy_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WuGaoyin/idlc/internal/cppgen"
	"github.com/WuGaoyin/idlc/internal/genproxy"
	"github.com/WuGaoyin/idlc/internal/ir"
)

func sampleDoc() *ir.Document {
	return &ir.Document{
		ModulePath: []string{"acme"},
		DeclarationsOrder: []ir.DeclarationOrderItem{
			{Category: ir.CategoryInterface, Name: "Widgets"},
		},
		Interfaces: map[string]*ir.InterfaceDecl{
			"Widgets": {
				Name: "Widgets",
				Methods: []ir.Method{
					{Name: "Ping"},
					{Name: "Add",
						Parameters: []ir.Argument{{Name: "p", Type: ir.TypeRef{Tokens: []string{"long"}}}},
						Returns:    []ir.Argument{{Name: "sum", Type: ir.TypeRef{Tokens: []string{"long"}}}}},
				},
				Events: []ir.Event{
					{Name: "Changed", Members: []ir.Argument{{Name: "p", Type: ir.TypeRef{Tokens: []string{"long"}}}}},
				},
			},
		},
	}
}

func TestGenerateHeaderSelectsCallPatternPerMethod(t *testing.T) {
	ctx := cppgen.NewContext(sampleDoc(), "Widgets")
	e := genproxy.New(ctx)

	out, err := e.GenerateHeader()
	require.NoError(t, err)
	text := string(out)

	require.Contains(t, text, "class WidgetsProxy final {")
	require.Contains(t, text, "ErrorCode Ping();")
	require.NotContains(t, text, "PingSync")
	require.Contains(t, text, "ErrorCode AddSync(const int32_t& p, int32_t* sum, int timeout_msec);")
	require.Contains(t, text, "using AddCallback = std::function<void(ErrorCode,")
	require.Contains(t, text, "void AddAsync(")
	require.Contains(t, text, "void OnChanged(ChangedCallback callback);")
	require.Contains(t, text, "void OffChanged();")
	require.Contains(t, text, "void Unwatch(const std::string& event_name);")
	require.Contains(t, text, "static void AddResultHandler(PolarisErrorCode code, PolarisReadableMessage* reply, void* user_data);")
	require.Contains(t, text, "static void RemoveAddResultCallback(void* holder);")
	require.Contains(t, text, "static void ChangedMessageHandler(PolarisReadableMessage* payload, void* user_data);")
}

func TestGenerateImplUsesCodecAndStringDispatch(t *testing.T) {
	ctx := cppgen.NewContext(sampleDoc(), "Widgets")
	e := genproxy.New(ctx)

	out, err := e.GenerateImpl()
	require.NoError(t, err)
	text := string(out)

	require.Contains(t, text, "class WidgetsCodec {")
	require.Contains(t, text, "static void add_message_decorator(void* user_data, PolarisWritableMessage* message) {")
	require.NotContains(t, text, "ping_message_decorator")
	require.Contains(t, text, `identifier.service_name = "acme.Widgets";`)
	require.Contains(t, text, "client_ = PolarisCreateClient(runtime_, &identifier, POLARIS_CHANNEL_DDS,")
	require.Contains(t, text, `PolarisErrorCode code = impl_->client_->send(impl_->client_, "Ping", nullptr, nullptr);`)
	require.Contains(t, text, `impl_->client_->request_sync(impl_->client_, "Add", timeout_msec, WidgetsCodec::add_message_decorator, &req, &reply);`)
	require.Contains(t, text, `impl_->client_->request_async(impl_->client_, "Add", WidgetsCodec::add_message_decorator, &req, &AddResultHandler, holder);`)
	require.Contains(t, text, `impl_->client_->watch(impl_->client_, "Changed", &ChangedMessageHandler, this);`)
	require.Contains(t, text, `impl_->client_->unwatch(impl_->client_, "Changed");`)
	require.Contains(t, text, "std::lock_guard<std::recursive_mutex> lock(impl_->callback_mutex_);")
	require.Contains(t, text, "impl_->add_user_data_.push_back(holder);")
	require.Contains(t, text, "void WidgetsProxy::RemoveAddResultCallback(void* holder) {")
	require.Contains(t, text, "delete static_cast<AddCallback*>(holder);")
	require.Contains(t, text, "void WidgetsProxy::OffChanged() {")
}
