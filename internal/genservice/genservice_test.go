package genservice_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WuGaoyin/idlc/internal/cppgen"
	"github.com/WuGaoyin/idlc/internal/genservice"
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
					{Name: "Add",
						Parameters: []ir.Argument{{Name: "p", Type: ir.TypeRef{Tokens: []string{"long"}}}},
						Returns:    []ir.Argument{{Type: ir.TypeRef{Tokens: []string{"boolean"}}}}},
					{Name: "Ping"},
				},
				Events: []ir.Event{
					{Name: "Changed", Members: []ir.Argument{{Name: "p", Type: ir.TypeRef{Tokens: []string{"long"}}}}},
				},
			},
		},
	}
}

func TestGenerateHeaderHasServiceAndAbstractService(t *testing.T) {
	ctx := cppgen.NewContext(sampleDoc(), "Widgets")
	e := genservice.New(ctx)

	out, err := e.GenerateHeader()
	require.NoError(t, err)
	text := string(out)

	require.Contains(t, text, "struct SessionContext final {")
	require.Contains(t, text, "uint32_t channel = 0;")
	require.Contains(t, text, "using SessionHandler = std::function<void(const SessionContext& session, bool active)>;")
	require.Contains(t, text, "using CommunicationHandler = std::function<void(bool available)>;")
	require.Contains(t, text, "class WidgetsService final {")
	require.Contains(t, text, "class AbstractWidgetsService {")
	require.Contains(t, text, "void RegisterAddHandler(const AddHandler& handler);")
	require.Contains(t, text, "using AddReplyer = std::function<void(const bool& reply_arg_0)>;")
	require.Contains(t, text, "virtual void handleSession(const SessionContext& session, bool active) {}")
	require.Contains(t, text, "virtual void handleAdd(const SessionContext& ctx, const int32_t& p, const AddReplyer& replyer) {}")
	require.Contains(t, text, "virtual void handlePing(const SessionContext& ctx) {}")
	require.Contains(t, text, "void onRequest(PolarisReadableMessage* request);")
	require.Contains(t, text, "std::shared_ptr<NameIdMapper> name_id_map_;")
}

func TestGenerateImplDispatchesByRequestName(t *testing.T) {
	ctx := cppgen.NewContext(sampleDoc(), "Widgets")
	e := genservice.New(ctx)

	out, err := e.GenerateImpl()
	require.NoError(t, err)
	text := string(out)

	require.Contains(t, text, "static bool NameToId(void* user_data, const char* name, uint16_t* id) {")
	require.Contains(t, text, "static bool IdToName(void* user_data, uint16_t id, const char** name, uint32_t* size) {")
	require.Contains(t, text, "class WidgetsCodec {")
	require.Contains(t, text, "static void AddReplyDecorator(void* user_data, PolarisWritableMessage* message) {")
	require.Contains(t, text, "static void ChangedNotifyDecorator(void* user_data, PolarisWritableMessage* message) {")
	require.Contains(t, text, `identifier.service_name = "acme.Widgets";`)
	require.Contains(t, text, "service_ = PolarisCreateService(runtime_, &identifier, POLARIS_CHANNEL_DDS,")
	require.Contains(t, text, "std::string request_name = request->get_name(request);")
	require.Contains(t, text, `if (request_name == "Add") {`)
	require.Contains(t, text, `} else if (request_name == "Ping") {`)
	require.Contains(t, text, "HandleAdd(request, permission);")
	require.Contains(t, text, "service_->reply(service_, cloned_request, WidgetsCodec::AddReplyDecorator, &argument);")
	require.Contains(t, text, `service_->notify(service_, "Changed", WidgetsCodec::ChangedNotifyDecorator, &argument);`)
	require.Contains(t, text, "void HandleAdd(PolarisReadableMessage* request, const std::string& permission) {")
	require.Contains(t, text, "void AbstractWidgetsService::onAdd(PolarisReadableMessage* request, const std::string& permission) {")
	require.Contains(t, text, "handleAdd(ctx, p, handler);")
	require.Contains(t, text, "bool Start() {")
	require.Contains(t, text, "bool AbstractWidgetsService::Start() {")
}
