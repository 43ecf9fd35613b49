package store

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dshills/devtoolsettings/internal/config/notify"
	"github.com/dshills/devtoolsettings/internal/settings/propertytype"
	"github.com/dshills/devtoolsettings/internal/settings/toolconfig"
)

const (
	textCaseTool = "text-case-converter"
	hashTool     = "hashing"
	caseStyle    = "devtools.textcase.CaseStyle"
)

func newRegistry() *propertytype.Registry {
	r := propertytype.NewWithDefaults()
	r.MustRegisterEnum(caseStyle, "UPPER", "LOWER", "CAMEL")
	return r
}

// textCaseProperties registers the properties a text case converter tool
// would register while building its UI.
type textCaseProperties struct {
	style  *toolconfig.Property[propertytype.Enum]
	input  *toolconfig.Property[propertytype.String]
	secret *toolconfig.Property[propertytype.String]
	width  *toolconfig.Property[propertytype.Int]
}

func registerTextCase(t *testing.T, c *toolconfig.Configuration) textCaseProperties {
	t.Helper()
	return textCaseProperties{
		style: toolconfig.MustRegister(c, "style", propertytype.Enum{Type: caseStyle, Name: "UPPER"}, toolconfig.PolicyConfiguration,
			toolconfig.WithExample(propertytype.Enum{Type: caseStyle, Name: "CAMEL"})),
		input: toolconfig.MustRegister(c, "input", propertytype.String(""), toolconfig.PolicyInput,
			toolconfig.WithExample(propertytype.String("Hello World"))),
		secret: toolconfig.MustRegister(c, "secret", propertytype.String(""), toolconfig.PolicySensitive,
			toolconfig.WithExample(propertytype.String("s3cr3t"))),
		width: toolconfig.MustRegister(c, "width", propertytype.Int(80), toolconfig.PolicyConfiguration),
	}
}

func allFlags() *toolconfig.StaticFlags {
	return &toolconfig.StaticFlags{Configurations: true, Inputs: true, SensitiveInputs: true, Examples: true}
}

func TestStore_DefaultsAreNotPersisted(t *testing.T) {
	s := New(ScopeDialog, newRegistry(), allFlags())
	registerTextCase(t, s.CreateConfiguration(textCaseTool))

	state := s.GetState()
	if len(state.DeveloperToolsConfigurations) != 0 {
		t.Errorf("expected no configurations, got %+v", state.DeveloperToolsConfigurations)
	}
}

func TestStore_ExampleValuesAreNotPersisted(t *testing.T) {
	flags := allFlags()
	flags.Examples = false
	s := New(ScopeDialog, newRegistry(), flags)
	p := registerTextCase(t, s.CreateConfiguration(textCaseTool))

	p.style.Set(propertytype.Enum{Type: caseStyle, Name: "CAMEL"})
	p.input.Set("Hello World")
	p.secret.Set("s3cr3t")

	if n := len(s.GetState().DeveloperToolsConfigurations); n != 0 {
		t.Errorf("expected no configurations, got %d", n)
	}
}

func TestStore_ResetLeavesNothingToPersist(t *testing.T) {
	for _, loadExamples := range []bool{true, false} {
		s := New(ScopeDialog, newRegistry(), allFlags())
		c := s.CreateConfiguration(textCaseTool)
		p := registerTextCase(t, c)
		p.style.Set(propertytype.Enum{Type: caseStyle, Name: "LOWER"})
		p.width.Set(120)

		c.Reset(loadExamples)

		if n := len(s.GetState().DeveloperToolsConfigurations); n != 0 {
			t.Errorf("loadExamples=%v: expected no configurations, got %d", loadExamples, n)
		}
	}
}

func TestStore_SensitivePolicyGatesSave(t *testing.T) {
	flags := allFlags()
	flags.SensitiveInputs = false
	s := New(ScopeDialog, newRegistry(), flags)
	c := s.CreateConfiguration(textCaseTool)
	p := registerTextCase(t, c)
	p.secret.Set("hunter2")

	if n := len(s.GetState().DeveloperToolsConfigurations); n != 0 {
		t.Fatalf("sensitive property persisted while disabled: %d configurations", n)
	}
	if !c.IsModified() {
		t.Fatal("in-memory value should still count as modified")
	}

	flags.SensitiveInputs = true
	state := s.GetState()
	if len(state.DeveloperToolsConfigurations) != 1 {
		t.Fatalf("expected one configuration, got %d", len(state.DeveloperToolsConfigurations))
	}
	props := state.DeveloperToolsConfigurations[0].Properties
	want := []PropertyState{{Key: "secret", Value: "string|hunter2", Type: "SENSITIVE"}}
	if !reflect.DeepEqual(props, want) {
		t.Errorf("properties = %+v, want %+v", props, want)
	}
}

func TestStore_PolicyDisabledAtLoadDropsPermanently(t *testing.T) {
	flags := allFlags()
	flags.Inputs = false
	core, logs := observer.New(zapcore.WarnLevel)
	s := New(ScopeDialog, newRegistry(), flags, WithLogger(zap.New(core).Sugar()))

	s.LoadState(&InstanceState{DeveloperToolsConfigurations: []DeveloperToolConfigurationState{
		configState(textCaseTool, uuid.New(), "Workbench",
			PropertyState{Key: "input", Value: "string|kept?", Type: "INPUT"},
			PropertyState{Key: "width", Value: "int|100", Type: "CONFIGURATION"}),
	}})

	flags.Inputs = true
	state := s.GetState()
	if len(state.DeveloperToolsConfigurations) != 1 {
		t.Fatalf("expected one configuration, got %d", len(state.DeveloperToolsConfigurations))
	}
	props := state.DeveloperToolsConfigurations[0].Properties
	if len(props) != 1 || props[0].Key != "width" {
		t.Errorf("properties = %+v, want only width", props)
	}
	if logs.FilterMessage("Dropping property of disabled save policy").Len() != 1 {
		t.Errorf("expected one warning, got %v", logs.All())
	}
}

func TestStore_GetStateShape(t *testing.T) {
	s := New(ScopeToolWindow, newRegistry(), allFlags())
	c := s.CreateConfiguration(textCaseTool, toolconfig.WithName("Scratch"))
	p := registerTextCase(t, c)
	p.width.Set(120)
	p.style.Set(propertytype.Enum{Type: caseStyle, Name: "LOWER"})
	s.SetLastSelectedContentNodeID("text-case-converter")
	s.SetExpandedGroupNodeIDs([]string{"encoders", "converters"})

	state := s.GetState()
	if len(state.DeveloperToolsConfigurations) != 1 {
		t.Fatalf("expected one configuration, got %d", len(state.DeveloperToolsConfigurations))
	}
	cs := state.DeveloperToolsConfigurations[0]
	if *cs.DeveloperToolID != textCaseTool || *cs.ID != c.ID().String() || *cs.Name != "Scratch" {
		t.Errorf("configuration header = %s %s %s", *cs.DeveloperToolID, *cs.ID, *cs.Name)
	}
	want := []PropertyState{
		{Key: "style", Value: caseStyle + "|LOWER", Type: "CONFIGURATION"},
		{Key: "width", Value: "int|120", Type: "CONFIGURATION"},
	}
	if !reflect.DeepEqual(cs.Properties, want) {
		t.Errorf("properties = %+v, want %+v", cs.Properties, want)
	}
	if state.LastSelectedContentNodeID == nil || *state.LastSelectedContentNodeID != "text-case-converter" {
		t.Errorf("LastSelectedContentNodeID = %v", state.LastSelectedContentNodeID)
	}
	if !reflect.DeepEqual(state.ExpandedGroupNodeIDs, []string{"encoders", "converters"}) {
		t.Errorf("ExpandedGroupNodeIDs = %v", state.ExpandedGroupNodeIDs)
	}
}

func TestStore_LoadThenRegisterRestoresValues(t *testing.T) {
	registry := newRegistry()
	first := New(ScopeDialog, registry, allFlags())
	c := first.CreateConfiguration(textCaseTool)
	p := registerTextCase(t, c)
	p.input.Set("a|b")
	p.width.Set(42)

	second := New(ScopeDialog, registry, allFlags())
	second.LoadState(first.GetState())

	restored, ok := second.Configuration(textCaseTool, c.ID())
	if !ok {
		t.Fatal("configuration not restored")
	}
	q := registerTextCase(t, restored)
	if q.input.Get() != "a|b" || q.width.Get() != 42 {
		t.Errorf("restored input=%q width=%d", q.input.Get(), q.width.Get())
	}
	// Unchanged properties start from the example.
	if q.style.Get().Name != "CAMEL" {
		t.Errorf("style = %v, want example", q.style.Get())
	}
	if len(restored.PersistentProperties()) != 0 {
		t.Errorf("all persistent properties should be claimed, got %v", restored.PersistentProperties())
	}
}

func TestStore_LegacyTypeNamesOnLoad(t *testing.T) {
	s := New(ScopeDialog, newRegistry(), allFlags())
	id := uuid.New()
	s.LoadState(&InstanceState{DeveloperToolsConfigurations: []DeveloperToolConfigurationState{
		configState(textCaseTool, id, "Workbench",
			PropertyState{Key: "width", Value: "java.lang.Integer|100", Type: "CONFIGURATION"},
			PropertyState{Key: "style", Value: "io.devtools.plugin.developertools.textcase$CaseStyle|LOWER", Type: "CONFIGURATION"}),
	}})

	c, _ := s.Configuration(textCaseTool, id)
	p := registerTextCase(t, c)
	if p.width.Get() != 100 {
		t.Errorf("width = %d, want 100", p.width.Get())
	}
	if p.style.Get() != (propertytype.Enum{Type: caseStyle, Name: "LOWER"}) {
		t.Errorf("style = %#v", p.style.Get())
	}

	props := s.GetState().DeveloperToolsConfigurations[0].Properties
	if props[0].Value != caseStyle+"|LOWER" || props[1].Value != "int|100" {
		t.Errorf("legacy names not normalized: %+v", props)
	}
}

func TestStore_UnrestorablePropertiesAreDropped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := New(ScopeDialog, newRegistry(), allFlags(), WithLogger(zap.New(core).Sugar()))
	id := uuid.New()

	s.LoadState(&InstanceState{DeveloperToolsConfigurations: []DeveloperToolConfigurationState{
		configState(hashTool, id, "Workbench",
			PropertyState{Key: "algorithm", Value: "com.example.RemovedType|SHA1", Type: "CONFIGURATION"},
			PropertyState{Key: "style", Value: caseStyle + "|SNAKE", Type: "CONFIGURATION"},
			PropertyState{Key: "count", Value: "int|many", Type: "CONFIGURATION"},
			PropertyState{Key: "mode", Value: "int|1", Type: "SECRET"},
			PropertyState{Key: "rounds", Value: "int|3", Type: "CONFIGURATION"}),
	}})

	c, ok := s.Configuration(hashTool, id)
	if !ok {
		t.Fatal("configuration with bad properties must still load")
	}
	persistent := c.PersistentProperties()
	if len(persistent) != 1 || persistent[0].Key != "rounds" || persistent[0].Value != propertytype.Int(3) {
		t.Errorf("persistent = %+v, want only rounds", persistent)
	}
	if _, ok := c.Property("algorithm"); ok {
		t.Error("unknown property should not be registered")
	}

	restoreWarnings := logs.FilterMessage("Dropping property that cannot be restored")
	if restoreWarnings.Len() != 3 {
		t.Errorf("restore warnings = %d, want 3", restoreWarnings.Len())
	}
	if logs.FilterMessage("Dropping property with unknown save policy").Len() != 1 {
		t.Error("expected warning for unknown save policy")
	}
	fields := restoreWarnings.All()[0].ContextMap()
	if fields["typeName"] != "com.example.RemovedType" || fields["toolId"] != hashTool {
		t.Errorf("warning fields = %v", fields)
	}
}

func TestStore_InvalidUTF8StringIsNotPersisted(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := New(ScopeDialog, newRegistry(), allFlags(), WithLogger(zap.New(core).Sugar()))
	props := registerTextCase(t, s.CreateConfiguration(textCaseTool))
	props.input.Set("\xff\x00 tab\tctl\x01")
	props.width.Set(120)

	state := s.GetState()
	if len(state.DeveloperToolsConfigurations) != 1 {
		t.Fatalf("configurations = %d, want 1", len(state.DeveloperToolsConfigurations))
	}
	got := state.DeveloperToolsConfigurations[0].Properties
	want := []PropertyState{{Key: "width", Value: "int|120", Type: "CONFIGURATION"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("properties = %+v, want %+v", got, want)
	}
	if logs.FilterMessage("Dropping property that cannot be persisted").Len() != 1 {
		t.Errorf("expected one warning, got %v", logs.All())
	}
	if props.input.Get() != "\xff\x00 tab\tctl\x01" {
		t.Error("in-memory value must be kept")
	}
}

func TestStore_UnknownEnumConstantPanicsOnSave(t *testing.T) {
	s := New(ScopeDialog, newRegistry(), allFlags())
	props := registerTextCase(t, s.CreateConfiguration(textCaseTool))
	props.style.Set(propertytype.Enum{Type: caseStyle, Name: "BOGUS"})

	defer func() {
		if recover() == nil {
			t.Error("GetState should panic on a value the registry cannot serialize")
		}
	}()
	s.GetState()
}

func TestStore_IncompleteConfigurationsAreSkipped(t *testing.T) {
	s := New(ScopeDialog, newRegistry(), allFlags())
	good := uuid.New()
	missingName := configState(hashTool, uuid.New(), "x")
	missingName.Name = nil
	missingProps := configState(hashTool, uuid.New(), "y")
	missingProps.Properties = nil
	badID := configState(hashTool, uuid.New(), "z")
	badID.ID = ptr("not-a-uuid")

	s.LoadState(&InstanceState{DeveloperToolsConfigurations: []DeveloperToolConfigurationState{
		missingName,
		missingProps,
		badID,
		configState(hashTool, good, "ok", PropertyState{Key: "rounds", Value: "int|3", Type: "CONFIGURATION"}),
	}})

	got := s.Configurations(hashTool)
	if len(got) != 1 || got[0].ID() != good {
		t.Errorf("configurations = %v, want only %v", got, good)
	}
}

func TestStore_UnclaimedPropertiesRoundTrip(t *testing.T) {
	s := New(ScopeDialog, newRegistry(), allFlags())
	lastSelected := "hashing"
	in := &InstanceState{
		DeveloperToolsConfigurations: []DeveloperToolConfigurationState{
			configState(hashTool, uuid.New(), "First",
				PropertyState{Key: "a", Value: "boolean|true", Type: "CONFIGURATION"},
				PropertyState{Key: "b", Value: "string|x|y", Type: "INPUT"},
				PropertyState{Key: "c", Value: "color|-65281", Type: "CONFIGURATION"},
				PropertyState{Key: "d", Value: "decimal|1.2339999999999999857891452847979962825775146484375", Type: "INPUT"},
				PropertyState{Key: "e", Value: "locale|de-DE", Type: "CONFIGURATION"},
				PropertyState{Key: "f", Value: "string|pw", Type: "SENSITIVE"}),
			configState(hashTool, uuid.New(), "Second",
				PropertyState{Key: "g", Value: "double|1234567.0", Type: "CONFIGURATION"}),
			configState(textCaseTool, uuid.New(), "Workbench",
				PropertyState{Key: "style", Value: caseStyle + "|CAMEL", Type: "CONFIGURATION"}),
		},
		LastSelectedContentNodeID: &lastSelected,
		ExpandedGroupNodeIDs:      []string{"hashing"},
	}

	s.LoadState(in)
	out := s.GetState()

	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in = %+v\nout = %+v", in, out)
	}
}

func TestStore_LoadStateReplacesEverything(t *testing.T) {
	s := New(ScopeDialog, newRegistry(), allFlags())
	s.CreateConfiguration(textCaseTool)
	s.SetLastSelectedContentNodeID("x")

	s.LoadState(nil)

	if len(s.ToolIDs()) != 0 {
		t.Errorf("ToolIDs = %v, want none", s.ToolIDs())
	}
	if _, ok := s.LastSelectedContentNodeID(); ok {
		t.Error("LastSelectedContentNodeID should be cleared")
	}
	if !s.GetState().Empty() {
		t.Error("state of a cleared store should be empty")
	}
}

func TestStore_CreateAndRemoveConfigurations(t *testing.T) {
	n := notify.New()
	defer n.Close()
	var changes []notify.Change
	n.SubscribePath(string(ScopeDialog), func(c notify.Change) { changes = append(changes, c) })

	s := New(ScopeDialog, newRegistry(), allFlags(), WithNotifier(n))
	a := s.CreateConfiguration(hashTool)
	b := s.CreateConfiguration(hashTool)
	if a.ID() == b.ID() {
		t.Fatal("configurations must get distinct ids")
	}

	snapshot := s.Configurations(hashTool)
	if !s.RemoveConfiguration(hashTool, a) {
		t.Fatal("RemoveConfiguration returned false")
	}
	if s.RemoveConfiguration(hashTool, a) {
		t.Error("second RemoveConfiguration should return false")
	}
	if len(snapshot) != 2 || snapshot[0] != a {
		t.Error("earlier snapshot must not change")
	}
	if got := s.Configurations(hashTool); len(got) != 1 || got[0] != b {
		t.Errorf("Configurations = %v", got)
	}

	s.RemoveConfiguration(hashTool, b)
	if len(s.ToolIDs()) != 0 {
		t.Errorf("ToolIDs = %v, want none", s.ToolIDs())
	}

	wantTypes := []notify.ChangeType{notify.ChangeCreate, notify.ChangeCreate, notify.ChangeDelete, notify.ChangeDelete}
	if len(changes) != len(wantTypes) {
		t.Fatalf("changes = %v", changes)
	}
	for i, want := range wantTypes {
		if changes[i].Type != want || changes[i].Path != "dialog."+hashTool {
			t.Errorf("changes[%d] = %+v", i, changes[i])
		}
	}
}

func TestStore_DeterministicOrder(t *testing.T) {
	s := New(ScopeDialog, newRegistry(), allFlags())
	for _, toolID := range []string{"zeta", "alpha", "mid"} {
		c := s.CreateConfiguration(toolID)
		toolconfig.MustRegister(c, "n", propertytype.Int(0), toolconfig.PolicyConfiguration).Set(1)
	}

	var got []string
	for _, cs := range s.GetState().DeveloperToolsConfigurations {
		got = append(got, *cs.DeveloperToolID)
	}
	if !reflect.DeepEqual(got, []string{"alpha", "mid", "zeta"}) {
		t.Errorf("tool order = %v", got)
	}
}

func configState(toolID string, id uuid.UUID, name string, props ...PropertyState) DeveloperToolConfigurationState {
	if props == nil {
		props = []PropertyState{}
	}
	return DeveloperToolConfigurationState{
		DeveloperToolID: ptr(toolID),
		ID:              ptr(id.String()),
		Name:            ptr(name),
		Properties:      props,
	}
}
