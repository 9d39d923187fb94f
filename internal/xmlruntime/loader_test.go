package xmlruntime

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-xmlruntime/internal/configtree"
)

const minimalBody = `
  <Plugins>
    <Plugin name="kiss" file="libkiss.so">
      <Instances>
        <Instance name="kiss0">
          <ClientEndPoint name="uplink" url="tcp://localhost:8001"/>
          <ServerEndPoint name="listen" url="tcp://0.0.0.0:8002"/>
        </Instance>
      </Instances>
    </Plugin>
  </Plugins>`

const fullBody = `
  <Settings>
    <Setting name="callsign">DF9RY</Setting>
    <Setting name="locator">JN58</Setting>
  </Settings>
  <Plugins>
    <Plugin name="kiss" file="libkiss.so">
      <Settings>
        <Setting name="debug"></Setting>
      </Settings>
      <Instances>
        <Instance name="kiss0">
          <ClientEndPoint name="uplink" url="tcp://localhost:8001"/>
          <ServerEndPoint name="listen" url="tcp://0.0.0.0:8002"/>
          <Settings>
            <Setting name="baud">9600</Setting>
          </Settings>
        </Instance>
        <Instance name="kiss1"/>
      </Instances>
    </Plugin>
    <Plugin name="router"/>
  </Plugins>`

func TestLoad_MinimalDocument(t *testing.T) {
	loader := newTestLoader(t, memFS{"runtime.xml": configDoc("station", minimalBody)}, nil)

	cfg, err := loader.Load("runtime.xml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ID() != "station" {
		t.Errorf("ID() = %q, want %q", cfg.ID(), "station")
	}
	if cfg.Plugins().Len() != 1 {
		t.Fatalf("Plugins().Len() = %d, want 1", cfg.Plugins().Len())
	}

	plugin, ok := cfg.Plugins().Lookup("kiss")
	if !ok {
		t.Fatal("plugin kiss not found")
	}
	if plugin.File() != "libkiss.so" {
		t.Errorf("File() = %q, want %q", plugin.File(), "libkiss.so")
	}
	if plugin.Instances().Len() != 1 {
		t.Fatalf("Instances().Len() = %d, want 1", plugin.Instances().Len())
	}

	inst, _ := plugin.Instances().Lookup("kiss0")
	if inst.ClientEndPoints().Len() != 1 || inst.ServerEndPoints().Len() != 1 {
		t.Fatalf("endpoint counts = %d/%d, want 1/1", inst.ClientEndPoints().Len(), inst.ServerEndPoints().Len())
	}

	client, _ := inst.ClientEndPoints().Lookup("uplink")
	if client.Name() != "uplink" || client.URL() != "tcp://localhost:8001" {
		t.Errorf("client endpoint = %q %q", client.Name(), client.URL())
	}
	server, _ := inst.ServerEndPoints().Lookup("listen")
	if server.Name() != "listen" || server.URL() != "tcp://0.0.0.0:8002" {
		t.Errorf("server endpoint = %q %q", server.Name(), server.URL())
	}

	if !cfg.Frozen() {
		t.Error("returned configuration is not frozen")
	}
}

func TestLoad_FullDocument(t *testing.T) {
	loader := newTestLoader(t, memFS{"runtime.xml": configDoc("station", fullBody)}, nil)

	cfg, err := loader.Load("runtime.xml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.Settings().Keys(); !reflect.DeepEqual(got, []string{"callsign", "locator"}) {
		t.Errorf("root settings = %v", got)
	}
	if s, _ := cfg.Settings().Lookup("callsign"); s.Value() != "DF9RY" {
		t.Errorf("callsign = %q, want DF9RY", s.Value())
	}
	if got := cfg.Plugins().Keys(); !reflect.DeepEqual(got, []string{"kiss", "router"}) {
		t.Errorf("plugins = %v", got)
	}

	kiss, _ := cfg.Plugins().Lookup("kiss")
	if s, ok := kiss.Settings().Lookup("debug"); !ok || s.Value() != "" {
		t.Errorf("empty setting = %v, %v", s, ok)
	}
	inst, _ := kiss.Instances().Lookup("kiss0")
	if s, _ := inst.Settings().Lookup("baud"); s.Value() != "9600" {
		t.Errorf("baud = %q", s.Value())
	}

	want := configtree.Stats{Settings: 4, Plugins: 2, Instances: 2, ClientEndPoints: 1, ServerEndPoints: 1}
	if got := cfg.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestLoad_PluginWithoutFile(t *testing.T) {
	body := `<Plugins><Plugin name="router"/></Plugins>`
	loader := newTestLoader(t, memFS{"runtime.xml": configDoc("c", body)}, nil)

	cfg, err := loader.Load("runtime.xml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	p, _ := cfg.Plugins().Lookup("router")
	if p.File() != "" {
		t.Errorf("File() = %q, want empty", p.File())
	}
}

func TestLoad_EmptyAndAbsentContainers(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no containers", ``},
		{"empty settings and plugins", `<Settings/><Plugins/>`},
		{"plugin with empty scopes", `<Plugins><Plugin name="p"><Settings/><Instances/></Plugin></Plugins>`},
		{"instance without children", `<Plugins><Plugin name="p"><Instances><Instance name="i"/></Instances></Plugin></Plugins>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newTestLoader(t, memFS{"runtime.xml": configDoc("c", tt.body)}, nil)

			cfg, err := loader.Load("runtime.xml")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Settings() == nil || cfg.Plugins() == nil {
				t.Fatal("nil scope")
			}
			if cfg.Settings().Len() != 0 {
				t.Errorf("settings = %d, want 0", cfg.Settings().Len())
			}
			for _, p := range cfg.Plugins().Values() {
				if p.Settings().Len() != 0 {
					t.Errorf("plugin settings = %d, want 0", p.Settings().Len())
				}
				for _, i := range p.Instances().Values() {
					if i.ClientEndPoints().Len()+i.ServerEndPoints().Len()+i.Settings().Len() != 0 {
						t.Error("instance scopes not empty")
					}
				}
			}
		})
	}
}

func TestLoad_DuplicateKeys(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		scope string
	}{
		{
			name:  "root settings",
			body:  `<Settings><Setting name="a">1</Setting><Setting name="a">2</Setting></Settings>`,
			scope: configtree.ScopeSettings,
		},
		{
			name:  "plugins",
			body:  `<Plugins><Plugin name="p"/><Plugin name="p" file="x.so"/></Plugins>`,
			scope: configtree.ScopePlugins,
		},
		{
			name: "instances",
			body: `<Plugins><Plugin name="p"><Instances>
				<Instance name="i"/><Instance name="i"/>
			</Instances></Plugin></Plugins>`,
			scope: configtree.ScopeInstances,
		},
		{
			name: "client endpoints",
			body: `<Plugins><Plugin name="p"><Instances><Instance name="i">
				<ClientEndPoint name="e" url="tcp://a:1"/>
				<ClientEndPoint name="e" url="tcp://b:2"/>
			</Instance></Instances></Plugin></Plugins>`,
			scope: configtree.ScopeClientEndPoints,
		},
		{
			name: "server endpoints",
			body: `<Plugins><Plugin name="p"><Instances><Instance name="i">
				<ServerEndPoint name="e" url="tcp://a:1"/>
				<ServerEndPoint name="e" url="tcp://b:2"/>
			</Instance></Instances></Plugin></Plugins>`,
			scope: configtree.ScopeServerEndPoints,
		},
		{
			name: "instance settings",
			body: `<Plugins><Plugin name="p"><Instances><Instance name="i"><Settings>
				<Setting name="s"/><Setting name="s"/>
			</Settings></Instance></Instances></Plugin></Plugins>`,
			scope: configtree.ScopeSettings,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newTestLoader(t, memFS{"runtime.xml": configDoc("c", tt.body)}, nil)

			cfg, err := loader.Load("runtime.xml")
			if cfg != nil {
				t.Error("Load() returned a configuration on duplicate key")
			}
			if !errors.Is(err, configtree.ErrDuplicateKey) {
				t.Fatalf("Load() error = %v, want ErrDuplicateKey", err)
			}
			var dup *configtree.DuplicateKeyError
			if !errors.As(err, &dup) {
				t.Fatalf("error %T does not carry *DuplicateKeyError", err)
			}
			if dup.Scope != tt.scope {
				t.Errorf("Scope = %q, want %q", dup.Scope, tt.scope)
			}
		})
	}
}

func TestLoad_DuplicateKeyScopePath(t *testing.T) {
	body := `<Plugins><Plugin name="p"><Instances><Instance name="i">
		<ClientEndPoint name="e" url="tcp://a:1"/>
		<ClientEndPoint name="e" url="tcp://b:2"/>
	</Instance></Instances></Plugin></Plugins>`
	loader := newTestLoader(t, memFS{"runtime.xml": configDoc("c", body)}, nil)

	_, err := loader.Load("runtime.xml")
	if err == nil || !strings.Contains(err.Error(), "/p/i") {
		t.Errorf("Load() error = %v, want scope path /p/i", err)
	}
}

func TestLoad_SchemaViolation(t *testing.T) {
	body := `<Settings>
    <Setting>no name</Setting>
    <Bogus/>
  </Settings>
  <Plugins><Plugin name="p"/></Plugins>`
	log := &recordingLogger{}
	loader := newTestLoader(t, memFS{"runtime.xml": configDoc("c", body)}, log)

	cfg, err := loader.Load("runtime.xml")
	if cfg != nil {
		t.Error("Load() returned a configuration for an invalid document")
	}
	if !errors.Is(err, ErrDocumentInvalid) {
		t.Fatalf("Load() error = %v, want ErrDocumentInvalid", err)
	}

	var invalid *InvalidDocumentError
	if !errors.As(err, &invalid) {
		t.Fatalf("error %T is not *InvalidDocumentError", err)
	}
	if got := countErrors(invalid.Diagnostics); got != 2 {
		t.Errorf("error diagnostics = %d, want 2:\n%s", got, invalid.Detail())
	}
	for _, d := range invalid.Diagnostics {
		if d.SystemID != "runtime.xml" || d.Line == 0 {
			t.Errorf("diagnostic without location: %+v", d)
		}
	}
	if len(log.records) != 0 {
		t.Errorf("entity records logged for invalid document: %v", log.scopes())
	}
}

func TestLoad_Malformed(t *testing.T) {
	loader := newTestLoader(t, memFS{"runtime.xml": `<Configuration xmlns="` + testNS + `" name="c"><Settings>`}, nil)

	_, err := loader.Load("runtime.xml")
	var invalid *InvalidDocumentError
	if !errors.As(err, &invalid) {
		t.Fatalf("Load() error = %v, want *InvalidDocumentError", err)
	}
	if invalid.Diagnostics[0].Severity != SeverityFatal {
		t.Errorf("severity = %v, want fatal", invalid.Diagnostics[0].Severity)
	}
}

func TestLoad_Unreadable(t *testing.T) {
	loader := newTestLoader(t, memFS{}, nil)

	cfg, err := loader.Load("missing.xml")
	if cfg != nil {
		t.Error("Load() returned a configuration for a missing file")
	}
	if !errors.Is(err, ErrUnreadable) {
		t.Errorf("Load() error = %v, want ErrUnreadable", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load() error = %v, want wrapped fs.ErrNotExist", err)
	}
}

func TestLoad_FileTooLarge(t *testing.T) {
	loader, err := New(Options{
		FS:          memFS{"runtime.xml": configDoc("c", minimalBody)},
		Platform:    NewPlatform(DefaultSchema),
		MaxFileSize: 64,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer loader.Close() //nolint:errcheck // Test cleanup

	if _, err := loader.Load("runtime.xml"); !errors.Is(err, ErrUnreadable) {
		t.Errorf("Load() error = %v, want ErrUnreadable", err)
	}
}

func TestLoad_Idempotent(t *testing.T) {
	loader := newTestLoader(t, memFS{"runtime.xml": configDoc("station", fullBody)}, nil)

	first, err := loader.Load("runtime.xml")
	if err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	second, err := loader.Load("runtime.xml")
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}

	if first == second {
		t.Fatal("Load() returned the same instance twice")
	}
	if !reflect.DeepEqual(first.Snapshot(), second.Snapshot()) {
		t.Errorf("snapshots differ:\n%+v\n%+v", first.Snapshot(), second.Snapshot())
	}
	p1, _ := first.Plugins().Lookup("kiss")
	p2, _ := second.Plugins().Lookup("kiss")
	if p1 == p2 {
		t.Error("plugins shared between loads")
	}
}

func TestLoad_LogsEveryEntity(t *testing.T) {
	log := &recordingLogger{}
	loader := newTestLoader(t, memFS{"runtime.xml": configDoc("station", fullBody)}, log)

	if _, err := loader.Load("runtime.xml"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{
		"/callsign",
		"/locator",
		"/kiss",
		"/kiss/debug",
		"/kiss/kiss0",
		"/kiss/kiss0/uplink",
		"/kiss/kiss0/listen",
		"/kiss/kiss0/baud",
		"/kiss/kiss1",
		"/router",
	}
	if got := log.scopes(); !reflect.DeepEqual(got, want) {
		t.Errorf("logged scopes =\n%v\nwant\n%v", got, want)
	}

	msgs := map[string]string{}
	for _, r := range log.records {
		msgs[r.attr("scope")] = r.msg
	}
	if msgs["/kiss/kiss0/uplink"] != "client endpoint defined" {
		t.Errorf("uplink message = %q", msgs["/kiss/kiss0/uplink"])
	}
	if msgs["/kiss/kiss0/listen"] != "server endpoint defined" {
		t.Errorf("listen message = %q", msgs["/kiss/kiss0/listen"])
	}
}

func TestLoad_DuplicateKeyLogsButReturnsNothing(t *testing.T) {
	body := `<Settings><Setting name="a">1</Setting><Setting name="a">2</Setting></Settings>`
	log := &recordingLogger{}
	loader := newTestLoader(t, memFS{"runtime.xml": configDoc("c", body)}, log)

	cfg, err := loader.Load("runtime.xml")
	if cfg != nil || err == nil {
		t.Fatalf("Load() = %v, %v; want nil, error", cfg, err)
	}
	if len(log.records) != 2 {
		t.Errorf("records = %d, want 2", len(log.records))
	}
}

func TestLoad_Entities(t *testing.T) {
	doc := `<?xml version="1.0"?>
<!DOCTYPE Configuration [
  <!ENTITY call "DF9RY">
  <!ENTITY port '8001'>
]>
<Configuration xmlns="` + testNS + `" name="&station;">
  <Settings>
    <Setting name="callsign">&call;</Setting>
    <Setting name="escaped">a &amp; b &#65;</Setting>
  </Settings>
  <Plugins><Plugin name="p"><Instances><Instance name="i">
    <ClientEndPoint name="e" url="tcp://localhost:&port;"/>
  </Instance></Instances></Plugin></Plugins>
</Configuration>`

	loader, err := New(Options{
		FS:       memFS{"runtime.xml": doc},
		Platform: NewPlatform(DefaultSchema),
		Entities: map[string]string{"station": "home"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer loader.Close() //nolint:errcheck // Test cleanup

	cfg, err := loader.Load("runtime.xml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ID() != "home" {
		t.Errorf("ID() = %q, want home", cfg.ID())
	}
	if s, _ := cfg.Settings().Lookup("callsign"); s.Value() != "DF9RY" {
		t.Errorf("callsign = %q", s.Value())
	}
	if s, _ := cfg.Settings().Lookup("escaped"); s.Value() != "a & b A" {
		t.Errorf("escaped = %q", s.Value())
	}
	p, _ := cfg.Plugins().Lookup("p")
	i, _ := p.Instances().Lookup("i")
	if e, _ := i.ClientEndPoints().Lookup("e"); e.URL() != "tcp://localhost:8001" {
		t.Errorf("url = %q", e.URL())
	}
}

func TestLoad_UndefinedEntity(t *testing.T) {
	body := `<Settings><Setting name="s">&nope;</Setting></Settings>`
	loader := newTestLoader(t, memFS{"runtime.xml": configDoc("c", body)}, nil)

	if _, err := loader.Load("runtime.xml"); !errors.Is(err, ErrDocumentInvalid) {
		t.Errorf("Load() error = %v, want ErrDocumentInvalid", err)
	}
}

func TestLoad_WarningsDoNotFail(t *testing.T) {
	body := `<Plugins><Plugin name="p" xmlns:ext="urn:ext" ext:colour="blue"/></Plugins>`
	loader := newTestLoader(t, memFS{"runtime.xml": configDoc("c", body)}, nil)

	cfg, diags, err := loader.LoadWithDiagnostics("runtime.xml")
	if err != nil {
		t.Fatalf("LoadWithDiagnostics() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("nil configuration")
	}
	if len(diags) != 1 || diags[0].Severity != SeverityWarning {
		t.Errorf("diagnostics = %+v, want one warning", diags)
	}
}

func TestLoader_Close(t *testing.T) {
	platform := NewPlatform(DefaultSchema)
	loader, err := New(Options{FS: memFS{}, Platform: platform})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if platform.Refs() != 1 {
		t.Errorf("Refs() = %d after New, want 1", platform.Refs())
	}

	if err := loader.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := loader.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if platform.Refs() != 0 {
		t.Errorf("Refs() = %d after Close, want 0", platform.Refs())
	}

	if _, err := loader.Load("runtime.xml"); !errors.Is(err, ErrClosed) {
		t.Errorf("Load() after Close error = %v, want ErrClosed", err)
	}
}

func TestNew_InvalidSchema(t *testing.T) {
	_, err := New(Options{Platform: NewPlatform([]byte("root: Missing\n"))})
	if !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("New() error = %v, want ErrInvalidSchema", err)
	}
}

func TestLoad_PackageFunctionFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.xml")
	if err := os.WriteFile(path, []byte(configDoc("disk", minimalBody)), 0600); err != nil {
		t.Fatalf("writing document: %v", err)
	}

	before := DefaultPlatform().Refs()
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ID() != "disk" {
		t.Errorf("ID() = %q, want disk", cfg.ID())
	}
	if DefaultPlatform().Refs() != before {
		t.Errorf("default platform refs leaked: %d, want %d", DefaultPlatform().Refs(), before)
	}
}
