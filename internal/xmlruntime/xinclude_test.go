package xmlruntime

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const pluginsFragment = `<Plugins xmlns="` + testNS + `">
  <Plugin name="kiss" file="libkiss.so"/>
  <Plugin name="router"/>
</Plugins>`

func TestLoad_IncludeXML(t *testing.T) {
	files := memFS{
		"conf/runtime.xml": configDoc("c", `<xi:include href="plugins.xml"/>`),
		"conf/plugins.xml": pluginsFragment,
	}
	loader := newTestLoader(t, files, nil)

	cfg, err := loader.Load("conf/runtime.xml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.Plugins().Keys(); !reflect.DeepEqual(got, []string{"kiss", "router"}) {
		t.Errorf("plugins = %v", got)
	}
}

func TestLoad_IncludeNested(t *testing.T) {
	files := memFS{
		"runtime.xml":      configDoc("c", `<Plugins><xi:include href="plugins/kiss.xml"/></Plugins>`),
		"plugins/kiss.xml": `<Plugin xmlns="` + testNS + `" xmlns:xi="` + XIncludeNamespace + `" name="kiss"><xi:include href="instances.xml"/></Plugin>`,
		"plugins/instances.xml": `<Instances xmlns="` + testNS + `">
			<Instance name="kiss0"><ClientEndPoint name="up" url="tcp://a:1"/></Instance>
		</Instances>`,
	}
	loader := newTestLoader(t, files, nil)

	cfg, err := loader.Load("runtime.xml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	p, ok := cfg.Plugins().Lookup("kiss")
	if !ok {
		t.Fatal("plugin kiss not found")
	}
	if _, ok := p.Instances().Lookup("kiss0"); !ok {
		t.Error("instance from nested include not found")
	}
}

func TestLoad_IncludeText(t *testing.T) {
	files := memFS{
		"runtime.xml": configDoc("c", `<Settings><Setting name="motd"><xi:include href="motd.txt" parse="text"/></Setting></Settings>`),
		"motd.txt":    "73 de DF9RY",
	}
	loader := newTestLoader(t, files, nil)

	cfg, err := loader.Load("runtime.xml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s, _ := cfg.Settings().Lookup("motd")
	if s.Value() != "73 de DF9RY" {
		t.Errorf("motd = %q", s.Value())
	}
}

func TestLoad_IncludeTextKeepsPosition(t *testing.T) {
	body := `<Settings>
    <Setting name="a">pre-<xi:include parse="text" href="v.txt"/>-post</Setting>
    <Setting name="b">  <xi:include parse="text" href="v.txt"/>  </Setting>
    <Setting name="c"><xi:include parse="text" href="v.txt"/>,<xi:include parse="text" href="v.txt"/></Setting>
    <Setting name="d">[<xi:include parse="text" href="missing.txt"><xi:fallback>none</xi:fallback></xi:include>]</Setting>
  </Settings>`
	files := memFS{
		"runtime.xml": configDoc("c", body),
		"v.txt":       "MID",
	}
	loader := newTestLoader(t, files, nil)

	cfg, err := loader.Load("runtime.xml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := map[string]string{
		"a": "pre-MID-post",
		"b": "  MID  ",
		"c": "MID,MID",
		"d": "[none]",
	}
	for name, value := range want {
		s, ok := cfg.Settings().Lookup(name)
		if !ok {
			t.Errorf("setting %s not found", name)
			continue
		}
		if s.Value() != value {
			t.Errorf("setting %s = %q, want %q", name, s.Value(), value)
		}
	}
}

func TestLoad_IncludeFallback(t *testing.T) {
	body := `<Plugins>
    <xi:include href="missing.xml">
      <xi:fallback><Plugin name="fallback"/></xi:fallback>
    </xi:include>
  </Plugins>`
	loader := newTestLoader(t, memFS{"runtime.xml": configDoc("c", body)}, nil)

	cfg, err := loader.Load("runtime.xml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := cfg.Plugins().Lookup("fallback"); !ok {
		t.Errorf("plugins = %v, want fallback", cfg.Plugins().Keys())
	}
}

func TestLoad_IncludeErrors(t *testing.T) {
	self := `<Plugin xmlns="` + testNS + `" xmlns:xi="` + XIncludeNamespace + `" name="p"><xi:include href="loop.xml"/></Plugin>`

	tests := []struct {
		name    string
		body    string
		extra   memFS
		wantMsg string
	}{
		{
			name:    "missing target",
			body:    `<xi:include href="missing.xml"/>`,
			wantMsg: "reading included document",
		},
		{
			name:    "no href",
			body:    `<xi:include/>`,
			wantMsg: "without href",
		},
		{
			name:    "xpointer",
			body:    `<xi:include href="plugins.xml" xpointer="element(/1)"/>`,
			extra:   memFS{"plugins.xml": pluginsFragment},
			wantMsg: "xpointer",
		},
		{
			name:    "bad parse mode",
			body:    `<xi:include href="plugins.xml" parse="binary"/>`,
			extra:   memFS{"plugins.xml": pluginsFragment},
			wantMsg: "parse=",
		},
		{
			name:    "loop",
			body:    `<Plugins><xi:include href="loop.xml"/></Plugins>`,
			extra:   memFS{"loop.xml": self},
			wantMsg: "inclusion loop",
		},
		{
			name:    "malformed target",
			body:    `<xi:include href="broken.xml"/>`,
			extra:   memFS{"broken.xml": `<Plugins xmlns="` + testNS + `">`},
			wantMsg: "EOF",
		},
		{
			name:    "included content fails validation",
			body:    `<Settings><xi:include href="plugins.xml"/></Settings>`,
			extra:   memFS{"plugins.xml": pluginsFragment},
			wantMsg: "not allowed in <Settings>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := memFS{"runtime.xml": configDoc("c", tt.body)}
			for k, v := range tt.extra {
				files[k] = v
			}
			loader := newTestLoader(t, files, nil)

			_, err := loader.Load("runtime.xml")
			var invalid *InvalidDocumentError
			if !errors.As(err, &invalid) {
				t.Fatalf("Load() error = %v, want *InvalidDocumentError", err)
			}
			if !strings.Contains(invalid.Detail(), tt.wantMsg) {
				t.Errorf("diagnostics %q do not mention %q", invalid.Detail(), tt.wantMsg)
			}
		})
	}
}

func TestLoad_IncludeDiagnosticsNameTheIncludedFile(t *testing.T) {
	files := memFS{
		"runtime.xml": configDoc("c", `<xi:include href="plugins.xml"/>`),
		"plugins.xml": `<Plugins xmlns="` + testNS + `"><Plugin/></Plugins>`,
	}
	loader := newTestLoader(t, files, nil)

	_, err := loader.Load("runtime.xml")
	var invalid *InvalidDocumentError
	if !errors.As(err, &invalid) {
		t.Fatalf("Load() error = %v, want *InvalidDocumentError", err)
	}
	if invalid.Diagnostics[0].SystemID != "plugins.xml" {
		t.Errorf("SystemID = %q, want plugins.xml", invalid.Diagnostics[0].SystemID)
	}
}

func TestLoad_IncludeDepthLimit(t *testing.T) {
	files := memFS{
		"runtime.xml": configDoc("c", `<Plugins><xi:include href="a.xml"/></Plugins>`),
		"a.xml":       `<Plugin xmlns="` + testNS + `" xmlns:xi="` + XIncludeNamespace + `" name="a"><xi:include href="b.xml"/></Plugin>`,
		"b.xml":       `<Instances xmlns="` + testNS + `"/>`,
	}

	tests := []struct {
		name    string
		depth   int
		wantErr bool
	}{
		{"default limit", 0, false},
		{"limit one", 1, true},
		{"limit two", 2, false},
		{"unlimited", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, err := New(Options{FS: files, Platform: NewPlatform(DefaultSchema), MaxIncludeDepth: tt.depth})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer loader.Close() //nolint:errcheck // Test cleanup

			_, err = loader.Load("runtime.xml")
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_IncludeAtRootRejected(t *testing.T) {
	doc := `<xi:include xmlns:xi="` + XIncludeNamespace + `" href="other.xml"/>`
	loader := newTestLoader(t, memFS{"runtime.xml": doc, "other.xml": configDoc("c", "")}, nil)

	if _, err := loader.Load("runtime.xml"); !errors.Is(err, ErrDocumentInvalid) {
		t.Errorf("Load() error = %v, want ErrDocumentInvalid", err)
	}
}
