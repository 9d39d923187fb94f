package configtree

// Scope kinds reported in DuplicateKeyError.Scope.
const (
	ScopeSettings        = "settings"
	ScopePlugins         = "plugins"
	ScopeInstances       = "instances"
	ScopeClientEndPoints = "client endpoints"
	ScopeServerEndPoints = "server endpoints"
)

// Configuration is the root of a loaded runtime configuration.
type Configuration struct {
	id       string
	settings *Dict[*Setting]
	plugins  *Dict[*Plugin]
}

// NewConfiguration creates an empty configuration with the given identifier.
func NewConfiguration(id string) *Configuration {
	return &Configuration{
		id:       id,
		settings: newDict[*Setting](ScopeSettings),
		plugins:  newDict[*Plugin](ScopePlugins),
	}
}

// ID returns the configuration identifier (the root element's name).
func (c *Configuration) ID() string { return c.id }

// Settings returns the top-level settings scope.
func (c *Configuration) Settings() *Dict[*Setting] { return c.settings }

// Plugins returns the plugins scope.
func (c *Configuration) Plugins() *Dict[*Plugin] { return c.plugins }

// Freeze makes every scope of the tree read-only.
// It is called once by the loader after the last insert.
func (c *Configuration) Freeze() {
	c.settings.freeze()
	c.plugins.freeze()
	for _, p := range c.plugins.Values() {
		p.freeze()
	}
}

// Frozen reports whether Freeze has been called.
func (c *Configuration) Frozen() bool { return c.plugins.Frozen() }

// Setting is a named string value. The value may be empty.
type Setting struct {
	ownership
	name  string
	value string
}

// NewSetting creates a setting.
func NewSetting(name, value string) *Setting {
	return &Setting{name: name, value: value}
}

// Name returns the setting name.
func (s *Setting) Name() string { return s.name }

// Value returns the raw, uninterpreted setting value.
func (s *Setting) Value() string { return s.value }

// Plugin describes a plugin, the shared library it lives in, its settings
// and its instances.
type Plugin struct {
	ownership
	name      string
	file      string
	settings  *Dict[*Setting]
	instances *Dict[*Instance]
}

// NewPlugin creates a plugin with empty scopes. file may be empty.
func NewPlugin(name, file string) *Plugin {
	return &Plugin{
		name:      name,
		file:      file,
		settings:  newDict[*Setting](ScopeSettings),
		instances: newDict[*Instance](ScopeInstances),
	}
}

// Name returns the plugin name.
func (p *Plugin) Name() string { return p.name }

// File returns the plugin file path, or "" when none was configured.
func (p *Plugin) File() string { return p.file }

// Settings returns the plugin settings scope.
func (p *Plugin) Settings() *Dict[*Setting] { return p.settings }

// Instances returns the plugin instances scope.
func (p *Plugin) Instances() *Dict[*Instance] { return p.instances }

func (p *Plugin) freeze() {
	p.settings.freeze()
	p.instances.freeze()
	for _, inst := range p.instances.Values() {
		inst.freeze()
	}
}

// Instance is a named instance of a plugin with its endpoints and settings.
type Instance struct {
	ownership
	name            string
	clientEndPoints *Dict[*ClientEndPoint]
	serverEndPoints *Dict[*ServerEndPoint]
	settings        *Dict[*Setting]
}

// NewInstance creates an instance with empty scopes.
func NewInstance(name string) *Instance {
	return &Instance{
		name:            name,
		clientEndPoints: newDict[*ClientEndPoint](ScopeClientEndPoints),
		serverEndPoints: newDict[*ServerEndPoint](ScopeServerEndPoints),
		settings:        newDict[*Setting](ScopeSettings),
	}
}

// Name returns the instance name.
func (i *Instance) Name() string { return i.name }

// ClientEndPoints returns the client endpoint scope.
func (i *Instance) ClientEndPoints() *Dict[*ClientEndPoint] { return i.clientEndPoints }

// ServerEndPoints returns the server endpoint scope.
func (i *Instance) ServerEndPoints() *Dict[*ServerEndPoint] { return i.serverEndPoints }

// Settings returns the instance settings scope.
func (i *Instance) Settings() *Dict[*Setting] { return i.settings }

func (i *Instance) freeze() {
	i.clientEndPoints.freeze()
	i.serverEndPoints.freeze()
	i.settings.freeze()
}

// ClientEndPoint is a named URL an instance connects to.
type ClientEndPoint struct {
	ownership
	name string
	url  string
}

// NewClientEndPoint creates a client endpoint.
func NewClientEndPoint(name, url string) *ClientEndPoint {
	return &ClientEndPoint{name: name, url: url}
}

// Name returns the endpoint name.
func (e *ClientEndPoint) Name() string { return e.name }

// URL returns the endpoint URL as written in the document.
func (e *ClientEndPoint) URL() string { return e.url }

// ServerEndPoint is a named URL an instance serves on.
type ServerEndPoint struct {
	ownership
	name string
	url  string
}

// NewServerEndPoint creates a server endpoint.
func NewServerEndPoint(name, url string) *ServerEndPoint {
	return &ServerEndPoint{name: name, url: url}
}

// Name returns the endpoint name.
func (e *ServerEndPoint) Name() string { return e.name }

// URL returns the endpoint URL as written in the document.
func (e *ServerEndPoint) URL() string { return e.url }
