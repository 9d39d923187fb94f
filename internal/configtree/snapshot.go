package configtree

// Snapshot is a plain, order-preserving copy of a Configuration.
// It is used for output, persistence and comparison; it owns nothing and
// changing it does not affect the tree it was taken from.
type Snapshot struct {
	ID       string           `json:"id" yaml:"id"`
	Settings []SettingView    `json:"settings,omitempty" yaml:"settings,omitempty"`
	Plugins  []PluginSnapshot `json:"plugins,omitempty" yaml:"plugins,omitempty"`
}

// SettingView is a name/value pair.
type SettingView struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// EndPointView is a name/url pair.
type EndPointView struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// PluginSnapshot is the snapshot of one plugin.
type PluginSnapshot struct {
	Name      string             `json:"name" yaml:"name"`
	File      string             `json:"file,omitempty" yaml:"file,omitempty"`
	Settings  []SettingView      `json:"settings,omitempty" yaml:"settings,omitempty"`
	Instances []InstanceSnapshot `json:"instances,omitempty" yaml:"instances,omitempty"`
}

// InstanceSnapshot is the snapshot of one instance.
type InstanceSnapshot struct {
	Name            string         `json:"name" yaml:"name"`
	ClientEndPoints []EndPointView `json:"client_endpoints,omitempty" yaml:"client_endpoints,omitempty"`
	ServerEndPoints []EndPointView `json:"server_endpoints,omitempty" yaml:"server_endpoints,omitempty"`
	Settings        []SettingView  `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Stats counts the entities in a configuration. Settings counts every
// setting at every level.
type Stats struct {
	Settings        int `json:"settings" yaml:"settings"`
	Plugins         int `json:"plugins" yaml:"plugins"`
	Instances       int `json:"instances" yaml:"instances"`
	ClientEndPoints int `json:"client_endpoints" yaml:"client_endpoints"`
	ServerEndPoints int `json:"server_endpoints" yaml:"server_endpoints"`
}

// Total returns the number of entities counted.
func (s Stats) Total() int {
	return s.Settings + s.Plugins + s.Instances + s.ClientEndPoints + s.ServerEndPoints
}

// Snapshot returns a plain copy of the tree in insertion order.
func (c *Configuration) Snapshot() Snapshot {
	snap := Snapshot{
		ID:       c.id,
		Settings: settingViews(c.settings),
	}
	for _, p := range c.plugins.Values() {
		ps := PluginSnapshot{
			Name:     p.name,
			File:     p.file,
			Settings: settingViews(p.settings),
		}
		for _, inst := range p.instances.Values() {
			is := InstanceSnapshot{
				Name:     inst.name,
				Settings: settingViews(inst.settings),
			}
			for _, ep := range inst.clientEndPoints.Values() {
				is.ClientEndPoints = append(is.ClientEndPoints, EndPointView{Name: ep.name, URL: ep.url})
			}
			for _, ep := range inst.serverEndPoints.Values() {
				is.ServerEndPoints = append(is.ServerEndPoints, EndPointView{Name: ep.name, URL: ep.url})
			}
			ps.Instances = append(ps.Instances, is)
		}
		snap.Plugins = append(snap.Plugins, ps)
	}
	return snap
}

// Stats counts the entities of the tree.
func (c *Configuration) Stats() Stats {
	st := Stats{
		Settings: c.settings.Len(),
		Plugins:  c.plugins.Len(),
	}
	for _, p := range c.plugins.Values() {
		st.Settings += p.settings.Len()
		st.Instances += p.instances.Len()
		for _, inst := range p.instances.Values() {
			st.Settings += inst.settings.Len()
			st.ClientEndPoints += inst.clientEndPoints.Len()
			st.ServerEndPoints += inst.serverEndPoints.Len()
		}
	}
	return st
}

func settingViews(d *Dict[*Setting]) []SettingView {
	var out []SettingView
	for _, s := range d.Values() {
		out = append(out, SettingView{Name: s.name, Value: s.value})
	}
	return out
}
