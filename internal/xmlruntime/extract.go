package xmlruntime

import (
	"fmt"

	"github.com/nerrad567/gray-logic-xmlruntime/internal/configtree"
)

// Element and attribute names of the runtime document.
const (
	tagSettings       = "Settings"
	tagSetting        = "Setting"
	tagPlugins        = "Plugins"
	tagPlugin         = "Plugin"
	tagInstances      = "Instances"
	tagInstance       = "Instance"
	tagClientEndPoint = "ClientEndPoint"
	tagServerEndPoint = "ServerEndPoint"

	attrName = "name"
	attrFile = "file"
	attrURL  = "url"
)

// extractor turns a validated element tree into a configtree.Configuration.
//
// Every routine receives the scope path of its parent ("" at the root). The
// path only feeds log records. Each entity's own scopes are filled before the
// entity is inserted into its parent, so a scope never holds a half-built
// entity.
type extractor struct {
	log Logger
}

func (x *extractor) configuration(root *Element) (*configtree.Configuration, error) {
	id, _ := root.Attr(attrName)
	cfg := configtree.NewConfiguration(id)

	if err := x.settings("", root.Child(tagSettings), cfg.Settings()); err != nil {
		return nil, err
	}
	if err := x.plugins("", root.Child(tagPlugins), cfg.Plugins()); err != nil {
		return nil, err
	}

	cfg.Freeze()
	return cfg, nil
}

// settings fills scope from the Setting children of container.
// A nil container leaves the scope empty.
func (x *extractor) settings(path string, container *Element, scope *configtree.Dict[*configtree.Setting]) error {
	for _, el := range container.ChildrenNamed(tagSetting) {
		name, _ := el.Attr(attrName)
		value := el.Content()
		x.log.Debug("setting defined", "scope", path+"/"+name, "value", value)

		if err := scope.Insert(name, configtree.NewSetting(name, value)); err != nil {
			return scopeError(path, err)
		}
	}
	return nil
}

func (x *extractor) plugins(path string, container *Element, scope *configtree.Dict[*configtree.Plugin]) error {
	for _, el := range container.ChildrenNamed(tagPlugin) {
		name, _ := el.Attr(attrName)
		file, _ := el.Attr(attrFile)
		pluginPath := path + "/" + name
		x.log.Debug("plugin defined", "scope", pluginPath, "file", file)

		plugin := configtree.NewPlugin(name, file)
		if err := x.settings(pluginPath, el.Child(tagSettings), plugin.Settings()); err != nil {
			return err
		}
		if err := x.instances(pluginPath, el.Child(tagInstances), plugin.Instances()); err != nil {
			return err
		}

		if err := scope.Insert(name, plugin); err != nil {
			return scopeError(path, err)
		}
	}
	return nil
}

func (x *extractor) instances(path string, container *Element, scope *configtree.Dict[*configtree.Instance]) error {
	for _, el := range container.ChildrenNamed(tagInstance) {
		name, _ := el.Attr(attrName)
		instancePath := path + "/" + name
		x.log.Debug("instance defined", "scope", instancePath)

		instance := configtree.NewInstance(name)
		if err := x.clientEndPoints(instancePath, el, instance.ClientEndPoints()); err != nil {
			return err
		}
		if err := x.serverEndPoints(instancePath, el, instance.ServerEndPoints()); err != nil {
			return err
		}
		if err := x.settings(instancePath, el.Child(tagSettings), instance.Settings()); err != nil {
			return err
		}

		if err := scope.Insert(name, instance); err != nil {
			return scopeError(path, err)
		}
	}
	return nil
}

// clientEndPoints reads the ClientEndPoint children of an Instance element.
// Endpoints are not wrapped in a container.
func (x *extractor) clientEndPoints(path string, instance *Element, scope *configtree.Dict[*configtree.ClientEndPoint]) error {
	for _, el := range instance.ChildrenNamed(tagClientEndPoint) {
		name, _ := el.Attr(attrName)
		url, _ := el.Attr(attrURL)
		x.log.Debug("client endpoint defined", "scope", path+"/"+name, "url", url)

		if err := scope.Insert(name, configtree.NewClientEndPoint(name, url)); err != nil {
			return scopeError(path, err)
		}
	}
	return nil
}

func (x *extractor) serverEndPoints(path string, instance *Element, scope *configtree.Dict[*configtree.ServerEndPoint]) error {
	for _, el := range instance.ChildrenNamed(tagServerEndPoint) {
		name, _ := el.Attr(attrName)
		url, _ := el.Attr(attrURL)
		x.log.Debug("server endpoint defined", "scope", path+"/"+name, "url", url)

		if err := scope.Insert(name, configtree.NewServerEndPoint(name, url)); err != nil {
			return scopeError(path, err)
		}
	}
	return nil
}

// scopeError prefixes an insert failure with the scope path it occurred in.
func scopeError(path string, err error) error {
	if path == "" {
		path = "/"
	}
	return fmt.Errorf("extracting %s: %w", path, err)
}
