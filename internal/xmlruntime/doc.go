// Package xmlruntime loads runtime configuration documents into a
// configtree.Configuration.
//
// A document names the configuration on its root element and lists settings
// and plugins; plugins carry settings and instances; instances carry client
// endpoints, server endpoints and settings:
//
//	<Configuration xmlns="urn:graylogic:xmlruntime:1" name="station">
//	  <Settings>
//	    <Setting name="callsign">DF9RY</Setting>
//	  </Settings>
//	  <Plugins>
//	    <Plugin name="kiss" file="libkiss.so">
//	      <Instances>
//	        <Instance name="kiss0">
//	          <ClientEndPoint name="uplink" url="tcp://localhost:8001"/>
//	          <ServerEndPoint name="listen" url="tcp://0.0.0.0:8002"/>
//	        </Instance>
//	      </Instances>
//	    </Plugin>
//	  </Plugins>
//	</Configuration>
//
// # Load Pass
//
// Each Load is one synchronous, all-or-nothing pass:
//
//  1. Read the file (ErrUnreadable on failure).
//  2. Parse it namespace-aware, resolving entity references, including the
//     internal DTD subset's entity declarations.
//  3. Expand xi:include elements (parse="xml" or "text", with xi:fallback).
//  4. Validate the tree against the schema, recording every violation.
//  5. If any error was recorded, fail with *InvalidDocumentError carrying
//     the full diagnostic list (matches ErrDocumentInvalid).
//  6. Extract the configuration depth-first. Each entity's own scopes are
//     filled before it is attached to its parent; a repeated name fails the
//     whole load with configtree.ErrDuplicateKey.
//  7. Freeze and return the tree.
//
// A debug record is logged for every Setting, Plugin, Instance and endpoint
// found, tagged with its scope path ("/plugin/instance/endpoint").
//
// # Schema
//
// The schema is a YAML description (schema/runtime.yaml) compiled once per
// Platform. The default platform is shared process-wide and reference
// counted by the loaders using it; a custom schema gets its own Platform:
//
//	platform := xmlruntime.NewPlatform(schemaYAML)
//	loader, err := xmlruntime.New(xmlruntime.Options{Platform: platform, Logger: log})
//	if err != nil {
//	    return err
//	}
//	defer loader.Close()
//
//	cfg, err := loader.Load("runtime.xml")
//
// Validation is driven by direct children only: a container is looked up
// among its parent's children, never anywhere deeper in the subtree.
package xmlruntime
