package mqtt

import "strings"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "xmlruntime"

// Topics builds the topics the loader publishes to.
//
//	topics := mqtt.Topics{Prefix: "site1/xmlruntime"}
//	topics.Load("station") // "site1/xmlruntime/load/station"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return strings.TrimSuffix(t.Prefix, "/")
}

// Status returns the tool's online/offline status topic.
//
// Example: xmlruntime/status
func (t Topics) Status() string {
	return t.prefix() + "/status"
}

// Load returns the retained load-outcome topic of one configuration.
//
// Example: xmlruntime/load/station
func (t Topics) Load(name string) string {
	return t.prefix() + "/load/" + TopicSegment(name)
}

// AllLoads returns a pattern matching every load-outcome topic.
//
// Pattern: xmlruntime/load/+
func (t Topics) AllLoads() string {
	return t.prefix() + "/load/+"
}

// TopicSegment makes name safe for use as a single topic level: separators
// and wildcards become underscores, and an empty name becomes "_".
func TopicSegment(name string) string {
	if name == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#', 0:
			return '_'
		}
		return r
	}, name)
}
