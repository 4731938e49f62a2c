package core

import "strings"

// TopicMatcher determines whether a subscription filter matches a given topic.
type TopicMatcher interface {
	Match(filter string, topic string) bool
}

// DefaultMatcher implements MQTT topic filter matching: exact levels,
// single-level wildcard (+) and multi-level wildcard (#, last level only).
//
//	"forwards/1"   matches "forwards/1"
//	"forwards/+"   matches "forwards/1"
//	"forwards/+"   does NOT match "forwards/1/a"
//	"forwards/#"   matches "forwards/1/a"
//	"forwards/#"   matches "forwards"
//
// Filters starting with a wildcard never match topics beginning with '$'.
type DefaultMatcher struct{}

func (DefaultMatcher) Match(filter, topic string) bool {
	if filter == "" || topic == "" {
		return false
	}
	if strings.HasPrefix(topic, "$") && (filter[0] == '+' || filter[0] == '#') {
		return false
	}

	fParts := strings.Split(filter, "/")
	tParts := strings.Split(topic, "/")

	for i, f := range fParts {
		switch f {
		case "#":
			return i == len(fParts)-1
		case "+":
			if i >= len(tParts) {
				return false
			}
		default:
			if i >= len(tParts) || f != tParts[i] {
				return false
			}
		}
	}
	return len(fParts) == len(tParts)
}
