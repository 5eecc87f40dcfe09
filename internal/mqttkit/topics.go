package mqttkit

import "strings"

// Root is the fixed prefix every broker topic is rooted at (spec.md §6).
const Root = "PUBLIC_UNIOT"

// DeviceTopic builds a device-scoped topic:
// PUBLIC_UNIOT/users/{ownerID}/devices/{deviceID}/{sub}.
func DeviceTopic(ownerID, deviceID, sub string) string {
	return Root + "/users/" + ownerID + "/devices/" + deviceID + "/" + sub
}

// GroupTopic builds a group-scoped topic:
// PUBLIC_UNIOT/users/{ownerID}/groups/{groupID}/{sub}.
func GroupTopic(ownerID, groupID, sub string) string {
	return Root + "/users/" + ownerID + "/groups/" + groupID + "/" + sub
}

// PublicTopic builds a root-scoped public topic: PUBLIC_UNIOT/{sub}.
func PublicTopic(sub string) string {
	return Root + "/" + sub
}

// StatusTopic is the retained status/LWT topic for a device.
func StatusTopic(ownerID, deviceID string) string {
	return DeviceTopic(ownerID, deviceID, "status")
}

// EventTopic is where push_event's OUT_EVENT payloads are published,
// broadcast to the owner's "all" group (spec.md §6 "CBOR event payload").
func EventTopic(ownerID, eventID string) string {
	return GroupTopic(ownerID, "all", "event/"+eventID)
}

// MatchesTopicFilter reports whether topic matches an MQTT-style
// subscription filter: "+" matches exactly one level, a trailing "#"
// matches zero or more trailing levels, any other segment must match
// exactly (spec.md §4.J, §8 scenario 3).
func MatchesTopicFilter(filter, topic string) bool {
	filterLevels := strings.Split(filter, "/")
	topicLevels := strings.Split(topic, "/")

	for i, fl := range filterLevels {
		if fl == "#" {
			return i == len(filterLevels)-1
		}
		if i >= len(topicLevels) {
			return false
		}
		if fl == "+" {
			continue
		}
		if fl != topicLevels[i] {
			return false
		}
	}
	return len(filterLevels) == len(topicLevels)
}
