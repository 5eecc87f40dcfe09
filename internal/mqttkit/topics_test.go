package mqttkit

import "testing"

func TestMatchesTopicFilterScenario(t *testing.T) {
	// spec.md §8 scenario 3: subscription users/+/devices/d/# matches
	// users/o1/devices/d/status and users/o2/devices/d/script/set but not
	// users/o/groups/g/event/x.
	filter := "users/+/devices/d/#"

	cases := []struct {
		topic string
		want  bool
	}{
		{"users/o1/devices/d/status", true},
		{"users/o2/devices/d/script/set", true},
		{"users/o/groups/g/event/x", false},
	}
	for _, c := range cases {
		if got := MatchesTopicFilter(filter, c.topic); got != c.want {
			t.Errorf("MatchesTopicFilter(%q, %q) = %v, want %v", filter, c.topic, got, c.want)
		}
	}
}

func TestMatchesTopicFilterExactLevelsRequired(t *testing.T) {
	if MatchesTopicFilter("a/b/c", "a/b") {
		t.Error("shorter topic should not match a longer exact filter")
	}
	if MatchesTopicFilter("a/b", "a/b/c") {
		t.Error("longer topic should not match a shorter exact filter without #")
	}
	if !MatchesTopicFilter("a/+/c", "a/b/c") {
		t.Error("+ should match exactly one level")
	}
	if MatchesTopicFilter("a/+/c", "a/b/x/c") {
		t.Error("+ should not match multiple levels")
	}
}

func TestMatchesTopicFilterHashMustBeLast(t *testing.T) {
	if !MatchesTopicFilter("a/#", "a/b/c/d") {
		t.Error("trailing # should match zero or more levels")
	}
	if !MatchesTopicFilter("a/#", "a") {
		t.Error("trailing # should match zero trailing levels")
	}
}

func TestDeviceTopicBuilders(t *testing.T) {
	if got, want := DeviceTopic("o", "d", "status"), "PUBLIC_UNIOT/users/o/devices/d/status"; got != want {
		t.Errorf("DeviceTopic = %q, want %q", got, want)
	}
	if got, want := GroupTopic("o", "all", "event/ping"), "PUBLIC_UNIOT/users/o/groups/all/event/ping"; got != want {
		t.Errorf("GroupTopic = %q, want %q", got, want)
	}
	if got, want := StatusTopic("o", "d"), "PUBLIC_UNIOT/users/o/devices/d/status"; got != want {
		t.Errorf("StatusTopic = %q, want %q", got, want)
	}
	if got, want := EventTopic("o", "ping"), "PUBLIC_UNIOT/users/o/groups/all/event/ping"; got != want {
		t.Errorf("EventTopic = %q, want %q", got, want)
	}
}
