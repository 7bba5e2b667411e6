package stream

import (
	"fmt"
	"strings"
)

// Topic prefixes for the two deployment variants.
const (
	cloudTopicPrefix = "yl-home"
	localTopicPrefix = "ylsubnet"

	// reportSegment is the literal final topic segment carrying
	// device reports.
	reportSegment = "report"

	// topicSegments is the exact segment count of a report topic:
	// {prefix}/{home_or_net_id}/{device_id}/report.
	topicSegments = 4
)

// HomeTopic returns the wildcard subscription topic for a cloud home.
func HomeTopic(homeID string) string {
	return fmt.Sprintf("%s/%s/+/%s", cloudTopicPrefix, homeID, reportSegment)
}

// SubnetTopic returns the wildcard subscription topic for a local-hub
// subnet.
func SubnetTopic(netID string) string {
	return fmt.Sprintf("%s/%s/+/%s", localTopicPrefix, netID, reportSegment)
}

// deviceIDFromTopic extracts the device id from a report topic.
//
// Only the exact 4-segment shape with a literal "report" tail is
// accepted; anything else reports false and the message is dropped.
func deviceIDFromTopic(topic string) (string, bool) {
	segments := strings.Split(topic, "/")
	if len(segments) != topicSegments || segments[3] != reportSegment {
		return "", false
	}
	return segments[2], true
}

// allowedEvents is the set of event verbs (the last dot-separated
// segment of the envelope's event string) forwarded to resolution.
// Everything else — heartbeats, firmware chatter — is dropped.
var allowedEvents = map[string]bool{
	"Report":       true,
	"Alert":        true,
	"StatusChange": true,
	"getState":     true,
	"setState":     true,
	"DevEvent":     true,
	"WaterReport":  true,
}

// eventVerb extracts the message-type discriminator from an event
// string of the form "{Category}.{Verb}".
func eventVerb(event string) string {
	segments := strings.Split(event, ".")
	return segments[len(segments)-1]
}
