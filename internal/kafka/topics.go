package kafka

// TopicRegistry names the trip planner's Kafka topics. The service
// publishes to TripPlanned only; nothing in this repository publishes to
// the other topics.
type TopicRegistry struct {
	TripPlanned     string
	TripPlanFailed  string
	RoutingDegraded string
}

// Topics is the global topic registry
var Topics = TopicRegistry{
	TripPlanned:     "trips.trip.planned",
	TripPlanFailed:  "trips.trip.plan_failed",
	RoutingDegraded: "trips.routing.degraded",
}

// GetAllTopics returns a list of all topic names
func (t *TopicRegistry) GetAllTopics() []string {
	return []string{
		t.TripPlanned,
		t.TripPlanFailed,
		t.RoutingDegraded,
	}
}
