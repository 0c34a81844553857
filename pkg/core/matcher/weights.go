package matcher

// Weights are the scoring constants of the default criteria.
// They encode the business preference for continuity of care over load balancing.
type Weights struct {
	// AffinityBase is added once when the customer has any completed visit with the therapist
	AffinityBase int

	// AffinityPerVisit is added for every completed visit with the therapist
	AffinityPerVisit int

	// WorkloadBase is the workload score of a therapist with no appointments that day
	WorkloadBase int

	// WorkloadPerAppointment is subtracted from WorkloadBase for each appointment that day.
	// The result is floored at zero.
	WorkloadPerAppointment int
}

// DefaultWeights returns the standard scoring constants
func DefaultWeights() Weights {
	return Weights{
		AffinityBase:           100,
		AffinityPerVisit:       10,
		WorkloadBase:           50,
		WorkloadPerAppointment: 10,
	}
}
