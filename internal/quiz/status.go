package quiz

// Status is the delivery-side lifecycle of a question.
//
//	Generated -> Delivered -> Answered
//
// Answered is terminal. A delivered question that is never answered stays
// Delivered; no timeout applies.
type Status string

const (
	StatusGenerated Status = "generated"
	StatusDelivered Status = "delivered"
	StatusAnswered  Status = "answered"
)

// DeriveStatus computes the status from recorded facts. An attempt implies
// the question was answered even if its delivery was never recorded (for
// example when answered from the terminal).
func DeriveStatus(delivered bool, attempts int) Status {
	switch {
	case attempts > 0:
		return StatusAnswered
	case delivered:
		return StatusDelivered
	default:
		return StatusGenerated
	}
}
