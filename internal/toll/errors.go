package toll

// Kind classifies the ways a toll request can be rejected.
type Kind int

const (
	// KindInvalidPlate rejects plates that are empty or not alphanumeric.
	KindInvalidPlate Kind = iota
	// KindInvalidAction rejects actions other than ENTRY or EXIT.
	KindInvalidAction
	// KindInvalidPoint rejects toll points that are not non-negative integers.
	KindInvalidPoint
	// KindInvalidTransition rejects actions that are legal in themselves but
	// illegal in the plate's current state.
	KindInvalidTransition
	// KindProtocol rejects wire input that never became a request at all.
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindInvalidPlate:
		return "invalid_plate"
	case KindInvalidAction:
		return "invalid_action"
	case KindInvalidPoint:
		return "invalid_point"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// A RequestError is a rejected toll request. Msg is exactly what the client
// sees after the ERROR status on the response line.
type RequestError struct {
	Kind Kind
	Msg  string
}

func (e *RequestError) Error() string { return e.Msg }

var (
	ErrInvalidPlate     = &RequestError{Kind: KindInvalidPlate, Msg: "invalid plate"}
	ErrInvalidAction    = &RequestError{Kind: KindInvalidAction, Msg: "invalid action"}
	ErrInvalidPoint     = &RequestError{Kind: KindInvalidPoint, Msg: "invalid toll point"}
	ErrVehicleInside    = &RequestError{Kind: KindInvalidTransition, Msg: "vehicle already inside"}
	ErrVehicleNotInside = &RequestError{Kind: KindInvalidTransition, Msg: "vehicle not currently inside"}
	ErrMalformedRequest = &RequestError{Kind: KindProtocol, Msg: "invalid request format"}
	ErrRequestTooLong   = &RequestError{Kind: KindProtocol, Msg: "request too long"}
)
