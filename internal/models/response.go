package models

// ResponseStatus is the outcome class carried by every operation response.
type ResponseStatus int

const (
	StatusPositive ResponseStatus = 1
	StatusNegative ResponseStatus = 2
	StatusError    ResponseStatus = 3
)

func (s ResponseStatus) String() string {
	switch s {
	case StatusPositive:
		return "POSITIVE"
	case StatusNegative:
		return "NEGATIVE"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Returned type names
const (
	TypeBoolean     = "boolean"
	TypeTrip        = "Trip"
	TypePerson      = "Person"
	TypePersonArray = "Person[]"
)

// Response messages
const (
	MsgTripInserted               = "Trip successfully inserted."
	MsgTripStarted                = "Trip successfully started."
	MsgTripAlreadyStarted         = "Trip already started."
	MsgTripFinished               = "Trip successfully finished."
	MsgTripNotFound               = "Trip not found."
	MsgTripFound                  = "Trip found."
	MsgActiveTripNotFound         = "Active trip not found."
	MsgPersonNotFound             = "Person not found."
	MsgPersonFound                = "Person found."
	MsgPositionUpdated            = "Position successfully updated."
	MsgRideRequestsFound          = "Ride requests found."
	MsgRideRequestsNotFound       = "Ride requests not found."
	MsgRideRequestAccepted        = "Ride request accepted."
	MsgRideRequestRefused         = "Ride request refused."
	MsgRideRequestAlreadyAnswered = "Ride request already answered."
	MsgRideRequestNotFound        = "Ride request not found."
)

// Response is the envelope returned by every coordinator operation.
type Response struct {
	Status           ResponseStatus `json:"status"`
	Message          string         `json:"message"`
	ReturnedTypeName string         `json:"returnedTypeName"`
	Value            interface{}    `json:"value"`
}

func Positive(message, typeName string, value interface{}) *Response {
	return &Response{Status: StatusPositive, Message: message, ReturnedTypeName: typeName, Value: value}
}

func Negative(message, typeName string, value interface{}) *Response {
	return &Response{Status: StatusNegative, Message: message, ReturnedTypeName: typeName, Value: value}
}

func ErrorResponse(message string) *Response {
	return &Response{Status: StatusError, Message: message, ReturnedTypeName: TypeBoolean, Value: false}
}

// IsPositive reports whether the operation succeeded.
func (r *Response) IsPositive() bool {
	return r.Status == StatusPositive
}
