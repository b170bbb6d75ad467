package service

// ErrorKind classifies domain errors so the transport can pick a status code.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindPrecondition
	KindValidation
)

// ChallengeError is a domain error. Its message is part of the public contract
// and is returned verbatim to callers.
type ChallengeError struct {
	Kind    ErrorKind
	Message string
}

func (e *ChallengeError) Error() string {
	return e.Message
}

func notFound(msg string) *ChallengeError     { return &ChallengeError{Kind: KindNotFound, Message: msg} }
func precondition(msg string) *ChallengeError { return &ChallengeError{Kind: KindPrecondition, Message: msg} }
func invalid(msg string) *ChallengeError      { return &ChallengeError{Kind: KindValidation, Message: msg} }

// --- Not found ---
var (
	ErrChallengeNotFound           = notFound("Challenge not found.")
	ErrPartNotFound                = notFound("Part not found.")
	ErrAssociatedChallengeNotFound = notFound("Associated challenge not found.")
	ErrPendingRequestNotFound      = notFound("Pending verification request not found for this part and requester.")
	ErrVerificationRequestNotFound = notFound("Verification request not found.")
)

// --- Preconditions ---
var (
	ErrChallengeNotOpen      = precondition("Challenge is not open.")
	ErrUserNotInvited        = precondition("User is not invited to this challenge.")
	ErrUserNotParticipant    = precondition("User is not a participant in this challenge.")
	ErrUserNotAccepted       = precondition("User is not an accepted participant in this challenge.")
	ErrRequesterIsApprover   = precondition("Requester must be distinct from Approver.")
	ErrNotDesignatedApprover = precondition("Only the designated approver can verify this request.")
	ErrEvidenceAccessDenied  = precondition("Only the requester or approver can view this evidence.")
	ErrEvidenceMissing       = precondition("Verification request has no evidence attached.")
)

// --- Validation ---
var (
	ErrInvalidLevel       = invalid("Level must be an integer between 1 and 3.")
	ErrInvalidReps        = invalid("Reps must be a positive integer if provided.")
	ErrInvalidSets        = invalid("Sets must be a positive integer if provided.")
	ErrInvalidWeight      = invalid("Weight must be a positive number if provided.")
	ErrInvalidMinutes     = invalid("Minutes must be a positive number if provided.")
	ErrInvalidFrequency   = invalid("Frequency must be a positive integer.")
	ErrInvalidDuration    = invalid("Duration must be a positive integer.")
	ErrTooManyParts       = invalid("Frequency times duration must not exceed 1000 parts.")
	ErrInvalidExercise    = invalid("Exercise must be a non-empty string.")
	ErrInvalidCreatorType = invalid("Creator type must be User or Group.")
	ErrCreatorRequired    = invalid("Creator is required.")
	ErrInvalidContentType = invalid("Evidence must be an image or video content type.")
)
