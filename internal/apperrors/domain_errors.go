package apperrors

var (
	// Friend workflow
	ErrSelfFriendRequest   = InvalidArg("you can't be friends with yourself")
	ErrAlreadyFriends      = AlreadyExists("already friends")
	ErrDuplicateRequest    = AlreadyExists("an identical friend request is already pending")
	ErrNotFriends          = FailedPrecondition("you're not friends")
	ErrNotRequestRecipient = Forbidden("you're not the receiver of this request")
	ErrNotRequestParty     = Forbidden("you're not a part of this request")
	ErrRequestNotFound     = NotFound("no such friend request found")

	// Conversation / group workflow
	ErrConversationNotFound  = NotFound("no such conversation found")
	ErrNotConversationMember = Forbidden("you're not a part of this conversation")
	ErrNotAGroup             = FailedPrecondition("not a group conversation")
	ErrAlreadyMember         = AlreadyExists("user is already in group")
	ErrNotGroupMember        = NotFound("no such user in group")
	ErrInsufficientMembers   = InvalidArg("not enough recipients")
	ErrDuplicateRecipient    = InvalidArg("duplicates in recipients found")
	ErrMissingTitle          = InvalidArg("no title specified")

	// Message protocol
	ErrMessageNotFound = NotFound("no such message found")
	ErrNotSender       = Forbidden("you're not the sender")
	ErrEmptyContent    = InvalidArg("message content is empty")

	// Attachments
	ErrFileNotFound     = NotFound("no such file found")
	ErrFileInaccessible = Forbidden("this file is not accessible to you")
	ErrNilPayload       = InvalidArg("file payload is empty")
	ErrFileTooLarge     = TooLarge("file too large")
	ErrNotAnImage       = InvalidArg("not an image")

	ErrUserNotFound = NotFound("no such user found")
)

// Persistence wraps a store failure so callers see a single INTERNAL code.
func Persistence(op string, cause error) error {
	return Wrap(CodeInternal, op+" failed", cause)
}
