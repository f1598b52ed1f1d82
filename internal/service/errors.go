package service

import "errors"

// Validation errors map to HTTP 400.
var (
	ErrInvalidGroupName      = errors.New("group name must be between 1 and 100 characters")
	ErrInvalidMessageContent = errors.New("invalid message content")
	ErrInvalidMessageType    = errors.New("invalid message type")
	ErrInvalidEmoji          = errors.New("invalid emoji")
	ErrInvalidPage           = errors.New("page must be a positive integer")
	ErrEmptyMemberList       = errors.New("member list must not be empty")
	ErrInvalidVoiceFile      = errors.New("invalid voice file")
	ErrVoiceFileTooLarge     = errors.New("voice file exceeds maximum size")
	ErrProjectNotFound       = errors.New("project does not exist")
)

// Not-found errors map to HTTP 404.
var (
	ErrGroupNotFound      = errors.New("group not found")
	ErrMessageNotFound    = errors.New("message not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
)

// Permission errors map to HTTP 403.
var (
	ErrNotGroupMember   = errors.New("user is not a member of this group")
	ErrNotGroupAdmin    = errors.New("only group admins may perform this action")
	ErrAdminRequired    = errors.New("administrator role required")
	ErrDeleteNotAllowed = errors.New("message can no longer be deleted by its sender")
)

// Conflict errors map to HTTP 409.
var (
	ErrReplyTargetNotFound = errors.New("reply target does not exist in this group")
)

// Upstream errors map to HTTP 502.
var (
	ErrSequencerUnavailable = errors.New("message sequencer unavailable")
)
