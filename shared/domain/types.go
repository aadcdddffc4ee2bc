package domain

type (
	UserId     = int64
	ThreadId   = int64
	PostId     = int64
	LocationId = int64

	PostSubject = string
	PostBody    = string
	Locale      = string
)

// LocationNone is the location of forums that are not attached to an organizational entity.
const LocationNone LocationId = 0
