package dom

// Host page contract. These mirror the chat page's markup and can drift
// without notice; consumers must treat a failed lookup as a no-op.
const (
	AttrTest = "data-test"

	// ClassMessage marks one chat message's content container.
	ClassMessage = "chat-message"
	// ClassMessageItem is the list-item ancestor wrapping a message.
	ClassMessageItem = "message-list-item"
	// ClassModeratorAvatar marks the avatar of a moderator's message.
	ClassModeratorAvatar = "moderator-avatar"

	TestUserName    = "chatUserName"
	TestMessageText = "chatMessageText"
	TestMessageTime = "chatMessageTime"
)

// Classes and flags this system injects into the page.
const (
	ClassModeratorMessage = "wwsnb-moderator-message"
	ClassModBadge         = "wwsnb-mod-badge"

	ClassReactionsContainer = "wwsnb-reactions"
	ClassReactionTrigger    = "wwsnb-reaction-trigger"
	ClassReactionBadge      = "wwsnb-reaction-badge"
	ClassReactionBadgeOwn   = "wwsnb-reaction-badge--own"
	ClassPicker             = "wwsnb-reaction-picker"
	ClassPickerOption       = "wwsnb-reaction-picker-option"

	FlagModChecked   = "wwsnbModChecked"
	FlagHasReactions = "wwsnbHasReactions"
	DataMessageID    = "wwsnbMessageId"
)
