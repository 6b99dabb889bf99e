package navigator

const (
	labelBrowse      = "📚 Browse notes"
	labelAbout       = "ℹ️ About"
	labelBack        = "🔙 Back"
	labelMainMenu    = "🏠 Main menu"
	labelSubscribe   = "🔔 Subscribe"
	labelUnsubscribe = "🔕 Unsubscribe"

	textWelcome = "👋 Welcome to the course notes bot!\n\nBrowse notes by subject, term, course and instructor, " +
		"subscribe to a course to hear about new notes, and rate the notes you read."
	textAbout = "ℹ️ This bot shares course notes written by students.\n\n" +
		"Pick a subject to drill down to an instructor's notes. Subscribe to a course and you will get a " +
		"message whenever a new note is published for it."

	noticeNoItems        = "🤷 Nothing here yet."
	noticeNotFound       = "❌ That item is no longer available."
	noticeUseButtons     = "👇 Please use the buttons below."
	noticeRateRange      = "⚠️ Please send a rating between 1 and 5."
	noticeError          = "⚠️ Something went wrong, please try again."
	noticeDeliveryFailed = "⚠️ The note could not be sent right now, please try again later."
	noticeSubscribed     = "🔔 You will be notified about new notes for this course."
	noticeUnsubscribed   = "🔕 You will no longer be notified about this course."
	noticeBlocked        = "⛔ Your access to this bot has been suspended."
	noticeRated          = "✅ Thanks for rating! You gave %d⭐. Average is now %.1f⭐ from %d ratings."
)
