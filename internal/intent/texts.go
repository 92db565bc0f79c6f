package intent

const (
	TextNoBookings = "You don't have any bookings scheduled yet. Would you like me to help you schedule something?"

	TextNothingToCancel = "You don't have any bookings to cancel. Would you like me to help you schedule something?"

	TextHelp = `Hello! I'm Schedula, your intelligent scheduling assistant. I can help you:

• Schedule new meetings and appointments
• Show your existing bookings
• Cancel or modify existing bookings
• Check your availability

What would you like me to help you with today? You can say things like:
- "Schedule a meeting tomorrow at 2 PM"
- "Show my bookings"
- "Book Gen AI training from 9 AM to 1 PM on July 8th"`

	TextApology = "I apologize, but I'm experiencing connectivity issues. Please try again in a moment."

	// TextMutationFailed is used when a mutation fails and the intent carried no text of its own.
	TextMutationFailed = "Sorry, I couldn't update your bookings just now. Please try again."

	DefaultTitle = "New Meeting"

	listHeader   = "Here are your upcoming bookings:\n\n"
	listFooter   = "\n\nWould you like me to help you schedule something else or modify any of these?"
	cancelHeader = "Which booking would you like to cancel?\n\n"
	cancelFooter = "\n\nPlease tell me the number or name of the booking you'd like to cancel."

	DateLayout = "1/2/2006"
	TimeLayout = "3:04:05 PM"
)

var suggestions = []string{
	"Show my upcoming bookings",
	"What's my availability tomorrow?",
	"Schedule another meeting",
	"Cancel a booking",
}

var fallbackSuggestions = []string{
	"Try scheduling again",
	"Check my calendar",
	"What can you help me with?",
	"Show my bookings",
}

// Suggestions follow every successful reply.
func Suggestions() []string {
	return append([]string(nil), suggestions...)
}

// FallbackSuggestions accompany TextApology.
func FallbackSuggestions() []string {
	return append([]string(nil), fallbackSuggestions...)
}
