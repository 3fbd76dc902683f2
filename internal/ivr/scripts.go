package ivr

import "foreclosure-voice/internal/hours"

// Spoken lines. Kept together so wording changes never touch routing code.
const (
	openMenuPrompt = "Press 1 for foreclosure assistance information. " +
		"Press 2 to schedule a consultation. " +
		"Press 3 for general information. " +
		"Press 4 to speak with our A I assistant. " +
		"Press 5 to leave a voicemail. " +
		"Or press 0 to speak with a live representative now."

	closedMenuPrompt = "Press 1 for foreclosure assistance information. " +
		"Press 2 for our business hours and location. " +
		"Press 3 for general information. " +
		"Press 4 to speak with our A I assistant for immediate help. " +
		"Press 5 to leave a detailed voicemail, and we will call you back when we open. " +
		"Or press 9 for emergency foreclosure assistance."

	noSelectionTransfer  = "We didn't receive your selection. Transferring you to a representative."
	noSelectionVoicemail = "We didn't receive your selection. Redirecting you to voicemail."

	foreclosureInfo = "For foreclosure assistance, please visit repmotivatedseller dot com " +
		"and fill out our assistance form. Our team will contact you within 24 hours. " +
		"You can also email us at support at repmotivatedseller dot com."

	consultationInfo = "To schedule a free consultation, visit repmotivatedseller dot com slash consultation. " +
		"Or call us during business hours, " + hours.ScheduleSummary + "."

	hoursPromptVoicemail = "Press 5 for voicemail, or any other key to hear this message again."

	generalInfo = "RepMotivatedSeller specializes in helping homeowners facing foreclosure. " +
		"We provide free consultations and guide you through all available options. " +
		"Visit repmotivatedseller dot com for more information."

	aiIntro  = "Great! I'm here to help. Please tell me about your situation, and I'll do my best to assist you."
	aiPrompt = "You can start speaking now."

	emergencyInfo = "For immediate emergency foreclosure assistance, please visit repmotivatedseller dot com slash emergency. " +
		"You can also text the word URGENT to 1-877-806-4677 for priority callback. " +
		"If your foreclosure sale is scheduled within 24 hours, press 5 to leave an urgent voicemail now, " +
		"or visit our website for emergency contact information."
	emergencyPrompt  = "Press 5 to leave an urgent voicemail now."
	emergencyClosing = "Please visit repmotivatedseller dot com for emergency assistance. Thank you for calling. Goodbye."

	invalidSelection = "Invalid selection. Please visit repmotivatedseller dot com or call back."
	goodbye          = "Thank you for calling. Goodbye."

	noSpeech = "I didn't hear anything. Please call back if you need assistance."

	transferIntro = "Let me transfer you to one of our foreclosure specialists. Please hold."
	transferBusy  = "I'm sorry, all our specialists are currently busy. " +
		"Please visit repmotivatedseller dot com or call back during business hours."

	maxTurnsIntro = "I want to make sure you get the best help possible. " +
		"Let me transfer you to one of our specialists who can assist you further."
	aiErrorIntro = "I'm having trouble processing your request. " +
		"Let me transfer you to a specialist who can help you."

	continuePrompt = "Is there anything else I can help you with?"
	aiClosing      = "Thank you for calling RepMotivatedSeller. " +
		"Visit repmotivatedseller dot com for more information. Goodbye."

	technicalDifficulties = "We're experiencing technical difficulties. " +
		"Please visit repmotivatedseller dot com or call back later."

	fallbackGreeting = "Thank you for calling RepMotivatedSeller. " +
		"We are currently experiencing technical difficulties with our automated system. " +
		"Please visit our website at repmotivatedseller dot com, or call us back in a few minutes. " +
		"Thank you for your patience."

	// handoffAck is stored as the assistant side of a turn that ended in a transfer.
	handoffAck = "Transferring to human agent"
)

// Transfer reasons recorded on the call log.
const (
	ReasonCallerRequest = "caller requested a human agent"
	ReasonMaxTurns      = "max conversation turns reached"
	ReasonAIUnavailable = "AI assistant unavailable"
	ReasonMenuTransfer  = "caller pressed 0"
)

func closedHoursInfo(st hours.Status) string {
	return "Our business hours are " + hours.ScheduleSummary + ". " +
		"We are located online at repmotivatedseller dot com. " +
		st.Message + " " +
		"To leave a voicemail, press 5 now, or simply hang up and we will see your missed call."
}
