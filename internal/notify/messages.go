package notify

import (
	"fmt"
	"math/rand/v2"
)

func NotConfigured(name, phone string) string {
	return fmt.Sprintf("⚠️ Telephony not configured. Would call %s (%s)", name, phone)
}

func Calling(name, phone string) string {
	return fmt.Sprintf("📞 Calling: %s (%s)", name, phone)
}

func CallFailedToStart(name, phone string, err error) string {
	return fmt.Sprintf("⚠️ Call failed to initiate: %s (%s). Error: %v", name, phone, err)
}

func CallUnanswered(name, phone string) string {
	return fmt.Sprintf("⚠️ Call failed or unanswered - %s (%s)", name, phone)
}

func CallCompleted(name, phone string, durationSeconds int) string {
	return fmt.Sprintf("✅ Call ended successfully - %s (%s), Duration: %ds", name, phone, durationSeconds)
}

func CallStatusUpdate(name, phone, status string) string {
	return fmt.Sprintf("ℹ️ Call status update - %s (%s): %s", name, phone, status)
}

func CallSummary(name, summary string) string {
	return fmt.Sprintf("📋 Call Summary - %s\n%s", name, summary)
}

func RecordingCaption(name string) string {
	return "Recording - " + name
}

func IngestionComplete(found, added int) string {
	return fmt.Sprintf("🗂️ Directory scan complete - %d results, %d added.", found, added)
}

func IngestionFailed(err error) string {
	return fmt.Sprintf("⚠️ Scheduled directory scan failed: %v", err)
}

var motivators = [...]string{
	"Let's find new opportunities today! 💪",
	"Every call could be the one, go get it! 🌟",
	"Small steps lead to big changes, let's call! 🚀",
	"Positive energy today, new chances await! ✨",
}

// Motivator picks a line uniformly at random.
func Motivator() string {
	return motivators[rand.IntN(len(motivators))]
}

func MorningNotice(callStartHour, targets int, line string) string {
	return fmt.Sprintf(
		"🌅 Good morning!\n"+
			"🤖 The outreach agent is live and ready to start calling.\n"+
			"🕒 Next calls begin at %d:00 local time.\n"+
			"📞 Today's targets: approx %d contacts.\n"+
			"%s",
		callStartHour, targets, line,
	)
}
