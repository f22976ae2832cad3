package heuristic

import (
	"testing"

	"github.com/mikey/llm-call-filter/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestClassifyWarrantyRobocall(t *testing.T) {
	result := Classify("Your car warranty is about to expire, press 1 to renew")

	// warranty (+25) and button press (+30) give a score of 55.
	assert.Equal(t, core.MarketingSpam, result.Classification)
	assert.Equal(t, 95.0, result.Confidence)
	assert.Equal(t, core.SourceDeterministicFallback, result.Source)
	assert.Contains(t, result.KeyIndicators, "warranty scam pattern")
	assert.Contains(t, result.KeyIndicators, "robocall button press request")
	assert.Contains(t, result.Reasoning, "55")
}

func TestClassifyEmptyTranscript(t *testing.T) {
	result := Classify("")

	// Score 0: legitimate, confidence clamped into the [60, 95] band.
	assert.Equal(t, core.Legitimate, result.Classification)
	assert.Equal(t, 95.0, result.Confidence)
	assert.Empty(t, result.KeyIndicators)
}

func TestClassifyUrgencyAloneBelowThreshold(t *testing.T) {
	result := Classify("Please respond immediately")

	// Urgency alone scores 20, which does not exceed the threshold.
	assert.Equal(t, core.Legitimate, result.Classification)
	assert.Equal(t, 80.0, result.Confidence)
}

func TestClassifyGovernmentImpersonation(t *testing.T) {
	result := Classify("This is the IRS, there is a warrant for your arrest")

	assert.Equal(t, core.MarketingSpam, result.Classification)
	assert.Equal(t, 85.0, result.Confidence)
	assert.Contains(t, result.KeyIndicators, "government impersonation")
}

func TestClassifyConfidenceAlwaysInBand(t *testing.T) {
	transcripts := []string{
		"",
		"hello there",
		"press 1",
		"urgent warranty expire press 1 irs arrest prize winner",
		"you are the winner of a prize, act immediately, final notice",
	}

	for _, transcript := range transcripts {
		result := Classify(transcript)
		assert.GreaterOrEqual(t, result.Confidence, 60.0, "transcript %q", transcript)
		assert.LessOrEqual(t, result.Confidence, 95.0, "transcript %q", transcript)
	}
}

func TestIndicatorsLegitimateCues(t *testing.T) {
	indicators := Indicators("Hi mom, just checking in before my appointment", core.Legitimate)

	assert.Contains(t, indicators, "family contact")
	assert.Contains(t, indicators, "appointment confirmation")
}

func TestIndicatorsDeliveryAndMedical(t *testing.T) {
	indicators := Indicators("This is Mike from FedEx about a package delivery", core.Legitimate)
	assert.Contains(t, indicators, "delivery notification")

	indicators = Indicators("Calling from Dr. Johnson's clinic", core.Legitimate)
	assert.Contains(t, indicators, "medical/professional")
}

func TestIndicatorsSpamCues(t *testing.T) {
	indicators := Indicators("You won a prize! Press 1 now!", core.MarketingSpam)

	assert.Contains(t, indicators, "fake prize scam")
	assert.Contains(t, indicators, "robocall button press request")
}

func TestClassifyIgnoresEmbeddedTriggerWords(t *testing.T) {
	// "wonderful" must not fire "won" and "first" must not fire "irs".
	result := Classify("What a wonderful day, thanks for returning my first call")

	assert.Equal(t, core.Legitimate, result.Classification)
	assert.Equal(t, 95.0, result.Confidence)
	assert.Empty(t, result.KeyIndicators)
}

func TestIndicatorsWholeWordCues(t *testing.T) {
	// "moment" and "persons" embed "mom" and "son" but are not family cues.
	indicators := Indicators("one moment please, I will check with those persons", core.Legitimate)
	assert.Equal(t, []string{"AI classified as legitimate based on conversational tone"}, indicators)

	indicators = Indicators("you won the grand prize", core.MarketingSpam)
	assert.Contains(t, indicators, "fake prize scam")
}

func TestIndicatorsGenericFallback(t *testing.T) {
	indicators := Indicators("hello, how are you today", core.MarketingSpam)
	assert.Equal(t, []string{"AI classified as spam based on language patterns"}, indicators)

	indicators = Indicators("hello, how are you today", core.Legitimate)
	assert.Equal(t, []string{"AI classified as legitimate based on conversational tone"}, indicators)
}
