package prompt

import (
	"strings"
)

const (
	beginMarker = "--- BEGIN TRANSCRIPT ---"
	endMarker   = "--- END TRANSCRIPT ---"
)

// The two taxonomies are fixed: they are part of the prompt contract that the
// response parser downstream relies on.
const spamIndicators = `Marketing/Spam call indicators:
- Unsolicited sales pitches or offers for products/services not requested
- Scams impersonating the IRS, social security, police or other authorities
- Robocalls asking to "press 1" or another button
- Prize, lottery or sweepstakes notifications
- Pressure tactics, urgency or threats to act now
- Requests for personal or financial information upfront
- Extended warranties, debt reduction or loan offers`

const legitimateIndicators = `Legitimate call indicators:
- Calls from known contacts, family or friends
- Appointment reminders or confirmations from doctors, dentists, etc.
- Delivery notifications from carriers
- Customer service callbacks you requested
- Security alerts from verified institutions directing you to official numbers`

const responseInstructions = `INSTRUCTIONS:
1. Analyze the transcript between the BEGIN/END markers carefully
2. Identify key indicators
3. Classify the call as MARKETING_SPAM or LEGITIMATE
4. Provide a confidence score (0-100)
5. Explain your reasoning briefly

RESPONSE FORMAT (JSON):
{
    "classification": "MARKETING_SPAM" or "LEGITIMATE",
    "confidence": <0-100>,
    "reasoning": "<brief explanation>",
    "key_indicators": ["<indicator1>", "<indicator2>", ...]
}

Respond ONLY with valid JSON in the exact format above, or with the single
classification word if you cannot produce JSON.`

// Build produces the detection prompt for a transcript. Pure function of the
// transcript and the fixed taxonomies.
func Build(transcript string) string {
	var b strings.Builder
	b.WriteString("You are an expert at analyzing phone call transcripts to identify marketing and spam calls.\n\n")
	b.WriteString("Analyze the following call transcript and determine if it is a MARKETING_SPAM call or a LEGITIMATE call.\n\n")
	b.WriteString(spamIndicators)
	b.WriteString("\n\n")
	b.WriteString(legitimateIndicators)
	b.WriteString("\n\nCALL TRANSCRIPT:\n")
	b.WriteString(beginMarker)
	b.WriteString("\n")
	b.WriteString(containTranscript(transcript))
	b.WriteString("\n")
	b.WriteString(endMarker)
	b.WriteString("\n\n")
	b.WriteString(responseInstructions)
	return b.String()
}

// containTranscript neutralizes fence markers inside the untrusted transcript
// so it cannot terminate its own containment block.
func containTranscript(transcript string) string {
	s := strings.ReplaceAll(transcript, beginMarker, "[transcript marker removed]")
	return strings.ReplaceAll(s, endMarker, "[transcript marker removed]")
}
