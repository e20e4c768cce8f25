package logging

import (
	"fmt"
	"sort"
	"strings"

	"github.com/linuxmatters/prosody/internal/prosody"
)

// DeliveryTip represents a single piece of actionable speaking advice
// derived from prosody measurements.
type DeliveryTip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging (e.g., "rate_too_fast")
}

// MaxDeliveryTips is the maximum number of tips to return.
const MaxDeliveryTips = 5

// Delivery thresholds. Speech rate is the estimated words per second.
const (
	fastRate           = 3.5
	slowRate           = 1.5
	monotoneRatio      = 0.25   // f0 range as a fraction of mean f0
	longPauseMean      = 1.5    // s
	unbrokenSpeechMin  = 20.0   // s of audio before a lack of pauses is notable
	mostlySilentRatio  = 0.3    // speech time as a fraction of duration
	jitterNormalLimit  = 0.0104 // 1.04%
	shimmerNormalLimit = 0.0381 // 3.81%
)

// GenerateDeliveryTips analyses a prosody analysis and returns prioritised
// speaking suggestions.
func GenerateDeliveryTips(a *prosody.Analysis) []DeliveryTip {
	if a == nil || a.Record.Duration <= 0 {
		return nil
	}

	var tips []DeliveryTip
	firedRules := make(map[string]bool)

	rules := []func(*prosody.Analysis) *DeliveryTip{
		tipNoVoicing,
		tipMostlySilent,
		tipRateTooFast,
		tipRateTooSlow,
		tipMonotone,
		tipLongPauses,
		tipNoPauses,
		tipHighJitter,
		tipHighShimmer,
	}

	for _, rule := range rules {
		if tip := rule(a); tip != nil {
			tips = append(tips, *tip)
			firedRules[tip.RuleID] = true
		}
	}

	tips = applyExclusions(tips, firedRules)

	// Stable so equal priorities keep rule order
	sort.SliceStable(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})

	if len(tips) > MaxDeliveryTips {
		tips = tips[:MaxDeliveryTips]
	}

	return tips
}

// applyExclusions removes tips that are redundant when a more specific tip
// has already fired. For example, "rate_too_slow" is suppressed when
// "mostly_silent" fires because the latter already explains the former.
func applyExclusions(tips []DeliveryTip, fired map[string]bool) []DeliveryTip {
	var result []DeliveryTip
	for _, tip := range tips {
		switch tip.RuleID {
		case "monotone", "high_jitter", "high_shimmer":
			if fired["no_voicing"] {
				continue
			}
		case "rate_too_slow", "long_pauses":
			if fired["mostly_silent"] {
				continue
			}
		}
		result = append(result, tip)
	}
	return result
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
// Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	words := strings.Fields(text)
	var lines []string
	currentLine := ""

	for _, word := range words {
		if currentLine == "" {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return strings.Join(lines, "\n"+indent)
}

// tipNoVoicing fires when no frame was voiced even though the file has content.
func tipNoVoicing(a *prosody.Analysis) *DeliveryTip {
	if a.Record.F0Mean.Valid {
		return nil
	}
	return &DeliveryTip{
		Priority: 10,
		RuleID:   "no_voicing",
		Message:  "No voiced speech was detected. Check that the file contains speech and that the pitch range suits the speaker.",
	}
}

// tipMostlySilent fires when pauses take up most of the recording.
func tipMostlySilent(a *prosody.Analysis) *DeliveryTip {
	ratio := a.Rhythm.SpeechTime / a.Record.Duration
	if ratio >= mostlySilentRatio {
		return nil
	}
	return &DeliveryTip{
		Priority: 9,
		RuleID:   "mostly_silent",
		Message:  fmt.Sprintf("Only %.0f%% of the recording is speech - trim long silences before analysing, or the rate will be understated.", ratio*100),
	}
}

func tipRateTooFast(a *prosody.Analysis) *DeliveryTip {
	if a.Record.SpeechRate <= fastRate {
		return nil
	}
	return &DeliveryTip{
		Priority: 8,
		RuleID:   "rate_too_fast",
		Message:  fmt.Sprintf("You are speaking quickly (about %.1f words per second). Slowing down a little gives listeners time to follow.", a.Record.SpeechRate),
	}
}

func tipRateTooSlow(a *prosody.Analysis) *DeliveryTip {
	if a.Record.SpeechRate <= 0 || a.Record.SpeechRate >= slowRate {
		return nil
	}
	return &DeliveryTip{
		Priority: 6,
		RuleID:   "rate_too_slow",
		Message:  fmt.Sprintf("Your pace is slow (about %.1f words per second). A slightly brisker delivery can sound more engaged.", a.Record.SpeechRate),
	}
}

// tipMonotone fires when pitch barely moves relative to its mean.
func tipMonotone(a *prosody.Analysis) *DeliveryTip {
	mean, rng := a.Record.F0Mean, a.Record.F0Range
	if !mean.Valid || !rng.Valid || mean.Value <= 0 {
		return nil
	}
	if rng.Value/mean.Value >= monotoneRatio {
		return nil
	}
	return &DeliveryTip{
		Priority: 7,
		RuleID:   "monotone",
		Message:  fmt.Sprintf("Your pitch stays within %.0f Hz. Varying your intonation helps emphasise key points.", rng.Value),
	}
}

func tipLongPauses(a *prosody.Analysis) *DeliveryTip {
	pm := a.Record.PauseMean
	if !pm.Valid || pm.Value <= longPauseMean {
		return nil
	}
	return &DeliveryTip{
		Priority: 6,
		RuleID:   "long_pauses",
		Message:  fmt.Sprintf("Your pauses average %.1f s. Shorter pauses keep the delivery flowing.", pm.Value),
	}
}

// tipNoPauses fires on long recordings with no pause at all.
func tipNoPauses(a *prosody.Analysis) *DeliveryTip {
	if a.Rhythm.PauseCount > 0 || a.Record.Duration < unbrokenSpeechMin {
		return nil
	}
	return &DeliveryTip{
		Priority: 5,
		RuleID:   "no_pauses",
		Message:  "There are no detectable pauses. Brief pauses between ideas give listeners a moment to absorb them.",
	}
}

func tipHighJitter(a *prosody.Analysis) *DeliveryTip {
	j := a.Record.Jitter
	if j == nil || !j.Valid || j.Value <= jitterNormalLimit {
		return nil
	}
	return &DeliveryTip{
		Priority: 4,
		RuleID:   "high_jitter",
		Message:  fmt.Sprintf("Pitch jitter is %.2f%%, above the usual 1.04%% limit. Vocal fatigue or a noisy recording can cause this.", j.Value*100),
	}
}

func tipHighShimmer(a *prosody.Analysis) *DeliveryTip {
	s := a.Record.Shimmer
	if s == nil || !s.Valid || s.Value <= shimmerNormalLimit {
		return nil
	}
	return &DeliveryTip{
		Priority: 4,
		RuleID:   "high_shimmer",
		Message:  fmt.Sprintf("Amplitude shimmer is %.2f%%, above the usual 3.81%% limit. A breathy or strained voice can cause this.", s.Value*100),
	}
}
