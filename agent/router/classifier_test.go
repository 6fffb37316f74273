package router

import (
	"testing"
	"time"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
)

func testConfig() Config {
	return Config{
		ControlWords:  []string{"move", "turn", "stop", "go", "forward", "backward", "left", "right", "play", "speak", "say"},
		WordThreshold: 8,
		CapableTier:   "smart",
	}
}

func msg(text string) contractx.Message {
	return contractx.Message{
		Text:      text,
		SenderID:  "kid",
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestControlVocabularyRoutesFast(t *testing.T) {
	t.Parallel()

	classifier := MustNew(testConfig())

	cases := []string{
		"go forward",
		"GO FORWARD",
		"Stop!",
		"turn left, please.",
		`"stop"`,
		"can you play a song!!!",
	}

	for _, text := range cases {
		t.Run(text, func(t *testing.T) {
			got := classifier.Classify(msg(text))
			if got.Tier != contractx.TierFast {
				t.Fatalf("Classify(%q).Tier = %s, want fast", text, got.Tier)
			}
			if got.Reason != ReasonControlCommand {
				t.Fatalf("Classify(%q).Reason = %q, want %q", text, got.Reason, ReasonControlCommand)
			}
		})
	}
}

func TestShortQuestionRoutesFast(t *testing.T) {
	t.Parallel()

	classifier := MustNew(testConfig())

	cases := []string{
		"why is the sky blue?",
		"where did it land",
		"is it raining?",
	}

	for _, text := range cases {
		t.Run(text, func(t *testing.T) {
			got := classifier.Classify(msg(text))
			if got.Tier != contractx.TierFast {
				t.Fatalf("Classify(%q).Tier = %s, want fast", text, got.Tier)
			}
			if got.Reason != ReasonShortQuestion {
				t.Fatalf("Classify(%q).Reason = %q, want %q", text, got.Reason, ReasonShortQuestion)
			}
		})
	}
}

func TestEscalatesByDefault(t *testing.T) {
	t.Parallel()

	classifier := MustNew(testConfig())

	cases := []string{
		// At/above the threshold with no control match.
		"why does the moon seem to change its shape every single night",
		"tell me everything about volcanoes and dinosaurs and what happened to them",
		// Short but not interrogative.
		"i had a weird dream last night",
	}

	for _, text := range cases {
		t.Run(text, func(t *testing.T) {
			got := classifier.Classify(msg(text))
			if got.Tier != contractx.TierSmart {
				t.Fatalf("Classify(%q).Tier = %s, want smart", text, got.Tier)
			}
			if got.Reason != ReasonEscalated {
				t.Fatalf("Classify(%q).Reason = %q, want %q", text, got.Reason, ReasonEscalated)
			}
		})
	}
}

func TestThresholdIsConfiguration(t *testing.T) {
	t.Parallel()

	// "why is the sky blue?" is 5 words: below a threshold of 8 it rides
	// the fast tier, at a threshold of 3 it escalates.
	question := "why is the sky blue?"

	wide := testConfig()
	wide.WordThreshold = 8
	if got := MustNew(wide).Classify(msg(question)); got.Tier != contractx.TierFast {
		t.Fatalf("threshold 8: Tier = %s, want fast", got.Tier)
	}

	narrow := testConfig()
	narrow.WordThreshold = 3
	if got := MustNew(narrow).Classify(msg(question)); got.Tier != contractx.TierSmart {
		t.Fatalf("threshold 3: Tier = %s, want smart", got.Tier)
	}
}

func TestCapableTierIsConfiguration(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.CapableTier = "cloud"

	got := MustNew(cfg).Classify(msg("explain how rockets steer themselves in space without any air"))
	if got.Tier != contractx.TierCloud {
		t.Fatalf("Tier = %s, want cloud", got.Tier)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	t.Parallel()

	classifier := MustNew(testConfig())
	m := msg("why is the sky blue?")

	first := classifier.Classify(m)
	second := classifier.Classify(m)
	if first != second {
		t.Fatalf("decisions differ: %+v vs %+v", first, second)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty control vocabulary", func(c *Config) { c.ControlWords = nil }},
		{"zero threshold", func(c *Config) { c.WordThreshold = 0 }},
		{"fast cannot be capable", func(c *Config) { c.CapableTier = "fast" }},
		{"unknown tier", func(c *Config) { c.CapableTier = "galaxy" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if _, err := New(cfg); err == nil {
				t.Fatal("expected error but got nil")
			}
		})
	}
}
