package provider

import (
	"context"
	"testing"
)

type stubSender struct {
	name   string
	result SendResult
}

func (s *stubSender) Name() string { return s.name }
func (s *stubSender) Send(ctx context.Context, to, body string) SendResult {
	return s.result
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubSender{name: Twilio})
	r.Register(&stubSender{name: TextGrid})
	r.Register(&stubSender{name: SNS})

	names := r.Names()
	want := []string{Twilio, TextGrid, SNS}
	if len(names) != len(want) {
		t.Fatalf("Names() returned %d entries, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRegistryReRegisterKeepsOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubSender{name: Twilio})
	r.Register(&stubSender{name: TextGrid})
	r.Register(&stubSender{name: Twilio, result: SendResult{Success: true}})

	names := r.Names()
	if len(names) != 2 || names[0] != Twilio || names[1] != TextGrid {
		t.Fatalf("Names() = %v, want [twilio textgrid]", names)
	}

	s, err := r.Get(Twilio)
	if err != nil {
		t.Fatalf("Get(twilio) returned error: %v", err)
	}
	if res := s.Send(context.Background(), "+15551234567", "hi"); !res.Success {
		t.Error("expected replacement sender to be returned")
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("carrier-pigeon"); err == nil {
		t.Error("expected error for unregistered carrier")
	}
	if r.Has("carrier-pigeon") {
		t.Error("Has() should be false for unregistered carrier")
	}
}

func TestCredentialsAvailable(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		carrier string
		want    bool
	}{
		{
			name: "twilio with full credentials",
			creds: Credentials{
				TwilioAccountSID: "AC123",
				TwilioAuthToken:  "secret",
				TwilioFromNumber: "+15550001111",
			},
			carrier: Twilio,
			want:    true,
		},
		{
			name: "twilio missing from number",
			creds: Credentials{
				TwilioAccountSID: "AC123",
				TwilioAuthToken:  "secret",
			},
			carrier: Twilio,
			want:    false,
		},
		{
			name: "textgrid with key and number",
			creds: Credentials{
				TextGridAPIKey:     "tg-key",
				TextGridFromNumber: "+15550002222",
			},
			carrier: TextGrid,
			want:    true,
		},
		{
			name:    "sns needs only a region",
			creds:   Credentials{SNSRegion: "us-east-1"},
			carrier: SNS,
			want:    true,
		},
		{
			name:    "unknown carrier is never available",
			creds:   Credentials{SNSRegion: "us-east-1"},
			carrier: "carrier-pigeon",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.creds.Available(tt.carrier); got != tt.want {
				t.Errorf("Available(%q) = %v, want %v", tt.carrier, got, tt.want)
			}
		})
	}
}
