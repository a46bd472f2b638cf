package provider

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "already e164 passes through",
			in:   "+15551234567",
			want: "+15551234567",
		},
		{
			name: "ten digits gets plus one",
			in:   "5551234567",
			want: "+15551234567",
		},
		{
			name: "eleven digits with leading one gets plus",
			in:   "15551234567",
			want: "+15551234567",
		},
		{
			name: "formatted number is reduced to digits",
			in:   "(555) 123-4567",
			want: "+15551234567",
		},
		{
			name: "dotted number is reduced to digits",
			in:   "555.123.4567",
			want: "+15551234567",
		},
		{
			name: "surrounding whitespace is trimmed",
			in:   "  +15551234567  ",
			want: "+15551234567",
		},
		{
			name: "international length keeps its digits",
			in:   "447911123456",
			want: "+447911123456",
		},
		{
			name: "empty input yields bare plus",
			in:   "",
			want: "+",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeE164(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeE164(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
