package backend

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestLiveChannelURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.example.com", "wss://api.example.com/ws/trading/live/abc"},
		{"http://localhost:8000", "ws://localhost:8000/ws/trading/live/abc"},
		{"https://api.example.com/", "wss://api.example.com/ws/trading/live/abc"},
	}
	for _, tc := range cases {
		l := NewLiveChannel(tc.base, "abc", zerolog.Nop())
		got, err := l.wsURL()
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.base, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.base, got, tc.want)
		}
	}
}

func TestLiveChannelRejectsBadScheme(t *testing.T) {
	l := NewLiveChannel("ftp://api.example.com", "abc", zerolog.Nop())
	if _, err := l.wsURL(); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}
