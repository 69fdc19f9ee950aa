package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestFormatLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		metric string
		global map[string]string
		local  map[string]string
		want   string
	}{
		{"plain", "", "auth.attempt", nil, nil, "auth.attempt:1|c"},
		{"prefix", "nlc", "auth.attempt", nil, nil, "nlc.auth.attempt:1|c"},
		{"odd name", "nlc", " visit/transition..count. ", nil, nil, "nlc.visit_transition.count:1|c"},
		{
			"tags merge and sort", "nlc", "auth.attempt",
			map[string]string{"service": "nlcvisits", "method": "ldap"},
			map[string]string{" method ": " simulated ", "": "dropped", "outcome": "success"},
			"nlc.auth.attempt:1|c|#method:simulated,outcome:success,service:nlcvisits",
		},
		{"empty name", "nlc", " . ", nil, nil, ""},
	}
	for _, tt := range tests {
		if got := formatLine(tt.prefix, tt.metric, "1", "c", tt.global, tt.local); got != tt.want {
			t.Fatalf("%s: formatLine = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestClientSendsOverUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer pc.Close()

	client, err := NewClient(Config{
		Address: pc.LocalAddr().String(),
		Prefix:  ".nlc.",
		Tags:    map[string]string{"service": "nlcvisits"},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	client.Timing("auth.duration", 1500*time.Microsecond, map[string]string{"method": "ldap"})

	buf := make([]byte, 512)
	if err := pc.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("deadline: %v", err)
	}
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got, want := string(buf[:n]), "nlc.auth.duration:1.5|ms|#method:ldap,service:nlcvisits"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestClientCloseAndNil(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{conn: clientConn}
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	// Writes after Close are dropped rather than panicking.
	client.Count("visit.transition", 1, nil)

	var nilClient *Client
	nilClient.Count("visit.transition", 1, nil)
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}

func TestNewClientErrors(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{Address: "   "}); err == nil {
		t.Fatal("expected an error for an empty address")
	}
	_, err := NewClient(Config{Address: "bad address"})
	if err == nil || !strings.Contains(err.Error(), "statsd dial") {
		t.Fatalf("unexpected error: %v", err)
	}
}
