package httpapi

import (
	"net/netip"
	"testing"
	"time"
)

func TestIPRateLimiter_DropsIdleBuckets(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	l := newIPRateLimiter(1)
	l.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		if !l.allow(netip.AddrFrom4([4]byte{198, 51, 100, byte(i)}).String()) {
			t.Fatalf("first request from address %d was limited", i)
		}
	}
	if got := l.size(); got != 100 {
		t.Fatalf("size=%d want 100", got)
	}
	if l.allow("198.51.100.0") {
		t.Fatal("second request inside the window was allowed")
	}

	now = now.Add(limiterIdle)
	if !l.allow("203.0.113.9") {
		t.Fatal("request from a new address was limited")
	}
	if got := l.size(); got != 1 {
		t.Fatalf("size after idle sweep=%d want 1", got)
	}
	if !l.allow("198.51.100.0") {
		t.Fatal("bucket did not refill after the idle period")
	}
}

func TestPeerTrusted(t *testing.T) {
	t.Parallel()

	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8"), netip.MustParsePrefix("::1/128")}
	cases := []struct {
		addr string
		want bool
	}{
		{addr: "10.1.2.3:443", want: true},
		{addr: "[::1]:8080", want: true},
		{addr: "[::ffff:10.0.0.1]:80", want: true},
		{addr: "192.0.2.1:1234", want: false},
		{addr: "not-an-ip", want: false},
	}
	for _, tc := range cases {
		if got := peerTrusted(tc.addr, trusted); got != tc.want {
			t.Errorf("peerTrusted(%q)=%v want %v", tc.addr, got, tc.want)
		}
	}
}
