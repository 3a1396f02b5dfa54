package util

import "testing"

func TestHostPort(t *testing.T) {
	if got := HostPort("localhost", 6379); got != "localhost:6379" {
		t.Fatalf("got %q", got)
	}
	if got := HostPort("::1", 11210); got != "[::1]:11210" {
		t.Fatalf("ipv6 not bracketed: %q", got)
	}
}

func TestValidPort(t *testing.T) {
	for _, p := range []int{1, 6379, 65535} {
		if !ValidPort(p) {
			t.Fatalf("%d should be valid", p)
		}
	}
	for _, p := range []int{0, -1, 65536} {
		if ValidPort(p) {
			t.Fatalf("%d should be invalid", p)
		}
	}
}
