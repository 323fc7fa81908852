package main

import "testing"

func TestRun_Usage(t *testing.T) {
	if code := run(nil); code != 1 {
		t.Errorf("Expected exit code 1 without arguments, got %d", code)
	}
	if code := run([]string{"irc", "chan", "hello"}); code != 1 {
		t.Errorf("Expected exit code 1 for unknown platform, got %d", code)
	}
}
