package web

import "testing"

func TestMaskKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "long key", key: "sk-abcdefghijklmnop", want: "sk-a****mnop"},
		{name: "short key", key: "sk-12345", want: "****"},
		{name: "empty", key: "", want: "****"},
		{name: "boundary nine chars", key: "123456789", want: "1234****6789"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskKey(tt.key); got != tt.want {
				t.Errorf("maskKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}
