package redislist

import "testing"

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "entity only",
			key:  Key{Entity: "albums"},
			want: "catalog:albums",
		},
		{
			name: "entity trimmed",
			key:  Key{Entity: "/artists/"},
			want: "catalog:artists",
		},
		{
			name: "single scope",
			key: Key{
				Entity: "playlists",
				Scope:  map[string]string{"owner": "alice"},
			},
			want: "catalog:playlists:owner=alice",
		},
		{
			name: "multiple scopes (sorted)",
			key: Key{
				Entity: "albums",
				Scope:  map[string]string{"library": "main", "genre": "jazz"},
			},
			want: "catalog:albums:genre=jazz:library=main",
		},
		{
			name: "empty key",
			key:  Key{},
			want: "catalog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_Deterministic(t *testing.T) {
	key := Key{
		Entity: "albums",
		Scope:  map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"},
	}

	first := key.String()
	for i := 0; i < 50; i++ {
		if got := key.String(); got != first {
			t.Fatalf("String() not deterministic: %q != %q", got, first)
		}
	}
}
