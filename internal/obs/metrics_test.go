package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                              "/",
		"/metrics":                      "/metrics",
		"/v1/users/01jx":                "/v1/users/:id",
		"/v1/users/01jx/roles":          "/v1/users/:id/roles",
		"/v1/users/01jx/roles/01jy":     "/v1/users/:id/roles/:id",
		"/v1/roles/01jy/permissions":    "/v1/roles/:id/permissions",
		"/v1/artists/dust-choir":        "/v1/artists/:id",
		"/v1/releases/01jz/tracks":      "/v1/releases/:id/tracks",
		"/v1/pages/about?draft=1":       "/v1/pages/:id",
		"/v1/auth/login":                "/v1/auth/login",
		"/v1/permissions/01k0":          "/v1/permissions/:id",
		"/v1/tokens/abcdef":             "/v1/tokens/:id",
		"/v1/artists/01ja/releases":     "/v1/artists/:id/releases",
		"/v1/artists/01ja/links":        "/v1/artists/:id/links",
		"/v1/links/01jb":                "/v1/links/:id",
		"/v1/ledger/unknown/deep/paths": "/v1/ledger/unknown/deep/paths",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
