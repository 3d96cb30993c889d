package urltemplate

import "testing"

func TestParse(t *testing.T) {
	tpl, err := Parse("/v1/{version}/dogs/{id}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := tpl.Placeholders()
	if len(got) != 2 || got[0] != "version" || got[1] != "id" {
		t.Fatalf("unexpected placeholders: %v", got)
	}

	tpl, err = Parse("/v1/dogs/{id}/friends/{id}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(tpl.Placeholders()); n != 1 {
		t.Fatalf("duplicate placeholder should collapse, got %d", n)
	}

	for _, malformed := range []string{"/v1/{", "/v1/}", "/v1/{}", "/v1/{1bad}", "/v1/{a{b}}"} {
		if _, err := Parse(malformed); err == nil {
			t.Errorf("Parse(%q) should fail", malformed)
		}
	}
}

func TestExpand(t *testing.T) {
	tpl, err := Parse("/v1/dogs/{id}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := tpl.Expand(map[string]string{"id": "123"})
	if err != nil || out != "/v1/dogs/123" {
		t.Fatalf("got %q, %v", out, err)
	}

	// Path-escaping of arguments.
	out, err = tpl.Expand(map[string]string{"id": "a/b"})
	if err != nil || out != "/v1/dogs/a%2Fb" {
		t.Fatalf("got %q, %v", out, err)
	}

	if _, err := tpl.Expand(nil); err == nil {
		t.Fatal("missing placeholder should fail")
	}
	if _, err := tpl.Expand(map[string]string{"id": ""}); err == nil {
		t.Fatal("empty placeholder value should fail")
	}
}

func TestExpandLenient(t *testing.T) {
	tpl, err := Parse("/v1/{version}/dogs/{id}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := tpl.ExpandLenient(map[string]string{"version": "v2"})
	if out != "/v1/v2/dogs" {
		t.Fatalf("got %q", out)
	}
}
