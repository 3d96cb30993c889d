package tether

import (
	"errors"
	"testing"
)

func TestParamResolve(t *testing.T) {
	cases := []struct {
		name    string
		param   Param
		value   string
		want    string
		wantErr bool
	}{
		{name: "passthrough", param: Param{Name: "q"}, value: "dogs", want: "dogs"},
		{name: "absent optional", param: Param{Name: "q"}, want: ""},
		{name: "absent required", param: Param{Name: "q", Required: true}, wantErr: true},
		{name: "static default", param: Param{Name: "limit", Default: "10"}, want: "10"},
		{name: "default satisfies required", param: Param{Name: "limit", Default: "10", Required: true}, want: "10"},
		{name: "callback default", param: Param{Name: "v", DefaultFunc: func() string { return "computed" }}, want: "computed"},
		{name: "callback wins over static", param: Param{Name: "v", Default: "static", DefaultFunc: func() string { return "computed" }}, want: "computed"},
		{name: "enum accepts member", param: Param{Name: "order", Enum: []string{"asc", "desc"}}, value: "asc", want: "asc"},
		{name: "enum rejects outsider", param: Param{Name: "order", Enum: []string{"asc", "desc"}}, value: "up", wantErr: true},
		{name: "validator accepts", param: Param{Name: "s", Validate: func(string) error { return nil }}, value: "x", want: "x"},
		{name: "validator rejects", param: Param{Name: "s", Validate: func(string) error { return errors.New("no") }}, value: "x", wantErr: true},
		{name: "default runs through enum", param: Param{Name: "order", Default: "up", Enum: []string{"asc"}}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.param.resolve(tc.value)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
