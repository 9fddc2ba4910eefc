package translate

import "testing"

func TestResolverCandidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClassMap = map[string]string{"b": "Quote", "c": "Title"}
	cfg.TagOverrides = map[string]string{"p": "Body Text"}

	r := NewResolver(cfg)
	got := r.Candidates("p", Attrs{"class": "a c b"})
	if len(got) != 2 {
		t.Fatalf("candidates = %+v", got)
	}
	if got[0] != (Candidate{Style: "Title", Source: FromClass, Key: "c"}) {
		t.Errorf("class candidate = %+v", got[0])
	}
	if got[1] != (Candidate{Style: "Body Text", Source: FromTag, Key: "p"}) {
		t.Errorf("tag candidate = %+v", got[1])
	}
	if got := r.Candidates("div", Attrs{}); len(got) != 0 {
		t.Errorf("unmapped element candidates = %+v", got)
	}
}

func TestResolverFeatures(t *testing.T) {
	tests := []struct {
		name                       string
		styles, styleMap, override bool
		want                       []string
	}{
		{"all enabled", true, true, true, []string{"Quote", "Body Text"}},
		{"class map disabled", true, false, true, []string{"Body Text"}},
		{"tag override disabled", true, true, false, []string{"Quote"}},
		{"styles disabled", false, true, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ClassMap = map[string]string{"b": "Quote"}
			cfg.TagOverrides = map[string]string{"p": "Body Text"}
			cfg.Features.Styles, cfg.Features.StyleMap, cfg.Features.TagOverride = tt.styles, tt.styleMap, tt.override

			got := NewResolver(cfg).Candidates("p", Attrs{"class": "b"})
			if len(got) != len(tt.want) {
				t.Fatalf("candidates = %+v, want %q", got, tt.want)
			}
			for i, c := range got {
				if c.Style != tt.want[i] {
					t.Errorf("candidate %d = %q, want %q", i, c.Style, tt.want[i])
				}
			}
		})
	}
}
