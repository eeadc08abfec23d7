package profile

import (
	"errors"
	"testing"

	"github.com/techjoec/driftbuster/internal/apperr"
)

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func webProfile() Profile {
	return Profile{
		Name: "web-tier",
		Tags: tagSet("role:web", "env:prod"),
		Configs: []ProfileConfig{
			{
				Identifier:     "web-tier/app.config",
				Path:           "app.config",
				Application:    "storefront",
				ExpectedFormat: "xml",
			},
			{
				Identifier:     "web-tier/appsettings",
				PathGlob:       "appsettings*.json",
				Application:    "storefront",
				ExpectedFormat: "json",
			},
		},
	}
}

func TestStore_RegisterAndFindConfig(t *testing.T) {
	s := NewStore()
	must(t, s.RegisterProfile(webProfile()))

	pair, ok := s.FindConfig("web-tier/app.config")
	if !ok {
		t.Fatal("expected config to be found")
	}
	if pair.Profile.Name != "web-tier" || pair.Config.ExpectedFormat != "xml" {
		t.Fatalf("unexpected pair: %+v", pair)
	}
}

func TestStore_RegisterDuplicateNameFails(t *testing.T) {
	s := NewStore()
	must(t, s.RegisterProfile(webProfile()))

	err := s.RegisterProfile(webProfile())
	if !errors.Is(err, apperr.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestStore_RegisterDuplicateConfigIdentifierAcrossProfilesFails(t *testing.T) {
	s := NewStore()
	must(t, s.RegisterProfile(webProfile()))

	clash := Profile{
		Name: "other-tier",
		Configs: []ProfileConfig{
			{Identifier: "web-tier/app.config", Path: "app.config"},
		},
	}
	if err := s.RegisterProfile(clash); err == nil {
		t.Fatal("expected identifier collision error")
	}
	if pair, ok := s.FindConfig("web-tier/app.config"); !ok || pair.Profile.Name != "web-tier" {
		t.Fatal("original config must survive a rejected registration")
	}
}

func TestStore_UpdateProfileReplacesAtomically(t *testing.T) {
	s := NewStore()
	must(t, s.RegisterProfile(webProfile()))

	err := s.UpdateProfile("web-tier", func(p Profile) (Profile, error) {
		p.Configs = append(p.Configs, ProfileConfig{
			Identifier:     "web-tier/web.config",
			Path:           "web.config",
			ExpectedFormat: "xml",
		})
		return p, nil
	})
	must(t, err)

	if _, ok := s.FindConfig("web-tier/web.config"); !ok {
		t.Fatal("expected new config to be present after update")
	}
}

func TestStore_UpdateProfileRollsBackOnValidationFailure(t *testing.T) {
	s := NewStore()
	must(t, s.RegisterProfile(webProfile()))
	must(t, s.RegisterProfile(Profile{Name: "other-tier"}))

	err := s.UpdateProfile("other-tier", func(p Profile) (Profile, error) {
		p.Configs = append(p.Configs, ProfileConfig{Identifier: "web-tier/app.config", Path: "app.config"})
		return p, nil
	})
	if err == nil {
		t.Fatal("expected collision with existing identifier to fail")
	}
	if pair, ok := s.FindConfig("web-tier/app.config"); !ok || pair.Profile.Name != "web-tier" {
		t.Fatal("original owner must be unaffected by the rejected update")
	}
}

func TestStore_UpdateUnknownProfileFails(t *testing.T) {
	s := NewStore()
	err := s.UpdateProfile("ghost", func(p Profile) (Profile, error) { return p, nil })
	if !errors.Is(err, apperr.ErrUnknownProfile) {
		t.Fatalf("expected ErrUnknownProfile, got %v", err)
	}
}

func TestStore_RemoveProfileDropsItsConfigs(t *testing.T) {
	s := NewStore()
	must(t, s.RegisterProfile(webProfile()))
	must(t, s.RemoveProfile("web-tier"))

	if _, ok := s.FindConfig("web-tier/app.config"); ok {
		t.Fatal("expected config to be gone after profile removal")
	}
}

func TestStore_RemoveConfig(t *testing.T) {
	s := NewStore()
	must(t, s.RegisterProfile(webProfile()))
	must(t, s.RemoveConfig("web-tier/app.config"))

	if _, ok := s.FindConfig("web-tier/app.config"); ok {
		t.Fatal("expected config to be removed")
	}
	if _, ok := s.FindConfig("web-tier/appsettings"); !ok {
		t.Fatal("sibling config must survive")
	}
}

func TestStore_RemoveConfigUnknownFails(t *testing.T) {
	s := NewStore()
	err := s.RemoveConfig("nope")
	if !errors.Is(err, apperr.ErrUnknownConfig) {
		t.Fatalf("expected ErrUnknownConfig, got %v", err)
	}
}

func TestStore_ApplicableProfilesRequiresTagSubset(t *testing.T) {
	s := NewStore()
	must(t, s.RegisterProfile(webProfile()))

	if got := s.ApplicableProfiles([]string{"role:web"}); len(got) != 0 {
		t.Fatalf("expected no match with a partial tag set, got %d", len(got))
	}
	got := s.ApplicableProfiles([]string{"role:web", "env:prod", "region:us"})
	if len(got) != 1 || got[0].Name != "web-tier" {
		t.Fatalf("expected web-tier to apply, got %+v", got)
	}
}

func TestStore_MatchingConfigsExactAndGlob(t *testing.T) {
	s := NewStore()
	must(t, s.RegisterProfile(webProfile()))
	tags := []string{"role:web", "env:prod"}

	exact := s.MatchingConfigs(tags, "app.config")
	if len(exact) != 1 || exact[0].Config.Identifier != "web-tier/app.config" {
		t.Fatalf("expected exact path match, got %+v", exact)
	}

	glob := s.MatchingConfigs(tags, "appsettings.Production.json")
	if len(glob) != 1 || glob[0].Config.Identifier != "web-tier/appsettings" {
		t.Fatalf("expected glob match, got %+v", glob)
	}
}

func TestStore_MatchingConfigsNormalizesWindowsSeparators(t *testing.T) {
	s := NewStore()
	must(t, s.RegisterProfile(webProfile()))
	must(t, s.RegisterProfile(Profile{Name: "nested", Configs: []ProfileConfig{{Identifier: "nested/app.config", Path: "conf/app.config"}}}))

	got := s.MatchingConfigs([]string{"role:web", "env:prod"}, `conf\app.config`)
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d", len(got))
	}
}

func TestStore_SuggestConfigOnTypo(t *testing.T) {
	s := NewStore()
	must(t, s.RegisterProfile(webProfile()))

	suggestions := s.SuggestConfig("web-tier/app.confg", 3)
	found := false
	for _, s := range suggestions {
		if s == "web-tier/app.config" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected app.config to be suggested for a near-miss, got %v", suggestions)
	}
}

func TestStore_Summary_OrderedByName(t *testing.T) {
	s := NewStore()
	must(t, s.RegisterProfile(Profile{Name: "zeta"}))
	must(t, s.RegisterProfile(Profile{Name: "alpha"}))

	summary := s.Summary()
	if len(summary) != 2 || summary[0].Name != "alpha" || summary[1].Name != "zeta" {
		t.Fatalf("expected name-ordered summary, got %+v", summary)
	}
}

func TestDiffSummarySnapshots(t *testing.T) {
	s := NewStore()
	must(t, s.RegisterProfile(webProfile()))
	before := s.Summary()

	must(t, s.RegisterProfile(Profile{Name: "db-tier"}))
	must(t, s.RemoveConfig("web-tier/appsettings"))
	after := s.Summary()

	diff := DiffSummarySnapshots(before, after)
	if len(diff.Added) != 1 || diff.Added[0] != "db-tier" {
		t.Fatalf("expected db-tier added, got %+v", diff.Added)
	}
	if len(diff.Changed) != 1 || diff.Changed[0] != "web-tier" {
		t.Fatalf("expected web-tier changed, got %+v", diff.Changed)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	s := NewStore()
	must(t, s.RegisterProfile(webProfile()))

	data, err := ToYAML(s.Summary())
	must(t, err)

	back, err := FromYAML(data)
	must(t, err)
	if len(back) != 1 || back[0].Name != "web-tier" || len(back[0].Configs) != 2 {
		t.Fatalf("unexpected round-trip result: %+v", back)
	}
}
