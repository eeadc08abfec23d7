package plugins

import (
	"testing"

	"github.com/techjoec/driftbuster/internal/catalog"
)

func detect(t *testing.T, p catalog.Plugin, path, content string) *catalog.Match {
	t.Helper()
	m, err := p.Detect(path, []byte(content), &content)
	if err != nil {
		t.Fatalf("unexpected error from %s: %v", p.Name(), err)
	}
	return m
}

func TestRegisterDefaults_PriorityOrderMatchesCatalog(t *testing.T) {
	reg := catalog.NewRegistry()
	if err := RegisterDefaults(reg); err != nil {
		t.Fatalf("RegisterDefaults: %v", err)
	}
	def := catalog.Default()
	summary := reg.Summary()
	entries := def.Entries()
	if len(summary) != len(entries) {
		t.Fatalf("expected %d plugins, got %d", len(entries), len(summary))
	}
	for i, s := range summary {
		if s.Priority != entries[i].Priority {
			t.Fatalf("plugin %d: priority %d does not match catalog entry priority %d", i, s.Priority, entries[i].Priority)
		}
	}
}

func TestXML_DetectsAppConfig(t *testing.T) {
	content := `<?xml version="1.0"?><configuration><appSettings/></configuration>`
	m := detect(t, XML{}, "app.config", content)
	if m == nil || m.FormatID != "xml" || m.Variant != "app-config" {
		t.Fatalf("unexpected match: %+v", m)
	}
	if m.Metadata["root_tag"] != "configuration" {
		t.Fatalf("expected root_tag metadata, got %+v", m.Metadata)
	}
}

func TestXML_DeclinesNonXML(t *testing.T) {
	content := `{"not":"xml"}`
	m := detect(t, XML{}, "data.json", content)
	if m != nil {
		t.Fatalf("expected decline, got %+v", m)
	}
}

func TestJSON_DetectsAppsettings(t *testing.T) {
	content := `{"Logging":{"Level":"Info"}}`
	m := detect(t, JSON{}, "appsettings.json", content)
	if m == nil || m.FormatID != "json" || m.Variant != "structured-settings-json" {
		t.Fatalf("unexpected match: %+v", m)
	}
	keys, ok := m.Metadata["top_level_keys"].([]string)
	if !ok || len(keys) != 1 || keys[0] != "Logging" {
		t.Fatalf("expected top_level_keys=[Logging], got %+v", m.Metadata)
	}
}

func TestJSON_TopLevelArray(t *testing.T) {
	content := `[1, 2, 3]`
	m := detect(t, JSON{}, "list.json", content)
	if m == nil || m.Metadata["top_level_type"] != "array" {
		t.Fatalf("expected array top_level_type, got %+v", m)
	}
}

func TestJSON_NestedObjectsDoNotCorruptKeyTracking(t *testing.T) {
	content := `{"a":{"nested":1},"b":2,"c":[1,2,{"d":3}]}`
	m := detect(t, JSON{}, "x.json", content)
	keys, _ := m.Metadata["top_level_keys"].([]string)
	if len(keys) != 3 {
		t.Fatalf("expected 3 top-level keys, got %v", keys)
	}
	want := map[string]bool{"a": true, "b": true, "c": true}
	for _, k := range keys {
		if !want[k] {
			t.Fatalf("unexpected key %q in %v", k, keys)
		}
	}
}

func TestINI_DetectsSectionedFile(t *testing.T) {
	content := "[core]\nrepositoryformatversion = 0\nbare = false\n"
	m := detect(t, INI{}, "config.ini", content)
	if m == nil || m.FormatID != "ini" || m.Variant != "sectioned-ini" {
		t.Fatalf("unexpected match: %+v", m)
	}
}

func TestINI_JavaProperties(t *testing.T) {
	content := "db.host: localhost\ndb.port: 5432\n"
	m := detect(t, INI{}, "app.properties", content)
	if m == nil || m.Variant != "java-properties" {
		t.Fatalf("unexpected match: %+v", m)
	}
}

func TestYAML_DetectsDockerCompose(t *testing.T) {
	content := "version: \"3\"\nservices:\n  web:\n    image: nginx\n"
	m := detect(t, YAML{}, "docker-compose.yml", content)
	if m == nil || m.FormatID != "yaml" || m.Variant != "docker-compose" {
		t.Fatalf("unexpected match: %+v", m)
	}
}

func TestTOML_DetectsCargoManifest(t *testing.T) {
	content := "[package]\nname = \"demo\"\n\n[dependencies]\nserde = \"1\"\n"
	m := detect(t, TOML{}, "Cargo.toml", content)
	if m == nil || m.FormatID != "toml" || m.Variant != "cargo-manifest" {
		t.Fatalf("unexpected match: %+v", m)
	}
}

func TestHCL_DetectsTerraformResource(t *testing.T) {
	content := "resource \"aws_instance\" \"web\" {\n  ami = \"abc\"\n}\n"
	m := detect(t, HCL{}, "main.tf", content)
	if m == nil || m.FormatID != "hcl" || m.Variant != "terraform-config" {
		t.Fatalf("unexpected match: %+v", m)
	}
}

func TestConf_DetectsDirectiveList(t *testing.T) {
	content := "Port 22\nPermitRootLogin no\n"
	m := detect(t, Conf{}, "sshd.conf", content)
	if m == nil || m.FormatID != "conf" || m.Variant != "directive-list" {
		t.Fatalf("unexpected match: %+v", m)
	}
}

func TestDockerfile_DetectsMultiStage(t *testing.T) {
	content := "FROM golang:1 AS build\nRUN go build ./...\nFROM scratch\nCOPY --from=build /app /app\n"
	m := detect(t, Dockerfile{}, "Dockerfile", content)
	if m == nil || m.FormatID != "dockerfile" || m.Variant != "multi-stage" {
		t.Fatalf("unexpected match: %+v", m)
	}
}

func TestRegistryLive_DetectsRegedit5(t *testing.T) {
	content := "Windows Registry Editor Version 5.00\n\n[HKEY_CURRENT_USER\\Software\\Test]\n\"Value\"=\"1\"\n"
	m := detect(t, RegistryLive{}, "export.reg", content)
	if m == nil || m.FormatID != "registry-live" || m.Variant != "regedit5" {
		t.Fatalf("unexpected match: %+v", m)
	}
}

func TestText_DotenvVariant(t *testing.T) {
	content := "DATABASE_URL=postgres://localhost\nDEBUG=true\n"
	m := detect(t, Text{}, ".env", content)
	if m == nil || m.Variant != "dotenv" {
		t.Fatalf("unexpected match: %+v", m)
	}
}

func TestText_DeclinesWithoutRecognizedExtension(t *testing.T) {
	content := "just some prose"
	m := detect(t, Text{}, "notes", content)
	if m != nil {
		t.Fatalf("expected decline without a recognized extension, got %+v", m)
	}
}
