package jobconfig

import (
	"os"
	"strings"
	"testing"

	"github.com/buildkite/interpolate"
	"github.com/google/go-cmp/cmp"
)

func readTemplate(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("testdata/jenkins-job-config.xml")
	if err != nil {
		t.Fatalf("os.ReadFile(testdata/jenkins-job-config.xml) error = %v", err)
	}
	return string(b)
}

func TestPatchReplacesEveryRepoURLMarker(t *testing.T) {
	t.Parallel()

	tmpl := readTemplate(t)
	if got := strings.Count(tmpl, RepoURLPlaceholder); got != 2 {
		t.Fatalf("template has %d repo URL markers, want 2", got)
	}

	got, err := Patch(tmpl, Options{RepoURL: "https://github.com/acme/keycloak.git"})
	if err != nil {
		t.Fatalf("Patch() error = %v", err)
	}

	if strings.Contains(got, RepoURLPlaceholder) {
		t.Errorf("Patch() left a repo URL marker behind:\n%s", got)
	}
	if n := strings.Count(got, "https://github.com/acme/keycloak.git"); n != 2 {
		t.Errorf("Patch() repo URL occurrences = %d, want 2", n)
	}
}

func TestPatchWithoutOverridesIsIdentity(t *testing.T) {
	t.Parallel()

	tmpl := readTemplate(t)

	for _, opts := range []Options{
		{},
		{Branch: DefaultBranch, ScriptPath: DefaultScriptPath},
	} {
		got, err := Patch(tmpl, opts)
		if err != nil {
			t.Fatalf("Patch(%+v) error = %v", opts, err)
		}
		if diff := cmp.Diff(tmpl, got); diff != "" {
			t.Errorf("Patch(%+v) diff (-want +got):\n%s", opts, diff)
		}
	}
}

func TestPatchBranch(t *testing.T) {
	t.Parallel()

	tmpl := readTemplate(t)

	got, err := Patch(tmpl, Options{Branch: "*/main"})
	if err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	if strings.Contains(got, "*/master") {
		t.Errorf("Patch() kept the default branch spec")
	}
	if !strings.Contains(got, "<name>*/main</name>") {
		t.Errorf("Patch() did not write the requested branch spec:\n%s", got)
	}
}

func TestPatchCredentialsAndScriptPath(t *testing.T) {
	t.Parallel()

	tmpl := readTemplate(t)

	got, err := Patch(tmpl, Options{
		CredentialsID: "github-credentials",
		ScriptPath:    "ci/Jenkinsfile.deploy",
	})
	if err != nil {
		t.Fatalf("Patch() error = %v", err)
	}

	if !strings.Contains(got, "<credentialsId>github-credentials</credentialsId>") {
		t.Errorf("Patch() did not substitute the credentials ID")
	}
	if !strings.Contains(got, "<scriptPath>ci/Jenkinsfile.deploy</scriptPath>") {
		t.Errorf("Patch() did not substitute the script path")
	}
	// The repository URL was not overridden, so its marker stays.
	if !strings.Contains(got, RepoURLPlaceholder) {
		t.Errorf("Patch() replaced the repo URL marker without a repo URL")
	}
}

func TestPatchInterpolatesEnv(t *testing.T) {
	t.Parallel()

	tmpl := "<description>Deploys ${APP_NAME:-app} to ${ENVIRONMENT}</description><url>" + RepoURLPlaceholder + "</url>"
	env := interpolate.NewSliceEnv([]string{"ENVIRONMENT=staging"})

	got, err := Patch(tmpl, Options{Env: env, RepoURL: "git@example.com:acme/app.git"})
	if err != nil {
		t.Fatalf("Patch() error = %v", err)
	}

	want := "<description>Deploys app to staging</description><url>git@example.com:acme/app.git</url>"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Patch() diff (-want +got):\n%s", diff)
	}
}

func TestPatchWithoutEnvLeavesVariables(t *testing.T) {
	t.Parallel()

	tmpl := "<script>echo ${BUILD_NUMBER}</script>"
	got, err := Patch(tmpl, Options{})
	if err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	if got != tmpl {
		t.Errorf("Patch() = %q, want %q", got, tmpl)
	}
}
