package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gucci-on-fleek/context-wiki-mirror/internal/crawler"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/database"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/git"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/mediawiki"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/model"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/site"
)

// newWikiServer serves a two-page wiki with one image.
func newWikiServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api.php", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("list") != "allpages" {
			http.Error(w, "unexpected query", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"query":{"allpages":[
			{"pageid": 1, "ns": 0, "title": "Main Page"},
			{"pageid": 42, "ns": 0, "title": "Command/framed"}
		]}}`)
	})
	mux.HandleFunc("/index.php", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("curid") {
		case "1":
			fmt.Fprint(w, `<p>welcome <a href="/Command/framed">framed</a><img src="/images/cow.png"></p>`)
		case "42":
			fmt.Fprint(w, `<p>framed command <a href="/Main_Page">home</a></p>`)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/images/cow.png", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		fmt.Fprint(w, "PNG-BYTES")
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

// runMirror executes list/fetch/harvest/rewrite/write against the test
// wiki and returns the report and output directory.
func runMirror(t *testing.T, db *database.StateDB, full bool) (*model.MirrorReport, string) {
	t.Helper()

	server := newWikiServer(t)
	outputDir := t.TempDir()

	client, err := mediawiki.NewClient(server.URL, mediawiki.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	fetcherOpts := []FetcherOption{WithFetchDelay(0)}
	if db != nil {
		fetcherOpts = append(fetcherOpts, WithStateDB(db))
	}

	p := New()
	p.AddSteps(
		NewListPagesStep(client, 0, nil),
		NewFetchPagesStep(NewPageFetcher(client, fetcherOpts...)),
		NewHarvestResourcesStep(crawler.NewHarvester(client.HTTPClient(), crawler.WithDelay(0)), db),
		NewRewriteStep(),
		NewWriteSiteStep(site.NewWriter(outputDir), full),
	)

	report := model.NewMirrorReport(server.URL+"/", "Main Page")
	if err := p.Execute(context.Background(), report); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	return report, outputDir
}

func TestMirrorSteps(t *testing.T) {
	t.Parallel()

	t.Run("full run produces a self-contained tree", func(t *testing.T) {
		t.Parallel()

		report, outputDir := runMirror(t, nil, true)

		if report.PagesListed() != 2 {
			t.Errorf("PagesListed() = %d, want 2", report.PagesListed())
		}
		if report.PagesFetched != 2 || report.PagesFailed != 0 {
			t.Errorf("fetch counters = %d/%d, want 2/0", report.PagesFetched, report.PagesFailed)
		}
		if report.ResourcesFetched != 1 {
			t.Errorf("ResourcesFetched = %d, want 1", report.ResourcesFetched)
		}

		for _, rel := range []string{"Main_Page.html", filepath.Join("Command", "framed.html"), "index.html", "sitemap.xml"} {
			if _, err := os.Stat(filepath.Join(outputDir, rel)); err != nil {
				t.Errorf("missing output file %s: %v", rel, err)
			}
		}

		// No generated page may reference the upstream host
		data, err := os.ReadFile(filepath.Join(outputDir, "Main_Page.html"))
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(string(data), "127.0.0.1") {
			t.Errorf("generated page references upstream host:\n%s", data)
		}
		if !strings.Contains(string(data), `href="Command/framed.html"`) {
			t.Errorf("page link not rewritten:\n%s", data)
		}
		if !strings.Contains(string(data), `src="resources/`) {
			t.Errorf("image not rewritten:\n%s", data)
		}

		if report.FilesWritten == 0 || report.BytesWritten == 0 {
			t.Errorf("stats = %d files / %d bytes", report.FilesWritten, report.BytesWritten)
		}
	})

	t.Run("second run sees unchanged pages", func(t *testing.T) {
		t.Parallel()

		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close()

		first, _ := runMirror(t, db, false)
		if first.PagesUnchanged != 0 {
			t.Errorf("first run unchanged = %d, want 0", first.PagesUnchanged)
		}

		second, outputDir := runMirror(t, db, false)
		if second.PagesUnchanged != 2 {
			t.Errorf("second run unchanged = %d, want 2", second.PagesUnchanged)
		}

		// Incremental run skips rewriting unchanged pages to disk
		if _, err := os.Stat(filepath.Join(outputDir, "Main_Page.html")); !os.IsNotExist(err) {
			t.Error("unchanged page written in incremental mode")
		}
		// But the index is always refreshed
		if _, err := os.Stat(filepath.Join(outputDir, "index.html")); err != nil {
			t.Errorf("index.html missing: %v", err)
		}
	})
}

func TestLoginStep(t *testing.T) {
	t.Parallel()

	t.Run("disabled step is a no-op", func(t *testing.T) {
		t.Parallel()

		client, err := mediawiki.NewClient("https://wiki.test/")
		if err != nil {
			t.Fatal(err)
		}

		step := NewLoginStep(client, false, nil)
		if err := step.Do(context.Background(), nil); err != nil {
			t.Errorf("Do() error = %v", err)
		}
	})

	t.Run("enabled step surfaces login failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		}))
		t.Cleanup(server.Close)

		client, err := mediawiki.NewClient(server.URL,
			mediawiki.WithCredentials("Mirror@bot", "hunter2"))
		if err != nil {
			t.Fatal(err)
		}

		step := NewLoginStep(client, true, nil)
		if err := step.Do(context.Background(), nil); err == nil {
			t.Error("expected login failure to propagate")
		}
	})
}

func TestListPagesStepMaxPages(t *testing.T) {
	t.Parallel()

	server := newWikiServer(t)
	client, err := mediawiki.NewClient(server.URL, mediawiki.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}

	step := NewListPagesStep(client, 1, nil)
	report := model.NewMirrorReport(server.URL+"/", "Main Page")

	if err := step.Do(context.Background(), report); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if report.PagesListed() != 1 {
		t.Errorf("PagesListed() = %d, want 1 (truncated)", report.PagesListed())
	}
	if report.Pages[0].Path != "Main_Page.html" {
		t.Errorf("Path = %q, want Main_Page.html", report.Pages[0].Path)
	}
}

func TestFetchPagesStepRecordsFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := mediawiki.NewClient(server.URL, mediawiki.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}

	report := model.NewMirrorReport(server.URL+"/", "Main Page")
	report.Pages = append(report.Pages, &model.WikiPage{
		PageID: 7, Title: "Broken", Path: "Broken.html", URL: client.RenderURL(7),
	})

	step := NewFetchPagesStep(NewPageFetcher(client, WithFetchDelay(0)))
	if err := step.Do(context.Background(), report); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if report.PagesFailed != 1 {
		t.Errorf("PagesFailed = %d, want 1", report.PagesFailed)
	}
	if len(report.Failures) != 1 || report.Failures[0].Stage != StepFetchPages {
		t.Errorf("Failures = %+v", report.Failures)
	}
}

func TestPublishStep(t *testing.T) {
	t.Parallel()

	t.Run("nil publisher is a no-op", func(t *testing.T) {
		t.Parallel()

		step := NewPublishStep(nil, false, nil)
		report := model.NewMirrorReport("https://wiki.test/", "Main Page")

		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if report.Published {
			t.Error("report marked published without a publisher")
		}
	})

	t.Run("records publish result", func(t *testing.T) {
		t.Parallel()

		runner := &scriptedRunner{hash: "deadbeef"}
		publisher, err := git.NewPublisher(t.TempDir(), "mirror", git.WithRunner(runner))
		if err != nil {
			t.Fatal(err)
		}

		step := NewPublishStep(publisher, true, nil)
		report := model.NewMirrorReport("https://wiki.test/", "Main Page")
		report.PagesFetched = 3

		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v", err)
		}

		if !report.Published || report.CommitHash != "deadbeef" || !report.Pushed {
			t.Errorf("publish state = %v/%q/%v", report.Published, report.CommitHash, report.Pushed)
		}
		if !strings.Contains(runner.commitMessage, "3 pages") {
			t.Errorf("commit message = %q", runner.commitMessage)
		}
	})
}

// scriptedRunner fakes a repository on the mirror branch with staged
// changes, capturing the commit message.
type scriptedRunner struct {
	hash          string
	commitMessage string
}

func (r *scriptedRunner) Execute(_ context.Context, cmd git.Command) (string, error) {
	joined := strings.Join(cmd.Args, " ")
	switch {
	case strings.HasPrefix(joined, "symbolic-ref"):
		return "mirror", nil
	case strings.HasPrefix(joined, "status"):
		return "?? Main_Page.html", nil
	case strings.HasPrefix(joined, "rev-parse HEAD"):
		return r.hash, nil
	case strings.Contains(joined, "commit -m"):
		r.commitMessage = cmd.Args[len(cmd.Args)-1]
		return "", nil
	}
	return "", nil
}
