package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"hash/crc32"
	"html"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	_ "modernc.org/sqlite"

	analyticsAdapter "goaliegen/internal/adapters/analytics"
	"goaliegen/internal/adapters/assembler"
	"goaliegen/internal/adapters/email"
	"goaliegen/internal/adapters/http/metrics"
	storage "goaliegen/internal/adapters/storage"
	analyticsStore "goaliegen/internal/adapters/storage/analytics"
	modalStore "goaliegen/internal/adapters/storage/modal"
	"goaliegen/internal/application/projections"
	"goaliegen/internal/domain/artifact"
	"goaliegen/internal/domain/document"
	"goaliegen/internal/domain/validation"
)

var csrfFieldPattern = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

type failingAssembler struct{}

func (failingAssembler) Assemble(context.Context, document.Request) (artifact.Artifact, error) {
	return artifact.Artifact{}, errors.New("pdf writer exploded")
}

type recordingSender struct {
	sent []email.SendRequest
}

func (s *recordingSender) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	s.sent = append(s.sent, req)
	return email.SendResult{MessageID: "msg-1"}, nil
}

// testApp is a running server plus a cookie-keeping client that does not follow redirects.
type testApp struct {
	t       *testing.T
	srv     *httptest.Server
	client  *http.Client
	modals  *modalStore.MemoryStore
	stats   analyticsStore.Store
	metrics *metrics.Metrics
	token   string
}

func newTestApp(t *testing.T, mutate func(*Deps)) *testApp {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db, ":memory:"); err != nil {
		t.Fatalf("init db: %v", err)
	}
	stats := analyticsStore.NewSQLiteStore(db)
	m := metrics.New()
	modals := modalStore.NewMemoryStore(time.Hour, m.OpenModals)

	d := Deps{
		Modals:    modals,
		Assembler: assembler.New(),
		Recorder:  analyticsAdapter.NewStoreRecorder(stats),
		Stats:     stats,
		Materials: fstest.MapFS{
			"butterfly_fundamentals.pdf": {Data: []byte("%PDF-1.4 butterfly")},
		},
		Metrics: m,
		SiteURL: "https://dev.goaliegen.com/",
		CSRFKey: bytes.Repeat([]byte("k"), 32),
	}
	if mutate != nil {
		mutate(&d)
	}
	RateLimitPerMinute = 1000

	srv := httptest.NewServer(NewMux(d))
	t.Cleanup(srv.Close)
	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testApp{t: t, srv: srv, client: client, modals: modals, stats: stats, metrics: m}
}

func (a *testApp) do(req *http.Request) (*http.Response, string) {
	a.t.Helper()
	if req.Method == http.MethodPost {
		req.Header.Set("Origin", a.srv.URL)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		a.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if m := csrfFieldPattern.FindSubmatch(body); m != nil {
		a.token = html.UnescapeString(string(m[1]))
	}
	return resp, string(body)
}

func (a *testApp) get(path string) (*http.Response, string) {
	a.t.Helper()
	req, _ := http.NewRequest(http.MethodGet, a.srv.URL+path, nil)
	return a.do(req)
}

func (a *testApp) postForm(path string, form url.Values) (*http.Response, string) {
	a.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("gorilla.csrf.Token", a.token)
	req, _ := http.NewRequest(http.MethodPost, a.srv.URL+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

type fileUpload struct {
	name, contentType string
	data              []byte
}

func multipartBody(token string, fields map[string]string, file *fileUpload) (*bytes.Buffer, string) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("gorilla.csrf.Token", token)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		part, _ := mw.CreatePart(h)
		part.Write(file.data)
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

func (a *testApp) postMultipart(path string, fields map[string]string, file *fileUpload) (*http.Response, string) {
	a.t.Helper()
	body, contentType := multipartBody(a.token, fields, file)
	req, _ := http.NewRequest(http.MethodPost, a.srv.URL+path, body)
	req.Header.Set("Content-Type", contentType)
	return a.do(req)
}

// postChunked sends the same form without a Content-Length.
func (a *testApp) postChunked(path string, fields map[string]string, file *fileUpload) (*http.Response, string) {
	a.t.Helper()
	body, contentType := multipartBody(a.token, fields, file)
	req, _ := http.NewRequest(http.MethodPost, a.srv.URL+path, io.MultiReader(body))
	req.Header.Set("Content-Type", contentType)
	return a.do(req)
}

// open starts at the index page and opens a modal, returning its path.
func (a *testApp) open(kind string) string {
	a.t.Helper()
	a.get("/")
	resp, _ := a.postForm("/modals", url.Values{"kind": {kind}})
	if resp.StatusCode != http.StatusSeeOther {
		a.t.Fatalf("open %s: status %d", kind, resp.StatusCode)
	}
	path := resp.Header.Get("Location")
	if resp, _ := a.get(path); resp.StatusCode != http.StatusOK {
		a.t.Fatalf("GET %s: status %d", path, resp.StatusCode)
	}
	return path
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestIndex_ListsKindsAndMaterials(t *testing.T) {
	app := newTestApp(t, nil)
	resp, body := app.get("/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	for _, want := range []string{
		"Download a Drill",
		"Generate Team-Level Development Plan",
		"Generate Development Plan",
		"Goalie Journal",
		`href="/materials/butterfly_fundamentals.pdf"`,
		`<link rel="canonical" href="https://dev.goaliegen.com/">`,
		"<strong>Drills</strong>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if csp := resp.Header.Get("Content-Security-Policy"); csp == "" {
		t.Error("security headers not applied")
	}
}

func TestDrill_GenerateThenDownload(t *testing.T) {
	app := newTestApp(t, nil)
	path := app.open("drill")

	resp, _ := app.postMultipart(path+"/generate", map[string]string{
		"teamName":   "Rivertown U10",
		"ageGroup":   "10u",
		"skillLevel": "beginner",
	}, nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("generate: status %d", resp.StatusCode)
	}

	_, page := app.get(path)
	if !strings.Contains(page, "goalie_drill_10u_beginner.pdf") || !strings.Contains(page, path+"/download") {
		t.Fatalf("generated page has no download link:\n%s", page)
	}

	resp, body := app.get(path + "/download")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download: status %d", resp.StatusCode)
	}
	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	if err != nil || params["filename"] != "goalie_drill_10u_beginner.pdf" {
		t.Errorf("Content-Disposition = %q", resp.Header.Get("Content-Disposition"))
	}
	if resp.Header.Get("Content-Type") != "application/pdf" || !strings.HasPrefix(body, "%PDF") {
		t.Errorf("unexpected payload: %s %.8q", resp.Header.Get("Content-Type"), body)
	}

	if resp, _ := app.get(path + "/download"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("second download: status %d, want 404", resp.StatusCode)
	}

	resp, body = app.get("/api/stats")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats: status %d", resp.StatusCode)
	}
	var stats projections.GetStatsResult
	if err := json.Unmarshal([]byte(body), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("stats total = %d, want 2 (generate + download): %s", stats.Total, body)
	}
}

func TestTeamPlan_InvalidInputReturns422(t *testing.T) {
	app := newTestApp(t, nil)
	path := app.open("team-plan")

	resp, body := app.postMultipart(path+"/generate", map[string]string{
		"teamName":          "",
		"ageGroup":          "12u",
		"skillLevel":        "advanced",
		"numberOfPractices": "51",
	}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422", resp.StatusCode)
	}
	for _, want := range []string{validation.MsgTeamNameRequired, validation.MsgPracticesRange, `value="51"`} {
		if !strings.Contains(body, want) {
			t.Errorf("response missing %q", want)
		}
	}
	// The form stays usable after a rejection.
	resp, _ = app.postMultipart(path+"/generate", map[string]string{
		"teamName": "A/B:C", "ageGroup": "12u", "skillLevel": "advanced", "numberOfPractices": "3",
	}, nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("resubmit: status %d", resp.StatusCode)
	}
	resp, _ = app.get(path + "/download")
	_, params, _ := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	if params["filename"] != "A_B_C_Team_Development_Plan.pdf" {
		t.Errorf("filename = %q", params["filename"])
	}
}

func TestDevelopmentPlan_RejectsNonImage(t *testing.T) {
	app := newTestApp(t, nil)
	path := app.open("development-plan")

	resp, body := app.postMultipart(path+"/generate", map[string]string{"teamName": "Hawks"},
		&fileUpload{name: "notes.txt", contentType: "text/plain", data: []byte("not a logo")})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422", resp.StatusCode)
	}
	if !strings.Contains(body, validation.MsgImageType) {
		t.Errorf("response missing %q", validation.MsgImageType)
	}
	if strings.Contains(body, validation.MsgImageRequired+"</p>") {
		t.Error("rejected upload also reported as missing")
	}
}

func TestDevelopmentPlan_OversizeLogoKeepsForm(t *testing.T) {
	app := newTestApp(t, nil)
	path := app.open("development-plan")
	big := &fileUpload{name: "logo.png", contentType: "image/png", data: bytes.Repeat([]byte{0x89}, 7<<20)}

	for name, post := range map[string]func(string, map[string]string, *fileUpload) (*http.Response, string){
		"declared length": app.postMultipart,
		"chunked":         app.postChunked,
	} {
		resp, body := post(path+"/generate", map[string]string{"teamName": "Hawks"}, big)
		if resp.StatusCode != http.StatusRequestEntityTooLarge {
			t.Fatalf("%s: status %d, want 413", name, resp.StatusCode)
		}
		if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
			t.Errorf("%s: Content-Type = %q", name, resp.Header.Get("Content-Type"))
		}
		if !strings.Contains(body, validation.MsgImageTooLarge) || !strings.Contains(body, path+"/generate") {
			t.Errorf("%s: form with the size problem not shown", name)
		}
	}

	// The re-rendered form carries a working token.
	resp, _ := app.postMultipart(path+"/generate", map[string]string{"teamName": "Hawks"},
		&fileUpload{name: "logo.png", contentType: "image/png", data: pngBytes(t)})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("resubmit: status %d", resp.StatusCode)
	}
}

func TestDevelopmentPlan_RejectsHugeDimensions(t *testing.T) {
	app := newTestApp(t, nil)
	path := app.open("development-plan")

	forged := pngBytes(t)
	binary.BigEndian.PutUint32(forged[16:20], 12000)
	binary.BigEndian.PutUint32(forged[20:24], 12000)
	binary.BigEndian.PutUint32(forged[29:33], crc32.ChecksumIEEE(forged[12:29]))

	resp, body := app.postMultipart(path+"/generate", map[string]string{"teamName": "Hawks"},
		&fileUpload{name: "logo.png", contentType: "image/png", data: forged})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422", resp.StatusCode)
	}
	if !strings.Contains(body, validation.MsgImageDimensions) {
		t.Errorf("response missing %q", validation.MsgImageDimensions)
	}
	if m, _ := app.modals.Get(context.Background(), strings.TrimPrefix(path, "/modals/")); m.Artifact != nil {
		t.Error("artifact generated from a rejected image")
	}
}

func TestDevelopmentPlan_DOCXDownload(t *testing.T) {
	app := newTestApp(t, nil)
	path := app.open("development-plan")

	resp, _ := app.postMultipart(path+"/generate", map[string]string{"teamName": "Hawks"},
		&fileUpload{name: "logo.png", contentType: "image/png", data: pngBytes(t)})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("generate: status %d", resp.StatusCode)
	}
	resp, body := app.get(path + "/download")
	if ct := resp.Header.Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.wordprocessingml.document" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(body, "PK") {
		t.Error("payload is not a zip package")
	}
}

func TestGenerate_AssemblyFailureShowsGenericMessage(t *testing.T) {
	app := newTestApp(t, func(d *Deps) { d.Assembler = failingAssembler{} })
	path := app.open("journal")

	resp, body := app.postMultipart(path+"/generate", map[string]string{"goalieName": "Sam", "teamName": "Hawks"}, nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", resp.StatusCode)
	}
	if !strings.Contains(body, document.GenerationFailedMessage) {
		t.Errorf("response missing the generic message")
	}
	if strings.Contains(body, "exploded") {
		t.Error("internal error leaked to the user")
	}
}

func TestClose_DiscardsModal(t *testing.T) {
	app := newTestApp(t, nil)
	path := app.open("drill")

	resp, _ := app.postForm(path+"/close", nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("close: status %d location %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if resp, _ := app.get(path); resp.StatusCode != http.StatusNotFound {
		t.Errorf("closed modal: status %d, want 404", resp.StatusCode)
	}
}

func TestEmail_SendsArtifact(t *testing.T) {
	sender := &recordingSender{}
	app := newTestApp(t, func(d *Deps) { d.Sender = sender })
	path := app.open("drill")
	app.postMultipart(path+"/generate", map[string]string{"ageGroup": "8u", "skillLevel": "beginner"}, nil)
	app.get(path)

	resp, body := app.postForm(path+"/email", url.Values{"email": {"nope"}})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("bad address: status %d", resp.StatusCode)
	}
	resp, body = app.postForm(path+"/email", url.Values{"email": {"coach@example.com"}})
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "has been sent") {
		t.Fatalf("email: status %d", resp.StatusCode)
	}
	if len(sender.sent) != 1 || sender.sent[0].Attachments[0].FileName != "goalie_drill_8u_beginner.pdf" {
		t.Errorf("unexpected sends: %+v", sender.sent)
	}
	if resp, _ := app.get(path + "/download"); resp.StatusCode != http.StatusOK {
		t.Errorf("download after email: status %d", resp.StatusCode)
	}
}

func TestMaterials(t *testing.T) {
	app := newTestApp(t, nil)
	resp, body := app.get("/materials/butterfly_fundamentals.pdf")
	if resp.StatusCode != http.StatusOK || body != "%PDF-1.4 butterfly" {
		t.Fatalf("material: status %d body %q", resp.StatusCode, body)
	}
	if resp, _ := app.get("/materials/goalie_warm_up_routine.pdf"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing file: status %d", resp.StatusCode)
	}
	if resp, _ := app.get("/materials/secrets.pdf"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown file: status %d", resp.StatusCode)
	}
}

func TestCSRF_RequiredForPosts(t *testing.T) {
	app := newTestApp(t, nil)
	app.get("/")
	app.token = "forged"
	resp, _ := app.postForm("/modals", url.Values{"kind": {"drill"}})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status %d, want 403", resp.StatusCode)
	}
	if app.modals.Len() != 0 {
		t.Error("modal opened without a valid token")
	}
}

func TestOpen_UnknownKind(t *testing.T) {
	app := newTestApp(t, nil)
	app.get("/")
	resp, _ := app.postForm("/modals", url.Values{"kind": {"poster"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, nil)
	app.open("journal")
	resp, body := app.get("/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	for _, want := range []string{
		`goaliegen_http_requests_total{method="POST",route="/modals",status="303"} 1`,
		"goaliegen_modal_open 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestRenderMarkdown_Sanitises(t *testing.T) {
	got := string(renderMarkdown([]byte("[x](javascript:alert(1)) <script>alert(1)</script> **ok**")))
	if strings.Contains(got, "javascript:") || strings.Contains(got, "<script>") {
		t.Errorf("unsafe output: %s", got)
	}
	if !strings.Contains(got, "<strong>ok</strong>") {
		t.Errorf("markdown not rendered: %s", got)
	}
}
