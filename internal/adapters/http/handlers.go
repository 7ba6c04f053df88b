package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/csrf"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"goaliegen/internal/adapters/imaging"
	modalStore "goaliegen/internal/adapters/storage/modal"
	"goaliegen/internal/application/orchestrators"
	"goaliegen/internal/application/projections"
	"goaliegen/internal/domain/artifact"
	"goaliegen/internal/domain/catalog"
	"goaliegen/internal/domain/document"
	"goaliegen/internal/domain/material"
	domainModal "goaliegen/internal/domain/modal"
	"goaliegen/internal/domain/upload"
	"goaliegen/internal/domain/validation"
)

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var sanitizer = bluemonday.UGCPolicy()

// renderMarkdown converts markdown to sanitised HTML.
func renderMarkdown(md []byte) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert(md, &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(string(md)))
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}

var homeIntro = sync.OnceValue(func() template.HTML {
	md, err := templateFS.ReadFile("content/home.md")
	if err != nil {
		slog.Error("home_copy_missing", "error", err)
		return ""
	}
	return renderMarkdown(md)
})

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// page is embedded in every view.
type page struct {
	Title     string
	Canonical string
}

type indexView struct {
	page
	Intro     template.HTML
	Kinds     []catalog.KindInfo
	Materials []material.Material
}

type modalView struct {
	page
	Modal        domainModal.Modal
	AgeGroups    []catalog.AgeGroup
	SkillLevels  []catalog.SkillLevel
	MinPractices int
	MaxPractices int
	EmailEnabled bool
	EmailSent    string
	EmailError   string
}

type errorView struct {
	page
	Message string
}

// renderTemplate renders templateName inside the layout with the given status.
// The page is rendered to a buffer first so a template error never leaves a
// half-written response.
func renderTemplate(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	funcMap := template.FuncMap{
		"csrfField": func() template.HTML { return csrf.TemplateField(r) },
		"problem":   func(p validation.Problems, field string) string { return p.For(field) },
		"hasField":  func(k catalog.KindInfo, field string) bool { return k.HasField(field) },
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	renderTemplate(w, r, status, "error.html", errorView{
		page:    page{Title: http.StatusText(status)},
		Message: msg,
	})
}

func newModalView(m domainModal.Modal) modalView {
	return modalView{
		page:         page{Title: m.Kind.Title},
		Modal:        m,
		AgeGroups:    catalog.AgeGroups,
		SkillLevels:  catalog.SkillLevels,
		MinPractices: document.MinPractices,
		MaxPractices: document.MaxPractices,
		EmailEnabled: deps.Sender != nil,
	}
}

// handleIndex shows one button per document kind and the material list.
func handleIndex(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, http.StatusOK, "index.html", indexView{
		page:      page{Title: "Goalie Resources", Canonical: deps.SiteURL + "/"},
		Intro:     homeIntro(),
		Kinds:     catalog.Kinds,
		Materials: material.Catalogue,
	})
}

// handleOpenModal opens a modal for the posted kind and redirects to it.
func handleOpenModal(w http.ResponseWriter, r *http.Request) {
	m, err := orchestrators.ExecuteOpenModal(r.Context(), orchestrators.OpenModalInput{
		Kind: r.PostFormValue("kind"),
	}, orchestrators.OpenModalDeps{
		Modals:     deps.Modals,
		GenerateID: deps.GenerateID,
		Now:        deps.Now,
	})
	if errors.Is(err, catalog.ErrUnknownKind) {
		renderError(w, r, http.StatusBadRequest, "Unknown document type.")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/modals/"+m.ID, http.StatusSeeOther)
}

// handleModal shows the form, the generating notice or the download button.
func handleModal(w http.ResponseWriter, r *http.Request) {
	m, err := deps.Modals.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, modalStore.ErrNotFound) {
		renderError(w, r, http.StatusNotFound, "This form has expired. Please start again.")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, http.StatusOK, "modal.html", newModalView(m))
}

// readInputs reads the form fields the modal shows. The logo is only read
// when the kind has an image field, and file-level problems are returned
// separately so they can be merged with the field checks.
func readInputs(r *http.Request, kind catalog.KindInfo) (document.Inputs, validation.Problems, error) {
	if err := r.ParseMultipartForm(upload.MaxImageBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return document.Inputs{}, nil, err
	}
	in := document.Inputs{
		TeamName:   r.FormValue(catalog.FieldTeamName),
		GoalieName: r.FormValue(catalog.FieldGoalieName),
		AgeGroup:   r.FormValue(catalog.FieldAgeGroup),
		SkillLevel: r.FormValue(catalog.FieldSkillLevel),
		Practices:  r.FormValue(catalog.FieldPractices),
	}
	if !kind.HasField(catalog.FieldImage) {
		return in, nil, nil
	}

	file, header, err := r.FormFile(catalog.FieldImage)
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, nil
	}
	if err != nil {
		return document.Inputs{}, nil, err
	}
	defer file.Close()

	if header.Size > upload.MaxImageBytes {
		var problems validation.Problems
		problems.Add(catalog.FieldImage, validation.MsgImageTooLarge)
		return in, problems, nil
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return document.Inputs{}, nil, err
	}
	img, problems := upload.NewImage(catalog.FieldImage, header.Filename, header.Header.Get("Content-Type"), data)
	if !problems.Ready() {
		return in, problems, nil
	}
	if _, err := imaging.Inspect(data); errors.Is(err, imaging.ErrTooManyPixels) {
		problems.Add(catalog.FieldImage, validation.MsgImageDimensions)
		return in, problems, nil
	}
	in.Image = &img
	return in, nil, nil
}

// handleGenerate validates the submitted form and generates the document.
func handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	current, err := deps.Modals.Get(ctx, id)
	if errors.Is(err, modalStore.ErrNotFound) {
		renderError(w, r, http.StatusNotFound, "This form has expired. Please start again.")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	in, uploadProblems, err := readInputs(r, current.Kind)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "The form could not be read. Please try again.")
		return
	}

	m, err := orchestrators.ExecuteGenerateDocument(ctx, orchestrators.GenerateDocumentInput{
		ModalID:        id,
		Inputs:         in,
		UploadProblems: uploadProblems,
	}, orchestrators.GenerateDocumentDeps{
		Modals:    deps.Modals,
		Assembler: deps.Assembler,
		Recorder:  deps.Recorder,
		Observer:  observer(),
		Now:       deps.Now,
	})
	switch {
	case err == nil:
		http.Redirect(w, r, "/modals/"+id, http.StatusSeeOther)
	case errors.Is(err, validation.ErrNotReady):
		renderTemplate(w, r, http.StatusUnprocessableEntity, "modal.html", newModalView(m))
	case errors.Is(err, document.ErrGenerationFailed) && m.ID != "":
		renderTemplate(w, r, http.StatusInternalServerError, "modal.html", newModalView(m))
	case errors.Is(err, modalStore.ErrNotFound):
		renderError(w, r, http.StatusNotFound, "This form has expired. Please start again.")
	case errors.Is(err, domainModal.ErrInvalidTransition):
		renderError(w, r, http.StatusConflict, "This document is already being generated.")
	default:
		internalError(w, err)
	}
}

// handleGenerateTooLarge re-renders the form when the upload exceeded the body
// limit. The body was never read, so the previous inputs are kept.
func handleGenerateTooLarge(w http.ResponseWriter, r *http.Request) {
	m, err := deps.Modals.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, modalStore.ErrNotFound) {
		renderError(w, r, http.StatusNotFound, "This form has expired. Please start again.")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	view := newModalView(m)
	view.Modal.Problems = validation.Problems{{Field: catalog.FieldImage, Message: validation.MsgImageTooLarge}}
	renderTemplate(w, r, http.StatusRequestEntityTooLarge, "modal.html", view)
}

// handleDownload streams the generated artifact and discards the modal.
func handleDownload(w http.ResponseWriter, r *http.Request) {
	a, err := orchestrators.ExecuteDownloadArtifact(r.Context(), orchestrators.DownloadArtifactInput{
		ModalID: r.PathValue("id"),
	}, orchestrators.DownloadArtifactDeps{
		Modals:   deps.Modals,
		Recorder: deps.Recorder,
		Observer: observer(),
		Now:      deps.Now,
	})
	switch {
	case errors.Is(err, modalStore.ErrNotFound):
		renderError(w, r, http.StatusNotFound, "This document has already been downloaded or has expired.")
		return
	case errors.Is(err, artifact.ErrMissingArtifact):
		renderError(w, r, http.StatusConflict, "The document has not been generated yet.")
		return
	case err != nil:
		internalError(w, err)
		return
	}
	writeAttachment(w, a.FileName, a.ContentType, a.Data)
}

func writeAttachment(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

// handleEmail mails the artifact without consuming it.
func handleEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	_, err := orchestrators.ExecuteEmailArtifact(ctx, orchestrators.EmailArtifactInput{
		ModalID: id,
		To:      r.PostFormValue("email"),
	}, orchestrators.EmailArtifactDeps{
		Modals: deps.Modals,
		Sender: deps.Sender,
	})

	status := http.StatusOK
	var sent, failure string
	switch {
	case err == nil:
		sent = "The document has been sent."
	case errors.Is(err, orchestrators.ErrEmailDisabled):
		renderError(w, r, http.StatusNotFound, "Email delivery is not available.")
		return
	case errors.Is(err, modalStore.ErrNotFound):
		renderError(w, r, http.StatusNotFound, "This form has expired. Please start again.")
		return
	case errors.Is(err, orchestrators.ErrInvalidAddress):
		status, failure = http.StatusUnprocessableEntity, "Please enter a valid email address."
	case errors.Is(err, artifact.ErrMissingArtifact):
		status, failure = http.StatusConflict, "The document has not been generated yet."
	default:
		status, failure = http.StatusBadGateway, "The email could not be sent. Please try again."
	}

	m, err := deps.Modals.Get(ctx, id)
	if err != nil {
		renderError(w, r, http.StatusNotFound, "This form has expired. Please start again.")
		return
	}
	view := newModalView(m)
	view.EmailSent, view.EmailError = sent, failure
	renderTemplate(w, r, status, "modal.html", view)
}

// handleClose discards the modal and returns to the index.
func handleClose(w http.ResponseWriter, r *http.Request) {
	err := orchestrators.ExecuteCloseModal(r.Context(), orchestrators.CloseModalInput{
		ModalID: r.PathValue("id"),
	}, orchestrators.CloseModalDeps{
		Modals: deps.Modals,
		Now:    deps.Now,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleMaterial serves a pre-made PDF from the materials directory.
func handleMaterial(w http.ResponseWriter, r *http.Request) {
	res, err := orchestrators.ExecuteDownloadMaterial(r.Context(), orchestrators.DownloadMaterialInput{
		FileName: r.PathValue("file"),
	}, orchestrators.DownloadMaterialDeps{
		Files:    deps.Materials,
		Recorder: deps.Recorder,
		Observer: observer(),
	})
	if errors.Is(err, material.ErrUnknownMaterial) || errors.Is(err, fs.ErrNotExist) {
		renderError(w, r, http.StatusNotFound, "That file is not available.")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeAttachment(w, res.Material.FileName, "application/pdf", res.Data)
}

// handleStats returns aggregate analytics counts as JSON.
func handleStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, _ := strconv.Atoi(q.Get("days"))
	recent, _ := strconv.Atoi(q.Get("recent"))

	res, err := projections.QueryGetStats(r.Context(), projections.GetStatsQuery{
		Days:   days,
		Recent: recent,
		Now:    deps.Now(),
	}, projections.GetStatsDeps{Store: deps.Stats})
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("stats_encode_failed", "error", err)
	}
}
