package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"docgen-api/internal/models"
	"docgen-api/internal/templates"
	apperrors "docgen-api/pkg/errors"
)

// bodyPlaceholder marks where generated markup is spliced into a
// template prelude.
const bodyPlaceholder = "{{body}}"

// defaultPrelude is used when no stored prelude exists for a template id.
const defaultPrelude = `#set page(margin: 2cm)
#set text(font: "Libertinus Serif", size: 10pt)

{{body}}
`

// Renderer produces the final artifact bytes for a document request.
// It resolves the template prelude through the cache, generates the
// body markup and hands the result to the compiler. Uploading the
// artifact is the caller's concern.
type Renderer struct {
	registry *templates.Registry
	cache    *templates.Cache
	compiler *Compiler
}

func NewRenderer(registry *templates.Registry, cache *templates.Cache, compiler *Compiler) *Renderer {
	return &Renderer{registry: registry, cache: cache, compiler: compiler}
}

// Render builds the artifact for the request and returns its bytes
// together with the content type. Excel and CSV reports bypass the
// compiler.
func (r *Renderer) Render(ctx context.Context, req *models.DocumentRequest) ([]byte, string, error) {
	switch req.Format {
	case models.FormatExcel:
		return r.renderTabular(req, WriteReport)
	case models.FormatCSV:
		return r.renderTabular(req, WriteReportCSV)
	}

	markup, err := r.buildMarkup(ctx, req)
	if err != nil {
		return nil, "", err
	}

	pdf, err := r.compiler.Compile(ctx, markup)
	if err != nil {
		return nil, "", apperrors.ErrCompilerFailed.WithError(err)
	}
	return pdf, req.Format.ContentType(), nil
}

// renderTabular handles the spreadsheet formats, which only make sense
// for report payloads.
func (r *Renderer) renderTabular(req *models.DocumentRequest, write func(*models.ReportData) ([]byte, error)) ([]byte, string, error) {
	if req.DocumentType != models.DocumentTypeReport {
		return nil, "", apperrors.ErrValidation.WithMessage(
			fmt.Sprintf("%s output is not supported for document type %q", req.Format, req.DocumentType))
	}
	var data models.ReportData
	if err := json.Unmarshal(req.Data, &data); err != nil {
		return nil, "", apperrors.ErrValidation.WithError(err)
	}
	out, err := write(&data)
	if err != nil {
		return nil, "", apperrors.ErrInternalServer.WithError(err)
	}
	return out, req.Format.ContentType(), nil
}

// buildMarkup assembles the full compiler input for the request.
func (r *Renderer) buildMarkup(ctx context.Context, req *models.DocumentRequest) (string, error) {
	if req.DocumentType.IsCustom() {
		return r.customMarkup(ctx, req)
	}

	gen, templateID, err := r.resolveGenerator(req)
	if err != nil {
		return "", err
	}
	if err := gen.Validate(req.Data); err != nil {
		return "", apperrors.ErrValidation.WithError(err)
	}
	body, err := gen.Generate(req.Data)
	if err != nil {
		return "", apperrors.ErrValidation.WithError(err)
	}

	prelude := defaultPrelude
	if tpl, err := r.cache.Get(ctx, templateID); err == nil {
		prelude = tpl.Content
	} else if !errors.Is(err, templates.ErrTemplateNotFound) {
		return "", apperrors.ErrInternalServer.WithError(err)
	}
	if !strings.Contains(prelude, bodyPlaceholder) {
		prelude = prelude + "\n" + bodyPlaceholder + "\n"
	}
	return strings.Replace(prelude, bodyPlaceholder, body, 1), nil
}

func (r *Renderer) resolveGenerator(req *models.DocumentRequest) (templates.Generator, string, error) {
	if req.TemplateID != "" {
		gen, ok := r.registry.Get(req.TemplateID)
		if !ok {
			return nil, "", apperrors.ErrTemplateNotFound.WithMessage(
				fmt.Sprintf("unknown template %q", req.TemplateID))
		}
		return gen, req.TemplateID, nil
	}
	gen, ok := r.registry.ForType(req.DocumentType)
	if !ok {
		return nil, "", apperrors.ErrValidation.WithMessage(
			fmt.Sprintf("no generator for document type %q", req.DocumentType))
	}
	return gen, gen.TemplateID(), nil
}

// customMarkup renders a "custom:<name>" request. The stored template
// is the whole document; {{key}} markers are replaced with values from
// the request payload.
func (r *Renderer) customMarkup(ctx context.Context, req *models.DocumentRequest) (string, error) {
	name := req.DocumentType.CustomName()
	tpl, err := r.cache.Get(ctx, name)
	if err != nil {
		if errors.Is(err, templates.ErrTemplateNotFound) {
			return "", apperrors.ErrTemplateNotFound.WithMessage(
				fmt.Sprintf("custom template %q not found", name))
		}
		return "", apperrors.ErrInternalServer.WithError(err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(req.Data, &fields); err != nil {
		return "", apperrors.ErrValidation.WithError(err)
	}

	markup := tpl.Content
	for key, raw := range fields {
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			value = string(raw)
		}
		markup = strings.ReplaceAll(markup, "{{"+key+"}}", escapeValue(value))
	}
	return markup, nil
}

func escapeValue(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`#`, `\#`,
		`$`, `\$`,
	)
	return replacer.Replace(s)
}
