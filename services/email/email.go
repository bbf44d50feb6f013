// Package emailsvc renders and sends the portal's transactional mail
// (campusd welcome and password-reset messages).
package emailsvc

import (
	"bytes"
	htmltmpl "html/template"
	"log"
	"net/mail"
	"path/filepath"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	"github.com/campusgate/campusgate/core"
)

var (
	templates tmplCache
	tmplInit  sync.Once
)

type (
	tmplCacheEntry map[string]interface{}    // {ext: *Template}
	tmplCache      map[string]tmplCacheEntry // {name: tmplCacheEntry}

	Message struct {
		To      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// ContextData is handed to every template.
	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// Service is any service that can send emails.
	Service interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*Message)
	}
)

func (m *Message) contextData() ContextData {
	return ContextData{
		FrontendBaseURL: core.Conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
}

// Render fills TextContent/HTMLContent from BodyStr or the named templates.
func (m *Message) Render() error {
	if m.TemplateName != "" {
		tmplInit.Do(parseTemplates)
	}

	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	} else if m.TemplateName != "" {
		entry := templates[m.TemplateName]
		if tmpl, ok := entry[".txt"].(*texttmpl.Template); ok {
			var buff bytes.Buffer
			if err := tmpl.Execute(&buff, m.contextData()); err != nil {
				return errors.Wrap(err, "rendering text template")
			}
			m.TextContent = buff.String()
		}
	}

	if m.TemplateName != "" {
		entry := templates[m.TemplateName]
		if tmpl, ok := entry[".gohtml"].(*htmltmpl.Template); ok {
			var buff bytes.Buffer
			if err := tmpl.Execute(&buff, m.contextData()); err != nil {
				return errors.Wrap(err, "rendering html template")
			}
			m.HTMLContent = buff.String()
		}
	}
	return nil
}

func (m *Message) HasRecipients() bool { return len(m.To) > 0 }
func (m *Message) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

func parseTemplates() {
	templates = make(tmplCache)

	rp := filepath.Join(core.Conf.WorkDir, "assets", "templates", "email")
	fps, err := filepath.Glob(filepath.Join(rp, "*"))
	if err != nil {
		log.Printf("emailsvc.parseTemplates: %v", err)
	}

	for _, fp := range fps {
		fname := filepath.Base(fp)
		ext := filepath.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := fname[:strings.LastIndex(fname, ".")]
		entry, ok := templates[name]
		if !ok {
			templates[name] = make(tmplCacheEntry)
			entry = templates[name]
		}
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFiles(fp)
			if err != nil {
				log.Printf("emailsvc.parseTemplates: %v", err)
				continue
			}
			entry[ext] = tmpl
		} else {
			tmpl, err := htmltmpl.ParseFiles(fp)
			if err != nil {
				log.Printf("emailsvc.parseTemplates: %v", err)
				continue
			}
			entry[ext] = tmpl
		}
	}
}
