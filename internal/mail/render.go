package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/Skotchmaster/library/internal/models"
	"github.com/Skotchmaster/library/internal/service"
)

const dateLayout = "2006-01-02"

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"date": func(v any) string {
		switch t := v.(type) {
		case interface{ Format(string) string }:
			return t.Format(dateLayout)
		default:
			return ""
		}
	},
}).Parse(`<h2>Monthly activity report for {{.User.Username}}</h2>
<table border="1" cellpadding="4">
<tr><th>Book</th><th>Author</th><th>Section</th><th>Issued</th><th>Expiry</th><th>Returned</th><th>Overdue</th></tr>
{{range .Loans}}<tr><td>{{.BookName}}</td><td>{{.Author}}</td><td>{{.SectionName}}</td><td>{{date .IssuedDate}}</td><td>{{date .ExpiryDate}}</td><td>{{if .ReturnDate}}{{date .ReturnDate}}{{else}}-{{end}}</td><td>{{if .Overdue}}yes{{else}}no{{end}}</td></tr>
{{end}}</table>
<p>Generated {{date .GeneratedAt}}</p>`))

func Reminder(u models.User) Message {
	text := fmt.Sprintf("Hello %s, we have not seen you in a while. Come back and visit the library!", u.Username)
	return Message{
		ToName:  u.Username,
		ToEmail: u.Email,
		Subject: "We miss you at the library",
		Text:    text,
		HTML:    "<p>" + template.HTMLEscapeString(text) + "</p>",
	}
}

func Report(r service.UserReport) (Message, error) {
	var html bytes.Buffer
	if err := reportTmpl.Execute(&html, r); err != nil {
		return Message{}, fmt.Errorf("render report: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Monthly activity report for %s\n", r.User.Username)
	for _, l := range r.Loans {
		returned := "-"
		if l.ReturnDate != nil {
			returned = l.ReturnDate.Format(dateLayout)
		}
		fmt.Fprintf(&text, "%s by %s (%s): issued %s, due %s, returned %s, overdue %t\n",
			l.BookName, l.Author, l.SectionName,
			l.IssuedDate.Format(dateLayout), l.ExpiryDate.Format(dateLayout), returned, l.Overdue)
	}

	return Message{
		ToName:  r.User.Username,
		ToEmail: r.User.Email,
		Subject: "Your monthly library report",
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
