package client

import (
	"fmt"
	"io"

	"github.com/ezoidc/apiprobe/pkg/models"
	"github.com/fatih/color"
)

var (
	methodColor = color.New(color.Bold)
	okColor     = color.New(color.FgGreen, color.Bold)
	warnColor   = color.New(color.FgYellow, color.Bold)
	failColor   = color.New(color.FgRed, color.Bold)
)

func printRequest(w io.Writer, method, url string) {
	fmt.Fprintf(w, "%s %s\n", methodColor.Sprint(method), url)
}

func printResponse(w io.Writer, r *Response) {
	fmt.Fprintf(w, "Status: %s\n", statusColor(r.StatusCode).Sprint(r.StatusCode))
	fmt.Fprintln(w, "Response:")

	switch b := r.Body.(type) {
	case JSONBody:
		pretty, err := models.Indent(r.Raw)
		if err != nil {
			fmt.Fprintln(w, string(r.Raw))
			return
		}
		fmt.Fprintln(w, string(pretty))
	case TextBody:
		if b.Text == "" {
			fmt.Fprintln(w, "(empty)")
			return
		}
		fmt.Fprintln(w, b.Text)
	}
}

func statusColor(code int) *color.Color {
	switch {
	case code >= 500:
		return failColor
	case code >= 400:
		return warnColor
	case code >= 200 && code < 300:
		return okColor
	}
	return methodColor
}
